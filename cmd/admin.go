package cmd

import (
	"context"
	"time"

	"whereat-backend/internal/repository"
	"whereat-backend/internal/seed"
	"whereat-backend/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(commandContext(cmd), cfg, true)
		if err != nil {
			return err
		}
		db.Close()
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo users, events, posts and places",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		db, err := openDB(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer db.Close()

		data, err := seed.Default()
		if err != nil {
			return err
		}
		_, err = seed.Apply(ctx, seed.Stores{
			Users:    repository.NewUserRepository(db),
			Profiles: repository.NewProfileRepository(db),
			Events:   repository.NewEventRepository(db),
			Bookings: repository.NewBookingRepository(db),
			Places:   repository.NewPlaceRepository(db),
			Posts:    repository.NewPostRepository(db),
		}, data, time.Now())
		return err
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill-chats",
	Short: "Create group conversations for events that have none",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		db, err := openDB(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer db.Close()

		eventService := services.NewEventService(
			repository.NewEventRepository(db),
			repository.NewProfileRepository(db),
			repository.NewBookingRepository(db),
			repository.NewConversationRepository(db),
			repository.NewUserRepository(db),
			nil,
		)
		created, err := eventService.BackfillConversations(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("created", created).Msg("Event conversations backfilled")
		return nil
	},
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whereat-backend/internal/config"
	"whereat-backend/internal/handlers"
	"whereat-backend/internal/middleware"
	"whereat-backend/internal/repository"
	"whereat-backend/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	RunE:  runServe,
}

// app is the wired server and the resources it must release on shutdown
type app struct {
	handler http.Handler
	hub     *services.Hub
	limiter *middleware.RateLimiter
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	db, err := openDB(ctx, cfg, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := buildApp(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer a.limiter.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("env", cfg.Env).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	a.hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

func buildApp(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (*app, error) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	eventRepo := repository.NewEventRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	postRepo := repository.NewPostRepository(db)
	placeRepo := repository.NewPlaceRepository(db)

	// Realtime delivery
	hub := services.NewHub()
	var pusher services.Pusher
	if cfg.APNs.KeyPath != "" {
		p, err := services.NewAPNsPusher(cfg.APNs.KeyPath, cfg.APNs.KeyID, cfg.APNs.TeamID, cfg.APNs.Topic, cfg.APNs.Production)
		if err != nil {
			return nil, err
		}
		pusher = p
		log.Info().Bool("production", cfg.APNs.Production).Msg("APNs push enabled")
	}
	notifier := services.NewNotifier(hub, pusher, userRepo, nil)

	// Initialize services
	authService := services.NewAuthService(userRepo, profileRepo, cfg.JWT.Secret, cfg.JWT.TTL, cfg.Auth.MockOTP, nil)
	profileService := services.NewProfileService(profileRepo, postRepo, bookingRepo, connectionRepo, nil)
	eventService := services.NewEventService(eventRepo, profileRepo, bookingRepo, conversationRepo, userRepo, nil)
	bookingService := services.NewBookingService(bookingRepo, conversationRepo, nil)
	connectionService := services.NewConnectionService(connectionRepo, userRepo, notifier, nil)
	chatService := services.NewChatService(conversationRepo, userRepo, notifier, nil)
	postService := services.NewPostService(postRepo, placeRepo, nil)
	placeService := services.NewPlaceService(placeRepo, nil)
	feedService := services.NewFeedService(postRepo, eventRepo, profileRepo, connectionRepo, feedOptions(cfg.Feed), nil)

	mediaService, err := services.NewMediaService(ctx, services.MediaConfig{
		Region:        cfg.AWS.Region,
		Bucket:        cfg.AWS.S3Bucket,
		AccessKey:     cfg.AWS.AccessKey,
		SecretKey:     cfg.AWS.SecretKey,
		Endpoint:      cfg.AWS.Endpoint,
		PublicBaseURL: cfg.AWS.PublicBaseURL,
		Expires:       cfg.AWS.PresignTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create media service: %w", err)
	}
	if mediaService == nil {
		log.Warn().Msg("aws.s3_bucket not set, image uploads disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst, 10*time.Minute)

	// Initialize handlers
	router := handlers.NewRouter(handlers.Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.Auth.ExposeDebugOTP || cfg.Env == "dev"),
		Profile:     handlers.NewProfileHandler(profileService),
		Event:       handlers.NewEventHandler(eventService),
		Booking:     handlers.NewBookingHandler(bookingService),
		Connection:  handlers.NewConnectionHandler(connectionService),
		Chat:        handlers.NewChatHandler(chatService),
		Post:        handlers.NewPostHandler(postService),
		Media:       handlers.NewMediaHandler(mediaService),
		Feed:        handlers.NewFeedHandler(feedService),
		Place:       handlers.NewPlaceHandler(placeService),
		Meta:        handlers.NewMetaHandler(db, cfg.Polling.Messages, cfg.Polling.Conversations),
		WebSocket:   handlers.NewWebSocketHandler(hub, authService, cfg.CORS.AllowedOrigins),
		Validator:   authService,
		LoginLimit:  limiter,
		CORSOrigins: cfg.CORS.AllowedOrigins,
	})

	return &app{handler: router, hub: hub, limiter: limiter}, nil
}

func feedOptions(fc config.FeedConfig) services.FeedOptions {
	opts := services.DefaultFeedOptions()
	if fc.PostLimit > 0 {
		opts.PostLimit = fc.PostLimit
	}
	if fc.CommentLimit > 0 {
		opts.CommentLimit = fc.CommentLimit
	}
	if fc.EventWindow > 0 {
		opts.EventWindow = fc.EventWindow
	}
	if fc.EventHighlights > 0 {
		opts.EventHighlights = fc.EventHighlights
	}
	if fc.PlaceHighlights > 0 {
		opts.PlaceHighlights = fc.PlaceHighlights
	}
	if fc.PlaceScanPosts > 0 {
		opts.PlaceScanPosts = fc.PlaceScanPosts
	}
	return opts
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whereat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository handles database operations for events
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `
	e.id, e.title, e.description, e.date_time, e.location_name, e.location_address,
	e.max_seats, e.price, e.image_url, e.status, e.created_by, e.created_at,
	(SELECT COUNT(*) FROM bookings b WHERE b.event_id = e.id)
`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.DateTime, &e.LocationName, &e.LocationAddress,
		&e.MaxSeats, &e.Price, &e.ImageURL, &e.Status, &e.CreatedBy, &e.CreatedAt,
		&e.SeatsBooked,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts an event together with its group conversation.
// When creatorID is non-empty the creator joins the conversation.
func (r *EventRepository) Create(ctx context.Context, event *models.Event, conv *models.Conversation, creatorID string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO events (id, title, description, date_time, location_name, location_address,
			                    max_seats, price, image_url, status, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			event.ID, event.Title, event.Description, event.DateTime, event.LocationName, event.LocationAddress,
			event.MaxSeats, event.Price, event.ImageURL, event.Status, event.CreatedBy, event.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create event: %w", translate(err))
		}
		if conv == nil {
			return nil
		}
		if err := insertConversation(ctx, tx, conv); err != nil {
			return err
		}
		if creatorID == "" {
			return nil
		}
		return insertParticipant(ctx, tx, creatorID, conv.ID, conv.CreatedAt)
	})
}

// GetByID retrieves an event with its booked seat count
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`
	e, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// ListUpcoming returns UPCOMING events dated in [from, to], soonest first.
// A nil to leaves the window open ended; limit <= 0 means no limit.
func (r *EventRepository) ListUpcoming(ctx context.Context, from time.Time, to *time.Time, limit int) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE e.status = 'UPCOMING'
		  AND e.date_time >= $1
		  AND ($2::timestamptz IS NULL OR e.date_time <= $2)
		ORDER BY e.date_time ASC
	`
	args := []any{from, to}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

// Search matches events on title, description or location name
func (r *EventRepository) Search(ctx context.Context, term string, limit int) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE e.title ILIKE '%' || $1 || '%'
		   OR e.description ILIKE '%' || $1 || '%'
		   OR e.location_name ILIKE '%' || $1 || '%'
		ORDER BY e.date_time ASC
		LIMIT $2
	`
	return r.list(ctx, query, term, limit)
}

// ListWithoutConversation returns events that have no EVENT conversation yet
func (r *EventRepository) ListWithoutConversation(ctx context.Context) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE NOT EXISTS (
			SELECT 1 FROM conversations c WHERE c.event_id = e.id AND c.type = 'EVENT'
		)
		ORDER BY e.created_at ASC
	`
	return r.list(ctx, query)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"whereat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingRepository handles database operations for bookings
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

// Book inserts the booking if the event is open and has a free seat.
//
// The event row is locked for the duration of the transaction, so concurrent
// bookers of the same event are serialized and the seat count read below is
// never stale. Returns ErrNotFound, ErrEventClosed, ErrDuplicate, ErrSoldOut
// or ErrUnknownUser.
func (r *BookingRepository) Book(ctx context.Context, booking *models.Booking) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var (
			status   models.EventStatus
			maxSeats int
		)
		err := tx.QueryRow(ctx,
			`SELECT status, max_seats FROM events WHERE id = $1 FOR UPDATE`,
			booking.EventID,
		).Scan(&status, &maxSeats)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("event %s: %w", booking.EventID, ErrNotFound)
			}
			return fmt.Errorf("failed to lock event: %w", err)
		}
		if status != models.EventUpcoming {
			return ErrEventClosed
		}

		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM bookings WHERE user_id = $1 AND event_id = $2)`,
			booking.UserID, booking.EventID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check existing booking: %w", err)
		}
		if exists {
			return ErrDuplicate
		}

		var booked int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM bookings WHERE event_id = $1`,
			booking.EventID,
		).Scan(&booked)
		if err != nil {
			return fmt.Errorf("failed to count bookings: %w", err)
		}
		if booked >= maxSeats {
			return ErrSoldOut
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO bookings (id, user_id, event_id, created_at) VALUES ($1, $2, $3, $4)`,
			booking.ID, booking.UserID, booking.EventID, booking.CreatedAt,
		)
		if err != nil {
			// the event row is locked, so a missing reference is the user
			if err = translate(err); errors.Is(err, ErrNotFound) {
				return ErrUnknownUser
			}
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
}

// Insert records a booking without checking the event state, keeping an
// existing booking of the same user and event. Used for historical data.
func (r *BookingRepository) Insert(ctx context.Context, booking *models.Booking) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bookings (id, user_id, event_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, event_id) DO NOTHING
	`, booking.ID, booking.UserID, booking.EventID, booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", translate(err))
	}
	return nil
}

// Delete removes the booking of a user for an event
func (r *BookingRepository) Delete(ctx context.Context, userID, eventID string) error {
	query := `DELETE FROM bookings WHERE user_id = $1 AND event_id = $2`
	result, err := r.db.Exec(ctx, query, userID, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking: %w", ErrNotFound)
	}
	return nil
}

// ListByUser returns the bookings of a user with their events, newest first
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*models.Booking, error) {
	query := `
		SELECT bk.id, bk.user_id, bk.event_id, bk.created_at, ` + eventColumns + `
		FROM bookings bk
		JOIN events e ON e.id = bk.event_id
		WHERE bk.user_id = $1
		ORDER BY bk.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		var b models.Booking
		var e models.Event
		err := rows.Scan(
			&b.ID, &b.UserID, &b.EventID, &b.CreatedAt,
			&e.ID, &e.Title, &e.Description, &e.DateTime, &e.LocationName, &e.LocationAddress,
			&e.MaxSeats, &e.Price, &e.ImageURL, &e.Status, &e.CreatedBy, &e.CreatedAt,
			&e.SeatsBooked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.Event = &e
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}
	return bookings, nil
}

// UserIDsByEvent returns the users holding a booking for the event
func (r *BookingRepository) UserIDsByEvent(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM bookings WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event bookers: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect event bookers: %w", err)
	}
	return ids, nil
}

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

// ConnectionRepository handles database operations for connections
type ConnectionRepository struct {
	db *pgxpool.Pool
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(db *pgxpool.Pool) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

const connectionColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

func scanConnection(row pgx.Row) (*models.Connection, error) {
	var c models.Connection
	if err := row.Scan(&c.ID, &c.SenderID, &c.ReceiverID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a connection. A second connection for the same unordered pair
// violates connections_pair_idx and returns ErrDuplicate.
func (r *ConnectionRepository) Create(ctx context.Context, c *models.Connection) error {
	query := `
		INSERT INTO connections (id, sender_id, receiver_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, c.ID, c.SenderID, c.ReceiverID, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create connection: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a connection by ID
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`
	c, err := scanConnection(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("connection %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return c, nil
}

// FindBetween returns the connection between two users in either direction
func (r *ConnectionRepository) FindBetween(ctx context.Context, userA, userB string) (*models.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		LIMIT 1
	`
	c, err := scanConnection(r.db.QueryRow(ctx, query, userA, userB))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("connection: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}
	return c, nil
}

// Resolve moves a PENDING connection addressed to receiverID into status.
// It reports false when the connection is no longer pending.
func (r *ConnectionRepository) Resolve(ctx context.Context, id, receiverID string, status models.ConnectionStatus, at time.Time) (bool, error) {
	query := `
		UPDATE connections
		SET status = $1, updated_at = $2
		WHERE id = $3 AND receiver_id = $4 AND status = 'PENDING'
	`
	result, err := r.db.Exec(ctx, query, status, at, id, receiverID)
	if err != nil {
		return false, fmt.Errorf("failed to update connection: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ListBySender returns connections the user sent
func (r *ConnectionRepository) ListBySender(ctx context.Context, userID string) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE sender_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListByReceiver returns connections addressed to the user
func (r *ConnectionRepository) ListByReceiver(ctx context.Context, userID string) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE receiver_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListPending returns PENDING requests addressed to the user with the sender's profile
func (r *ConnectionRepository) ListPending(ctx context.Context, userID string) ([]*models.ConnectionRequest, error) {
	query := `
		SELECT c.id, c.sender_id, c.receiver_id, c.status, c.created_at, c.updated_at,
		       u.phone, p.user_id, p.name, p.age, p.city, p.interests, p.created_at, p.updated_at
		FROM connections c
		JOIN users u ON u.id = c.sender_id
		LEFT JOIN profiles p ON p.user_id = c.sender_id
		WHERE c.receiver_id = $1 AND c.status = 'PENDING'
		ORDER BY c.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending connections: %w", err)
	}
	defer rows.Close()

	var requests []*models.ConnectionRequest
	for rows.Next() {
		var (
			req       models.ConnectionRequest
			pUserID   *string
			pName     *string
			pAge      *int
			pCity     *string
			pInterest []string
			pCreated  *time.Time
			pUpdated  *time.Time
		)
		err := rows.Scan(
			&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt,
			&req.SenderPhone, &pUserID, &pName, &pAge, &pCity, &pInterest, &pCreated, &pUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending connection: %w", err)
		}
		if pUserID != nil {
			req.SenderProfile = &models.Profile{
				UserID:    *pUserID,
				Name:      deref(pName),
				Age:       pAge,
				City:      deref(pCity),
				Interests: pInterest,
				CreatedAt: derefTime(pCreated),
				UpdatedAt: derefTime(pUpdated),
			}
		}
		requests = append(requests, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending connections: %w", err)
	}
	return requests, nil
}

// CountAccepted counts ACCEPTED connections for each of the given users
func (r *ConnectionRepository) CountAccepted(ctx context.Context, userIDs []string) (map[string]int, error) {
	query := `
		SELECT uid, COUNT(*)
		FROM (
			SELECT sender_id AS uid FROM connections WHERE status = 'ACCEPTED' AND sender_id = ANY($1)
			UNION ALL
			SELECT receiver_id AS uid FROM connections WHERE status = 'ACCEPTED' AND receiver_id = ANY($1)
		) s
		GROUP BY uid
	`
	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count connections: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(userIDs))
	for _, id := range userIDs {
		counts[id] = 0
	}
	for rows.Next() {
		var (
			id    string
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan connection count: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connection counts: %w", err)
	}
	return counts, nil
}

func (r *ConnectionRepository) list(ctx context.Context, query string, args ...any) ([]*models.Connection, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}
	return connections, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"whereat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, name, age, city, interests, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.Name, &p.Age, &p.City, &p.Interests, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert creates the profile or replaces its editable fields
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, name, age, city, interests, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name, age = EXCLUDED.age, city = EXCLUDED.city,
		    interests = EXCLUDED.interests, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		profile.UserID, profile.Name, profile.Age, profile.City, profile.Interests, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", translate(err))
	}
	return nil
}

// GetByUserID retrieves the profile of a user
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetByUserIDs returns the profiles of the given users keyed by user ID.
// Users without a profile are absent from the map.
func (r *ProfileRepository) GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*models.Profile, error) {
	out := make(map[string]*models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	profiles, err := r.list(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}

// ListRecent returns the newest profiles, skipping excludeUserID
func (r *ProfileRepository) ListRecent(ctx context.Context, excludeUserID string, limit int) ([]*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE user_id <> $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, excludeUserID, limit)
}

// Search matches profiles by name or city, case-insensitively
func (r *ProfileRepository) Search(ctx context.Context, term string, limit int) ([]*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE name ILIKE '%' || $1 || '%' OR city ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2
	`
	return r.list(ctx, query, term, limit)
}

func (r *ProfileRepository) list(ctx context.Context, query string, args ...any) ([]*models.Profile, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}

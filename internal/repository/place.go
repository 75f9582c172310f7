package repository

import (
	"context"
	"errors"
	"fmt"

	"whereat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaceRepository handles database operations for places and reviews
type PlaceRepository struct {
	db *pgxpool.Pool
}

// NewPlaceRepository creates a new place repository
func NewPlaceRepository(db *pgxpool.Pool) *PlaceRepository {
	return &PlaceRepository{db: db}
}

const placeColumns = `id, name, city, neighborhood, image_url, vibe_tags, rating, created_at`

func scanPlace(row pgx.Row) (*models.Place, error) {
	var p models.Place
	err := row.Scan(&p.ID, &p.Name, &p.City, &p.Neighborhood, &p.ImageURL, &p.VibeTags, &p.Rating, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert inserts a place or refreshes its attributes
func (r *PlaceRepository) Upsert(ctx context.Context, p *models.Place) error {
	query := `
		INSERT INTO places (id, name, city, neighborhood, image_url, vibe_tags, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, city = EXCLUDED.city, neighborhood = EXCLUDED.neighborhood,
		    image_url = EXCLUDED.image_url, vibe_tags = EXCLUDED.vibe_tags, rating = EXCLUDED.rating
	`
	_, err := r.db.Exec(ctx, query, p.ID, p.Name, p.City, p.Neighborhood, p.ImageURL, p.VibeTags, p.Rating, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert place: %w", err)
	}
	return nil
}

// GetByID retrieves a place by ID
func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*models.Place, error) {
	p, err := scanPlace(r.db.QueryRow(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("place %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return p, nil
}

// List returns all places, best rated first
func (r *PlaceRepository) List(ctx context.Context) ([]*models.Place, error) {
	rows, err := r.db.Query(ctx, `SELECT `+placeColumns+` FROM places ORDER BY rating DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	defer rows.Close()

	var places []*models.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating places: %w", err)
	}
	return places, nil
}

// AddReview creates a review. An unknown place surfaces as ErrNotFound.
func (r *PlaceRepository) AddReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, place_id, rating, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		review.ID, review.UserID, review.PlaceID, review.Rating, review.Content, review.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", translate(err))
	}
	return nil
}

// ListReviews returns the reviews of a place with reviewer names, newest first
func (r *PlaceRepository) ListReviews(ctx context.Context, placeID string) ([]*models.Review, error) {
	query := `
		SELECT rv.id, rv.user_id, rv.place_id, rv.rating, rv.content, rv.created_at, pr.name, pr.city
		FROM reviews rv
		LEFT JOIN profiles pr ON pr.user_id = rv.user_id
		WHERE rv.place_id = $1
		ORDER BY rv.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, placeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		rv := &models.Review{Author: &models.Author{}}
		err := rows.Scan(&rv.ID, &rv.UserID, &rv.PlaceID, &rv.Rating, &rv.Content, &rv.CreatedAt,
			&rv.Author.Name, &rv.Author.City)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		rv.Author.ID = rv.UserID
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}
	return reviews, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"whereat-backend/internal/models"
	"whereat-backend/internal/repository"

	"github.com/google/uuid"
)

// PlaceDetail is a place with its reviews
type PlaceDetail struct {
	*models.Place
	Reviews []*models.Review `json:"reviews"`
}

// PlaceService handles places and reviews
type PlaceService struct {
	places PlaceStore
	now    Clock
}

// NewPlaceService creates a new place service
func NewPlaceService(places PlaceStore, now Clock) *PlaceService {
	if now == nil {
		now = time.Now
	}
	return &PlaceService{places: places, now: now}
}

// List returns every place, best rated first
func (s *PlaceService) List(ctx context.Context) ([]*models.Place, error) {
	places, err := s.places.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	if places == nil {
		places = []*models.Place{}
	}
	return places, nil
}

// Get returns a place with its reviews, newest first
func (s *PlaceService) Get(ctx context.Context, id string) (*PlaceDetail, error) {
	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Place not found")
		}
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	reviews, err := s.places.ListReviews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []*models.Review{}
	}
	return &PlaceDetail{Place: place, Reviews: reviews}, nil
}

// AddReview rates a place from 1 to 5
func (s *PlaceService) AddReview(ctx context.Context, userID, placeID string, rating int, content string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, newError(ErrInvalidInput, "Rating must be between 1 and 5")
	}
	review := &models.Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		PlaceID:   placeID,
		Rating:    rating,
		Content:   strings.TrimSpace(content),
		CreatedAt: s.now(),
	}
	if err := s.places.AddReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Place not found")
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	return review, nil
}

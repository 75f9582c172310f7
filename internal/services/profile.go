package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"whereat-backend/internal/models"
	"whereat-backend/internal/repository"
)

// Interests is the catalogue users pick their three tags from
var Interests = []string{"Live Music", "Coffee", "Tech", "Nightlife", "Outdoors", "Food", "Art", "Sports"}

const (
	requiredInterests = 3

	profilePostLimit    = 20
	profileCommentLimit = 3
	profileBookingLimit = 20
)

// ProfileInput is the onboarding form
type ProfileInput struct {
	Name      string   `json:"name"`
	Age       *int     `json:"age"`
	City      string   `json:"city"`
	Interests []string `json:"interests"`
}

// ProfileView is the public page of a user as seen by another user.
// Connection is the request between viewer and user in either direction, if any.
type ProfileView struct {
	ID         string             `json:"id"`
	Profile    *models.Profile    `json:"profile"`
	Posts      []*models.PostView `json:"posts"`
	Bookings   []*models.Booking  `json:"bookings"`
	Connection *models.Connection `json:"connection"`
	IsMe       bool               `json:"isMe"`
}

// ProfileService handles onboarding profiles and profile pages
type ProfileService struct {
	profiles    ProfileStore
	posts       PostStore
	bookings    BookingStore
	connections ConnectionStore
	now         Clock
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ProfileStore, posts PostStore, bookings BookingStore, connections ConnectionStore, now Clock) *ProfileService {
	if now == nil {
		now = time.Now
	}
	return &ProfileService{
		profiles:    profiles,
		posts:       posts,
		bookings:    bookings,
		connections: connections,
		now:         now,
	}
}

// Interests returns the interest catalogue
func (s *ProfileService) Interests() []string {
	out := make([]string, len(Interests))
	copy(out, Interests)
	return out
}

// Upsert creates or replaces the profile of a user
func (s *ProfileService) Upsert(ctx context.Context, userID string, in ProfileInput) (*models.Profile, error) {
	name := strings.TrimSpace(in.Name)
	city := strings.TrimSpace(in.City)
	if name == "" || city == "" {
		return nil, newError(ErrInvalidInput, "Name and city are required")
	}
	if in.Age != nil && (*in.Age < 18 || *in.Age > 120) {
		return nil, newError(ErrInvalidInput, "Age must be between 18 and 120")
	}

	interests := make([]string, 0, len(in.Interests))
	seen := make(map[string]bool, len(in.Interests))
	for _, tag := range in.Interests {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		interests = append(interests, tag)
	}
	if len(interests) != requiredInterests || len(in.Interests) != requiredInterests {
		return nil, newError(ErrInvalidInput, "Exactly %d distinct interests are required", requiredInterests)
	}

	now := s.now()
	profile := &models.Profile{
		UserID:    userID,
		Name:      name,
		Age:       in.Age,
		City:      city,
		Interests: interests,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "Unauthorized")
		}
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return profile, nil
}

// Get returns the profile of a user
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Profile not found")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// View returns the profile page of targetID: the profile, the latest posts,
// the latest bookings and the connection with viewerID
func (s *ProfileService) View(ctx context.Context, viewerID, targetID string) (*ProfileView, error) {
	profile, err := s.profiles.GetByUserID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	posts, err := s.posts.ListByUser(ctx, targetID, profilePostLimit, profileCommentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user posts: %w", err)
	}
	if posts == nil {
		posts = []*models.PostView{}
	}

	bookings, err := s.bookings.ListByUser(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	if len(bookings) > profileBookingLimit {
		bookings = bookings[:profileBookingLimit]
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}

	view := &ProfileView{
		ID:       targetID,
		Profile:  profile,
		Posts:    posts,
		Bookings: bookings,
		IsMe:     viewerID == targetID,
	}
	if view.IsMe {
		return view, nil
	}

	conn, err := s.connections.FindBetween(ctx, viewerID, targetID)
	switch {
	case err == nil:
		view.Connection = conn
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}
	return view, nil
}

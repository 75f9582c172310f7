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
	"github.com/rs/zerolog/log"
)

const (
	searchUserLimit  = 5
	searchEventLimit = 10

	guestName = "Guest"
)

// EventInput is the form for creating an event
type EventInput struct {
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	DateTime        time.Time `json:"dateTime"`
	LocationName    string    `json:"locationName"`
	LocationAddress *string   `json:"locationAddress"`
	MaxSeats        int       `json:"maxSeats"`
	Price           int       `json:"price"`
	ImageURL        *string   `json:"imageUrl"`
}

// SearchResult groups matching users and events
type SearchResult struct {
	Users  []*models.Profile `json:"users"`
	Events []*models.Event   `json:"events"`
}

// Attendee is a booker as listed on the event page
type Attendee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventDetail is an event with its attendees, as seen by one viewer
type EventDetail struct {
	Event      *models.Event `json:"event"`
	Attendees  []Attendee    `json:"attendees"`
	HasBooking bool          `json:"hasBooking"`
}

// EventService handles event browsing and creation
type EventService struct {
	events        EventStore
	profiles      ProfileStore
	bookings      BookingStore
	conversations ConversationStore
	users         UserStore
	now           Clock
}

// NewEventService creates a new event service
func NewEventService(events EventStore, profiles ProfileStore, bookings BookingStore, conversations ConversationStore, users UserStore, now Clock) *EventService {
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:        events,
		profiles:      profiles,
		bookings:      bookings,
		conversations: conversations,
		users:         users,
		now:           now,
	}
}

// ListUpcoming returns every UPCOMING event, soonest first
func (s *EventService) ListUpcoming(ctx context.Context) ([]*models.Event, error) {
	events, err := s.events.ListUpcoming(ctx, time.Time{}, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Get returns a single event
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Event not found")
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// Detail returns the event with its attendees in booking order and whether
// viewerID holds a booking. Attendees without a profile are listed as Guest.
func (s *EventService) Detail(ctx context.Context, viewerID, eventID string) (*EventDetail, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	userIDs, err := s.bookings.UserIDsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	profiles, err := s.profiles.GetByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendee profiles: %w", err)
	}

	detail := &EventDetail{Event: event, Attendees: make([]Attendee, 0, len(userIDs))}
	for _, id := range userIDs {
		name := guestName
		if p, ok := profiles[id]; ok && p.Name != "" {
			name = p.Name
		}
		detail.Attendees = append(detail.Attendees, Attendee{ID: id, Name: name})
		if id == viewerID {
			detail.HasBooking = true
		}
	}
	return detail, nil
}

// Create adds an event and its group conversation with the creator in it
func (s *EventService) Create(ctx context.Context, creatorID string, in EventInput) (*models.Event, error) {
	title := strings.TrimSpace(in.Title)
	location := strings.TrimSpace(in.LocationName)
	now := s.now()

	switch {
	case title == "":
		return nil, newError(ErrInvalidInput, "Title is required")
	case location == "":
		return nil, newError(ErrInvalidInput, "Location is required")
	case !in.DateTime.After(now):
		return nil, newError(ErrInvalidInput, "Event date must be in the future")
	case in.MaxSeats < 0:
		return nil, newError(ErrInvalidInput, "Max seats cannot be negative")
	case in.Price < 0:
		return nil, newError(ErrInvalidInput, "Price cannot be negative")
	}

	event := &models.Event{
		ID:              uuid.New().String(),
		Title:           title,
		Description:     in.Description,
		DateTime:        in.DateTime,
		LocationName:    location,
		LocationAddress: in.LocationAddress,
		MaxSeats:        in.MaxSeats,
		Price:           in.Price,
		ImageURL:        in.ImageURL,
		Status:          models.EventUpcoming,
		CreatedBy:       creatorID,
		CreatedAt:       now,
	}
	conv := &models.Conversation{
		ID:        uuid.New().String(),
		Type:      models.ConversationEvent,
		Name:      &event.Title,
		EventID:   &event.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.events.Create(ctx, event, conv, creatorID); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	log.Info().Str("event_id", event.ID).Str("user_id", creatorID).Msg("Event created")
	return event, nil
}

// Search matches users by name or city and events by title, description or location
func (s *EventService) Search(ctx context.Context, q string) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	result := &SearchResult{Users: []*models.Profile{}, Events: []*models.Event{}}
	if q == "" {
		return result, nil
	}

	users, err := s.profiles.Search(ctx, q, searchUserLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	events, err := s.events.Search(ctx, q, searchEventLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	if users != nil {
		result.Users = users
	}
	if events != nil {
		result.Events = events
	}
	return result, nil
}

// BackfillConversations creates the missing group conversation of every event.
// Participants are the bookers plus the creator; events with nobody to add are skipped.
func (s *EventService) BackfillConversations(ctx context.Context) (int, error) {
	events, err := s.events.ListWithoutConversation(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list events: %w", err)
	}

	created := 0
	for _, event := range events {
		members, err := s.bookings.UserIDsByEvent(ctx, event.ID)
		if err != nil {
			return created, fmt.Errorf("failed to list bookers of %s: %w", event.ID, err)
		}

		if event.CreatedBy != "" && !contains(members, event.CreatedBy) {
			ok, err := s.users.Exists(ctx, event.CreatedBy)
			if err != nil {
				return created, fmt.Errorf("failed to check creator of %s: %w", event.ID, err)
			}
			if ok {
				members = append(members, event.CreatedBy)
			}
		}
		if len(members) == 0 {
			log.Debug().Str("event_id", event.ID).Msg("Skipping event without participants")
			continue
		}

		now := s.now()
		title := event.Title
		eventID := event.ID
		conv := &models.Conversation{
			ID:        uuid.New().String(),
			Type:      models.ConversationEvent,
			Name:      &title,
			EventID:   &eventID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.conversations.CreateWithParticipants(ctx, conv, members); err != nil {
			return created, fmt.Errorf("failed to create conversation for %s: %w", event.ID, err)
		}
		created++
		log.Info().Str("event_id", event.ID).Int("participants", len(members)).Msg("Event conversation created")
	}
	return created, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

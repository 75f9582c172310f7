package services

import (
	"context"
	"time"

	"whereat-backend/internal/models"
)

// UserStore persists accounts
type UserStore interface {
	FindOrCreateByPhone(ctx context.Context, candidate *models.User) (*models.User, bool, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// ProfileStore persists onboarding profiles
type ProfileStore interface {
	Upsert(ctx context.Context, profile *models.Profile) error
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*models.Profile, error)
	ListRecent(ctx context.Context, excludeUserID string, limit int) ([]*models.Profile, error)
	Search(ctx context.Context, term string, limit int) ([]*models.Profile, error)
}

// EventStore persists events
type EventStore interface {
	Create(ctx context.Context, event *models.Event, conv *models.Conversation, creatorID string) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ListUpcoming(ctx context.Context, from time.Time, to *time.Time, limit int) ([]*models.Event, error)
	Search(ctx context.Context, term string, limit int) ([]*models.Event, error)
	ListWithoutConversation(ctx context.Context) ([]*models.Event, error)
}

// BookingStore persists bookings. Book enforces the seat cap atomically.
type BookingStore interface {
	Book(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, userID, eventID string) error
	ListByUser(ctx context.Context, userID string) ([]*models.Booking, error)
	UserIDsByEvent(ctx context.Context, eventID string) ([]string, error)
}

// ConnectionStore persists connection requests
type ConnectionStore interface {
	Create(ctx context.Context, c *models.Connection) error
	GetByID(ctx context.Context, id string) (*models.Connection, error)
	FindBetween(ctx context.Context, userA, userB string) (*models.Connection, error)
	Resolve(ctx context.Context, id, receiverID string, status models.ConnectionStatus, at time.Time) (bool, error)
	ListBySender(ctx context.Context, userID string) ([]*models.Connection, error)
	ListByReceiver(ctx context.Context, userID string) ([]*models.Connection, error)
	ListPending(ctx context.Context, userID string) ([]*models.ConnectionRequest, error)
	CountAccepted(ctx context.Context, userIDs []string) (map[string]int, error)
}

// ConversationStore persists conversations, participants and messages
type ConversationStore interface {
	GetEventConversation(ctx context.Context, eventID string) (*models.Conversation, error)
	AddParticipant(ctx context.Context, userID, conversationID string, at time.Time) error
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	ParticipantIDs(ctx context.Context, conversationID string) ([]string, error)
	FindOrCreateDirect(ctx context.Context, userA, userB string, candidate *models.Conversation) (*models.Conversation, bool, error)
	CreateWithParticipants(ctx context.Context, conv *models.Conversation, userIDs []string) error
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListForUser(ctx context.Context, userID string) ([]*models.ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID string) ([]*models.MessageView, error)
}

// PostStore persists posts, likes and comments
type PostStore interface {
	Create(ctx context.Context, p *models.Post) error
	ToggleLike(ctx context.Context, userID, postID string, at time.Time) (bool, error)
	AddComment(ctx context.Context, c *models.Comment) error
	GetView(ctx context.Context, postID string) (*models.PostView, error)
	ListRecent(ctx context.Context, limit, commentLimit int) ([]*models.PostView, error)
	ListByUser(ctx context.Context, userID string, limit, commentLimit int) ([]*models.PostView, error)
	ListLocated(ctx context.Context, limit int) ([]*models.PostView, error)
}

// PlaceStore persists places and reviews
type PlaceStore interface {
	GetByID(ctx context.Context, id string) (*models.Place, error)
	List(ctx context.Context) ([]*models.Place, error)
	AddReview(ctx context.Context, review *models.Review) error
	ListReviews(ctx context.Context, placeID string) ([]*models.Review, error)
}

// Clock returns the current time
type Clock func() time.Time

package services_test

import (
	"context"
	"testing"
	"time"

	"whereat-backend/internal/models"
	"whereat-backend/internal/services"
	"whereat-backend/internal/testutil"

	"github.com/stretchr/testify/require"
)

var (
	_ services.UserStore         = (*testutil.UserStore)(nil)
	_ services.ProfileStore      = (*testutil.ProfileStore)(nil)
	_ services.EventStore        = (*testutil.EventStore)(nil)
	_ services.BookingStore      = (*testutil.BookingStore)(nil)
	_ services.ConnectionStore   = (*testutil.ConnectionStore)(nil)
	_ services.ConversationStore = (*testutil.ConversationStore)(nil)
	_ services.PostStore         = (*testutil.PostStore)(nil)
	_ services.PlaceStore        = (*testutil.PlaceStore)(nil)
)

var epoch = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db    *testutil.DB
	clock *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{db: testutil.NewDB(), clock: testutil.NewClock(epoch)}
}

// user creates an account with a completed profile
func (f *fixture) user(t *testing.T, id, name string) *models.User {
	t.Helper()
	ctx := context.Background()
	u, _, err := f.db.Users().FindOrCreateByPhone(ctx, &models.User{ID: id, Phone: "+91" + id, CreatedAt: f.clock.Now()})
	require.NoError(t, err)
	require.NoError(t, f.db.Profiles().Upsert(ctx, &models.Profile{
		UserID:    u.ID,
		Name:      name,
		City:      "Mumbai",
		Interests: []string{"Coffee", "Tech", "Food"},
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}))
	return u
}

// event inserts an event directly, with a group conversation when withChat is set
func (f *fixture) event(t *testing.T, id string, seats int, at time.Time, status models.EventStatus, withChat bool) *models.Event {
	t.Helper()
	e := &models.Event{
		ID:           id,
		Title:        "Dinner " + id,
		DateTime:     at,
		LocationName: "The Table",
		MaxSeats:     seats,
		Price:        1500,
		Status:       status,
		CreatedBy:    "WhereAt Team",
		CreatedAt:    f.clock.Now(),
	}
	var conv *models.Conversation
	if withChat {
		eventID := id
		conv = &models.Conversation{
			ID:        "conv-" + id,
			Type:      models.ConversationEvent,
			Name:      &e.Title,
			EventID:   &eventID,
			CreatedAt: f.clock.Now(),
			UpdatedAt: f.clock.Now(),
		}
	}
	require.NoError(t, f.db.Events().Create(context.Background(), e, conv, ""))
	return e
}

func (f *fixture) bookings() *services.BookingService {
	return services.NewBookingService(f.db.Bookings(), f.db.Conversations(), f.clock.Now)
}

func (f *fixture) profiles() *services.ProfileService {
	return services.NewProfileService(f.db.Profiles(), f.db.Posts(), f.db.Bookings(), f.db.Connections(), f.clock.Now)
}

func (f *fixture) events() *services.EventService {
	return services.NewEventService(f.db.Events(), f.db.Profiles(), f.db.Bookings(), f.db.Conversations(), f.db.Users(), f.clock.Now)
}

func (f *fixture) auth() *services.AuthService {
	return services.NewAuthService(f.db.Users(), f.db.Profiles(), "test-secret", time.Hour, "000000", f.clock.Now)
}

func (f *fixture) connections(n *services.Notifier) *services.ConnectionService {
	return services.NewConnectionService(f.db.Connections(), f.db.Users(), n, f.clock.Now)
}

func (f *fixture) chat(n *services.Notifier) *services.ChatService {
	return services.NewChatService(f.db.Conversations(), f.db.Users(), n, f.clock.Now)
}

func (f *fixture) posts() *services.PostService {
	return services.NewPostService(f.db.Posts(), f.db.Places(), f.clock.Now)
}

func (f *fixture) feed() *services.FeedService {
	return services.NewFeedService(f.db.Posts(), f.db.Events(), f.db.Profiles(), f.db.Connections(), services.DefaultFeedOptions(), f.clock.Now)
}

func strPtr(s string) *string {
	return &s
}

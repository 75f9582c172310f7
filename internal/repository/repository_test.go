package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"whereat-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to WHEREAT_TEST_DATABASE_URL and skips when it is unset
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("WHEREAT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("WHEREAT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dsn, 10)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func newUser(t *testing.T, users *UserRepository) *models.User {
	t.Helper()
	u, created, err := users.FindOrCreateByPhone(context.Background(), &models.User{
		ID:        uuid.NewString(),
		Phone:     "+91" + uuid.NewString()[:10],
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.True(t, created)
	return u
}

func TestUserRepository_FindOrCreateByPhone(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)

	u := newUser(t, users)
	again, created, err := users.FindOrCreateByPhone(ctx, &models.User{ID: uuid.NewString(), Phone: u.Phone, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)

	_, err = users.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepository_SeatCap(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	events := NewEventRepository(pool)
	bookings := NewBookingRepository(pool)

	event := &models.Event{
		ID:           uuid.NewString(),
		Title:        "Supper Club",
		DateTime:     time.Now().Add(72 * time.Hour).UTC(),
		LocationName: "Bandra",
		MaxSeats:     3,
		Price:        1500,
		Status:       models.EventUpcoming,
		CreatedBy:    "WhereAt Team",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, events.Create(ctx, event, nil, ""))
	assert.ErrorIs(t, events.Create(ctx, event, nil, ""), ErrDuplicate)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for range 6 {
		u := newUser(t, users)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := bookings.Book(ctx, &models.Booking{ID: uuid.NewString(), UserID: u.ID, EventID: event.ID, CreatedAt: time.Now()})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var ok, soldOut int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrSoldOut):
			soldOut++
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, 3, soldOut)

	got, err := events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SeatsBooked)
	assert.Zero(t, got.SeatsLeft())

	attendees, err := bookings.UserIDsByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 3)

	err = bookings.Book(ctx, &models.Booking{ID: uuid.NewString(), UserID: attendees[0], EventID: event.ID, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, bookings.Delete(ctx, attendees[0], event.ID))
	assert.ErrorIs(t, bookings.Delete(ctx, attendees[0], event.ID), ErrNotFound)

	err = bookings.Book(ctx, &models.Booking{ID: uuid.NewString(), UserID: uuid.NewString(), EventID: uuid.NewString(), CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)

	// a seat is free again, but the booker no longer exists
	err = bookings.Book(ctx, &models.Booking{ID: uuid.NewString(), UserID: uuid.NewString(), EventID: event.ID, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func newConversation(kind models.ConversationType, at time.Time) *models.Conversation {
	return &models.Conversation{ID: uuid.NewString(), Type: kind, CreatedAt: at, UpdatedAt: at}
}

func TestConversationRepository_FindOrCreateDirect(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	convs := NewConversationRepository(pool)
	now := time.Now().UTC()

	a, b, c := newUser(t, users), newUser(t, users), newUser(t, users)

	// neither a group chat with exactly a and b nor a direct chat with a third member counts
	require.NoError(t, convs.CreateWithParticipants(ctx, newConversation(models.ConversationEvent, now), []string{a.ID, b.ID}))
	require.NoError(t, convs.CreateWithParticipants(ctx, newConversation(models.ConversationDirect, now), []string{a.ID, b.ID, c.ID}))

	first, created, err := convs.FindOrCreateDirect(ctx, a.ID, b.ID, newConversation(models.ConversationDirect, now))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.ConversationDirect, first.Type)

	again, created, err := convs.FindOrCreateDirect(ctx, b.ID, a.ID, newConversation(models.ConversationDirect, now))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	ids, err := convs.ParticipantIDs(ctx, first.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	other, created, err := convs.FindOrCreateDirect(ctx, a.ID, c.ID, newConversation(models.ConversationDirect, now))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestConversationRepository_FindOrCreateDirectConcurrent(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	convs := NewConversationRepository(pool)
	a, b := newUser(t, users), newUser(t, users)

	const callers = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = make(map[string]struct{})
		created int
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			x, y := a.ID, b.ID
			if i%2 == 1 {
				x, y = y, x
			}
			conv, isNew, err := convs.FindOrCreateDirect(ctx, x, y, newConversation(models.ConversationDirect, time.Now().UTC()))
			assert.NoError(t, err)
			if conv == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[conv.ID] = struct{}{}
			if isNew {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)
}

func TestConversationRepository_MessagesAndListing(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	convs := NewConversationRepository(pool)
	start := time.Now().UTC().Truncate(time.Microsecond)

	me, a, b := newUser(t, users), newUser(t, users), newUser(t, users)
	older := newConversation(models.ConversationDirect, start)
	newer := newConversation(models.ConversationDirect, start.Add(time.Second))
	require.NoError(t, convs.CreateWithParticipants(ctx, older, []string{me.ID, a.ID}))
	require.NoError(t, convs.CreateWithParticipants(ctx, newer, []string{me.ID, b.ID}))

	list, err := convs.ListForUser(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].Conversation.ID)
	assert.Nil(t, list[0].LastMessage)

	// a message in the older conversation moves it to the top
	first := &models.Message{ID: uuid.NewString(), ConversationID: older.ID, SenderID: a.ID, Content: "hi", CreatedAt: start.Add(time.Minute)}
	last := &models.Message{ID: uuid.NewString(), ConversationID: older.ID, SenderID: me.ID, Content: "hey", CreatedAt: start.Add(2 * time.Minute)}
	require.NoError(t, convs.AppendMessage(ctx, first))
	require.NoError(t, convs.AppendMessage(ctx, last))

	list, err = convs.ListForUser(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	top := list[0]
	assert.Equal(t, older.ID, top.Conversation.ID)
	assert.WithinDuration(t, last.CreatedAt, top.Conversation.UpdatedAt, time.Millisecond)
	require.NotNil(t, top.LastMessage)
	assert.Equal(t, last.ID, top.LastMessage.ID)
	assert.Equal(t, "hey", top.LastMessage.Content)
	assert.Len(t, top.Members, 2)

	msgs, err := convs.ListMessages(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)

	err = convs.AppendMessage(ctx, &models.Message{ID: uuid.NewString(), ConversationID: uuid.NewString(), SenderID: me.ID, Content: "lost", CreatedAt: start})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnectionRepository_PairAndResolve(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	conns := NewConnectionRepository(pool)
	now := time.Now().UTC()
	a, b := newUser(t, users), newUser(t, users)

	conn := &models.Connection{ID: uuid.NewString(), SenderID: a.ID, ReceiverID: b.ID, Status: models.ConnectionPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, conns.Create(ctx, conn))

	reverse := &models.Connection{ID: uuid.NewString(), SenderID: b.ID, ReceiverID: a.ID, Status: models.ConnectionPending, CreatedAt: now, UpdatedAt: now}
	assert.ErrorIs(t, conns.Create(ctx, reverse), ErrDuplicate)

	found, err := conns.FindBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, conn.ID, found.ID)

	// only the receiver may resolve
	ok, err := conns.Resolve(ctx, conn.ID, a.ID, models.ConnectionAccepted, now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = conns.Resolve(ctx, conn.ID, b.ID, models.ConnectionAccepted, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = conns.Resolve(ctx, conn.ID, b.ID, models.ConnectionRejected, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := conns.GetByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionAccepted, stored.Status)
	assert.WithinDuration(t, now.Add(time.Minute), stored.UpdatedAt, time.Millisecond)
}

func TestPostRepository_LikesAndProfilePage(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	profiles := NewProfileRepository(pool)
	posts := NewPostRepository(pool)
	now := time.Now().UTC()

	author, fan := newUser(t, users), newUser(t, users)
	require.NoError(t, profiles.Upsert(ctx, &models.Profile{
		UserID:    author.ID,
		Name:      "Author",
		City:      "Mumbai",
		Interests: []string{"Coffee", "Tech", "Art"},
		CreatedAt: now,
		UpdatedAt: now,
	}))

	content := "sunset at the pier"
	older := &models.Post{ID: uuid.NewString(), UserID: author.ID, Content: &content, CreatedAt: now}
	newer := &models.Post{ID: uuid.NewString(), UserID: author.ID, Content: &content, CreatedAt: now.Add(time.Minute)}
	require.NoError(t, posts.Create(ctx, older))
	require.NoError(t, posts.Create(ctx, newer))

	liked, err := posts.ToggleLike(ctx, fan.ID, newer.ID, now)
	require.NoError(t, err)
	assert.True(t, liked)

	mine, err := posts.ListByUser(ctx, author.ID, 20, 3)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, []string{fan.ID}, mine[0].LikedBy)

	liked, err = posts.ToggleLike(ctx, fan.ID, newer.ID, now)
	require.NoError(t, err)
	assert.False(t, liked)

	view, err := posts.GetView(ctx, newer.ID)
	require.NoError(t, err)
	assert.Empty(t, view.LikedBy)

	_, err = posts.ToggleLike(ctx, fan.ID, uuid.NewString(), now)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := profiles.GetByUserIDs(ctx, []string{author.ID, fan.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Author", got[author.ID].Name)

	none, err := profiles.GetByUserIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

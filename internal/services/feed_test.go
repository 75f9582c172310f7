package services_test

import (
	"context"
	"testing"
	"time"

	"whereat-backend/internal/models"
	"whereat-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeed_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	posts := f.posts()

	var ids []string
	for _, content := range []string{"t1", "t2", "t3"} {
		f.clock.Advance(time.Minute)
		p, err := posts.Create(ctx, alice.ID, services.PostInput{Content: strPtr(content)})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	items, err := f.feed().BuildFeed(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{items[0].ID, items[1].ID, items[2].ID})
	for _, item := range items {
		assert.Equal(t, services.FeedItemRegular, item.Type)
		assert.Equal(t, alice.ID, item.Author.ID)
		require.NotNil(t, item.Post)
	}
}

func TestBuildFeed_MergesHighlights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	f.event(t, "e1", 10, epoch.Add(48*time.Hour), models.EventUpcoming, false)
	f.event(t, "gone", 10, epoch.Add(24*time.Hour), models.EventPast, false)

	post, err := f.posts().Create(ctx, alice.ID, services.PostInput{Content: strPtr("hi"), Location: strPtr("Social")})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	items, err := f.feed().BuildFeed(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "event-e1", items[0].ID)
	assert.Equal(t, services.FeedItemEvent, items[0].Type)
	assert.Equal(t, services.HighlightAuthor, items[0].Author)
	require.NotNil(t, items[0].Event)
	assert.Equal(t, "The Table", items[0].Event.Venue)

	assert.Equal(t, "place-social", items[1].ID)
	assert.Equal(t, services.FeedItemPlace, items[1].Type)
	assert.Equal(t, f.clock.Now(), items[1].CreatedAt)

	assert.Equal(t, post.ID, items[2].ID)
}

func TestEventHighlights_WindowFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.event(t, "far", 10, epoch.Add(30*24*time.Hour), models.EventUpcoming, false)

	highlights, err := f.feed().EventHighlights(ctx)
	require.NoError(t, err)
	require.Len(t, highlights, 1)
	assert.Equal(t, "far", highlights[0].ID)

	f.event(t, "near", 10, epoch.Add(2*24*time.Hour), models.EventUpcoming, false)
	highlights, err = f.feed().EventHighlights(ctx)
	require.NoError(t, err)
	require.Len(t, highlights, 1)
	assert.Equal(t, "near", highlights[0].ID)
}

func TestEventHighlights_AttendeeCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	f.event(t, "e1", 10, epoch.Add(24*time.Hour), models.EventUpcoming, false)
	_, err := f.bookings().BookEvent(ctx, alice.ID, "e1")
	require.NoError(t, err)

	highlights, err := f.feed().EventHighlights(ctx)
	require.NoError(t, err)
	require.Len(t, highlights, 1)
	assert.Equal(t, 1, highlights[0].AttendeeCount)
}

func TestPlaceHighlights_RankByDistinctPosters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	bob := f.user(t, "bob", "Bob")
	carol := f.user(t, "carol", "Carol")
	posts := f.posts()

	for _, p := range []struct {
		user     string
		location string
	}{
		{carol.ID, "Social"},
		{alice.ID, "Cafe Mondegar"},
		{alice.ID, "cafe mondegar"},
		{bob.ID, "Café Mondegar"},
		{alice.ID, "   "},
	} {
		f.clock.Advance(time.Minute)
		_, err := posts.Create(ctx, p.user, services.PostInput{Content: strPtr("out"), Location: strPtr(p.location)})
		require.NoError(t, err)
	}

	highlights, err := f.feed().PlaceHighlights(ctx)
	require.NoError(t, err)
	require.Len(t, highlights, 2)

	top := highlights[0]
	assert.Equal(t, "cafe-mondegar", top.ID)
	assert.Equal(t, "Café Mondegar", top.Name)
	assert.Equal(t, 2, top.Friends)
	assert.Equal(t, []string{"Bob", "Alice"}, top.FriendNames)
	assert.Equal(t, "2 friends mentioned this spot", top.Snippet)
	assert.Equal(t, []string{"Mumbai"}, top.Tags)

	assert.Equal(t, "social", highlights[1].ID)
	assert.Equal(t, 1, highlights[1].Friends)
	assert.Equal(t, "1 friend mentioned this spot", highlights[1].Snippet)
}

func TestSidebar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	f.clock.Advance(time.Minute)
	bob := f.user(t, "bob", "Bob")
	f.clock.Advance(time.Minute)
	carol := f.user(t, "carol", "Carol")

	conns := f.connections(nil)
	conn, err := conns.Request(ctx, carol.ID, bob.ID)
	require.NoError(t, err)
	_, err = conns.Respond(ctx, bob.ID, conn.ID, services.ActionAccept)
	require.NoError(t, err)

	sidebar, err := f.feed().Sidebar(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, sidebar.SuggestedUsers, 2)
	assert.Equal(t, services.SuggestedUser{ID: carol.ID, Name: "Carol", City: "Mumbai", Connections: 1}, sidebar.SuggestedUsers[0])
	assert.Equal(t, bob.ID, sidebar.SuggestedUsers[1].ID)
	assert.Equal(t, 1, sidebar.SuggestedUsers[1].Connections)
	assert.NotNil(t, sidebar.WeekendEvents)
	assert.NotNil(t, sidebar.FavoritePlaces)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Café Mondegar":           "cafe-mondegar",
		"  The Bombay Canteen!! ": "the-bombay-canteen",
		"Le15":                    "le15",
		"Bandra West, Mumbai":     "bandra-west-mumbai",
		"---":                     "",
		"":                        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, services.Slugify(in), in)
	}
}

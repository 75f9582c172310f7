package seed

import (
	"context"
	"testing"
	"time"

	"whereat-backend/internal/models"
	"whereat-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryStores(db *testutil.DB) Stores {
	return Stores{
		Users:    db.Users(),
		Profiles: db.Profiles(),
		Events:   db.Events(),
		Bookings: db.Bookings(),
		Places:   db.Places(),
		Posts:    db.Posts(),
	}
}

func TestDefault(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)

	assert.Len(t, d.Users, 5)
	assert.Len(t, d.Events, 5)
	assert.Len(t, d.Places, 4)
	assert.Equal(t, "+911234567890", d.Users[0].Phone)
	assert.Equal(t, 7*24*time.Hour, d.Events[0].Offset)
	assert.Equal(t, models.EventPast, d.Events[3].Status)
}

func TestApply_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB()
	d, err := Default()
	require.NoError(t, err)
	now := time.Date(2026, time.March, 1, 18, 0, 0, 0, time.UTC)

	first, err := Apply(ctx, memoryStores(db), d, now)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Users)
	assert.Equal(t, 5, first.Events)
	assert.Equal(t, 3, first.Posts)
	assert.Equal(t, 1, first.Comments)
	assert.Equal(t, 3, first.Reviews)

	second, err := Apply(ctx, memoryStores(db), d, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, second.Users)
	assert.Zero(t, second.Events)
	assert.Zero(t, second.Posts)
	assert.Zero(t, second.Comments)
	assert.Zero(t, second.Reviews)

	event, err := db.Events().GetByID(ctx, "event-1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), event.DateTime)
	assert.Equal(t, 3, event.SeatsBooked)

	past, err := db.Bookings().ListByUser(ctx, "user-alice")
	require.NoError(t, err)
	assert.Len(t, past, 2)

	post, err := db.Posts().GetView(ctx, "post-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-bob", "user-charlie"}, post.LikedBy)
	assert.Len(t, post.Comments, 1)

	reviews, err := db.Places().ListReviews(ctx, "place-1")
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestParse_RejectsUnknownReferences(t *testing.T) {
	tests := map[string]string{
		"booking user": `
users: [{key: alice, id: user-alice, phone: "+91"}]
events: [{id: e1, title: Dinner}]
bookings: [{user: bob, event: e1}]
`,
		"post place": `
users: [{key: alice, id: user-alice, phone: "+91"}]
posts: [{id: p1, user: alice, place: nowhere}]
`,
		"comment post": `
users: [{key: alice, id: user-alice, phone: "+91"}]
comments: [{id: c1, user: alice, post: p9}]
`,
		"missing phone": `
users: [{key: alice, id: user-alice}]
`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("users: ["))
	assert.Error(t, err)
}

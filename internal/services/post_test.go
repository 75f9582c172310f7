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

func (f *fixture) place(t *testing.T, id, name string) *models.Place {
	t.Helper()
	p := &models.Place{ID: id, Name: name, City: "Mumbai", VibeTags: []string{"Chill"}, Rating: 4.5, CreatedAt: f.clock.Now()}
	require.NoError(t, f.db.Places().Upsert(context.Background(), p))
	return p
}

func TestPostCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	f.place(t, "place-1", "Café Mondegar")
	svc := f.posts()

	_, err := svc.Create(ctx, alice.ID, services.PostInput{Content: strPtr("   ")})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.Create(ctx, alice.ID, services.PostInput{Content: strPtr("hi"), PlaceID: strPtr("nowhere")})
	assert.ErrorIs(t, err, services.ErrNotFound)

	imageOnly, err := svc.Create(ctx, alice.ID, services.PostInput{ImageURL: strPtr("https://img/1.jpg")})
	require.NoError(t, err)
	assert.Nil(t, imageOnly.Content)

	post, err := svc.Create(ctx, alice.ID, services.PostInput{
		Content:  strPtr(" Great night "),
		Location: strPtr(" "),
		PlaceID:  strPtr("place-1"),
	})
	require.NoError(t, err)
	require.NotNil(t, post.Content)
	assert.Equal(t, "Great night", *post.Content)
	assert.Nil(t, post.Location)

	view, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Author.Name)
	assert.Equal(t, "Alice", *view.Author.Name)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestPostToggleLike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	bob := f.user(t, "bob", "Bob")
	svc := f.posts()

	post, err := svc.Create(ctx, alice.ID, services.PostInput{Content: strPtr("hello")})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	view, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, view.LikedBy)

	liked, err = svc.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	view, err = svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, view.LikedBy)

	_, err = svc.ToggleLike(ctx, bob.ID, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = svc.ToggleLike(ctx, bob.ID, "")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestPostComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	bob := f.user(t, "bob", "Bob")
	svc := f.posts()

	post, err := svc.Create(ctx, alice.ID, services.PostInput{Content: strPtr("hello")})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, bob.ID, post.ID, "  ")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.AddComment(ctx, bob.ID, "missing", "nice")
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.AddComment(ctx, bob.ID, post.ID, "first")
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = svc.AddComment(ctx, alice.ID, post.ID, "second")
	require.NoError(t, err)

	posts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Len(t, posts[0].Comments, 2)
	assert.Equal(t, "first", posts[0].Comments[0].Content)
	require.NotNil(t, posts[0].Comments[0].Author)
	assert.Equal(t, "Bob", *posts[0].Comments[0].Author.Name)
}

func TestPlaceReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "Alice")
	f.place(t, "place-1", "Café Mondegar")
	f.place(t, "place-2", "The Bombay Canteen")
	svc := services.NewPlaceService(f.db.Places(), f.clock.Now)

	for _, rating := range []int{0, 6} {
		_, err := svc.AddReview(ctx, alice.ID, "place-1", rating, "meh")
		assert.ErrorIs(t, err, services.ErrInvalidInput)
	}

	_, err := svc.AddReview(ctx, alice.ID, "nowhere", 4, "ok")
	assert.ErrorIs(t, err, services.ErrNotFound)

	review, err := svc.AddReview(ctx, alice.ID, "place-1", 5, " Great for work ")
	require.NoError(t, err)
	assert.Equal(t, "Great for work", review.Content)

	detail, err := svc.Get(ctx, "place-1")
	require.NoError(t, err)
	assert.Equal(t, "Café Mondegar", detail.Name)
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, 5, detail.Reviews[0].Rating)

	empty, err := svc.Get(ctx, "place-2")
	require.NoError(t, err)
	assert.NotNil(t, empty.Reviews)
	assert.Empty(t, empty.Reviews)

	_, err = svc.Get(ctx, "nowhere")
	assert.ErrorIs(t, err, services.ErrNotFound)

	places, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, places, 2)
}

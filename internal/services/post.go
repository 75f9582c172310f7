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

// PostInput is the form for creating a post
type PostInput struct {
	Content  *string `json:"content"`
	ImageURL *string `json:"imageUrl"`
	Location *string `json:"location"`
	PlaceID  *string `json:"placeId"`
}

// PostService handles posts, likes and comments
type PostService struct {
	posts  PostStore
	places PlaceStore
	now    Clock
}

// NewPostService creates a new post service
func NewPostService(posts PostStore, places PlaceStore, now Clock) *PostService {
	if now == nil {
		now = time.Now
	}
	return &PostService{posts: posts, places: places, now: now}
}

// Create publishes a post. Content or an image is required.
func (s *PostService) Create(ctx context.Context, userID string, in PostInput) (*models.Post, error) {
	post := &models.Post{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   trimmed(in.Content),
		ImageURL:  trimmed(in.ImageURL),
		Location:  trimmed(in.Location),
		PlaceID:   trimmed(in.PlaceID),
		CreatedAt: s.now(),
	}
	if post.Content == nil && post.ImageURL == nil {
		return nil, newError(ErrInvalidInput, "Content or image is required")
	}

	if post.PlaceID != nil {
		if _, err := s.places.GetByID(ctx, *post.PlaceID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, newError(ErrNotFound, "Place not found")
			}
			return nil, fmt.Errorf("failed to get place: %w", err)
		}
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	log.Info().Str("post_id", post.ID).Str("user_id", userID).Msg("Post created")
	return post, nil
}

// ToggleLike likes the post, or removes the like when it already exists. Reports the new state.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID string) (bool, error) {
	if postID == "" {
		return false, newError(ErrInvalidInput, "Post ID is required")
	}
	liked, err := s.posts.ToggleLike(ctx, userID, postID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, newError(ErrNotFound, "Post not found")
		}
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}
	return liked, nil
}

// AddComment appends a comment to a post
func (s *PostService) AddComment(ctx context.Context, userID, postID, content string) (*models.Comment, error) {
	if postID == "" {
		return nil, newError(ErrInvalidInput, "Post ID is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newError(ErrInvalidInput, "Comment cannot be empty")
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		UserID:    userID,
		PostID:    postID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.posts.AddComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Post not found")
		}
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return comment, nil
}

// List returns every post newest first with likes and all comments
func (s *PostService) List(ctx context.Context) ([]*models.PostView, error) {
	posts, err := s.posts.ListRecent(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if posts == nil {
		posts = []*models.PostView{}
	}
	return posts, nil
}

// Get returns one post with likes and comments
func (s *PostService) Get(ctx context.Context, postID string) (*models.PostView, error) {
	post, err := s.posts.GetView(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Post not found")
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

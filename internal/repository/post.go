package repository

import (
	"context"
	"fmt"
	"time"

	"whereat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostRepository handles database operations for posts, likes and comments
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, content, image_url, location, place_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, p.ID, p.UserID, p.Content, p.ImageURL, p.Location, p.PlaceID, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", translate(err))
	}
	return nil
}

// ToggleLike removes the user's like if present and adds it otherwise.
// It reports whether the post is liked afterwards.
func (r *PostRepository) ToggleLike(ctx context.Context, userID, postID string, at time.Time) (bool, error) {
	var liked bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
		if err != nil {
			return fmt.Errorf("failed to delete like: %w", err)
		}
		if result.RowsAffected() > 0 {
			liked = false
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO likes (user_id, post_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, post_id) DO NOTHING
		`, userID, postID, at)
		if err != nil {
			return fmt.Errorf("failed to create like: %w", translate(err))
		}
		liked = true
		return nil
	})
	return liked, err
}

// AddLike records a like, leaving an existing one untouched
func (r *PostRepository) AddLike(ctx context.Context, userID, postID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO likes (user_id, post_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`, userID, postID, at)
	if err != nil {
		return fmt.Errorf("failed to create like: %w", translate(err))
	}
	return nil
}

// AddComment creates a new comment
func (r *PostRepository) AddComment(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (id, user_id, post_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, c.ID, c.UserID, c.PostID, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", translate(err))
	}
	return nil
}

const postViewSelect = `
	SELECT p.id, p.user_id, p.content, p.image_url, p.location, p.place_id, p.created_at,
	       pr.name, pr.city
	FROM posts p
	LEFT JOIN profiles pr ON pr.user_id = p.user_id
`

// GetView loads one post with its author, likes and all comments
func (r *PostRepository) GetView(ctx context.Context, postID string) (*models.PostView, error) {
	views, err := r.views(ctx, postViewSelect+`WHERE p.id = $1`, []any{postID}, 0)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	return views[0], nil
}

// ListRecent returns the newest posts. limit <= 0 returns all of them;
// commentLimit > 0 keeps only that many of the most recent comments per post.
// Comments are always ordered oldest first.
func (r *PostRepository) ListRecent(ctx context.Context, limit, commentLimit int) ([]*models.PostView, error) {
	query := postViewSelect + `ORDER BY p.created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	return r.views(ctx, query, args, commentLimit)
}

// ListByUser returns the newest posts of one user with likes and at most
// commentLimit comments each
func (r *PostRepository) ListByUser(ctx context.Context, userID string, limit, commentLimit int) ([]*models.PostView, error) {
	query := postViewSelect + `WHERE p.user_id = $1 ORDER BY p.created_at DESC LIMIT $2`
	return r.views(ctx, query, []any{userID, limit}, commentLimit)
}

// ListLocated returns the newest posts that carry a location, without likes or comments
func (r *PostRepository) ListLocated(ctx context.Context, limit int) ([]*models.PostView, error) {
	query := postViewSelect + `
		WHERE p.location IS NOT NULL AND btrim(p.location) <> ''
		ORDER BY p.created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list located posts: %w", err)
	}
	return collectPostViews(rows)
}

// views runs a post query and attaches likes and comments to every row
func (r *PostRepository) views(ctx context.Context, query string, args []any, commentLimit int) ([]*models.PostView, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	posts, err := collectPostViews(rows)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]string, len(posts))
	byID := make(map[string]*models.PostView, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	likeRows, err := r.db.Query(ctx, `
		SELECT post_id, user_id FROM likes WHERE post_id = ANY($1) ORDER BY created_at
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	defer likeRows.Close()
	for likeRows.Next() {
		var postID, userID string
		if err := likeRows.Scan(&postID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		byID[postID].LikedBy = append(byID[postID].LikedBy, userID)
	}
	if err := likeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating likes: %w", err)
	}

	commentRows, err := r.db.Query(ctx, `
		SELECT id, user_id, post_id, content, created_at, name, city
		FROM (
			SELECT c.id, c.user_id, c.post_id, c.content, c.created_at, pr.name, pr.city,
			       ROW_NUMBER() OVER (PARTITION BY c.post_id ORDER BY c.created_at DESC) AS rn
			FROM comments c
			LEFT JOIN profiles pr ON pr.user_id = c.user_id
			WHERE c.post_id = ANY($1)
		) ranked
		WHERE $2 <= 0 OR rn <= $2
		ORDER BY post_id, created_at ASC
	`, ids, commentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer commentRows.Close()
	for commentRows.Next() {
		c := &models.Comment{Author: &models.Author{}}
		if err := commentRows.Scan(&c.ID, &c.UserID, &c.PostID, &c.Content, &c.CreatedAt,
			&c.Author.Name, &c.Author.City); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.Author.ID = c.UserID
		byID[c.PostID].Comments = append(byID[c.PostID].Comments, c)
	}
	if err := commentRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return posts, nil
}

func collectPostViews(rows pgx.Rows) ([]*models.PostView, error) {
	defer rows.Close()

	var posts []*models.PostView
	for rows.Next() {
		v := &models.PostView{LikedBy: []string{}, Comments: []*models.Comment{}}
		err := rows.Scan(&v.ID, &v.UserID, &v.Content, &v.ImageURL, &v.Location, &v.PlaceID, &v.CreatedAt,
			&v.Author.Name, &v.Author.City)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		v.Author.ID = v.UserID
		posts = append(posts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

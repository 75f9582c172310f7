package handlers

import (
	"net/http"

	"whereat-backend/internal/middleware"
	"whereat-backend/internal/services"
)

// PostHandler handles post HTTP requests
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// LikeRequest represents the request body for toggling a like
type LikeRequest struct {
	PostID string `json:"postId"`
}

// CommentRequest represents the request body for commenting
type CommentRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

// ListPosts handles GET /api/v1/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	posts, err := h.postService.List(r.Context())
	if err != nil {
		respondServiceError(w, err, userID, "Failed to list posts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// CreatePost handles POST /api/v1/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.PostInput
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to create post")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"post": post})
}

// ToggleLike handles POST /api/v1/posts/like
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req LikeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	liked, err := h.postService.ToggleLike(r.Context(), userID, req.PostID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to toggle like")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// AddComment handles POST /api/v1/posts/comment
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.postService.AddComment(r.Context(), userID, req.PostID, req.Content)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to add comment")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"comment": comment})
}

package handlers

import (
	"net/http"

	"whereat-backend/internal/middleware"
	"whereat-backend/internal/services"
)

// FeedHandler handles feed HTTP requests
type FeedHandler struct {
	feedService *services.FeedService
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// Feed handles GET /api/v1/feed
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	items, err := h.feedService.BuildFeed(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to build feed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Sidebar handles GET /api/v1/feed/sidebar
func (h *FeedHandler) Sidebar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sidebar, err := h.feedService.Sidebar(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to build sidebar")
		return
	}
	respondJSON(w, http.StatusOK, sidebar)
}

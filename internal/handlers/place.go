package handlers

import (
	"net/http"

	"whereat-backend/internal/middleware"
	"whereat-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// PlaceHandler handles place HTTP requests
type PlaceHandler struct {
	placeService *services.PlaceService
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(placeService *services.PlaceService) *PlaceHandler {
	return &PlaceHandler{placeService: placeService}
}

// ReviewRequest represents the request body for reviewing a place
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

// ListPlaces handles GET /api/v1/places
func (h *PlaceHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	places, err := h.placeService.List(r.Context())
	if err != nil {
		respondServiceError(w, err, userID, "Failed to list places")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"places": places})
}

// GetPlace handles GET /api/v1/places/{id}
func (h *PlaceHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	place, err := h.placeService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get place")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"place": place})
}

// AddReview handles POST /api/v1/places/{id}/reviews
func (h *PlaceHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.placeService.AddReview(r.Context(), userID, chi.URLParam(r, "id"), req.Rating, req.Content)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to add review")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"review": review})
}

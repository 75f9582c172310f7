package handlers

import (
	"net/http"

	"whereat-backend/internal/middleware"
	"whereat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ProfileHandler handles onboarding profile HTTP requests
type ProfileHandler struct {
	profileService *services.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get profile")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

// UpsertProfile handles POST /api/v1/profile
func (h *ProfileHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.ProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profileService.Upsert(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to save profile")
		return
	}

	log.Info().Str("user_id", userID).Msg("Profile saved")
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}

// GetUser handles GET /api/v1/users/{id}
func (h *ProfileHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "id")

	view, err := h.profileService.View(r.Context(), userID, targetID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get user profile")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Interests handles GET /api/v1/interests
func (h *ProfileHandler) Interests(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"interests": h.profileService.Interests()})
}

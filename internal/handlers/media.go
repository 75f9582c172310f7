package handlers

import (
	"net/http"

	"whereat-backend/internal/middleware"
	"whereat-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// MediaHandler handles upload HTTP requests
type MediaHandler struct {
	mediaService *services.MediaService
}

// NewMediaHandler creates a new media handler. mediaService may be nil when uploads are disabled.
func NewMediaHandler(mediaService *services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// PresignRequest represents a request to get a pre-signed URL
type PresignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// Presign handles POST /api/v1/uploads/presign
func (h *MediaHandler) Presign(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if h.mediaService == nil {
		respondError(w, "Uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	var req PresignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.mediaService.PresignPostImage(r.Context(), userID, req.Filename, req.ContentType)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to generate upload URL")
		return
	}

	log.Info().Str("user_id", userID).Str("key", resp.Key).Msg("Upload URL issued")
	respondJSON(w, http.StatusOK, resp)
}

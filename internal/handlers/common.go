package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"whereat-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string `json:"message"`
}

// respondJSON writes v with the given status code
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Message: message})
}

// decodeJSON reads the request body into v, reporting a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps a service error kind to an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, services.ErrExhausted), errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondServiceError writes err as an HTTP error. Unexpected errors are logged
// and hidden behind a generic message.
func respondServiceError(w http.ResponseWriter, err error, userID, msg string) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		log.Debug().Err(err).Str("user_id", userID).Msg(msg)
		respondError(w, svcErr.Message, statusFor(err))
		return
	}

	log.Error().Err(err).Str("user_id", userID).Msg(msg)
	respondError(w, "Internal server error", http.StatusInternalServerError)
}

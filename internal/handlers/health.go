package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Pinger checks database connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetaHandler serves health and client configuration
type MetaHandler struct {
	db               Pinger
	messagePoll      time.Duration
	conversationPoll time.Duration
}

// NewMetaHandler creates a new meta handler
func NewMetaHandler(db Pinger, messagePoll, conversationPoll time.Duration) *MetaHandler {
	return &MetaHandler{
		db:               db,
		messagePoll:      messagePoll,
		conversationPoll: conversationPoll,
	}
}

// Health handles GET /health
func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Meta handles GET /api/v1/meta
func (h *MetaHandler) Meta(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"messagePollMs":      h.messagePoll.Milliseconds(),
		"conversationPollMs": h.conversationPoll.Milliseconds(),
	})
}

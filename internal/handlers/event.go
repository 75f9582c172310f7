package handlers

import (
	"net/http"

	"whereat-backend/internal/middleware"
	"whereat-backend/internal/models"
	"whereat-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// EventHandler handles event HTTP requests
type EventHandler struct {
	eventService *services.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// EventResponse is an event with its remaining seats
type EventResponse struct {
	*models.Event
	SeatsLeft int `json:"seatsLeft"`
}

func toEventResponses(events []*models.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{Event: e, SeatsLeft: e.SeatsLeft()})
	}
	return out
}

// ListEvents handles GET /api/v1/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	events, err := h.eventService.ListUpcoming(r.Context())
	if err != nil {
		respondServiceError(w, err, userID, "Failed to list events")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": toEventResponses(events)})
}

// GetEvent handles GET /api/v1/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	detail, err := h.eventService.Detail(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get event")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"event":      EventResponse{Event: detail.Event, SeatsLeft: detail.Event.SeatsLeft()},
		"attendees":  detail.Attendees,
		"hasBooking": detail.HasBooking,
	})
}

// CreateEvent handles POST /api/v1/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.EventInput
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.Create(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to create event")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"event": EventResponse{Event: event, SeatsLeft: event.SeatsLeft()}})
}

// Search handles GET /api/v1/search?q=
func (h *EventHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	result, err := h.eventService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondServiceError(w, err, userID, "Failed to search")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"users":  result.Users,
		"events": toEventResponses(result.Events),
	})
}

package handlers

import (
	"net/http"

	"whereat-backend/internal/middleware"
	"whereat-backend/internal/services"
)

// ConnectionHandler handles connection HTTP requests
type ConnectionHandler struct {
	connectionService *services.ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionService *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// ConnectRequest represents the request body for a connection request
type ConnectRequest struct {
	UserID string `json:"userId"`
}

// RespondRequest represents the request body for answering a connection request
type RespondRequest struct {
	ConnectionID string `json:"connectionId"`
	Action       string `json:"action"`
}

// Request handles POST /api/v1/connections/request
func (h *ConnectionHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req ConnectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	conn, err := h.connectionService.Request(r.Context(), userID, req.UserID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to request connection")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"connection": conn})
}

// Respond handles POST /api/v1/connections/respond
func (h *ConnectionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req RespondRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	conn, err := h.connectionService.Respond(r.Context(), userID, req.ConnectionID, req.Action)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to respond to connection")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "connection": conn})
}

// Status handles GET /api/v1/connections/status
func (h *ConnectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	status, err := h.connectionService.Status(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get connection status")
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Pending handles GET /api/v1/connections/pending?countOnly=
func (h *ConnectionHandler) Pending(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	pending, err := h.connectionService.Pending(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to list pending connections")
		return
	}

	if r.URL.Query().Get("countOnly") == "true" {
		respondJSON(w, http.StatusOK, map[string]int{"count": len(pending)})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

package handlers

import (
	"net/http"

	"whereat-backend/internal/middleware"
	"whereat-backend/internal/services"
)

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	bookingService *services.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// BookRequest represents the request body for booking an event
type BookRequest struct {
	EventID string `json:"eventId"`
}

// Book handles POST /api/v1/bookings
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req BookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.bookingService.BookEvent(r.Context(), userID, req.EventID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to book event")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Cancel handles DELETE /api/v1/bookings?eventId=
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.bookingService.CancelBooking(r.Context(), userID, r.URL.Query().Get("eventId")); err != nil {
		respondServiceError(w, err, userID, "Failed to cancel booking")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// List handles GET /api/v1/bookings?userId=
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	bookings, err := h.bookingService.ListBookings(r.Context(), userID, r.URL.Query().Get("userId"))
	if err != nil {
		respondServiceError(w, err, userID, "Failed to list bookings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

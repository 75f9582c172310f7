package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whereat-backend/internal/metrics"
	"whereat-backend/internal/models"
	"whereat-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BookingResult is returned by BookEvent
type BookingResult struct {
	Booking        *models.Booking `json:"booking"`
	ConversationID *string         `json:"conversationId"`
}

// BookingService handles seat bookings
type BookingService struct {
	bookings      BookingStore
	conversations ConversationStore
	now           Clock
}

// NewBookingService creates a new booking service
func NewBookingService(bookings BookingStore, conversations ConversationStore, now Clock) *BookingService {
	if now == nil {
		now = time.Now
	}
	return &BookingService{bookings: bookings, conversations: conversations, now: now}
}

// BookEvent reserves a seat for the user and joins them to the event conversation
func (s *BookingService) BookEvent(ctx context.Context, userID, eventID string) (*BookingResult, error) {
	if eventID == "" {
		return nil, newError(ErrInvalidInput, "Event ID is required")
	}

	booking := &models.Booking{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventID:   eventID,
		CreatedAt: s.now(),
	}

	if err := s.bookings.Book(ctx, booking); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			metrics.BookingsTotal.WithLabelValues("not_found").Inc()
			return nil, newError(ErrNotFound, "Event not found")
		case errors.Is(err, repository.ErrEventClosed):
			metrics.BookingsTotal.WithLabelValues("closed").Inc()
			return nil, newError(ErrInvalidState, "Event is not open for booking")
		case errors.Is(err, repository.ErrDuplicate):
			metrics.BookingsTotal.WithLabelValues("duplicate").Inc()
			return nil, newError(ErrConflict, "Already booked")
		case errors.Is(err, repository.ErrSoldOut):
			metrics.BookingsTotal.WithLabelValues("sold_out").Inc()
			return nil, newError(ErrExhausted, "Event is full")
		case errors.Is(err, repository.ErrUnknownUser):
			metrics.BookingsTotal.WithLabelValues("unknown_user").Inc()
			return nil, newError(ErrUnauthorized, "Unauthorized")
		}
		metrics.BookingsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to book event: %w", err)
	}
	metrics.BookingsTotal.WithLabelValues("booked").Inc()

	result := &BookingResult{Booking: booking}

	conv, err := s.conversations.GetEventConversation(ctx, eventID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to look up event conversation")
	default:
		if err := s.conversations.AddParticipant(ctx, userID, conv.ID, booking.CreatedAt); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("conversation_id", conv.ID).Msg("Failed to join event conversation")
		} else {
			result.ConversationID = &conv.ID
		}
	}

	log.Info().Str("user_id", userID).Str("event_id", eventID).Msg("Event booked")
	return result, nil
}

// CancelBooking releases the user's seat. The user stays in the event conversation.
func (s *BookingService) CancelBooking(ctx context.Context, userID, eventID string) error {
	if eventID == "" {
		return newError(ErrInvalidInput, "Event ID is required")
	}
	if err := s.bookings.Delete(ctx, userID, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "Booking not found")
		}
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	log.Info().Str("user_id", userID).Str("event_id", eventID).Msg("Booking cancelled")
	return nil
}

// ListBookings returns the bookings of userID. Users may only list their own.
func (s *BookingService) ListBookings(ctx context.Context, requesterID, userID string) ([]*models.Booking, error) {
	if userID == "" {
		userID = requesterID
	}
	if userID != requesterID {
		return nil, newError(ErrForbidden, "Forbidden")
	}
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return bookings, nil
}

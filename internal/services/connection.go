package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whereat-backend/internal/models"
	"whereat-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Respond actions
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// OutgoingConnection is a request the user sent
type OutgoingConnection struct {
	ID         string                  `json:"id"`
	ReceiverID string                  `json:"receiverId"`
	Status     models.ConnectionStatus `json:"status"`
}

// IncomingConnection is a request the user received
type IncomingConnection struct {
	ID       string                  `json:"id"`
	SenderID string                  `json:"senderId"`
	Status   models.ConnectionStatus `json:"status"`
}

// ConnectionStatus lists every connection of a user in both directions
type ConnectionStatus struct {
	Outgoing []OutgoingConnection `json:"outgoing"`
	Incoming []IncomingConnection `json:"incoming"`
}

// ConnectionService handles connection requests between users
type ConnectionService struct {
	connections ConnectionStore
	users       UserStore
	notifier    *Notifier
	now         Clock
}

// NewConnectionService creates a new connection service
func NewConnectionService(connections ConnectionStore, users UserStore, notifier *Notifier, now Clock) *ConnectionService {
	if now == nil {
		now = time.Now
	}
	return &ConnectionService{connections: connections, users: users, notifier: notifier, now: now}
}

// Request creates a PENDING connection from sender to receiver
func (s *ConnectionService) Request(ctx context.Context, senderID, receiverID string) (*models.Connection, error) {
	if receiverID == "" {
		return nil, newError(ErrInvalidInput, "Invalid user ID")
	}
	if senderID == receiverID {
		return nil, newError(ErrConflict, "Cannot connect with yourself")
	}

	exists, err := s.users.Exists(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, newError(ErrNotFound, "User not found")
	}

	if _, err := s.connections.FindBetween(ctx, senderID, receiverID); err == nil {
		return nil, newError(ErrConflict, "Connection request already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check connection: %w", err)
	}

	now := s.now()
	conn := &models.Connection{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.ConnectionPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.connections.Create(ctx, conn); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "Connection request already exists")
		}
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	log.Info().Str("sender_id", senderID).Str("receiver_id", receiverID).Msg("Connection requested")
	s.notifier.Notify(ctx, receiverID, Notification{
		Type:  NotifyConnectionRequest,
		Title: "New connection request",
		Body:  "Someone wants to connect with you",
		Data:  conn,
	})
	return conn, nil
}

// Respond accepts or declines a pending request. Only the receiver may respond,
// and a resolved connection keeps its status.
func (s *ConnectionService) Respond(ctx context.Context, invokerID, connectionID, action string) (*models.Connection, error) {
	var status models.ConnectionStatus
	switch action {
	case ActionAccept:
		status = models.ConnectionAccepted
	case ActionDecline:
		status = models.ConnectionRejected
	default:
		return nil, newError(ErrInvalidInput, "Invalid payload")
	}
	if connectionID == "" {
		return nil, newError(ErrInvalidInput, "Invalid payload")
	}

	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Connection not found")
		}
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	if conn.ReceiverID != invokerID {
		return nil, newError(ErrForbidden, "Only the receiver can respond to this request")
	}
	if conn.Status != models.ConnectionPending {
		return nil, newError(ErrInvalidState, "Connection request already %s", conn.Status)
	}

	now := s.now()
	ok, err := s.connections.Resolve(ctx, connectionID, invokerID, status, now)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve connection: %w", err)
	}
	if !ok {
		return nil, newError(ErrInvalidState, "Connection request already resolved")
	}
	conn.Status = status
	conn.UpdatedAt = now

	log.Info().Str("connection_id", connectionID).Str("status", string(status)).Msg("Connection resolved")
	if status == models.ConnectionAccepted {
		s.notifier.Notify(ctx, conn.SenderID, Notification{
			Type:  NotifyConnectionResolved,
			Title: "Connection accepted",
			Body:  "Your connection request was accepted",
			Data:  conn,
		})
	}
	return conn, nil
}

// Status returns the outgoing and incoming connections of a user
func (s *ConnectionService) Status(ctx context.Context, userID string) (*ConnectionStatus, error) {
	sent, err := s.connections.ListBySender(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing connections: %w", err)
	}
	received, err := s.connections.ListByReceiver(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming connections: %w", err)
	}

	status := &ConnectionStatus{
		Outgoing: make([]OutgoingConnection, 0, len(sent)),
		Incoming: make([]IncomingConnection, 0, len(received)),
	}
	for _, c := range sent {
		status.Outgoing = append(status.Outgoing, OutgoingConnection{ID: c.ID, ReceiverID: c.ReceiverID, Status: c.Status})
	}
	for _, c := range received {
		status.Incoming = append(status.Incoming, IncomingConnection{ID: c.ID, SenderID: c.SenderID, Status: c.Status})
	}
	return status, nil
}

// Pending returns the PENDING requests addressed to the user, newest first
func (s *ConnectionService) Pending(ctx context.Context, userID string) ([]*models.ConnectionRequest, error) {
	pending, err := s.connections.ListPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending connections: %w", err)
	}
	if pending == nil {
		pending = []*models.ConnectionRequest{}
	}
	return pending, nil
}

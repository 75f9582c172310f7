package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

const pushTimeout = 5 * time.Second

// Notification types
const (
	NotifyMessageCreated     = "message_created"
	NotifyConnectionRequest  = "connection_request"
	NotifyConnectionResolved = "connection_resolved"
)

// Notification is an event delivered to a user
type Notification struct {
	Type  string
	Title string
	Body  string
	Data  any
}

// Notifier delivers notifications over the websocket hub when the user is
// online and through the pusher otherwise. A nil Notifier drops everything.
type Notifier struct {
	hub    *Hub
	pusher Pusher
	users  UserStore
	now    Clock
}

// NewNotifier creates a notifier. pusher may be nil when push is not configured.
func NewNotifier(hub *Hub, pusher Pusher, users UserStore, now Clock) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{hub: hub, pusher: pusher, users: users, now: now}
}

// Notify delivers n to userID. Failures are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, userID string, note Notification) {
	if n == nil {
		return
	}

	if n.hub != nil && n.hub.IsOnline(userID) {
		err := n.hub.SendToUser(userID, WSMessage{
			Type:      note.Type,
			Timestamp: n.now().UnixMilli(),
			Data:      note.Data,
		})
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("user_id", userID).Msg("WebSocket delivery failed, falling back to push")
	}

	if n.pusher == nil {
		return
	}

	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for push")
		return
	}
	if user.PushToken == nil {
		return
	}

	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	err = n.pusher.Push(pushCtx, *user.PushToken, note)
	switch {
	case err == nil:
	case errors.Is(err, ErrDeviceGone):
		log.Info().Str("user_id", userID).Msg("Clearing stale push token")
		if err := n.users.UpdatePushToken(ctx, userID, nil); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to clear push token")
		}
	default:
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to push notification")
	}
}

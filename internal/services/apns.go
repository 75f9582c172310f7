package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// ErrDeviceGone is returned when APNs reports the device token is no longer valid
var ErrDeviceGone = errors.New("device token no longer valid")

// Pusher delivers a notification to a device
type Pusher interface {
	Push(ctx context.Context, deviceToken string, n Notification) error
}

// APNsPusher sends notifications through Apple Push Notification service
type APNsPusher struct {
	client *apns2.Client
	topic  string
}

// NewAPNsPusher creates a token-based APNs client from a .p8 key file
func NewAPNsPusher(keyPath, keyID, teamID, topic string, production bool) (*APNsPusher, error) {
	authKey, err := token.AuthKeyFromFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	})
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsPusher{client: client, topic: topic}, nil
}

// Push sends an alert with the notification type and data as custom keys
func (p *APNsPusher) Push(ctx context.Context, deviceToken string, n Notification) error {
	pl := payload.NewPayload().
		AlertTitle(n.Title).
		AlertBody(n.Body).
		Sound("default").
		Custom("type", n.Type)
	if n.Data != nil {
		pl = pl.Custom("data", n.Data)
	}

	res, err := p.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     pl,
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if res.Sent() {
		return nil
	}
	if res.Reason == apns2.ReasonUnregistered || res.Reason == apns2.ReasonBadDeviceToken {
		return ErrDeviceGone
	}
	return fmt.Errorf("apns rejected notification: %d %s", res.StatusCode, res.Reason)
}

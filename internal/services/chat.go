package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"whereat-backend/internal/metrics"
	"whereat-backend/internal/models"
	"whereat-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxMessageLength    = 2000
	unknownConversation = "Unknown Conversation"
)

// ConversationItem is a conversation as shown in the inbox
type ConversationItem struct {
	ID          string                  `json:"id"`
	Type        models.ConversationType `json:"type"`
	Name        string                  `json:"name"`
	EventID     *string                 `json:"eventId,omitempty"`
	LastMessage *models.Message         `json:"lastMessage"`
	Members     []models.Member         `json:"members"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// ChatMessage is a message as shown in a conversation
type ChatMessage struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	CreatedAt  time.Time `json:"createdAt"`
	IsMe       bool      `json:"isMe"`
}

// ChatService handles direct and event conversations
type ChatService struct {
	conversations ConversationStore
	users         UserStore
	notifier      *Notifier
	now           Clock
}

// NewChatService creates a new chat service
func NewChatService(conversations ConversationStore, users UserStore, notifier *Notifier, now Clock) *ChatService {
	if now == nil {
		now = time.Now
	}
	return &ChatService{conversations: conversations, users: users, notifier: notifier, now: now}
}

// GetOrCreateDirect returns the one-to-one conversation between two users, creating it if needed
func (s *ChatService) GetOrCreateDirect(ctx context.Context, userID, otherID string) (*models.Conversation, error) {
	if otherID == "" || otherID == userID {
		return nil, newError(ErrInvalidInput, "Invalid user ID")
	}

	exists, err := s.users.Exists(ctx, otherID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, newError(ErrNotFound, "User not found")
	}

	now := s.now()
	conv, created, err := s.conversations.FindOrCreateDirect(ctx, userID, otherID, &models.Conversation{
		ID:        uuid.New().String(),
		Type:      models.ConversationDirect,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get direct conversation: %w", err)
	}
	if created {
		log.Info().Str("conversation_id", conv.ID).Str("user_id", userID).Str("other_id", otherID).Msg("Direct conversation created")
	}
	return conv, nil
}

// SendMessage appends a message to a conversation the sender participates in
func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error) {
	ok, err := s.conversations.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participant: %w", err)
	}
	if !ok {
		return nil, newError(ErrForbidden, "Not a participant of this conversation")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newError(ErrInvalidInput, "Message cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, newError(ErrInvalidInput, "Message exceeds %d characters", maxMessageLength)
	}

	msg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      s.now(),
	}
	if err := s.conversations.AppendMessage(ctx, msg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Conversation not found")
		}
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	metrics.MessagesSentTotal.Inc()

	members, err := s.conversations.ParticipantIDs(ctx, conversationID)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to list participants for notification")
		return msg, nil
	}
	for _, uid := range members {
		if uid == senderID {
			continue
		}
		s.notifier.Notify(ctx, uid, Notification{
			Type:  NotifyMessageCreated,
			Title: "New message",
			Body:  preview(content),
			Data:  msg,
		})
	}
	return msg, nil
}

// ListConversations returns the user's conversations, most recently active first
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]*ConversationItem, error) {
	summaries, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	items := make([]*ConversationItem, 0, len(summaries))
	for _, sum := range summaries {
		members := sum.Members
		if members == nil {
			members = []models.Member{}
		}
		items = append(items, &ConversationItem{
			ID:          sum.Conversation.ID,
			Type:        sum.Conversation.Type,
			Name:        displayName(sum, userID),
			EventID:     sum.Conversation.EventID,
			LastMessage: sum.LastMessage,
			Members:     members,
			UpdatedAt:   sum.Conversation.UpdatedAt,
		})
	}
	return items, nil
}

// ListMessages returns the messages of a conversation, oldest first
func (s *ChatService) ListMessages(ctx context.Context, conversationID, requesterID string) ([]*ChatMessage, error) {
	ok, err := s.conversations.IsParticipant(ctx, conversationID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participant: %w", err)
	}
	if !ok {
		return nil, newError(ErrForbidden, "Not a participant of this conversation")
	}

	views, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]*ChatMessage, 0, len(views))
	for _, v := range views {
		messages = append(messages, &ChatMessage{
			ID:         v.ID,
			Content:    v.Content,
			SenderID:   v.SenderID,
			SenderName: memberName(v.Sender),
			CreatedAt:  v.CreatedAt,
			IsMe:       v.SenderID == requesterID,
		})
	}
	return messages, nil
}

func displayName(sum *models.ConversationSummary, userID string) string {
	switch sum.Conversation.Type {
	case models.ConversationDirect:
		for _, m := range sum.Members {
			if m.UserID != userID {
				return memberName(m)
			}
		}
	case models.ConversationEvent:
		if sum.Conversation.Name != nil && *sum.Conversation.Name != "" {
			return *sum.Conversation.Name
		}
	}
	return unknownConversation
}

func memberName(m models.Member) string {
	if m.Name != nil && *m.Name != "" {
		return *m.Name
	}
	return m.Phone
}

func preview(content string) string {
	const max = 100
	if utf8.RuneCountInString(content) <= max {
		return content
	}
	r := []rune(content)
	return string(r[:max]) + "…"
}

package handlers

import (
	"net/http"

	"whereat-backend/internal/middleware"
	"whereat-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ChatHandler handles conversation HTTP requests
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// DirectRequest represents the request body for opening a direct conversation
type DirectRequest struct {
	UserID string `json:"userId"`
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Content string `json:"content"`
}

// Direct handles POST /api/v1/conversations/direct
func (h *ChatHandler) Direct(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req DirectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	conv, err := h.chatService.GetOrCreateDirect(r.Context(), userID, req.UserID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to open direct conversation")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"conversationId": conv.ID, "conversation": conv})
}

// ListConversations handles GET /api/v1/conversations
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	items, err := h.chatService.ListConversations(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to list conversations")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"conversations": items})
}

// ListMessages handles GET /api/v1/conversations/{id}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	messages, err := h.chatService.ListMessages(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to list messages")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// SendMessage handles POST /api/v1/conversations/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), chi.URLParam(r, "id"), userID, req.Content)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to send message")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

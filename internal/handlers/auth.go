package handlers

import (
	"net/http"

	"whereat-backend/internal/middleware"
	"whereat-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles login and account HTTP requests
type AuthHandler struct {
	authService *services.AuthService
	exposeOTP   bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, exposeOTP bool) *AuthHandler {
	return &AuthHandler{authService: authService, exposeOTP: exposeOTP}
}

// LoginRequest represents the request body for a phone login
type LoginRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// PushTokenRequest represents the request body for registering a device
type PushTokenRequest struct {
	PushToken string `json:"pushToken"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Phone, req.OTP)
	if err != nil {
		respondServiceError(w, err, "", "Failed to log in")
		return
	}

	log.Info().
		Str("user_id", result.User.ID).
		Bool("created", result.Created).
		Msg("User logged in")

	respondJSON(w, http.StatusOK, result)
}

// DebugOTP handles GET /api/v1/auth/debug-otp
func (h *AuthHandler) DebugOTP(w http.ResponseWriter, r *http.Request) {
	if !h.exposeOTP {
		respondError(w, "Not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"mockOtp": h.authService.MockOTP(),
		"message": "This endpoint shows the mock OTP value being used",
	})
}

// Me handles GET /api/v1/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	me, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get current user")
		return
	}
	respondJSON(w, http.StatusOK, me)
}

// UpdatePushToken handles PUT /api/v1/users/me/push-token
func (h *AuthHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.UpdatePushToken(r.Context(), userID, req.PushToken); err != nil {
		respondServiceError(w, err, userID, "Failed to update push token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

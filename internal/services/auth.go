package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"whereat-backend/internal/models"
	"whereat-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthService handles phone login and session tokens
type AuthService struct {
	users    UserStore
	profiles ProfileStore
	secret   []byte
	ttl      time.Duration
	mockOTP  string
	now      Clock
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, profiles ProfileStore, secret string, ttl time.Duration, mockOTP string, now Clock) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:    users,
		profiles: profiles,
		secret:   []byte(secret),
		ttl:      ttl,
		mockOTP:  mockOTP,
		now:      now,
	}
}

// LoginResult is returned after a successful OTP exchange
type LoginResult struct {
	Token           string       `json:"token"`
	User            *models.User `json:"user"`
	Created         bool         `json:"created"`
	ProfileComplete bool         `json:"profileComplete"`
}

// Me is the authenticated user with their profile, if onboarding is done
type Me struct {
	User    *models.User    `json:"user"`
	Profile *models.Profile `json:"profile"`
}

// MockOTP returns the code every login accepts
func (s *AuthService) MockOTP() string {
	return s.mockOTP
}

// Login verifies the OTP and returns a session token, creating the user on first login
func (s *AuthService) Login(ctx context.Context, phone, otp string) (*LoginResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, newError(ErrInvalidInput, "Phone number is required")
	}
	if strings.TrimSpace(otp) != s.mockOTP {
		return nil, newError(ErrUnauthorized, "Invalid OTP")
	}

	user, created, err := s.users.FindOrCreateByPhone(ctx, &models.User{
		ID:        uuid.New().String(),
		Phone:     phone,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find or create user: %w", err)
	}

	token, err := s.GenerateJWT(user)
	if err != nil {
		return nil, err
	}

	complete := true
	if _, err := s.profiles.GetByUserID(ctx, user.ID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
		complete = false
	}

	return &LoginResult{Token: token, User: user, Created: created, ProfileComplete: complete}, nil
}

// GenerateJWT generates a JWT token for a user
func (s *AuthService) GenerateJWT(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"phone":   user.Phone,
		"exp":     now.Add(s.ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the user ID
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id not found in token")
	}
	return userID, nil
}

// Me returns the user and their profile
func (s *AuthService) Me(ctx context.Context, userID string) (*Me, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "Unauthorized")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &Me{User: user, Profile: profile}, nil
}

// UpdatePushToken stores the device token used for APNs. An empty token clears it.
func (s *AuthService) UpdatePushToken(ctx context.Context, userID, pushToken string) error {
	var token *string
	if t := strings.TrimSpace(pushToken); t != "" {
		token = &t
	}
	if err := s.users.UpdatePushToken(ctx, userID, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrUnauthorized, "Unauthorized")
		}
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

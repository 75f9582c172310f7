package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"whereat-backend/internal/models"
	"whereat-backend/internal/services"
	"whereat-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testServer struct {
	db     *testutil.DB
	router http.Handler
}

func newTestServer(t *testing.T, exposeOTP bool, pinger Pinger) *testServer {
	t.Helper()
	db := testutil.NewDB()
	hub := services.NewHub()
	t.Cleanup(hub.CloseAll)
	notifier := services.NewNotifier(hub, nil, db.Users(), nil)

	auth := services.NewAuthService(db.Users(), db.Profiles(), "handler-secret", time.Hour, "000000", nil)
	events := services.NewEventService(db.Events(), db.Profiles(), db.Bookings(), db.Conversations(), db.Users(), nil)
	feed := services.NewFeedService(db.Posts(), db.Events(), db.Profiles(), db.Connections(), services.DefaultFeedOptions(), nil)

	router := NewRouter(Handlers{
		Auth:        NewAuthHandler(auth, exposeOTP),
		Profile:     NewProfileHandler(services.NewProfileService(db.Profiles(), db.Posts(), db.Bookings(), db.Connections(), nil)),
		Event:       NewEventHandler(events),
		Booking:     NewBookingHandler(services.NewBookingService(db.Bookings(), db.Conversations(), nil)),
		Connection:  NewConnectionHandler(services.NewConnectionService(db.Connections(), db.Users(), notifier, nil)),
		Chat:        NewChatHandler(services.NewChatService(db.Conversations(), db.Users(), notifier, nil)),
		Post:        NewPostHandler(services.NewPostService(db.Posts(), db.Places(), nil)),
		Media:       NewMediaHandler(nil),
		Feed:        NewFeedHandler(feed),
		Place:       NewPlaceHandler(services.NewPlaceService(db.Places(), nil)),
		Meta:        NewMetaHandler(pinger, 3*time.Second, 10*time.Second),
		WebSocket:   NewWebSocketHandler(hub, auth, nil),
		Validator:   auth,
		CORSOrigins: []string{"*"},
	})
	return &testServer{db: db, router: router}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, phone string) services.LoginResult {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Phone: phone, OTP: "000000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res services.LoginResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind error
		want int
	}{
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrConflict, http.StatusConflict},
		{services.ErrInvalidState, http.StatusConflict},
		{services.ErrExhausted, http.StatusBadRequest},
		{services.ErrInvalidInput, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := &services.Error{Kind: tt.kind, Message: "x"}
		assert.Equal(t, tt.want, statusFor(err), tt.kind.Error())
	}
}

func TestRespondServiceError_HidesUnexpected(t *testing.T) {
	w := httptest.NewRecorder()
	respondServiceError(w, fmt.Errorf("query failed: %w", errors.New("connection reset")), "alice", "Failed")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode[ErrorResponse](t, w).Message)

	w = httptest.NewRecorder()
	respondServiceError(w, &services.Error{Kind: services.ErrConflict, Message: "Already booked"}, "alice", "Failed")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Already booked", decode[ErrorResponse](t, w).Message)
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t, false, nil)

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Phone: "+911234567890", OTP: "111111"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid OTP", decode[ErrorResponse](t, w).Message)

	res := s.login(t, "+911234567890")
	assert.True(t, res.Created)
	assert.False(t, res.ProfileComplete)

	w = s.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/users/me", res.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[services.Me](t, w)
	assert.Equal(t, res.User.ID, me.User.ID)
	assert.Nil(t, me.Profile)

	w = s.do(t, http.MethodPost, "/api/v1/profile", res.Token, services.ProfileInput{
		Name:      "Alice",
		City:      "Mumbai",
		Interests: []string{"Coffee", "Tech", "Food"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	again := s.login(t, "+911234567890")
	assert.False(t, again.Created)
	assert.True(t, again.ProfileComplete)
	assert.Equal(t, res.User.ID, again.User.ID)
}

func TestInvalidBody(t *testing.T) {
	s := newTestServer(t, false, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode[ErrorResponse](t, w).Message)
}

type eventPage struct {
	Event      map[string]any      `json:"event"`
	Attendees  []services.Attendee `json:"attendees"`
	HasBooking bool                `json:"hasBooking"`
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t, false, nil)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.db.Events().Create(ctx, &models.Event{
		ID:           "event-1",
		Title:        "Supper Club",
		DateTime:     now.Add(48 * time.Hour),
		LocationName: "Bandra",
		MaxSeats:     1,
		Price:        1500,
		Status:       models.EventUpcoming,
		CreatedBy:    "WhereAt Team",
		CreatedAt:    now,
	}, nil, ""))

	alice := s.login(t, "+911111111111")
	bob := s.login(t, "+912222222222")

	w := s.do(t, http.MethodPost, "/api/v1/bookings", alice.Token, BookRequest{EventID: "event-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	booked := decode[services.BookingResult](t, w)
	assert.Equal(t, "event-1", booked.Booking.EventID)

	w = s.do(t, http.MethodPost, "/api/v1/bookings", alice.Token, BookRequest{EventID: "event-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Already booked", decode[ErrorResponse](t, w).Message)

	w = s.do(t, http.MethodPost, "/api/v1/bookings", bob.Token, BookRequest{EventID: "event-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Event is full", decode[ErrorResponse](t, w).Message)

	w = s.do(t, http.MethodPost, "/api/v1/bookings", bob.Token, BookRequest{EventID: "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/events/event-1", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[eventPage](t, w)
	assert.EqualValues(t, 0, page.Event["seatsLeft"])
	assert.True(t, page.HasBooking)
	assert.Equal(t, []services.Attendee{{ID: alice.User.ID, Name: "Guest"}}, page.Attendees)

	w = s.do(t, http.MethodGet, "/api/v1/events/event-1", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[eventPage](t, w)
	assert.False(t, page.HasBooking)
	assert.Len(t, page.Attendees, 1)

	w = s.do(t, http.MethodGet, "/api/v1/bookings?userId="+bob.User.ID, alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/bookings?eventId=event-1", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/bookings", bob.Token, BookRequest{EventID: "event-1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetUser(t *testing.T) {
	s := newTestServer(t, false, nil)
	ctx := context.Background()
	alice := s.login(t, "+911111111111")
	bob := s.login(t, "+912222222222")
	now := time.Now()
	require.NoError(t, s.db.Profiles().Upsert(ctx, &models.Profile{
		UserID:    bob.User.ID,
		Name:      "Bob",
		City:      "Mumbai",
		Interests: []string{"Coffee", "Tech", "Art"},
		CreatedAt: now,
		UpdatedAt: now,
	}))

	w := s.do(t, http.MethodGet, "/api/v1/users/"+bob.User.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[services.ProfileView](t, w)
	assert.Equal(t, bob.User.ID, view.ID)
	assert.False(t, view.IsMe)
	require.NotNil(t, view.Profile)
	assert.Equal(t, "Bob", view.Profile.Name)
	assert.NotNil(t, view.Posts)
	assert.NotNil(t, view.Bookings)
	assert.Nil(t, view.Connection)

	// alice never finished onboarding
	w = s.do(t, http.MethodGet, "/api/v1/users/"+alice.User.ID, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decode[ErrorResponse](t, w).Message)
}

func TestHealth(t *testing.T) {
	healthy := newTestServer(t, false, fakePinger{})
	w := healthy.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["status"])

	down := newTestServer(t, false, fakePinger{err: errors.New("db down")})
	w = down.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decode[map[string]string](t, w)["status"])
}

func TestMeta(t *testing.T) {
	s := newTestServer(t, false, nil)
	w := s.do(t, http.MethodGet, "/api/v1/meta", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	meta := decode[map[string]int64](t, w)
	assert.Equal(t, int64(3000), meta["messagePollMs"])
	assert.Equal(t, int64(10000), meta["conversationPollMs"])

	w = s.do(t, http.MethodGet, "/api/v1/interests", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]string](t, w)["interests"], 8)
}

func TestDebugOTP(t *testing.T) {
	hidden := newTestServer(t, false, nil)
	w := hidden.do(t, http.MethodGet, "/api/v1/auth/debug-otp", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	shown := newTestServer(t, true, nil)
	w = shown.do(t, http.MethodGet, "/api/v1/auth/debug-otp", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "000000", decode[map[string]string](t, w)["mockOtp"])
}

func TestPresign_Disabled(t *testing.T) {
	s := newTestServer(t, false, nil)
	alice := s.login(t, "+911111111111")

	w := s.do(t, http.MethodPost, "/api/v1/uploads/presign", alice.Token, PresignRequest{Filename: "a.jpg", ContentType: "image/jpeg"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Uploads are not configured", decode[ErrorResponse](t, w).Message)
}

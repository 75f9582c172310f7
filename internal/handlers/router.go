package handlers

import (
	"net/http"

	"whereat-backend/internal/metrics"
	"whereat-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Handlers bundles every HTTP handler served by the API
type Handlers struct {
	Auth        *AuthHandler
	Profile     *ProfileHandler
	Event       *EventHandler
	Booking     *BookingHandler
	Connection  *ConnectionHandler
	Chat        *ChatHandler
	Post        *PostHandler
	Media       *MediaHandler
	Feed        *FeedHandler
	Place       *PlaceHandler
	Meta        *MetaHandler
	WebSocket   *WebSocketHandler
	Validator   middleware.TokenValidator
	LoginLimit  *middleware.RateLimiter
	CORSOrigins []string
}

// NewRouter wires the routes under /api/v1 plus health, metrics and the websocket endpoint
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   h.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           86400,
	}).Handler)

	r.Get("/health", h.Meta.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", h.WebSocket.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			if h.LoginLimit != nil {
				r.Use(h.LoginLimit.Handler)
			}
			r.Post("/auth/login", h.Auth.Login)
		})
		r.Get("/auth/debug-otp", h.Auth.DebugOTP)
		r.Get("/interests", h.Profile.Interests)
		r.Get("/meta", h.Meta.Meta)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.Validator))

			r.Get("/users/me", h.Auth.Me)
			r.Put("/users/me/push-token", h.Auth.UpdatePushToken)
			r.Get("/users/{id}", h.Profile.GetUser)

			r.Get("/profile", h.Profile.GetProfile)
			r.Post("/profile", h.Profile.UpsertProfile)

			r.Get("/events", h.Event.ListEvents)
			r.Post("/events", h.Event.CreateEvent)
			r.Get("/events/{id}", h.Event.GetEvent)
			r.Get("/search", h.Event.Search)

			r.Post("/bookings", h.Booking.Book)
			r.Delete("/bookings", h.Booking.Cancel)
			r.Get("/bookings", h.Booking.List)

			r.Post("/connections/request", h.Connection.Request)
			r.Post("/connections/respond", h.Connection.Respond)
			r.Get("/connections/status", h.Connection.Status)
			r.Get("/connections/pending", h.Connection.Pending)

			r.Post("/conversations/direct", h.Chat.Direct)
			r.Get("/conversations", h.Chat.ListConversations)
			r.Get("/conversations/{id}/messages", h.Chat.ListMessages)
			r.Post("/conversations/{id}/messages", h.Chat.SendMessage)

			r.Get("/posts", h.Post.ListPosts)
			r.Post("/posts", h.Post.CreatePost)
			r.Post("/posts/like", h.Post.ToggleLike)
			r.Post("/posts/comment", h.Post.AddComment)

			r.Post("/uploads/presign", h.Media.Presign)

			r.Get("/feed", h.Feed.Feed)
			r.Get("/feed/sidebar", h.Feed.Sidebar)

			r.Get("/places", h.Place.ListPlaces)
			r.Get("/places/{id}", h.Place.GetPlace)
			r.Post("/places/{id}/reviews", h.Place.AddReview)
		})
	})

	return r
}

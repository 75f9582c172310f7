package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"whereat-backend/internal/models"
)

// Feed item types
const (
	FeedItemRegular = "regular"
	FeedItemEvent   = "event"
	FeedItemPlace   = "place"
)

// HighlightAuthor is the fixed author of synthesized feed entries
var HighlightAuthor = models.Author{
	ID:   "whereat-highlight",
	Name: strPtr("WhereAt Team"),
	City: strPtr("Mumbai"),
}

// FeedOptions tunes feed aggregation
type FeedOptions struct {
	PostLimit       int
	CommentLimit    int
	EventWindow     time.Duration
	EventHighlights int
	PlaceHighlights int
	PlaceScanPosts  int
	SuggestedUsers  int
}

// DefaultFeedOptions returns the standard feed sizes
func DefaultFeedOptions() FeedOptions {
	return FeedOptions{
		PostLimit:       20,
		CommentLimit:    10,
		EventWindow:     7 * 24 * time.Hour,
		EventHighlights: 5,
		PlaceHighlights: 4,
		PlaceScanPosts:  100,
		SuggestedUsers:  5,
	}
}

// EventHighlight is an upcoming event promoted in the feed and sidebar
type EventHighlight struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	DateTime      time.Time `json:"dateTime"`
	Venue         string    `json:"venue"`
	Price         int       `json:"price"`
	ImageURL      *string   `json:"imageUrl,omitempty"`
	AttendeeCount int       `json:"attendeeCount"`
}

// PlaceHighlight is a location many users posted from
type PlaceHighlight struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	City        *string  `json:"city"`
	Friends     int      `json:"friends"`
	FriendNames []string `json:"friendNames"`
	Snippet     string   `json:"snippet"`
	Tags        []string `json:"tags"`
}

// SuggestedUser is a profile offered for connecting
type SuggestedUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	City        string `json:"city"`
	Connections int    `json:"connections"`
}

// Sidebar is the data shown beside the feed
type Sidebar struct {
	SuggestedUsers []SuggestedUser  `json:"suggestedUsers"`
	WeekendEvents  []EventHighlight `json:"weekendEvents"`
	FavoritePlaces []PlaceHighlight `json:"favoritePlaces"`
}

// FeedItem is one entry of the merged feed
type FeedItem struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	CreatedAt time.Time        `json:"createdAt"`
	Author    models.Author    `json:"author"`
	Post      *models.PostView `json:"post,omitempty"`
	Event     *EventHighlight  `json:"event,omitempty"`
	Place     *PlaceHighlight  `json:"place,omitempty"`
}

// FeedService aggregates posts and highlights
type FeedService struct {
	posts       PostStore
	events      EventStore
	profiles    ProfileStore
	connections ConnectionStore
	opts        FeedOptions
	now         Clock
}

// NewFeedService creates a new feed service
func NewFeedService(posts PostStore, events EventStore, profiles ProfileStore, connections ConnectionStore, opts FeedOptions, now Clock) *FeedService {
	if now == nil {
		now = time.Now
	}
	return &FeedService{
		posts:       posts,
		events:      events,
		profiles:    profiles,
		connections: connections,
		opts:        opts,
		now:         now,
	}
}

// BuildFeed merges recent posts with event and place highlights, newest first.
// Equal timestamps keep the order events, places, posts.
func (s *FeedService) BuildFeed(ctx context.Context, userID string) ([]*FeedItem, error) {
	posts, err := s.posts.ListRecent(ctx, s.opts.PostLimit, s.opts.CommentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	events, err := s.EventHighlights(ctx)
	if err != nil {
		return nil, err
	}
	places, err := s.PlaceHighlights(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]*FeedItem, 0, len(events)+len(places)+len(posts))
	for i := range events {
		e := &events[i]
		items = append(items, &FeedItem{
			ID:        "event-" + e.ID,
			Type:      FeedItemEvent,
			CreatedAt: e.DateTime,
			Author:    HighlightAuthor,
			Event:     e,
		})
	}
	for i := range places {
		p := &places[i]
		items = append(items, &FeedItem{
			ID:        "place-" + p.ID,
			Type:      FeedItemPlace,
			CreatedAt: now,
			Author:    HighlightAuthor,
			Place:     p,
		})
	}
	for _, p := range posts {
		items = append(items, &FeedItem{
			ID:        p.ID,
			Type:      FeedItemRegular,
			CreatedAt: p.CreatedAt,
			Author:    p.Author,
			Post:      p,
		})
	}

	slices.SortStableFunc(items, func(a, b *FeedItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return items, nil
}

// Sidebar returns suggested users, weekend events and favourite places
func (s *FeedService) Sidebar(ctx context.Context, userID string) (*Sidebar, error) {
	users, err := s.SuggestedUsers(ctx, userID)
	if err != nil {
		return nil, err
	}
	events, err := s.EventHighlights(ctx)
	if err != nil {
		return nil, err
	}
	places, err := s.PlaceHighlights(ctx)
	if err != nil {
		return nil, err
	}
	return &Sidebar{SuggestedUsers: users, WeekendEvents: events, FavoritePlaces: places}, nil
}

// SuggestedUsers returns the newest profiles other than the user's with their accepted connection counts
func (s *FeedService) SuggestedUsers(ctx context.Context, userID string) ([]SuggestedUser, error) {
	profiles, err := s.profiles.ListRecent(ctx, userID, s.opts.SuggestedUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	users := make([]SuggestedUser, 0, len(profiles))
	if len(profiles) == 0 {
		return users, nil
	}

	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	counts, err := s.connections.CountAccepted(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count connections: %w", err)
	}

	for _, p := range profiles {
		users = append(users, SuggestedUser{ID: p.UserID, Name: p.Name, City: p.City, Connections: counts[p.UserID]})
	}
	return users, nil
}

// EventHighlights returns UPCOMING events inside the lookahead window, or the
// next upcoming events when the window is empty
func (s *FeedService) EventHighlights(ctx context.Context) ([]EventHighlight, error) {
	now := s.now()
	end := now.Add(s.opts.EventWindow)

	events, err := s.events.ListUpcoming(ctx, now, &end, s.opts.EventHighlights)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekend events: %w", err)
	}
	if len(events) == 0 {
		events, err = s.events.ListUpcoming(ctx, now, nil, s.opts.EventHighlights)
		if err != nil {
			return nil, fmt.Errorf("failed to list upcoming events: %w", err)
		}
	}

	highlights := make([]EventHighlight, 0, len(events))
	for _, e := range events {
		highlights = append(highlights, EventHighlight{
			ID:            e.ID,
			Title:         e.Title,
			DateTime:      e.DateTime,
			Venue:         e.LocationName,
			Price:         e.Price,
			ImageURL:      e.ImageURL,
			AttendeeCount: e.SeatsBooked,
		})
	}
	return highlights, nil
}

// PlaceHighlights groups recent located posts by location and ranks them by distinct posters
func (s *FeedService) PlaceHighlights(ctx context.Context) ([]PlaceHighlight, error) {
	posts, err := s.posts.ListLocated(ctx, s.opts.PlaceScanPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to list located posts: %w", err)
	}

	type group struct {
		place   PlaceHighlight
		posters map[string]bool
		names   map[string]bool
	}
	var order []*group
	bySlug := make(map[string]*group)

	for _, p := range posts {
		if p.Location == nil {
			continue
		}
		name := trimmed(p.Location)
		if name == nil {
			continue
		}
		slug := Slugify(*name)
		if slug == "" {
			continue
		}

		g, ok := bySlug[slug]
		if !ok {
			g = &group{
				place:   PlaceHighlight{ID: slug, Name: *name, City: p.Author.City, FriendNames: []string{}},
				posters: make(map[string]bool),
				names:   make(map[string]bool),
			}
			bySlug[slug] = g
			order = append(order, g)
		}
		g.posters[p.UserID] = true
		if n := p.Author.Name; n != nil && *n != "" && !g.names[*n] {
			g.names[*n] = true
			g.place.FriendNames = append(g.place.FriendNames, *n)
		}
	}

	slices.SortStableFunc(order, func(a, b *group) int {
		return len(b.posters) - len(a.posters)
	})
	if len(order) > s.opts.PlaceHighlights {
		order = order[:s.opts.PlaceHighlights]
	}

	highlights := make([]PlaceHighlight, 0, len(order))
	for _, g := range order {
		place := g.place
		place.Friends = len(g.posters)
		place.Snippet = placeSnippet(place.Friends)
		if place.City != nil && *place.City != "" {
			place.Tags = []string{*place.City}
		} else {
			place.Tags = []string{"Community"}
		}
		highlights = append(highlights, place)
	}
	return highlights, nil
}

func placeSnippet(friends int) string {
	switch friends {
	case 0:
		return "Be the first to check in here"
	case 1:
		return "1 friend mentioned this spot"
	}
	return fmt.Sprintf("%d friends mentioned this spot", friends)
}

func strPtr(s string) *string {
	return &s
}

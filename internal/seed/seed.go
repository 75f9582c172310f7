package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"whereat-backend/internal/models"
	"whereat-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var defaultData []byte

// Data is the demo dataset. Times are offsets from the moment it is applied.
type Data struct {
	Users    []User    `yaml:"users"`
	Events   []Event   `yaml:"events"`
	Bookings []Booking `yaml:"bookings"`
	Places   []Place   `yaml:"places"`
	Posts    []Post    `yaml:"posts"`
	Likes    []Like    `yaml:"likes"`
	Comments []Comment `yaml:"comments"`
	Reviews  []Review  `yaml:"reviews"`
}

type User struct {
	Key       string   `yaml:"key"`
	ID        string   `yaml:"id"`
	Phone     string   `yaml:"phone"`
	Name      string   `yaml:"name"`
	Age       int      `yaml:"age"`
	City      string   `yaml:"city"`
	Interests []string `yaml:"interests"`
}

type Event struct {
	ID              string             `yaml:"id"`
	Title           string             `yaml:"title"`
	Description     string             `yaml:"description"`
	Offset          time.Duration      `yaml:"offset"`
	LocationName    string             `yaml:"location_name"`
	LocationAddress string             `yaml:"location_address"`
	MaxSeats        int                `yaml:"max_seats"`
	Price           int                `yaml:"price"`
	ImageURL        string             `yaml:"image_url"`
	Status          models.EventStatus `yaml:"status"`
	CreatedBy       string             `yaml:"created_by"`
}

type Booking struct {
	User  string `yaml:"user"`
	Event string `yaml:"event"`
}

type Place struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	City         string   `yaml:"city"`
	Neighborhood string   `yaml:"neighborhood"`
	ImageURL     string   `yaml:"image_url"`
	VibeTags     []string `yaml:"vibe_tags"`
	Rating       float64  `yaml:"rating"`
}

type Post struct {
	ID       string        `yaml:"id"`
	User     string        `yaml:"user"`
	Content  string        `yaml:"content"`
	ImageURL string        `yaml:"image_url"`
	Location string        `yaml:"location"`
	Place    string        `yaml:"place"`
	Offset   time.Duration `yaml:"offset"`
}

type Like struct {
	User string `yaml:"user"`
	Post string `yaml:"post"`
}

type Comment struct {
	ID      string `yaml:"id"`
	User    string `yaml:"user"`
	Post    string `yaml:"post"`
	Content string `yaml:"content"`
}

type Review struct {
	ID      string `yaml:"id"`
	User    string `yaml:"user"`
	Place   string `yaml:"place"`
	Rating  int    `yaml:"rating"`
	Content string `yaml:"content"`
}

// Default returns the embedded demo dataset
func Default() (*Data, error) {
	return Parse(defaultData)
}

// Parse decodes a dataset and checks that every reference resolves
func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Data) validate() error {
	users := make(map[string]bool, len(d.Users))
	for _, u := range d.Users {
		if u.Key == "" || u.Phone == "" {
			return fmt.Errorf("seed user %q: key and phone are required", u.ID)
		}
		users[u.Key] = true
	}
	events := make(map[string]bool, len(d.Events))
	for _, e := range d.Events {
		events[e.ID] = true
	}
	places := make(map[string]bool, len(d.Places))
	for _, p := range d.Places {
		places[p.ID] = true
	}
	posts := make(map[string]bool, len(d.Posts))
	for _, p := range d.Posts {
		if !users[p.User] {
			return fmt.Errorf("seed post %s: unknown user %q", p.ID, p.User)
		}
		if p.Place != "" && !places[p.Place] {
			return fmt.Errorf("seed post %s: unknown place %q", p.ID, p.Place)
		}
		posts[p.ID] = true
	}
	for _, b := range d.Bookings {
		if !users[b.User] || !events[b.Event] {
			return fmt.Errorf("seed booking %s/%s: unknown reference", b.User, b.Event)
		}
	}
	for _, l := range d.Likes {
		if !users[l.User] || !posts[l.Post] {
			return fmt.Errorf("seed like %s/%s: unknown reference", l.User, l.Post)
		}
	}
	for _, c := range d.Comments {
		if !users[c.User] || !posts[c.Post] {
			return fmt.Errorf("seed comment %s: unknown reference", c.ID)
		}
	}
	for _, r := range d.Reviews {
		if !users[r.User] || !places[r.Place] {
			return fmt.Errorf("seed review %s: unknown reference", r.ID)
		}
	}
	return nil
}

// Stores are the write paths the seeder needs
type Stores struct {
	Users interface {
		FindOrCreateByPhone(ctx context.Context, candidate *models.User) (*models.User, bool, error)
	}
	Profiles interface {
		Upsert(ctx context.Context, profile *models.Profile) error
	}
	Events interface {
		Create(ctx context.Context, event *models.Event, conv *models.Conversation, creatorID string) error
	}
	Bookings interface {
		Insert(ctx context.Context, booking *models.Booking) error
	}
	Places interface {
		Upsert(ctx context.Context, p *models.Place) error
		AddReview(ctx context.Context, review *models.Review) error
	}
	Posts interface {
		Create(ctx context.Context, p *models.Post) error
		AddLike(ctx context.Context, userID, postID string, at time.Time) error
		AddComment(ctx context.Context, c *models.Comment) error
	}
}

// Summary counts the rows written by Apply
type Summary struct {
	Users    int
	Events   int
	Bookings int
	Places   int
	Posts    int
	Likes    int
	Comments int
	Reviews  int
}

// Apply writes the dataset. Rows that already exist are left untouched, so
// running it twice is harmless.
func Apply(ctx context.Context, s Stores, d *Data, now time.Time) (*Summary, error) {
	var sum Summary

	userIDs := make(map[string]string, len(d.Users))
	for _, u := range d.Users {
		user, created, err := s.Users.FindOrCreateByPhone(ctx, &models.User{ID: u.ID, Phone: u.Phone, CreatedAt: now})
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Key, err)
		}
		userIDs[u.Key] = user.ID
		if created {
			sum.Users++
		}

		profile := &models.Profile{
			UserID:    user.ID,
			Name:      u.Name,
			City:      u.City,
			Interests: u.Interests,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if u.Age > 0 {
			age := u.Age
			profile.Age = &age
		}
		if err := s.Profiles.Upsert(ctx, profile); err != nil {
			return nil, fmt.Errorf("seed profile %s: %w", u.Key, err)
		}
	}

	for _, e := range d.Events {
		status := e.Status
		if status == "" {
			status = models.EventUpcoming
		}
		event := &models.Event{
			ID:              e.ID,
			Title:           e.Title,
			Description:     optional(e.Description),
			DateTime:        now.Add(e.Offset),
			LocationName:    e.LocationName,
			LocationAddress: optional(e.LocationAddress),
			MaxSeats:        e.MaxSeats,
			Price:           e.Price,
			ImageURL:        optional(e.ImageURL),
			Status:          status,
			CreatedBy:       e.CreatedBy,
			CreatedAt:       now,
		}
		created, err := ignoreDuplicate(s.Events.Create(ctx, event, nil, ""))
		if err != nil {
			return nil, fmt.Errorf("seed event %s: %w", e.ID, err)
		}
		if created {
			sum.Events++
		}
	}

	for _, b := range d.Bookings {
		booking := &models.Booking{
			ID:        fmt.Sprintf("booking-%s-%s", b.User, b.Event),
			UserID:    userIDs[b.User],
			EventID:   b.Event,
			CreatedAt: now,
		}
		if err := s.Bookings.Insert(ctx, booking); err != nil {
			return nil, fmt.Errorf("seed booking %s: %w", booking.ID, err)
		}
		sum.Bookings++
	}

	for _, p := range d.Places {
		place := &models.Place{
			ID:           p.ID,
			Name:         p.Name,
			City:         p.City,
			Neighborhood: optional(p.Neighborhood),
			ImageURL:     optional(p.ImageURL),
			VibeTags:     p.VibeTags,
			Rating:       p.Rating,
			CreatedAt:    now,
		}
		if err := s.Places.Upsert(ctx, place); err != nil {
			return nil, fmt.Errorf("seed place %s: %w", p.ID, err)
		}
		sum.Places++
	}

	for _, p := range d.Posts {
		post := &models.Post{
			ID:        p.ID,
			UserID:    userIDs[p.User],
			Content:   optional(p.Content),
			ImageURL:  optional(p.ImageURL),
			Location:  optional(p.Location),
			PlaceID:   optional(p.Place),
			CreatedAt: now.Add(p.Offset),
		}
		created, err := ignoreDuplicate(s.Posts.Create(ctx, post))
		if err != nil {
			return nil, fmt.Errorf("seed post %s: %w", p.ID, err)
		}
		if created {
			sum.Posts++
		}
	}

	for _, l := range d.Likes {
		if err := s.Posts.AddLike(ctx, userIDs[l.User], l.Post, now); err != nil {
			return nil, fmt.Errorf("seed like %s/%s: %w", l.User, l.Post, err)
		}
		sum.Likes++
	}

	for _, c := range d.Comments {
		comment := &models.Comment{
			ID:        c.ID,
			UserID:    userIDs[c.User],
			PostID:    c.Post,
			Content:   c.Content,
			CreatedAt: now,
		}
		created, err := ignoreDuplicate(s.Posts.AddComment(ctx, comment))
		if err != nil {
			return nil, fmt.Errorf("seed comment %s: %w", c.ID, err)
		}
		if created {
			sum.Comments++
		}
	}

	for _, r := range d.Reviews {
		review := &models.Review{
			ID:        r.ID,
			UserID:    userIDs[r.User],
			PlaceID:   r.Place,
			Rating:    r.Rating,
			Content:   r.Content,
			CreatedAt: now,
		}
		created, err := ignoreDuplicate(s.Places.AddReview(ctx, review))
		if err != nil {
			return nil, fmt.Errorf("seed review %s: %w", r.ID, err)
		}
		if created {
			sum.Reviews++
		}
	}

	log.Info().
		Int("users", sum.Users).
		Int("events", sum.Events).
		Int("posts", sum.Posts).
		Int("comments", sum.Comments).
		Int("reviews", sum.Reviews).
		Msg("Seed data applied")
	return &sum, nil
}

func ignoreDuplicate(err error) (bool, error) {
	if errors.Is(err, repository.ErrDuplicate) {
		return false, nil
	}
	return err == nil, err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

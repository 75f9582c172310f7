// Package testutil provides in-memory stores and a fake clock for tests.
// The stores return the same sentinel errors as the PostgreSQL repositories.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"whereat-backend/internal/models"
	"whereat-backend/internal/repository"
)

type like struct {
	userID string
	postID string
	at     time.Time
}

type participant struct {
	userID string
	convID string
	at     time.Time
}

// DB is the shared backing state of the in-memory stores
type DB struct {
	mu sync.Mutex

	users         []*models.User
	profiles      map[string]*models.Profile
	events        []*models.Event
	bookings      []*models.Booking
	connections   []*models.Connection
	conversations []*models.Conversation
	participants  []participant
	messages      []*models.Message
	posts         []*models.Post
	likes         []like
	comments      []*models.Comment
	places        []*models.Place
	reviews       []*models.Review
}

// NewDB returns an empty in-memory database
func NewDB() *DB {
	return &DB{profiles: make(map[string]*models.Profile)}
}

func (db *DB) Users() *UserStore                 { return &UserStore{db} }
func (db *DB) Profiles() *ProfileStore           { return &ProfileStore{db} }
func (db *DB) Events() *EventStore               { return &EventStore{db} }
func (db *DB) Bookings() *BookingStore           { return &BookingStore{db} }
func (db *DB) Connections() *ConnectionStore     { return &ConnectionStore{db} }
func (db *DB) Conversations() *ConversationStore { return &ConversationStore{db} }
func (db *DB) Posts() *PostStore                 { return &PostStore{db} }
func (db *DB) Places() *PlaceStore               { return &PlaceStore{db} }

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, repository.ErrNotFound)
}

func (db *DB) userByID(id string) *models.User {
	for _, u := range db.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (db *DB) eventByID(id string) *models.Event {
	for _, e := range db.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (db *DB) conversationByID(id string) *models.Conversation {
	for _, c := range db.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (db *DB) postByID(id string) *models.Post {
	for _, p := range db.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (db *DB) placeByID(id string) *models.Place {
	for _, p := range db.places {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (db *DB) seatsBooked(eventID string) int {
	n := 0
	for _, b := range db.bookings {
		if b.EventID == eventID {
			n++
		}
	}
	return n
}

func (db *DB) eventView(e *models.Event) *models.Event {
	cp := *e
	cp.SeatsBooked = db.seatsBooked(e.ID)
	return &cp
}

func (db *DB) author(userID string) models.Author {
	a := models.Author{ID: userID}
	if p, ok := db.profiles[userID]; ok {
		name, city := p.Name, p.City
		a.Name, a.City = &name, &city
	}
	return a
}

func (db *DB) member(userID string) models.Member {
	m := models.Member{UserID: userID}
	if u := db.userByID(userID); u != nil {
		m.Phone = u.Phone
	}
	if p, ok := db.profiles[userID]; ok {
		name := p.Name
		m.Name = &name
	}
	return m
}

func (db *DB) isParticipant(convID, userID string) bool {
	for _, p := range db.participants {
		if p.convID == convID && p.userID == userID {
			return true
		}
	}
	return false
}

func (db *DB) addParticipant(userID, convID string, at time.Time) error {
	if db.userByID(userID) == nil || db.conversationByID(convID) == nil {
		return repository.ErrNotFound
	}
	if db.isParticipant(convID, userID) {
		return nil
	}
	db.participants = append(db.participants, participant{userID: userID, convID: convID, at: at})
	return nil
}

func (db *DB) participantIDs(convID string) []string {
	var ids []string
	for _, p := range db.participants {
		if p.convID == convID {
			ids = append(ids, p.userID)
		}
	}
	return ids
}

func (db *DB) insertConversation(c *models.Conversation) error {
	if db.conversationByID(c.ID) != nil {
		return repository.ErrDuplicate
	}
	cp := *c
	db.conversations = append(db.conversations, &cp)
	return nil
}

// UserStore keeps accounts in memory
type UserStore struct{ db *DB }

func (s *UserStore) FindOrCreateByPhone(_ context.Context, candidate *models.User) (*models.User, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Phone == candidate.Phone {
			cp := *u
			return &cp, false, nil
		}
	}
	if s.db.userByID(candidate.ID) != nil {
		return nil, false, repository.ErrDuplicate
	}
	cp := *candidate
	s.db.users = append(s.db.users, &cp)
	out := cp
	return &out, true, nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u := s.db.userByID(id)
	if u == nil {
		return nil, notFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) Exists(_ context.Context, id string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.userByID(id) != nil, nil
}

func (s *UserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u := s.db.userByID(userID)
	if u == nil {
		return notFound("user", userID)
	}
	if pushToken == nil {
		u.PushToken = nil
		return nil
	}
	tok := *pushToken
	u.PushToken = &tok
	return nil
}

// ProfileStore keeps profiles in memory
type ProfileStore struct{ db *DB }

func (s *ProfileStore) Upsert(_ context.Context, profile *models.Profile) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.userByID(profile.UserID) == nil {
		return notFound("user", profile.UserID)
	}
	cp := *profile
	cp.Interests = append([]string(nil), profile.Interests...)
	if existing, ok := s.db.profiles[profile.UserID]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	s.db.profiles[profile.UserID] = &cp
	return nil
}

func (s *ProfileStore) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.profiles[userID]
	if !ok {
		return nil, notFound("profile", userID)
	}
	cp := *p
	return &cp, nil
}

func (s *ProfileStore) GetByUserIDs(_ context.Context, userIDs []string) (map[string]*models.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make(map[string]*models.Profile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := s.db.profiles[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *ProfileStore) ListRecent(_ context.Context, excludeUserID string, limit int) ([]*models.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Profile
	for _, p := range s.db.profiles {
		if p.UserID == excludeUserID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ProfileStore) Search(_ context.Context, term string, limit int) ([]*models.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	term = strings.ToLower(term)
	var out []*models.Profile
	for _, p := range s.db.profiles {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.City), term) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EventStore keeps events in memory
type EventStore struct{ db *DB }

func (s *EventStore) Create(_ context.Context, event *models.Event, conv *models.Conversation, creatorID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.eventByID(event.ID) != nil {
		return repository.ErrDuplicate
	}
	cp := *event
	cp.SeatsBooked = 0
	s.db.events = append(s.db.events, &cp)
	if conv == nil {
		return nil
	}
	if err := s.db.insertConversation(conv); err != nil {
		return err
	}
	if creatorID == "" {
		return nil
	}
	return s.db.addParticipant(creatorID, conv.ID, conv.CreatedAt)
}

func (s *EventStore) GetByID(_ context.Context, id string) (*models.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e := s.db.eventByID(id)
	if e == nil {
		return nil, notFound("event", id)
	}
	return s.db.eventView(e), nil
}

func (s *EventStore) ListUpcoming(_ context.Context, from time.Time, to *time.Time, limit int) ([]*models.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Event
	for _, e := range s.db.events {
		if e.Status != models.EventUpcoming || e.DateTime.Before(from) {
			continue
		}
		if to != nil && e.DateTime.After(*to) {
			continue
		}
		out = append(out, s.db.eventView(e))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *EventStore) Search(_ context.Context, term string, limit int) ([]*models.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	term = strings.ToLower(term)
	var out []*models.Event
	for _, e := range s.db.events {
		desc := ""
		if e.Description != nil {
			desc = *e.Description
		}
		if strings.Contains(strings.ToLower(e.Title), term) ||
			strings.Contains(strings.ToLower(desc), term) ||
			strings.Contains(strings.ToLower(e.LocationName), term) {
			out = append(out, s.db.eventView(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *EventStore) ListWithoutConversation(_ context.Context) ([]*models.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Event
	for _, e := range s.db.events {
		has := false
		for _, c := range s.db.conversations {
			if c.Type == models.ConversationEvent && c.EventID != nil && *c.EventID == e.ID {
				has = true
				break
			}
		}
		if !has {
			out = append(out, s.db.eventView(e))
		}
	}
	return out, nil
}

// BookingStore keeps bookings in memory. Book holds the lock across the
// checks so the seat cap holds under concurrent calls.
type BookingStore struct{ db *DB }

func (s *BookingStore) Book(_ context.Context, booking *models.Booking) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e := s.db.eventByID(booking.EventID)
	if e == nil {
		return notFound("event", booking.EventID)
	}
	if e.Status != models.EventUpcoming {
		return repository.ErrEventClosed
	}
	for _, b := range s.db.bookings {
		if b.UserID == booking.UserID && b.EventID == booking.EventID {
			return repository.ErrDuplicate
		}
	}
	if s.db.seatsBooked(e.ID) >= e.MaxSeats {
		return repository.ErrSoldOut
	}
	if s.db.userByID(booking.UserID) == nil {
		return repository.ErrUnknownUser
	}
	cp := *booking
	cp.Event = nil
	s.db.bookings = append(s.db.bookings, &cp)
	return nil
}

func (s *BookingStore) Insert(_ context.Context, booking *models.Booking) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.eventByID(booking.EventID) == nil || s.db.userByID(booking.UserID) == nil {
		return repository.ErrNotFound
	}
	for _, b := range s.db.bookings {
		if b.UserID == booking.UserID && b.EventID == booking.EventID {
			return nil
		}
	}
	cp := *booking
	cp.Event = nil
	s.db.bookings = append(s.db.bookings, &cp)
	return nil
}

func (s *BookingStore) Delete(_ context.Context, userID, eventID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i, b := range s.db.bookings {
		if b.UserID == userID && b.EventID == eventID {
			s.db.bookings = append(s.db.bookings[:i], s.db.bookings[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("booking: %w", repository.ErrNotFound)
}

func (s *BookingStore) ListByUser(_ context.Context, userID string) ([]*models.Booking, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Booking
	for i := len(s.db.bookings) - 1; i >= 0; i-- {
		b := s.db.bookings[i]
		if b.UserID != userID {
			continue
		}
		cp := *b
		if e := s.db.eventByID(b.EventID); e != nil {
			cp.Event = s.db.eventView(e)
		}
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *BookingStore) UserIDsByEvent(_ context.Context, eventID string) ([]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var ids []string
	for _, b := range s.db.bookings {
		if b.EventID == eventID {
			ids = append(ids, b.UserID)
		}
	}
	return ids, nil
}

// ConnectionStore keeps connection requests in memory
type ConnectionStore struct{ db *DB }

func (s *ConnectionStore) between(a, b string) *models.Connection {
	for _, c := range s.db.connections {
		if (c.SenderID == a && c.ReceiverID == b) || (c.SenderID == b && c.ReceiverID == a) {
			return c
		}
	}
	return nil
}

func (s *ConnectionStore) Create(_ context.Context, c *models.Connection) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.between(c.SenderID, c.ReceiverID) != nil {
		return repository.ErrDuplicate
	}
	if s.db.userByID(c.SenderID) == nil || s.db.userByID(c.ReceiverID) == nil {
		return repository.ErrNotFound
	}
	cp := *c
	s.db.connections = append(s.db.connections, &cp)
	return nil
}

func (s *ConnectionStore) GetByID(_ context.Context, id string) (*models.Connection, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.connections {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, notFound("connection", id)
}

func (s *ConnectionStore) FindBetween(_ context.Context, userA, userB string) (*models.Connection, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c := s.between(userA, userB)
	if c == nil {
		return nil, fmt.Errorf("connection: %w", repository.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *ConnectionStore) Resolve(_ context.Context, id, receiverID string, status models.ConnectionStatus, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.connections {
		if c.ID == id && c.ReceiverID == receiverID && c.Status == models.ConnectionPending {
			c.Status = status
			c.UpdatedAt = at
			return true, nil
		}
	}
	return false, nil
}

func (s *ConnectionStore) filter(keep func(*models.Connection) bool) []*models.Connection {
	var out []*models.Connection
	for i := len(s.db.connections) - 1; i >= 0; i-- {
		if c := s.db.connections[i]; keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *ConnectionStore) ListBySender(_ context.Context, userID string) ([]*models.Connection, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.filter(func(c *models.Connection) bool { return c.SenderID == userID }), nil
}

func (s *ConnectionStore) ListByReceiver(_ context.Context, userID string) ([]*models.Connection, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.filter(func(c *models.Connection) bool { return c.ReceiverID == userID }), nil
}

func (s *ConnectionStore) ListPending(_ context.Context, userID string) ([]*models.ConnectionRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	conns := s.filter(func(c *models.Connection) bool {
		return c.ReceiverID == userID && c.Status == models.ConnectionPending
	})
	out := make([]*models.ConnectionRequest, 0, len(conns))
	for _, c := range conns {
		req := &models.ConnectionRequest{Connection: *c}
		if u := s.db.userByID(c.SenderID); u != nil {
			req.SenderPhone = u.Phone
		}
		if p, ok := s.db.profiles[c.SenderID]; ok {
			cp := *p
			req.SenderProfile = &cp
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *ConnectionStore) CountAccepted(_ context.Context, userIDs []string) (map[string]int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	counts := make(map[string]int, len(userIDs))
	for _, id := range userIDs {
		counts[id] = 0
	}
	for _, c := range s.db.connections {
		if c.Status != models.ConnectionAccepted {
			continue
		}
		if _, ok := counts[c.SenderID]; ok {
			counts[c.SenderID]++
		}
		if _, ok := counts[c.ReceiverID]; ok {
			counts[c.ReceiverID]++
		}
	}
	return counts, nil
}

// ConversationStore keeps conversations, participants and messages in memory
type ConversationStore struct{ db *DB }

func (s *ConversationStore) GetEventConversation(_ context.Context, eventID string) (*models.Conversation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.conversations {
		if c.Type == models.ConversationEvent && c.EventID != nil && *c.EventID == eventID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, notFound("event conversation", eventID)
}

func (s *ConversationStore) AddParticipant(_ context.Context, userID, conversationID string, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.addParticipant(userID, conversationID, at)
}

func (s *ConversationStore) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.isParticipant(conversationID, userID), nil
}

func (s *ConversationStore) ParticipantIDs(_ context.Context, conversationID string) ([]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.participantIDs(conversationID), nil
}

func (s *ConversationStore) FindOrCreateDirect(_ context.Context, userA, userB string, candidate *models.Conversation) (*models.Conversation, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.conversations {
		if c.Type != models.ConversationDirect {
			continue
		}
		ids := s.db.participantIDs(c.ID)
		if len(ids) == 2 && s.db.isParticipant(c.ID, userA) && s.db.isParticipant(c.ID, userB) {
			cp := *c
			return &cp, false, nil
		}
	}
	if err := s.db.insertConversation(candidate); err != nil {
		return nil, false, err
	}
	for _, uid := range []string{userA, userB} {
		if err := s.db.addParticipant(uid, candidate.ID, candidate.CreatedAt); err != nil {
			return nil, false, err
		}
	}
	cp := *candidate
	return &cp, true, nil
}

func (s *ConversationStore) CreateWithParticipants(_ context.Context, conv *models.Conversation, userIDs []string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.insertConversation(conv); err != nil {
		return err
	}
	for _, uid := range userIDs {
		if err := s.db.addParticipant(uid, conv.ID, conv.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConversationStore) AppendMessage(_ context.Context, msg *models.Message) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c := s.db.conversationByID(msg.ConversationID)
	if c == nil {
		return notFound("conversation", msg.ConversationID)
	}
	cp := *msg
	s.db.messages = append(s.db.messages, &cp)
	c.UpdatedAt = msg.CreatedAt
	return nil
}

func (s *ConversationStore) ListForUser(_ context.Context, userID string) ([]*models.ConversationSummary, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.ConversationSummary
	for _, c := range s.db.conversations {
		if !s.db.isParticipant(c.ID, userID) {
			continue
		}
		sum := &models.ConversationSummary{Conversation: *c}
		for _, m := range s.db.messages {
			if m.ConversationID != c.ID {
				continue
			}
			if sum.LastMessage == nil || !m.CreatedAt.Before(sum.LastMessage.CreatedAt) {
				cp := *m
				sum.LastMessage = &cp
			}
		}
		for _, uid := range s.db.participantIDs(c.ID) {
			sum.Members = append(sum.Members, s.db.member(uid))
		}
		out = append(out, sum)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Conversation.UpdatedAt.After(out[j].Conversation.UpdatedAt)
	})
	return out, nil
}

func (s *ConversationStore) ListMessages(_ context.Context, conversationID string) ([]*models.MessageView, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.MessageView
	for _, m := range s.db.messages {
		if m.ConversationID == conversationID {
			out = append(out, &models.MessageView{Message: *m, Sender: s.db.member(m.SenderID)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PostStore keeps posts, likes and comments in memory
type PostStore struct{ db *DB }

func (s *PostStore) Create(_ context.Context, p *models.Post) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.postByID(p.ID) != nil {
		return repository.ErrDuplicate
	}
	if s.db.userByID(p.UserID) == nil {
		return repository.ErrNotFound
	}
	if p.PlaceID != nil && s.db.placeByID(*p.PlaceID) == nil {
		return repository.ErrNotFound
	}
	cp := *p
	s.db.posts = append(s.db.posts, &cp)
	return nil
}

func (s *PostStore) ToggleLike(_ context.Context, userID, postID string, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i, l := range s.db.likes {
		if l.userID == userID && l.postID == postID {
			s.db.likes = append(s.db.likes[:i], s.db.likes[i+1:]...)
			return false, nil
		}
	}
	if s.db.postByID(postID) == nil || s.db.userByID(userID) == nil {
		return false, repository.ErrNotFound
	}
	s.db.likes = append(s.db.likes, like{userID: userID, postID: postID, at: at})
	return true, nil
}

func (s *PostStore) AddLike(_ context.Context, userID, postID string, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.postByID(postID) == nil || s.db.userByID(userID) == nil {
		return repository.ErrNotFound
	}
	for _, l := range s.db.likes {
		if l.userID == userID && l.postID == postID {
			return nil
		}
	}
	s.db.likes = append(s.db.likes, like{userID: userID, postID: postID, at: at})
	return nil
}

func (s *PostStore) AddComment(_ context.Context, c *models.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.comments {
		if existing.ID == c.ID {
			return repository.ErrDuplicate
		}
	}
	if s.db.postByID(c.PostID) == nil || s.db.userByID(c.UserID) == nil {
		return repository.ErrNotFound
	}
	cp := *c
	cp.Author = nil
	s.db.comments = append(s.db.comments, &cp)
	return nil
}

func (s *PostStore) view(p *models.Post, withExtras bool, commentLimit int) *models.PostView {
	v := &models.PostView{Post: *p, Author: s.db.author(p.UserID), LikedBy: []string{}, Comments: []*models.Comment{}}
	if !withExtras {
		return v
	}
	for _, l := range s.db.likes {
		if l.postID == p.ID {
			v.LikedBy = append(v.LikedBy, l.userID)
		}
	}
	for _, c := range s.db.comments {
		if c.PostID == p.ID {
			cp := *c
			a := s.db.author(c.UserID)
			cp.Author = &a
			v.Comments = append(v.Comments, &cp)
		}
	}
	sort.SliceStable(v.Comments, func(i, j int) bool { return v.Comments[i].CreatedAt.Before(v.Comments[j].CreatedAt) })
	if commentLimit > 0 && len(v.Comments) > commentLimit {
		v.Comments = v.Comments[len(v.Comments)-commentLimit:]
	}
	return v
}

func (s *PostStore) newest() []*models.Post {
	posts := make([]*models.Post, len(s.db.posts))
	copy(posts, s.db.posts)
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts
}

func (s *PostStore) GetView(_ context.Context, postID string) (*models.PostView, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p := s.db.postByID(postID)
	if p == nil {
		return nil, notFound("post", postID)
	}
	return s.view(p, true, 0), nil
}

func (s *PostStore) ListRecent(_ context.Context, limit, commentLimit int) ([]*models.PostView, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.PostView
	for _, p := range s.newest() {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.view(p, true, commentLimit))
	}
	return out, nil
}

func (s *PostStore) ListByUser(_ context.Context, userID string, limit, commentLimit int) ([]*models.PostView, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.PostView
	for _, p := range s.newest() {
		if p.UserID != userID {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.view(p, true, commentLimit))
	}
	return out, nil
}

func (s *PostStore) ListLocated(_ context.Context, limit int) ([]*models.PostView, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.PostView
	for _, p := range s.newest() {
		if limit > 0 && len(out) == limit {
			break
		}
		if p.Location == nil || strings.TrimSpace(*p.Location) == "" {
			continue
		}
		out = append(out, s.view(p, false, 0))
	}
	return out, nil
}

// PlaceStore keeps places and reviews in memory
type PlaceStore struct{ db *DB }

func (s *PlaceStore) Upsert(_ context.Context, p *models.Place) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cp := *p
	cp.VibeTags = append([]string(nil), p.VibeTags...)
	if existing := s.db.placeByID(p.ID); existing != nil {
		cp.CreatedAt = existing.CreatedAt
		*existing = cp
		return nil
	}
	s.db.places = append(s.db.places, &cp)
	return nil
}

func (s *PlaceStore) GetByID(_ context.Context, id string) (*models.Place, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p := s.db.placeByID(id)
	if p == nil {
		return nil, notFound("place", id)
	}
	cp := *p
	return &cp, nil
}

func (s *PlaceStore) List(_ context.Context) ([]*models.Place, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*models.Place, 0, len(s.db.places))
	for _, p := range s.db.places {
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating == out[j].Rating {
			return out[i].Name < out[j].Name
		}
		return out[i].Rating > out[j].Rating
	})
	return out, nil
}

func (s *PlaceStore) AddReview(_ context.Context, review *models.Review) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, r := range s.db.reviews {
		if r.ID == review.ID {
			return repository.ErrDuplicate
		}
	}
	if s.db.placeByID(review.PlaceID) == nil || s.db.userByID(review.UserID) == nil {
		return repository.ErrNotFound
	}
	cp := *review
	cp.Author = nil
	s.db.reviews = append(s.db.reviews, &cp)
	return nil
}

func (s *PlaceStore) ListReviews(_ context.Context, placeID string) ([]*models.Review, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Review
	for i := len(s.db.reviews) - 1; i >= 0; i-- {
		r := s.db.reviews[i]
		if r.PlaceID != placeID {
			continue
		}
		cp := *r
		a := s.db.author(r.UserID)
		cp.Author = &a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

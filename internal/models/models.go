package models

import "time"

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventUpcoming EventStatus = "UPCOMING"
	EventPast     EventStatus = "PAST"
)

// ConnectionStatus is the state of a connection request between two users
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "PENDING"
	ConnectionAccepted ConnectionStatus = "ACCEPTED"
	ConnectionRejected ConnectionStatus = "REJECTED"
)

// ConversationType distinguishes direct chats from event group chats
type ConversationType string

const (
	ConversationDirect ConversationType = "ONE_TO_ONE"
	ConversationEvent  ConversationType = "EVENT"
)

// User represents an account, one per phone number
type User struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	PushToken *string   `json:"pushToken,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile holds the onboarding data of a user
type Profile struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Age       *int      `json:"age,omitempty"`
	City      string    `json:"city"`
	Interests []string  `json:"interests"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event represents a curated dinner or experience
type Event struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     *string     `json:"description,omitempty"`
	DateTime        time.Time   `json:"dateTime"`
	LocationName    string      `json:"locationName"`
	LocationAddress *string     `json:"locationAddress,omitempty"`
	MaxSeats        int         `json:"maxSeats"`
	Price           int         `json:"price"`
	ImageURL        *string     `json:"imageUrl,omitempty"`
	Status          EventStatus `json:"status"`
	CreatedBy       string      `json:"createdBy"`
	CreatedAt       time.Time   `json:"createdAt"`
	SeatsBooked     int         `json:"seatsBooked"`
}

// SeatsLeft returns the number of seats still available
func (e *Event) SeatsLeft() int {
	if left := e.MaxSeats - e.SeatsBooked; left > 0 {
		return left
	}
	return 0
}

// Booking is a seat held by a user for an event
type Booking struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
	Event     *Event    `json:"event,omitempty"`
}

// Connection is a request between two users and its outcome
type Connection struct {
	ID         string           `json:"id"`
	SenderID   string           `json:"senderId"`
	ReceiverID string           `json:"receiverId"`
	Status     ConnectionStatus `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// ConnectionRequest is an incoming connection with the sender's profile attached
type ConnectionRequest struct {
	Connection
	SenderPhone   string   `json:"senderPhone"`
	SenderProfile *Profile `json:"senderProfile,omitempty"`
}

// Conversation is a chat thread, either direct or attached to an event
type Conversation struct {
	ID        string           `json:"id"`
	Type      ConversationType `json:"type"`
	Name      *string          `json:"name,omitempty"`
	EventID   *string          `json:"eventId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Participant grants a user access to a conversation
type Participant struct {
	UserID         string    `json:"userId"`
	ConversationID string    `json:"conversationId"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// Message is a single chat message
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Member is a participant of a conversation with display data
type Member struct {
	UserID string  `json:"userId"`
	Phone  string  `json:"phone"`
	Name   *string `json:"name,omitempty"`
}

// ConversationSummary is a conversation as loaded for list views
type ConversationSummary struct {
	Conversation Conversation
	LastMessage  *Message
	Members      []Member
}

// MessageView is a message joined with its sender
type MessageView struct {
	Message
	Sender Member
}

// Author is the public identity attached to posts and comments
type Author struct {
	ID   string  `json:"id"`
	Name *string `json:"name,omitempty"`
	City *string `json:"city,omitempty"`
}

// Post is a feed entry created by a user
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Content   *string   `json:"content,omitempty"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	Location  *string   `json:"location,omitempty"`
	PlaceID   *string   `json:"placeId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a reply on a post
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PostID    string    `json:"postId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *Author   `json:"author,omitempty"`
}

// PostView is a post with author, likes and comments loaded
type PostView struct {
	Post
	Author   Author     `json:"author"`
	LikedBy  []string   `json:"likedBy"`
	Comments []*Comment `json:"comments"`
}

// Place is a venue users can review and mention
type Place struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	City         string    `json:"city"`
	Neighborhood *string   `json:"neighborhood,omitempty"`
	ImageURL     *string   `json:"imageUrl,omitempty"`
	VibeTags     []string  `json:"vibeTags"`
	Rating       float64   `json:"rating"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Review is a user's rating of a place
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PlaceID   string    `json:"placeId"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *Author   `json:"author,omitempty"`
}

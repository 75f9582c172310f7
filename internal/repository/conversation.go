package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whereat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository handles database operations for conversations,
// their participants and messages
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertConversation(ctx context.Context, q execer, conv *models.Conversation) error {
	_, err := q.Exec(ctx, `
		INSERT INTO conversations (id, type, name, event_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, conv.ID, conv.Type, conv.Name, conv.EventID, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", translate(err))
	}
	return nil
}

func insertParticipant(ctx context.Context, q execer, userID, conversationID string, at time.Time) error {
	_, err := q.Exec(ctx, `
		INSERT INTO participants (user_id, conversation_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, conversation_id) DO NOTHING
	`, userID, conversationID, at)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", translate(err))
	}
	return nil
}

const conversationColumns = `c.id, c.type, c.name, c.event_id, c.created_at, c.updated_at`

// GetEventConversation returns the group conversation of an event
func (r *ConversationRepository) GetEventConversation(ctx context.Context, eventID string) (*models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations c
		WHERE c.event_id = $1 AND c.type = 'EVENT'
		ORDER BY c.created_at
		LIMIT 1
	`
	var c models.Conversation
	err := r.db.QueryRow(ctx, query, eventID).Scan(&c.ID, &c.Type, &c.Name, &c.EventID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event conversation %s: %w", eventID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event conversation: %w", err)
	}
	return &c, nil
}

// AddParticipant joins a user to a conversation. Joining twice is a no-op.
func (r *ConversationRepository) AddParticipant(ctx context.Context, userID, conversationID string, at time.Time) error {
	return insertParticipant(ctx, r.db, userID, conversationID, at)
}

// IsParticipant checks whether the user belongs to the conversation
func (r *ConversationRepository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM participants WHERE conversation_id = $1 AND user_id = $2)`
	var ok bool
	if err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return ok, nil
}

// ParticipantIDs returns the members of a conversation
func (r *ConversationRepository) ParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM participants WHERE conversation_id = $1 ORDER BY joined_at`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect participants: %w", err)
	}
	return ids, nil
}

// FindOrCreateDirect returns the ONE_TO_ONE conversation whose participants are
// exactly userA and userB, inserting candidate with both users when none exists.
// The pair is serialized with a transaction-scoped advisory lock so two
// concurrent calls cannot both create a conversation.
func (r *ConversationRepository) FindOrCreateDirect(ctx context.Context, userA, userB string, candidate *models.Conversation) (*models.Conversation, bool, error) {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}

	var (
		conv    *models.Conversation
		created bool
	)
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "dm:"+lo+":"+hi); err != nil {
			return fmt.Errorf("failed to lock conversation pair: %w", err)
		}

		var c models.Conversation
		err := tx.QueryRow(ctx, `
			SELECT `+conversationColumns+`
			FROM conversations c
			JOIN participants p ON p.conversation_id = c.id
			WHERE c.type = 'ONE_TO_ONE'
			GROUP BY c.id
			HAVING COUNT(*) = 2
			   AND COUNT(*) FILTER (WHERE p.user_id IN ($1, $2)) = 2
			ORDER BY c.created_at
			LIMIT 1
		`, lo, hi).Scan(&c.ID, &c.Type, &c.Name, &c.EventID, &c.CreatedAt, &c.UpdatedAt)
		if err == nil {
			conv = &c
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to find direct conversation: %w", err)
		}

		if err := insertConversation(ctx, tx, candidate); err != nil {
			return err
		}
		for _, uid := range []string{userA, userB} {
			if err := insertParticipant(ctx, tx, uid, candidate.ID, candidate.CreatedAt); err != nil {
				return err
			}
		}
		conv, created = candidate, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return conv, created, nil
}

// CreateWithParticipants inserts a conversation and all of its members at once
func (r *ConversationRepository) CreateWithParticipants(ctx context.Context, conv *models.Conversation, userIDs []string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertConversation(ctx, tx, conv); err != nil {
			return err
		}
		for _, uid := range userIDs {
			if err := insertParticipant(ctx, tx, uid, conv.ID, conv.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendMessage inserts a message and bumps the conversation's updated_at
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO messages (id, conversation_id, sender_id, content, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create message: %w", translate(err))
		}
		result, err := tx.Exec(ctx,
			`UPDATE conversations SET updated_at = $1 WHERE id = $2`, msg.CreatedAt, msg.ConversationID)
		if err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("conversation %s: %w", msg.ConversationID, ErrNotFound)
		}
		return nil
	})
}

// ListForUser returns the conversations the user participates in, most recently
// active first, each with its last message and members
func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]*models.ConversationSummary, error) {
	query := `
		SELECT ` + conversationColumns + `,
		       m.id, m.sender_id, m.content, m.created_at
		FROM participants p
		JOIN conversations c ON c.id = p.conversation_id
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		) m ON true
		WHERE p.user_id = $1
		ORDER BY c.updated_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var (
		summaries []*models.ConversationSummary
		ids       []string
		byID      = make(map[string]*models.ConversationSummary)
	)
	for rows.Next() {
		var (
			s         models.ConversationSummary
			msgID     *string
			msgSender *string
			msgBody   *string
			msgAt     *time.Time
		)
		c := &s.Conversation
		err := rows.Scan(&c.ID, &c.Type, &c.Name, &c.EventID, &c.CreatedAt, &c.UpdatedAt,
			&msgID, &msgSender, &msgBody, &msgAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if msgID != nil {
			s.LastMessage = &models.Message{
				ID:             *msgID,
				ConversationID: c.ID,
				SenderID:       deref(msgSender),
				Content:        deref(msgBody),
				CreatedAt:      derefTime(msgAt),
			}
		}
		summaries = append(summaries, &s)
		ids = append(ids, c.ID)
		byID[c.ID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}
	if len(ids) == 0 {
		return summaries, nil
	}

	memberRows, err := r.db.Query(ctx, `
		SELECT p.conversation_id, u.id, u.phone, pr.name
		FROM participants p
		JOIN users u ON u.id = p.user_id
		LEFT JOIN profiles pr ON pr.user_id = u.id
		WHERE p.conversation_id = ANY($1)
		ORDER BY p.joined_at
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var (
			convID string
			m      models.Member
		)
		if err := memberRows.Scan(&convID, &m.UserID, &m.Phone, &m.Name); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if s, ok := byID[convID]; ok {
			s.Members = append(s.Members, m)
		}
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return summaries, nil
}

// ListMessages returns the messages of a conversation, oldest first
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*models.MessageView, error) {
	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.created_at,
		       u.phone, pr.name
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		LEFT JOIN profiles pr ON pr.user_id = m.sender_id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`
	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.MessageView
	for rows.Next() {
		var v models.MessageView
		err := rows.Scan(&v.ID, &v.ConversationID, &v.SenderID, &v.Content, &v.CreatedAt,
			&v.Sender.Phone, &v.Sender.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		v.Sender.UserID = v.SenderID
		messages = append(messages, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

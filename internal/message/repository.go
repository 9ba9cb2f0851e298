// File: internal/message/repository.go
package message

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for message data operations.
type Repository interface {
	Create(ctx context.Context, msg *Message) error
	ThreadBetween(ctx context.Context, userID, otherID uuid.UUID) ([]Message, error)
	ConversationsFor(ctx context.Context, userID uuid.UUID) ([]Conversation, error)
	UnreadCountFor(ctx context.Context, userID uuid.UUID) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM message repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new message into the database.
func (r *gormRepository) Create(ctx context.Context, msg *Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ThreadBetween returns the full two-way message history between two users,
// oldest first. Opening the thread marks every unread message addressed to
// userID from otherID as read, in the same transaction, so the returned
// messages already carry the updated flag.
func (r *gormRepository) ThreadBetween(ctx context.Context, userID, otherID uuid.UUID) ([]Message, error) {
	var messages []Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Message{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ?", otherID, userID, false).
			Update("is_read", true).Error
		if err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}

		err = tx.
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				userID, otherID, otherID, userID).
			Order("created_at ASC").
			Find(&messages).Error
		if err != nil {
			return fmt.Errorf("failed to load thread: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ConversationsFor aggregates the flat message log into one row per
// counterparty: latest activity either direction plus how many messages from
// that counterparty the user has not read yet, most recent conversation first.
func (r *gormRepository) ConversationsFor(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	rows, err := r.db.WithContext(ctx).Raw(`
		SELECT
			CASE WHEN m.sender_id = @uid THEN m.receiver_id ELSE m.sender_id END AS counterparty_id,
			MAX(u.name) AS counterparty_name,
			MAX(m.created_at) AS last_message_time,
			SUM(CASE WHEN m.receiver_id = @uid AND m.is_read = FALSE THEN 1 ELSE 0 END) AS unread_count
		FROM messages m
		JOIN users u ON u.id = CASE WHEN m.sender_id = @uid THEN m.receiver_id ELSE m.sender_id END
		WHERE m.sender_id = @uid OR m.receiver_id = @uid
		GROUP BY counterparty_id
		ORDER BY last_message_time DESC`,
		map[string]interface{}{"uid": userID}).
		Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var (
			conv    Conversation
			rawTime string
		)
		if err := rows.Scan(&conv.CounterpartyID, &conv.CounterpartyName, &rawTime, &conv.UnreadCount); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		conv.LastMessageTime, err = parseAggregatedTime(rawTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last message time %q: %w", rawTime, err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	return conversations, nil
}

// MAX() strips the created_at column's declared type, so drivers hand the
// aggregated timestamp back as text rather than time.Time. The layouts cover
// the sqlite driver's storage format and the RFC 3339 form database/sql uses
// when converting a driver time value to a string.
var aggregatedTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func parseAggregatedTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range aggregatedTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// UnreadCountFor returns how many unread messages the user has in total.
func (r *gormRepository) UnreadCountFor(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// File: internal/message/model.go
package message

import (
	"time"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/user"

	"github.com/google/uuid"
)

// Message is the GORM model for direct messages between users. Messages are
// append-only; the only mutation ever applied is the read flag flipping to
// true when the receiver opens the thread.
type Message struct {
	common.BaseModel
	SenderID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Sender     *user.User `gorm:"foreignKey:SenderID"`
	ReceiverID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Receiver   *user.User `gorm:"foreignKey:ReceiverID"`
	Content    string     `gorm:"type:text;not null"`
	IsRead     bool       `gorm:"column:is_read;not null;default:false"`
}

// TableName specifies the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}

// SendMessageRequest is the DTO for sending a direct message.
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required,uuid"`
	Content    string `json:"content" binding:"required,max=5000"`
}

// MessageResponse is the DTO for message data sent to clients.
type MessageResponse struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToMessageResponse converts a Message model to its response DTO.
func ToMessageResponse(m *Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}

// Conversation is a derived projection, never stored: one row per
// counterparty the user has exchanged messages with.
type Conversation struct {
	CounterpartyID   uuid.UUID
	CounterpartyName string
	LastMessageTime  time.Time
	UnreadCount      int64
}

// ConversationResponse is the DTO for conversation summaries sent to clients.
type ConversationResponse struct {
	CounterpartyID   uuid.UUID `json:"counterparty_id"`
	CounterpartyName string    `json:"counterparty_name"`
	LastMessageTime  time.Time `json:"last_message_time"`
	UnreadCount      int64     `json:"unread_count"`
}

// ToConversationResponse converts a Conversation projection to its response DTO.
func ToConversationResponse(conv *Conversation) ConversationResponse {
	return ConversationResponse{
		CounterpartyID:   conv.CounterpartyID,
		CounterpartyName: conv.CounterpartyName,
		LastMessageTime:  conv.LastMessageTime,
		UnreadCount:      conv.UnreadCount,
	}
}

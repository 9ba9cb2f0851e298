// File: internal/message/service.go
package message

import (
	"context"
	"strings"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for messaging operations.
type Service interface {
	Send(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*Message, error)
	GetThread(ctx context.Context, userID, otherID uuid.UUID) ([]Message, error)
	GetConversations(ctx context.Context, userID uuid.UUID) ([]Conversation, error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ServiceImplementation implements the message Service interface.
type ServiceImplementation struct {
	repo        Repository
	userService shared.Service
	logger      *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new message service.
func NewService(repo Repository, userService shared.Service, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:        repo,
		userService: userService,
		logger:      logger,
	}
}

// Send persists a direct message after checking the receiver exists and the
// sender is not messaging themselves.
func (s *ServiceImplementation) Send(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, common.NewValidationAPIError(map[string]string{
			"content": "The content field must not be empty.",
		})
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails("Invalid receiver ID format.")
	}
	if receiverID == senderID {
		return nil, common.ErrBadRequest.WithDetails("You cannot send a message to yourself.")
	}

	if _, err := s.userService.GetUserByID(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		s.logger.Error("Failed to send message", zap.Error(err),
			zap.String("senderID", senderID.String()), zap.String("receiverID", receiverID.String()))
		return nil, err
	}

	s.logger.Info("Message sent",
		zap.String("messageID", msg.ID.String()),
		zap.String("senderID", senderID.String()),
		zap.String("receiverID", receiverID.String()))
	return msg, nil
}

// GetThread returns the conversation with another user, oldest message
// first. Reading the thread marks the unread messages from that user as read.
func (s *ServiceImplementation) GetThread(ctx context.Context, userID, otherID uuid.UUID) ([]Message, error) {
	if otherID == userID {
		return nil, common.ErrBadRequest.WithDetails("You cannot open a thread with yourself.")
	}
	if _, err := s.userService.GetUserByID(ctx, otherID); err != nil {
		return nil, err
	}
	return s.repo.ThreadBetween(ctx, userID, otherID)
}

// GetConversations returns the user's conversation index, most recently
// active counterparty first.
func (s *ServiceImplementation) GetConversations(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	return s.repo.ConversationsFor(ctx, userID)
}

// GetUnreadCount returns the user's total number of unread messages.
func (s *ServiceImplementation) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.UnreadCountFor(ctx, userID)
}

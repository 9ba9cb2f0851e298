package message

import (
	"context"
	"testing"
	"time"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockMessageRepository is a mock type for message.Repository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) ThreadBetween(ctx context.Context, userID, otherID uuid.UUID) ([]Message, error) {
	args := m.Called(ctx, userID, otherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

func (m *MockMessageRepository) ConversationsFor(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Conversation), args.Error(1)
}

func (m *MockMessageRepository) UnreadCountFor(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserProvider is a mock type for shared.Service
type MockUserProvider struct {
	mock.Mock
}

func (m *MockUserProvider) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *MockUserProvider) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

type MessageServiceTestSuite struct {
	service     *ServiceImplementation
	mockRepo    *MockMessageRepository
	mockUserSvc *MockUserProvider
	logger      *zap.Logger
}

func setupMessageServiceTestSuite(t *testing.T) *MessageServiceTestSuite {
	ts := &MessageServiceTestSuite{}
	ts.mockRepo = new(MockMessageRepository)
	ts.mockUserSvc = new(MockUserProvider)
	ts.logger = zap.NewNop()
	ts.service = NewService(ts.mockRepo, ts.mockUserSvc, ts.logger)
	return ts
}

// --- Test Cases ---

func TestService_Send_Success(t *testing.T) {
	ts := setupMessageServiceTestSuite(t)
	ctx := context.Background()
	senderID := uuid.New()
	receiverID := uuid.New()

	ts.mockUserSvc.On("GetUserByID", ctx, receiverID).
		Return(&shared.User{ID: receiverID, Name: "Receiver"}, nil)
	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*message.Message")).Return(nil)

	sent, err := ts.service.Send(ctx, senderID, SendMessageRequest{
		ReceiverID: receiverID.String(),
		Content:    "  Is the kale still available?  ",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Is the kale still available?", sent.Content)
	assert.Equal(t, senderID, sent.SenderID)
	assert.Equal(t, receiverID, sent.ReceiverID)
	assert.False(t, sent.IsRead)
	ts.mockRepo.AssertExpectations(t)
	ts.mockUserSvc.AssertExpectations(t)
}

func TestService_Send_BlankContent(t *testing.T) {
	ts := setupMessageServiceTestSuite(t)
	ctx := context.Background()

	_, err := ts.service.Send(ctx, uuid.New(), SendMessageRequest{
		ReceiverID: uuid.NewString(),
		Content:    "   ",
	})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Send_ToSelf(t *testing.T) {
	ts := setupMessageServiceTestSuite(t)
	ctx := context.Background()
	senderID := uuid.New()

	_, err := ts.service.Send(ctx, senderID, SendMessageRequest{
		ReceiverID: senderID.String(),
		Content:    "hello me",
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestService_Send_ReceiverNotFound(t *testing.T) {
	ts := setupMessageServiceTestSuite(t)
	ctx := context.Background()
	receiverID := uuid.New()

	ts.mockUserSvc.On("GetUserByID", ctx, receiverID).
		Return(nil, common.ErrNotFound.WithDetails("User not found."))

	_, err := ts.service.Send(ctx, uuid.New(), SendMessageRequest{
		ReceiverID: receiverID.String(),
		Content:    "hello",
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
	ts.mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_GetThread_SelfThreadRejected(t *testing.T) {
	ts := setupMessageServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := ts.service.GetThread(ctx, userID, userID)

	assert.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBadRequest)
	ts.mockRepo.AssertNotCalled(t, "ThreadBetween", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_GetThread_Success(t *testing.T) {
	ts := setupMessageServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()
	otherID := uuid.New()

	ts.mockUserSvc.On("GetUserByID", ctx, otherID).
		Return(&shared.User{ID: otherID, Name: "Other"}, nil)
	ts.mockRepo.On("ThreadBetween", ctx, userID, otherID).
		Return([]Message{{SenderID: otherID, ReceiverID: userID, Content: "hi", IsRead: true}}, nil)

	messages, err := ts.service.GetThread(ctx, userID, otherID)

	assert.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.True(t, messages[0].IsRead)
	ts.mockRepo.AssertExpectations(t)
}

func TestService_GetConversations_Success(t *testing.T) {
	ts := setupMessageServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	ts.mockRepo.On("ConversationsFor", ctx, userID).
		Return([]Conversation{{CounterpartyName: "Bob", UnreadCount: 3}}, nil)

	conversations, err := ts.service.GetConversations(ctx, userID)

	assert.NoError(t, err)
	assert.Len(t, conversations, 1)
	assert.Equal(t, int64(3), conversations[0].UnreadCount)
	ts.mockRepo.AssertExpectations(t)
}

func TestToConversationResponse(t *testing.T) {
	now := time.Now()
	conv := Conversation{
		CounterpartyID:   uuid.New(),
		CounterpartyName: "Bob",
		LastMessageTime:  now,
		UnreadCount:      2,
	}

	resp := ToConversationResponse(&conv)

	assert.Equal(t, conv.CounterpartyID, resp.CounterpartyID)
	assert.Equal(t, "Bob", resp.CounterpartyName)
	assert.Equal(t, now, resp.LastMessageTime)
	assert.Equal(t, int64(2), resp.UnreadCount)
}

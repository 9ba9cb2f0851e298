package user

import (
	"context"
	"testing"
	"time"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/config"
	"farmlink_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock type for user.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

// MockTokenService is a mock type for shared.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateAccessToken(userData shared.UserDataForToken) (string, time.Time, error) {
	args := m.Called(userData)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) GenerateRefreshToken(userData shared.UserDataForToken) (string, time.Time, error) {
	args := m.Called(userData)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) ValidateToken(tokenString string) (*shared.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Claims), args.Error(1)
}

func (m *MockTokenService) ParseRefreshToken(refreshTokenString string) (*shared.Claims, error) {
	args := m.Called(refreshTokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Claims), args.Error(1)
}

type UserServiceTestSuite struct {
	service       *ServiceImplementation
	mockRepo      *MockUserRepository
	mockTokenSvc  *MockTokenService
	logger        *zap.Logger
	tokenExpiryAt time.Time
}

func setupUserServiceTestSuite(t *testing.T) *UserServiceTestSuite {
	ts := &UserServiceTestSuite{}
	ts.mockRepo = new(MockUserRepository)
	ts.mockTokenSvc = new(MockTokenService)
	ts.logger = zap.NewNop()
	ts.tokenExpiryAt = time.Now().Add(time.Hour)
	cfg := &config.Config{PasswordMinLength: 8}
	ts.service = NewService(ts.mockRepo, ts.mockTokenSvc, cfg, ts.logger)
	return ts
}

func (ts *UserServiceTestSuite) expectTokenIssue() {
	ts.mockTokenSvc.On("GenerateAccessToken", mock.Anything).Return("access-token", ts.tokenExpiryAt, nil)
	ts.mockTokenSvc.On("GenerateRefreshToken", mock.Anything).Return("refresh-token", ts.tokenExpiryAt.Add(24*time.Hour), nil)
}

// --- Test Cases ---

func TestService_Register_Success(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("FindByEmail", ctx, "new@example.com").
		Return(nil, common.ErrNotFound.WithDetails("User not found."))
	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*user.User")).
		Run(func(args mock.Arguments) {
			created := args.Get(1).(*User)
			created.ID = uuid.New()
		}).
		Return(nil)
	ts.expectTokenIssue()

	registered, tokens, err := ts.service.Register(ctx, shared.CreateUserRequest{
		Name:     "Green Acres",
		Email:    "new@example.com",
		Password: "s3cretpass",
		Role:     "farmer",
	})

	require.NoError(t, err)
	assert.Equal(t, "farmer", registered.Role)
	assert.Equal(t, "access-token", tokens.AccessToken)
	assert.Equal(t, "Bearer", tokens.TokenType)
	ts.mockRepo.AssertExpectations(t)
	ts.mockTokenSvc.AssertExpectations(t)
}

func TestService_Register_EmailTaken(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("FindByEmail", ctx, "taken@example.com").
		Return(&User{Email: "taken@example.com"}, nil)

	_, _, err := ts.service.Register(ctx, shared.CreateUserRequest{
		Name:     "Someone",
		Email:    "taken@example.com",
		Password: "s3cretpass",
		Role:     "buyer",
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConflict)
	ts.mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Register_UnknownRole(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("FindByEmail", ctx, "new@example.com").
		Return(nil, common.ErrNotFound.WithDetails("User not found."))

	_, _, err := ts.service.Register(ctx, shared.CreateUserRequest{
		Name:     "Someone",
		Email:    "new@example.com",
		Password: "s3cretpass",
		Role:     "admin",
	})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestService_Login_Success(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	hash, err := common.HashPassword("correct-horse")
	require.NoError(t, err)
	existing := &User{
		BaseModel:    common.BaseModel{ID: uuid.New()},
		Name:         "Green Acres",
		Email:        "farmer@example.com",
		PasswordHash: hash,
		Role:         "farmer",
	}

	ts.mockRepo.On("FindByEmail", ctx, "farmer@example.com").Return(existing, nil)
	ts.mockRepo.On("Update", ctx, existing).Return(nil)
	ts.expectTokenIssue()

	loggedIn, tokens, err := ts.service.Login(ctx, "farmer@example.com", "correct-horse")

	require.NoError(t, err)
	assert.Equal(t, existing.ID, loggedIn.ID)
	assert.NotNil(t, existing.LastLoginAt)
	assert.Equal(t, "refresh-token", tokens.RefreshToken)
	ts.mockRepo.AssertExpectations(t)
}

func TestService_Login_WrongPassword(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	hash, err := common.HashPassword("correct-horse")
	require.NoError(t, err)
	ts.mockRepo.On("FindByEmail", ctx, "farmer@example.com").
		Return(&User{Email: "farmer@example.com", PasswordHash: hash}, nil)

	_, _, err = ts.service.Login(ctx, "farmer@example.com", "wrong-horse")

	assert.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	ts.mockTokenSvc.AssertNotCalled(t, "GenerateAccessToken", mock.Anything)
}

func TestService_Login_UnknownEmailSameError(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("FindByEmail", ctx, "ghost@example.com").
		Return(nil, common.ErrNotFound.WithDetails("User not found."))

	_, _, err := ts.service.Login(ctx, "ghost@example.com", "whatever")

	assert.Error(t, err)
	// Unknown email and wrong password must be indistinguishable.
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestService_ChangePassword_WrongCurrent(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	hash, err := common.HashPassword("old-password")
	require.NoError(t, err)
	ts.mockRepo.On("FindByID", ctx, userID).
		Return(&User{BaseModel: common.BaseModel{ID: userID}, PasswordHash: hash}, nil)

	err = ts.service.ChangePassword(ctx, userID, "not-the-old-one", "new-password")

	assert.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	ts.mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_ChangePassword_Success(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	hash, err := common.HashPassword("old-password")
	require.NoError(t, err)
	existing := &User{BaseModel: common.BaseModel{ID: userID}, PasswordHash: hash}
	ts.mockRepo.On("FindByID", ctx, userID).Return(existing, nil)
	ts.mockRepo.On("Update", ctx, existing).Return(nil)

	err = ts.service.ChangePassword(ctx, userID, "old-password", "new-password")

	require.NoError(t, err)
	assert.True(t, common.CheckPassword("new-password", existing.PasswordHash))
	ts.mockRepo.AssertExpectations(t)
}

func TestService_UpdateProfile_BlankName(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	ts.mockRepo.On("FindByID", ctx, userID).
		Return(&User{BaseModel: common.BaseModel{ID: userID}, Name: "Old Name"}, nil)

	blank := "   "
	_, err := ts.service.UpdateProfile(ctx, userID, UpdateProfileRequest{Name: &blank})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_UpdateProfile_ClearsOptionalFields(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	location := "Snohomish"
	existing := &User{BaseModel: common.BaseModel{ID: userID}, Name: "Green Acres", Location: &location}
	ts.mockRepo.On("FindByID", ctx, userID).Return(existing, nil)
	ts.mockRepo.On("Update", ctx, existing).Return(nil)

	empty := ""
	updated, err := ts.service.UpdateProfile(ctx, userID, UpdateProfileRequest{Location: &empty})

	require.NoError(t, err)
	assert.Nil(t, updated.Location)
	assert.Equal(t, "Green Acres", updated.Name)
}

func TestService_GetUserByID_NotFound(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	ts.mockRepo.On("FindByID", ctx, userID).
		Return(nil, common.ErrNotFound.WithDetails("User not found."))

	_, err := ts.service.GetUserByID(ctx, userID)

	assert.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

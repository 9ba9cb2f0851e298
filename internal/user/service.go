// File: internal/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/config"
	"farmlink_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for user-related business logic.
type Service interface {
	Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error)
	Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error)
	GetUserByEmail(ctx context.Context, email string) (*shared.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*shared.User, error)
	UpdateProfilePicture(ctx context.Context, userID uuid.UUID, pictureURL string) (*shared.User, error)
}

// ServiceImplementation implements the Service interface.
type ServiceImplementation struct {
	repo         Repository
	tokenService shared.TokenService
	cfg          *config.Config
	logger       *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)
var _ shared.Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(
	repo Repository,
	tokenService shared.TokenService,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:         repo,
		tokenService: tokenService,
		cfg:          cfg,
		logger:       logger,
	}
}

// Register creates a new user account and issues its first token pair.
func (s *ServiceImplementation) Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error) {
	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, nil, common.ErrConflict.WithDetails("User with this email already exists.")
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to check existing user by email: %w", err)
	}

	if _, err := common.ParseRole(req.Role); err != nil {
		return nil, nil, common.NewValidationAPIError(map[string]string{
			"role": "The role field must be one of: farmer, buyer, foodbank.",
		})
	}

	hashedPassword, err := common.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	dbUser := CreateRequestToDB(&req, hashedPassword)

	if err := s.repo.Create(ctx, dbUser); err != nil {
		s.logger.Error("Failed to create user in repository", zap.Error(err), zap.String("email", req.Email))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, nil, apiErr
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokenResponse, err := s.issueTokens(dbUser)
	if err != nil {
		return nil, nil, err
	}

	sharedUser := DBToShared(dbUser)
	s.logger.Info("User registered successfully",
		zap.String("userID", sharedUser.ID.String()), zap.String("role", sharedUser.Role))
	return sharedUser, tokenResponse, nil
}

// Login verifies credentials and issues a new token pair.
func (s *ServiceImplementation) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info("User not found during login", zap.String("email", email))
			return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
		}
		s.logger.Error("Error finding user by email during login", zap.Error(err), zap.String("email", email))
		return nil, nil, common.ErrInternalServer.WithDetails("Login failed due to an internal error.")
	}

	if !common.CheckPassword(password, dbUser.PasswordHash) {
		s.logger.Warn("Invalid password attempt", zap.String("userID", dbUser.ID.String()))
		return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
	}

	now := time.Now()
	dbUser.LastLoginAt = &now
	if err := s.repo.Update(ctx, dbUser); err != nil {
		// Not critical for auth, log and continue.
		s.logger.Error("Failed to update last login time", zap.Error(err), zap.String("userID", dbUser.ID.String()))
	}

	tokenResponse, err := s.issueTokens(dbUser)
	if err != nil {
		return nil, nil, err
	}

	sharedUser := DBToShared(dbUser)
	s.logger.Info("User logged in successfully", zap.String("userID", sharedUser.ID.String()))
	return sharedUser, tokenResponse, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *ServiceImplementation) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	dbUser, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !common.CheckPassword(currentPassword, dbUser.PasswordHash) {
		s.logger.Warn("Change password rejected: current password mismatch", zap.String("userID", userID.String()))
		return common.ErrUnauthorized.WithDetails("Current password is incorrect.")
	}

	hashedPassword, err := common.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("Failed to hash new password", zap.Error(err))
		return fmt.Errorf("failed to hash password: %w", err)
	}

	dbUser.PasswordHash = hashedPassword
	if err := s.repo.Update(ctx, dbUser); err != nil {
		s.logger.Error("Failed to persist new password", zap.Error(err), zap.String("userID", userID.String()))
		return err
	}

	s.logger.Info("Password changed", zap.String("userID", userID.String()))
	return nil
}

func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("Error finding user by ID", zap.Error(err), zap.String("userID", id.String()))
		}
		return nil, err
	}
	return DBToShared(dbUser), nil
}

func (s *ServiceImplementation) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("Error finding user by email", zap.Error(err), zap.String("email", email))
		}
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// UpdateProfile applies the provided fields to the user's profile.
func (s *ServiceImplementation) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, common.NewValidationAPIError(map[string]string{"name": "The name field may not be blank."})
		}
		dbUser.Name = name
	}
	if req.Location != nil {
		if loc := strings.TrimSpace(*req.Location); loc != "" {
			dbUser.Location = &loc
		} else {
			dbUser.Location = nil
		}
	}
	if req.Phone != nil {
		if phone := strings.TrimSpace(*req.Phone); phone != "" {
			dbUser.Phone = &phone
		} else {
			dbUser.Phone = nil
		}
	}

	if err := s.repo.Update(ctx, dbUser); err != nil {
		s.logger.Error("Failed to update user profile", zap.Error(err), zap.String("userID", userID.String()))
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// UpdateProfilePicture stores the new picture URL on the user's profile.
func (s *ServiceImplementation) UpdateProfilePicture(ctx context.Context, userID uuid.UUID, pictureURL string) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	dbUser.ProfilePictureURL = &pictureURL
	if err := s.repo.Update(ctx, dbUser); err != nil {
		s.logger.Error("Failed to update profile picture", zap.Error(err), zap.String("userID", userID.String()))
		return nil, err
	}
	return DBToShared(dbUser), nil
}

func (s *ServiceImplementation) issueTokens(dbUser *User) (*shared.TokenResponse, error) {
	accessToken, accessExpiresAt, err := s.tokenService.GenerateAccessToken(dbUser)
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not generate access token.")
	}

	refreshToken, _, err := s.tokenService.GenerateRefreshToken(dbUser)
	if err != nil {
		// Access token alone still lets the client in, log and continue.
		s.logger.Error("Failed to generate refresh token", zap.Error(err), zap.String("userID", dbUser.ID.String()))
	}

	return &shared.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    accessExpiresAt,
	}, nil
}

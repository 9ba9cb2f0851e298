// File: internal/auth/interfaces.go
package auth

import (
	"context"

	"farmlink_backend/internal/shared"

	"github.com/google/uuid"
)

// UserAccountProvider defines the user operations the auth handlers need.
// This interface is implemented by user.ServiceImplementation.
type UserAccountProvider interface {
	Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error)
	Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error)
}

// File: internal/auth/model.go
package auth

// RegisterRequest defines the structure for account registration.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"required"`
	Location string `json:"location,omitempty" binding:"omitempty,max=255"`
	Phone    string `json:"phone,omitempty" binding:"omitempty,max=30"`
}

// LoginRequest defines the structure for login requests.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest defines the structure for refresh token requests.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest defines the structure for password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// LogoutRequest optionally carries the refresh token to revoke alongside
// the access token taken from the Authorization header.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

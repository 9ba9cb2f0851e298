// File: internal/user/model.go
package user

import (
	"time"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/shared"

	"github.com/google/uuid"
)

// User represents the user model in the database.
type User struct {
	common.BaseModel          // Embeds ID, CreatedAt, UpdatedAt
	Name              string  `gorm:"type:varchar(100);not null"`
	Email             string  `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash      string  `gorm:"type:varchar(255);not null"`
	Role              string  `gorm:"type:varchar(20);not null;index"`
	Location          *string `gorm:"type:varchar(255)"`
	Phone             *string `gorm:"type:varchar(30)"`
	ProfilePictureURL *string `gorm:"type:text"`
	LastLoginAt       *time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) GetEmail() string {
	return u.Email
}

func (u *User) GetRole() string {
	return u.Role
}

// --- DTOs for API requests/responses ---

// UpdateProfileRequest defines the fields a user may change on their profile.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" binding:"omitempty,max=100"`
	Location *string `json:"location,omitempty" binding:"omitempty,max=255"`
	Phone    *string `json:"phone,omitempty" binding:"omitempty,max=30"`
}

// UpdateProfilePictureRequest carries the new picture URL.
type UpdateProfilePictureRequest struct {
	ProfilePictureURL string `json:"profile_picture_url" binding:"required,url,max=2048"`
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email,omitempty"`
	Role              string     `json:"role"`
	Location          *string    `json:"location,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	ProfilePictureURL *string    `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
}

// ToUserResponse converts a shared.User to a UserResponse DTO.
func ToUserResponse(u *shared.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		Location:          u.Location,
		Phone:             u.Phone,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
		LastLoginAt:       u.LastLoginAt,
	}
}

// ToPublicUserResponse strips contact details for profiles viewed by other users.
func ToPublicUserResponse(u *shared.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		Name:              u.Name,
		Role:              u.Role,
		Location:          u.Location,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

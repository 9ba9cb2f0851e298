// File: internal/user/adapter.go
package user

import (
	"strings"

	"farmlink_backend/internal/shared"
)

// DBToShared converts a GORM user.User model to a shared.User DTO.
func DBToShared(dbUser *User) *shared.User {
	if dbUser == nil {
		return nil
	}
	return &shared.User{
		ID:                dbUser.ID,
		Name:              dbUser.Name,
		Email:             dbUser.Email,
		Role:              dbUser.Role,
		Location:          dbUser.Location,
		Phone:             dbUser.Phone,
		ProfilePictureURL: dbUser.ProfilePictureURL,
		CreatedAt:         dbUser.CreatedAt,
		UpdatedAt:         dbUser.UpdatedAt,
		LastLoginAt:       dbUser.LastLoginAt,
	}
}

// CreateRequestToDB builds a GORM user.User model from a registration request.
// The password hash is computed by the caller.
func CreateRequestToDB(req *shared.CreateUserRequest, passwordHash string) *User {
	dbUser := &User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: passwordHash,
		Role:         req.Role,
	}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		dbUser.Location = &loc
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		dbUser.Phone = &phone
	}
	return dbUser
}

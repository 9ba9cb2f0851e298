// File: internal/request/model.go
package request

import (
	"time"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/listing"
	"farmlink_backend/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus represents the lifecycle state of a produce request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCompleted RequestStatus = "completed"
)

// Request is the GORM model for produce requests filed against listings.
// The requester is stored as a single user reference plus the role they
// acted under, buyer or foodbank.
type Request struct {
	common.BaseModel
	ListingID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Listing       *listing.Listing `gorm:"foreignKey:ListingID"`
	RequesterID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	Requester     *user.User       `gorm:"foreignKey:RequesterID"`
	RequesterRole string           `gorm:"type:varchar(20);not null"`
	Quantity      decimal.Decimal  `gorm:"type:numeric(12,3);not null"`
	Purpose       *string          `gorm:"type:text"`
	Status        RequestStatus    `gorm:"type:varchar(20);not null;default:'pending';index"`
}

// TableName specifies the table name for the Request model.
func (Request) TableName() string {
	return "requests"
}

// IsTerminal reports whether the request can no longer change state.
func (r *Request) IsTerminal() bool {
	return r.Status == StatusRejected || r.Status == StatusCompleted
}

// CreateRequestRequest is the DTO for filing a new produce request.
type CreateRequestRequest struct {
	ListingID string          `json:"listing_id" binding:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Purpose   *string         `json:"purpose,omitempty" binding:"omitempty,max=1000"`
}

// DecideRequestRequest is the DTO the listing owner submits to approve or
// reject a pending request.
type DecideRequestRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

// RequestListQuery holds filters for listing a user's requests.
type RequestListQuery struct {
	common.PaginationQuery
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected completed"`
}

// RequestResponse is the DTO for request data sent to clients.
type RequestResponse struct {
	ID            uuid.UUID                `json:"id"`
	ListingID     uuid.UUID                `json:"listing_id"`
	Listing       *listing.ListingResponse `json:"listing,omitempty"`
	RequesterID   uuid.UUID                `json:"requester_id"`
	Requester     *user.UserResponse       `json:"requester,omitempty"`
	RequesterRole string                   `json:"requester_role"`
	Quantity      decimal.Decimal          `json:"quantity"`
	Purpose       *string                  `json:"purpose,omitempty"`
	Status        RequestStatus            `json:"status"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// ToRequestResponse converts a Request model to its response DTO.
func ToRequestResponse(req *Request) RequestResponse {
	resp := RequestResponse{
		ID:            req.ID,
		ListingID:     req.ListingID,
		RequesterID:   req.RequesterID,
		RequesterRole: req.RequesterRole,
		Quantity:      req.Quantity,
		Purpose:       req.Purpose,
		Status:        req.Status,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}
	if req.Listing != nil {
		listingResp := listing.ToListingResponse(req.Listing)
		resp.Listing = &listingResp
	}
	if req.Requester != nil {
		requesterResp := user.ToPublicUserResponse(user.DBToShared(req.Requester))
		resp.Requester = &requesterResp
	}
	return resp
}

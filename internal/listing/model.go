// File: internal/listing/model.go
package listing

import (
	"time"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/user"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	StatusActive   ListingStatus = "active"
	StatusInactive ListingStatus = "inactive"
)

// Listing is a batch of produce a farmer has put on the marketplace.
// Quantity is the amount still available; approvals decrement it.
type Listing struct {
	common.BaseModel
	FarmerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Farmer      *user.User      `gorm:"foreignKey:FarmerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ProduceType string          `gorm:"type:varchar(100);not null;index"`
	Quantity    decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	Unit        string          `gorm:"type:varchar(20);not null;default:'kg'"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Description *string         `gorm:"type:text"`
	HarvestDate *time.Time      `gorm:"type:date"`
	BestBefore  *time.Time      `gorm:"type:date"`
	Organic     bool            `gorm:"not null;default:false"`
	Images      pq.StringArray  `gorm:"type:text[]"`
	Status      ListingStatus   `gorm:"type:varchar(20);not null;default:'active';index"`
}

func (Listing) TableName() string {
	return "listings"
}

// IsDonation reports whether the listing is offered free of charge.
// Food banks only see donation listings.
func (l *Listing) IsDonation() bool {
	return l.UnitPrice.IsZero()
}

// --- DTOs for API ---

type CreateListingRequest struct {
	ProduceType string           `json:"produce_type" binding:"required,min=2,max=100"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"required"`
	Unit        string           `json:"unit,omitempty" binding:"omitempty,max=20"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Description *string          `json:"description,omitempty" binding:"omitempty,max=2000"`
	HarvestDate *string          `json:"harvest_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	BestBefore  *string          `json:"best_before,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Organic     bool             `json:"organic"`
	Images      []string         `json:"images,omitempty" binding:"omitempty,max=5,dive,url,max=2048"`
}

type UpdateListingRequest struct {
	ProduceType *string          `json:"produce_type,omitempty" binding:"omitempty,min=2,max=100"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Unit        *string          `json:"unit,omitempty" binding:"omitempty,max=20"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Description *string          `json:"description,omitempty" binding:"omitempty,max=2000"`
	HarvestDate *string          `json:"harvest_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	BestBefore  *string          `json:"best_before,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Organic     *bool            `json:"organic,omitempty"`
	Images      []string         `json:"images,omitempty" binding:"omitempty,max=5,dive,url,max=2048"`
}

type UpdateListingStatusRequest struct {
	Status ListingStatus `json:"status" binding:"required,oneof=active inactive"`
}

type ListingResponse struct {
	ID          uuid.UUID          `json:"id"`
	FarmerID    uuid.UUID          `json:"farmer_id"`
	Farmer      *user.UserResponse `json:"farmer,omitempty"`
	ProduceType string             `json:"produce_type"`
	Quantity    decimal.Decimal    `json:"quantity"`
	Unit        string             `json:"unit"`
	UnitPrice   decimal.Decimal    `json:"unit_price"`
	IsDonation  bool               `json:"is_donation"`
	Description *string            `json:"description,omitempty"`
	HarvestDate *string            `json:"harvest_date,omitempty"`
	BestBefore  *string            `json:"best_before,omitempty"`
	Organic     bool               `json:"organic"`
	Images      []string           `json:"images,omitempty"`
	Status      ListingStatus      `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func ToListingResponse(listing *Listing) ListingResponse {
	resp := ListingResponse{
		ID:          listing.ID,
		FarmerID:    listing.FarmerID,
		ProduceType: listing.ProduceType,
		Quantity:    listing.Quantity,
		Unit:        listing.Unit,
		UnitPrice:   listing.UnitPrice,
		IsDonation:  listing.IsDonation(),
		Description: listing.Description,
		Organic:     listing.Organic,
		Images:      listing.Images,
		Status:      listing.Status,
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
	}
	if listing.HarvestDate != nil {
		formatted := listing.HarvestDate.Format("2006-01-02")
		resp.HarvestDate = &formatted
	}
	if listing.BestBefore != nil {
		formatted := listing.BestBefore.Format("2006-01-02")
		resp.BestBefore = &formatted
	}
	if listing.Farmer != nil {
		farmerResp := user.ToPublicUserResponse(user.DBToShared(listing.Farmer))
		resp.Farmer = &farmerResp
	}
	return resp
}

type ListingSearchQuery struct {
	common.PaginationQuery
	ProduceType     string  `form:"produce_type"`
	Organic         *bool   `form:"organic"`
	DonationOnly    bool    `form:"donation_only"`
	FarmerID        *string `form:"farmer_id"`
	Status          string  `form:"status"`
	IncludeInactive bool    `form:"include_inactive"`
	SortBy          string  `form:"sort_by"`
	SortOrder       string  `form:"sort_order"`
}

// File: internal/listing/repository.go
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmlink_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for listing data operations.
type Repository interface {
	Create(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id uuid.UUID, preloadFarmer bool) (*Listing, error)
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status ListingStatus) error
	CountOpenRequests(ctx context.Context, listingID uuid.UUID) (int64, error)
	DeactivateStale(ctx context.Context, now time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM listing repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new listing into the database.
func (r *gormRepository) Create(ctx context.Context, listing *Listing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// FindByID retrieves a listing by its ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID, preloadFarmer bool) (*Listing, error) {
	var listing Listing
	query := r.db.WithContext(ctx)
	if preloadFarmer {
		query = query.Preload("Farmer")
	}
	err := query.First(&listing, "listings.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Listing not found.")
		}
		return nil, err
	}
	return &listing, nil
}

// Update saves the full listing record.
func (r *gormRepository) Update(ctx context.Context, listing *Listing) error {
	if err := r.db.WithContext(ctx).Save(listing).Error; err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	return nil
}

// Delete removes a listing. Ownership and open-request checks belong to the
// service layer.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Listing{BaseModel: common.BaseModel{ID: id}})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Listing not found or already deleted.")
	}
	return nil
}

// Search retrieves listings filtered by the query parameters.
func (r *gormRepository) Search(ctx context.Context, queryParams ListingSearchQuery) ([]Listing, *common.Pagination, error) {
	var listings []Listing
	var totalItems int64

	dbQuery := r.db.WithContext(ctx).Model(&Listing{}).Preload("Farmer")

	if queryParams.ProduceType != "" {
		produceType := "%" + strings.ToLower(queryParams.ProduceType) + "%"
		dbQuery = dbQuery.Where("LOWER(listings.produce_type) LIKE ?", produceType)
	}
	if queryParams.Organic != nil {
		dbQuery = dbQuery.Where("listings.organic = ?", *queryParams.Organic)
	}
	if queryParams.DonationOnly {
		dbQuery = dbQuery.Where("listings.unit_price = 0")
	}
	if queryParams.FarmerID != nil && *queryParams.FarmerID != "" {
		farmerID, err := uuid.Parse(*queryParams.FarmerID)
		if err != nil {
			return nil, nil, common.ErrBadRequest.WithDetails("Invalid farmer_id filter.")
		}
		dbQuery = dbQuery.Where("listings.farmer_id = ?", farmerID)
	}
	if queryParams.Status != "" {
		dbQuery = dbQuery.Where("listings.status = ?", queryParams.Status)
	} else if !queryParams.IncludeInactive {
		dbQuery = dbQuery.Where("listings.status = ?", StatusActive)
	}

	if err := dbQuery.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count listings: %w", err)
	}

	sortOrder := "DESC"
	if strings.ToLower(queryParams.SortOrder) == "asc" {
		sortOrder = "ASC"
	}
	validSortableFields := map[string]string{
		"created_at":   "listings.created_at",
		"produce_type": "listings.produce_type",
		"unit_price":   "listings.unit_price",
		"best_before":  "listings.best_before",
	}
	if dbSortField, ok := validSortableFields[queryParams.SortBy]; ok {
		dbQuery = dbQuery.Order(fmt.Sprintf("%s %s", dbSortField, sortOrder))
	} else {
		dbQuery = dbQuery.Order("listings.created_at DESC")
	}

	pagination := common.NewPagination(totalItems, queryParams.Page, queryParams.PageSize)
	dbQuery = dbQuery.Offset(queryParams.Offset()).Limit(queryParams.Limit())

	if err := dbQuery.Find(&listings).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to search listings: %w", err)
	}

	return listings, pagination, nil
}

// UpdateStatus flips a listing between active and inactive.
func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status ListingStatus) error {
	result := r.db.WithContext(ctx).Model(&Listing{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Listing not found.")
	}
	return nil
}

// CountOpenRequests reports how many pending or approved requests still
// reference a listing. The requests table is owned by the request package;
// counting through the table name avoids an import cycle between the two.
func (r *gormRepository) CountOpenRequests(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("requests").
		Where("listing_id = ? AND status IN (?)", listingID, []string{"pending", "approved"}).
		Count(&count).Error
	return count, err
}

// DeactivateStale marks active listings inactive once their quantity is
// exhausted or their best-before date has passed. Returns the number of
// listings flipped.
func (r *gormRepository) DeactivateStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&Listing{}).
		Where("status = ?", StatusActive).
		Where("quantity <= 0 OR (best_before IS NOT NULL AND best_before < ?)", now).
		Update("status", StatusInactive)
	return result.RowsAffected, result.Error
}

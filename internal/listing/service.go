// File: internal/listing/service.go
package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service defines the interface for listing-related business logic.
type Service interface {
	CreateListing(ctx context.Context, farmerID uuid.UUID, farmerRole string, req CreateListingRequest) (*Listing, error)
	GetListingByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	UpdateListing(ctx context.Context, id uuid.UUID, callerID uuid.UUID, req UpdateListingRequest) (*Listing, error)
	UpdateListingStatus(ctx context.Context, id uuid.UUID, callerID uuid.UUID, status ListingStatus) (*Listing, error)
	DeleteListing(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error
	SearchListings(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error)
	GetFarmerListings(ctx context.Context, farmerID uuid.UUID, query ListingSearchQuery) ([]Listing, *common.Pagination, error)
	GetDonationListings(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error)

	// Called by the deactivation cron job.
	DeactivateStaleListings(ctx context.Context) (int64, error)
}

// ServiceImplementation implements the Service interface.
type ServiceImplementation struct {
	repo   Repository
	cfg    *config.Config
	logger *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new listing service.
func NewService(repo Repository, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// CreateListing validates and stores a new produce listing for a farmer.
func (s *ServiceImplementation) CreateListing(ctx context.Context, farmerID uuid.UUID, farmerRole string, req CreateListingRequest) (*Listing, error) {
	if farmerRole != common.RoleFarmer.String() {
		return nil, common.ErrForbidden.WithDetails("Only farmers can post produce listings.")
	}

	if !req.Quantity.IsPositive() {
		return nil, common.NewValidationAPIError(map[string]string{
			"quantity": "The quantity field must be greater than zero.",
		})
	}

	unitPrice := decimal.Zero
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, common.NewValidationAPIError(map[string]string{
				"unit_price": "The unit price field may not be negative.",
			})
		}
		unitPrice = *req.UnitPrice
	}

	harvestDate, err := parseDate(req.HarvestDate)
	if err != nil {
		return nil, common.NewValidationAPIError(map[string]string{"harvest_date": err.Error()})
	}
	bestBefore, err := parseDate(req.BestBefore)
	if err != nil {
		return nil, common.NewValidationAPIError(map[string]string{"best_before": err.Error()})
	}
	if harvestDate != nil && bestBefore != nil && bestBefore.Before(*harvestDate) {
		return nil, common.NewValidationAPIError(map[string]string{
			"best_before": "The best before date may not be earlier than the harvest date.",
		})
	}

	if s.cfg.MaxListingImages > 0 && len(req.Images) > s.cfg.MaxListingImages {
		return nil, common.NewValidationAPIError(map[string]string{
			"images": fmt.Sprintf("At most %d images are allowed per listing.", s.cfg.MaxListingImages),
		})
	}

	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = "kg"
	}

	newListing := &Listing{
		FarmerID:    farmerID,
		ProduceType: strings.TrimSpace(req.ProduceType),
		Quantity:    req.Quantity,
		Unit:        unit,
		UnitPrice:   unitPrice,
		Description: req.Description,
		HarvestDate: harvestDate,
		BestBefore:  bestBefore,
		Organic:     req.Organic,
		Images:      req.Images,
		Status:      StatusActive,
	}

	if err := s.repo.Create(ctx, newListing); err != nil {
		s.logger.Error("Failed to create listing", zap.Error(err), zap.String("farmerID", farmerID.String()))
		return nil, err
	}

	s.logger.Info("Listing created",
		zap.String("listingID", newListing.ID.String()),
		zap.String("farmerID", farmerID.String()),
		zap.String("produceType", newListing.ProduceType),
		zap.Bool("donation", newListing.IsDonation()))
	return s.repo.FindByID(ctx, newListing.ID, true)
}

// GetListingByID returns a listing with its farmer preloaded.
func (s *ServiceImplementation) GetListingByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	return s.repo.FindByID(ctx, id, true)
}

// UpdateListing applies the provided fields to a listing owned by the caller.
func (s *ServiceImplementation) UpdateListing(ctx context.Context, id uuid.UUID, callerID uuid.UUID, req UpdateListingRequest) (*Listing, error) {
	existing, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if existing.FarmerID != callerID {
		return nil, common.ErrForbidden.WithDetails("You can only edit your own listings.")
	}

	if req.ProduceType != nil {
		produceType := strings.TrimSpace(*req.ProduceType)
		if produceType == "" {
			return nil, common.NewValidationAPIError(map[string]string{"produce_type": "The produce type field may not be blank."})
		}
		existing.ProduceType = produceType
	}
	if req.Quantity != nil {
		if req.Quantity.IsNegative() {
			return nil, common.NewValidationAPIError(map[string]string{"quantity": "The quantity field may not be negative."})
		}
		existing.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		if unit := strings.TrimSpace(*req.Unit); unit != "" {
			existing.Unit = unit
		}
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, common.NewValidationAPIError(map[string]string{"unit_price": "The unit price field may not be negative."})
		}
		existing.UnitPrice = *req.UnitPrice
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.HarvestDate != nil {
		harvestDate, err := parseDate(req.HarvestDate)
		if err != nil {
			return nil, common.NewValidationAPIError(map[string]string{"harvest_date": err.Error()})
		}
		existing.HarvestDate = harvestDate
	}
	if req.BestBefore != nil {
		bestBefore, err := parseDate(req.BestBefore)
		if err != nil {
			return nil, common.NewValidationAPIError(map[string]string{"best_before": err.Error()})
		}
		existing.BestBefore = bestBefore
	}
	if existing.HarvestDate != nil && existing.BestBefore != nil && existing.BestBefore.Before(*existing.HarvestDate) {
		return nil, common.NewValidationAPIError(map[string]string{
			"best_before": "The best before date may not be earlier than the harvest date.",
		})
	}
	if req.Organic != nil {
		existing.Organic = *req.Organic
	}
	if req.Images != nil {
		if s.cfg.MaxListingImages > 0 && len(req.Images) > s.cfg.MaxListingImages {
			return nil, common.NewValidationAPIError(map[string]string{
				"images": fmt.Sprintf("At most %d images are allowed per listing.", s.cfg.MaxListingImages),
			})
		}
		existing.Images = req.Images
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		s.logger.Error("Failed to update listing", zap.Error(err), zap.String("listingID", id.String()))
		return nil, err
	}
	return s.repo.FindByID(ctx, id, true)
}

// UpdateListingStatus lets the owning farmer flip a listing between active
// and inactive.
func (s *ServiceImplementation) UpdateListingStatus(ctx context.Context, id uuid.UUID, callerID uuid.UUID, status ListingStatus) (*Listing, error) {
	existing, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if existing.FarmerID != callerID {
		return nil, common.ErrForbidden.WithDetails("You can only change the status of your own listings.")
	}
	if existing.Status == status {
		return s.repo.FindByID(ctx, id, true)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		s.logger.Error("Failed to update listing status", zap.Error(err), zap.String("listingID", id.String()))
		return nil, err
	}
	s.logger.Info("Listing status changed",
		zap.String("listingID", id.String()), zap.String("status", string(status)))
	return s.repo.FindByID(ctx, id, true)
}

// DeleteListing removes a listing that has no open requests against it.
func (s *ServiceImplementation) DeleteListing(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	existing, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return err
	}
	if existing.FarmerID != callerID {
		return common.ErrForbidden.WithDetails("You can only delete your own listings.")
	}

	openRequests, err := s.repo.CountOpenRequests(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count open requests for listing", zap.Error(err), zap.String("listingID", id.String()))
		return err
	}
	if openRequests > 0 {
		return common.ErrConflict.WithDetails("The listing still has pending or approved requests. Resolve them before deleting.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Listing deleted", zap.String("listingID", id.String()), zap.String("farmerID", callerID.String()))
	return nil
}

// SearchListings returns active listings matching the filters.
func (s *ServiceImplementation) SearchListings(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error) {
	// Public searches never expose inactive listings.
	query.Status = string(StatusActive)
	query.FarmerID = nil
	return s.repo.Search(ctx, query)
}

// GetFarmerListings returns every listing a farmer owns, any status.
func (s *ServiceImplementation) GetFarmerListings(ctx context.Context, farmerID uuid.UUID, query ListingSearchQuery) ([]Listing, *common.Pagination, error) {
	idStr := farmerID.String()
	query.FarmerID = &idStr
	// Owners see inactive listings too unless they filter explicitly.
	query.IncludeInactive = true
	return s.repo.Search(ctx, query)
}

// GetDonationListings returns active listings offered free of charge.
func (s *ServiceImplementation) GetDonationListings(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error) {
	query.DonationOnly = true
	query.Status = string(StatusActive)
	query.FarmerID = nil
	return s.repo.Search(ctx, query)
}

// DeactivateStaleListings is invoked by the cron job to retire exhausted or
// past-date listings.
func (s *ServiceImplementation) DeactivateStaleListings(ctx context.Context) (int64, error) {
	count, err := s.repo.DeactivateStale(ctx, time.Now())
	if err != nil {
		s.logger.Error("Failed to deactivate stale listings", zap.Error(err))
		return 0, err
	}
	if count > 0 {
		s.logger.Info("Deactivated stale listings", zap.Int64("count", count))
	}
	return count, nil
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, fmt.Errorf("must be a valid date in the format 2006-01-02")
	}
	return &parsed, nil
}

// File: internal/request/repository.go
package request

import (
	"context"
	"errors"
	"fmt"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/listing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for request data operations.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	FindByID(ctx context.Context, id uuid.UUID, preload bool) (*Request, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID, query RequestListQuery) ([]Request, *common.Pagination, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID, query RequestListQuery) ([]Request, *common.Pagination, error)
	Approve(ctx context.Context, req *Request) error
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to RequestStatus) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM request repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new request into the database.
func (r *gormRepository) Create(ctx context.Context, req *Request) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// FindByID retrieves a request, optionally with its listing (and the listing's
// farmer) and requester preloaded.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID, preload bool) (*Request, error) {
	var req Request
	query := r.db.WithContext(ctx)
	if preload {
		query = query.Preload("Listing").Preload("Listing.Farmer").Preload("Requester")
	}
	err := query.First(&req, "requests.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Request not found.")
		}
		return nil, err
	}
	return &req, nil
}

// ListByFarmer returns requests filed against any of the farmer's listings.
func (r *gormRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID, query RequestListQuery) ([]Request, *common.Pagination, error) {
	dbQuery := r.db.WithContext(ctx).Model(&Request{}).
		Joins("JOIN listings ON listings.id = requests.listing_id").
		Where("listings.farmer_id = ?", farmerID)
	return r.list(dbQuery, query)
}

// ListByRequester returns requests the user has filed.
func (r *gormRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID, query RequestListQuery) ([]Request, *common.Pagination, error) {
	dbQuery := r.db.WithContext(ctx).Model(&Request{}).
		Where("requests.requester_id = ?", requesterID)
	return r.list(dbQuery, query)
}

func (r *gormRepository) list(dbQuery *gorm.DB, query RequestListQuery) ([]Request, *common.Pagination, error) {
	var requests []Request
	var totalItems int64

	if query.Status != "" {
		dbQuery = dbQuery.Where("requests.status = ?", query.Status)
	}

	if err := dbQuery.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count requests: %w", err)
	}

	pagination := common.NewPagination(totalItems, query.Page, query.PageSize)
	err := dbQuery.
		Preload("Listing").Preload("Listing.Farmer").Preload("Requester").
		Order("requests.created_at DESC").
		Offset(query.Offset()).Limit(query.Limit()).
		Find(&requests).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, pagination, nil
}

// Approve flips a pending request to approved and decrements the listing's
// quantity in one transaction. The decrement is a conditional UPDATE so two
// concurrent approvals can never oversell the listing.
func (r *gormRepository) Approve(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&listing.Listing{}).
			Where("id = ? AND quantity >= ?", req.ListingID, req.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", req.Quantity))
		if result.Error != nil {
			return fmt.Errorf("failed to decrement listing quantity: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			var current listing.Listing
			err := tx.Select("quantity").First(&current, "id = ?", req.ListingID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return common.ErrNotFound.WithDetails("The listing no longer exists.")
				}
				return err
			}
			return common.NewInsufficientQuantityError(req.Quantity.String(), current.Quantity.String())
		}

		statusResult := tx.Model(&Request{}).
			Where("id = ? AND status = ?", req.ID, StatusPending).
			Update("status", StatusApproved)
		if statusResult.Error != nil {
			return fmt.Errorf("failed to approve request: %w", statusResult.Error)
		}
		if statusResult.RowsAffected == 0 {
			// Lost a race with another decision; roll the decrement back.
			return common.ErrInvalidState.WithDetails("The request is no longer pending.")
		}
		return nil
	})
}

// UpdateStatusIf transitions a request from one status to another. It fails
// with an invalid-state error when the request is not in the expected status.
func (r *gormRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to RequestStatus) error {
	result := r.db.WithContext(ctx).Model(&Request{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update request status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrInvalidState.WithDetails(fmt.Sprintf("The request is not %s.", from))
	}
	return nil
}

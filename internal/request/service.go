// File: internal/request/service.go
package request

import (
	"context"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/listing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for request lifecycle operations.
type Service interface {
	CreateRequest(ctx context.Context, requesterID uuid.UUID, requesterRole string, req CreateRequestRequest) (*Request, error)
	GetRequestByID(ctx context.Context, id uuid.UUID, callerID uuid.UUID) (*Request, error)
	Decide(ctx context.Context, requestID uuid.UUID, farmerID uuid.UUID, target RequestStatus) (*Request, error)
	Complete(ctx context.Context, requestID uuid.UUID, actorID uuid.UUID) (*Request, error)
	ListForFarmer(ctx context.Context, farmerID uuid.UUID, query RequestListQuery) ([]Request, *common.Pagination, error)
	ListForRequester(ctx context.Context, requesterID uuid.UUID, query RequestListQuery) ([]Request, *common.Pagination, error)
}

// ServiceImplementation implements the request Service interface.
type ServiceImplementation struct {
	repo           Repository
	listingService listing.Service
	logger         *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new request service.
func NewService(repo Repository, listingService listing.Service, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:           repo,
		listingService: listingService,
		logger:         logger,
	}
}

// CreateRequest files a new pending request against an active listing.
// Availability is not reserved here; inventory is only decremented when the
// farmer approves.
func (s *ServiceImplementation) CreateRequest(ctx context.Context, requesterID uuid.UUID, requesterRole string, req CreateRequestRequest) (*Request, error) {
	role, err := common.ParseRole(requesterRole)
	if err != nil || !role.IsRequester() {
		return nil, common.ErrForbidden.WithDetails("Only buyers and food banks can request produce.")
	}

	if !req.Quantity.IsPositive() {
		return nil, common.NewValidationAPIError(map[string]string{
			"quantity": "The quantity field must be greater than zero.",
		})
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails("Invalid listing ID format.")
	}

	target, err := s.listingService.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if target.Status != listing.StatusActive {
		return nil, common.ErrInvalidState.WithDetails("The listing is no longer active.")
	}
	if target.FarmerID == requesterID {
		return nil, common.ErrForbidden.WithDetails("You cannot request your own listing.")
	}

	newRequest := &Request{
		ListingID:     listingID,
		RequesterID:   requesterID,
		RequesterRole: role.String(),
		Quantity:      req.Quantity,
		Purpose:       req.Purpose,
		Status:        StatusPending,
	}
	if err := s.repo.Create(ctx, newRequest); err != nil {
		s.logger.Error("Failed to create request", zap.Error(err),
			zap.String("requesterID", requesterID.String()), zap.String("listingID", listingID.String()))
		return nil, err
	}

	s.logger.Info("Request created",
		zap.String("requestID", newRequest.ID.String()),
		zap.String("listingID", listingID.String()),
		zap.String("requesterRole", newRequest.RequesterRole))
	return s.repo.FindByID(ctx, newRequest.ID, true)
}

// GetRequestByID returns a request visible only to its requester or the
// listing's farmer.
func (s *ServiceImplementation) GetRequestByID(ctx context.Context, id uuid.UUID, callerID uuid.UUID) (*Request, error) {
	req, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(req, callerID) {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this request.")
	}
	return req, nil
}

// Decide approves or rejects a pending request. Approval decrements the
// listing quantity atomically together with the status change.
func (s *ServiceImplementation) Decide(ctx context.Context, requestID uuid.UUID, farmerID uuid.UUID, target RequestStatus) (*Request, error) {
	if target != StatusApproved && target != StatusRejected {
		return nil, common.NewValidationAPIError(map[string]string{
			"status": "The status field must be either approved or rejected.",
		})
	}

	req, err := s.repo.FindByID(ctx, requestID, true)
	if err != nil {
		return nil, err
	}
	if req.Listing == nil || req.Listing.FarmerID != farmerID {
		return nil, common.ErrForbidden.WithDetails("Only the listing's farmer can decide this request.")
	}
	if req.Status != StatusPending {
		return nil, common.ErrInvalidState.WithDetails("Only pending requests can be decided.")
	}

	if target == StatusApproved {
		if err := s.repo.Approve(ctx, req); err != nil {
			if apiErr, ok := common.IsAPIError(err); ok && apiErr.Code == common.ErrInsufficientQuantity.Code {
				s.logger.Warn("Approval rejected for insufficient quantity",
					zap.String("requestID", requestID.String()),
					zap.String("listingID", req.ListingID.String()),
					zap.String("requested", req.Quantity.String()))
			} else {
				s.logger.Error("Failed to approve request", zap.Error(err), zap.String("requestID", requestID.String()))
			}
			return nil, err
		}
	} else {
		if err := s.repo.UpdateStatusIf(ctx, requestID, StatusPending, StatusRejected); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Request decided",
		zap.String("requestID", requestID.String()),
		zap.String("decision", string(target)),
		zap.String("farmerID", farmerID.String()))
	return s.repo.FindByID(ctx, requestID, true)
}

// Complete marks an approved request as fulfilled. Either side of the
// exchange may complete it; no quantity effect.
func (s *ServiceImplementation) Complete(ctx context.Context, requestID uuid.UUID, actorID uuid.UUID) (*Request, error) {
	req, err := s.repo.FindByID(ctx, requestID, true)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(req, actorID) {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this request.")
	}
	if req.Status != StatusApproved {
		return nil, common.ErrInvalidState.WithDetails("Only approved requests can be completed.")
	}

	if err := s.repo.UpdateStatusIf(ctx, requestID, StatusApproved, StatusCompleted); err != nil {
		return nil, err
	}
	s.logger.Info("Request completed", zap.String("requestID", requestID.String()), zap.String("actorID", actorID.String()))
	return s.repo.FindByID(ctx, requestID, true)
}

// ListForFarmer returns requests filed against the farmer's listings.
func (s *ServiceImplementation) ListForFarmer(ctx context.Context, farmerID uuid.UUID, query RequestListQuery) ([]Request, *common.Pagination, error) {
	return s.repo.ListByFarmer(ctx, farmerID, query)
}

// ListForRequester returns requests the user has filed.
func (s *ServiceImplementation) ListForRequester(ctx context.Context, requesterID uuid.UUID, query RequestListQuery) ([]Request, *common.Pagination, error) {
	return s.repo.ListByRequester(ctx, requesterID, query)
}

func (s *ServiceImplementation) isParticipant(req *Request, callerID uuid.UUID) bool {
	if req.RequesterID == callerID {
		return true
	}
	return req.Listing != nil && req.Listing.FarmerID == callerID
}

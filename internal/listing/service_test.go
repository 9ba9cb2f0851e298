package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockListingRepository is a mock type for listing.Repository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID, preloadFarmer bool) (*Listing, error) {
	args := m.Called(ctx, id, preloadFarmer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Listing), args.Error(1)
}

func (m *MockListingRepository) Update(ctx context.Context, listing *Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockListingRepository) Search(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Listing), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockListingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status ListingStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockListingRepository) CountOpenRequests(ctx context.Context, listingID uuid.UUID) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) DeactivateStale(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type ListingServiceTestSuite struct {
	service  *ServiceImplementation
	mockRepo *MockListingRepository
	logger   *zap.Logger
	cfg      *config.Config
}

func setupListingServiceTestSuite(t *testing.T) *ListingServiceTestSuite {
	ts := &ListingServiceTestSuite{}
	ts.mockRepo = new(MockListingRepository)
	ts.logger = zap.NewNop()
	ts.cfg = &config.Config{
		MaxListingImages: 5,
	}
	ts.service = NewService(ts.mockRepo, ts.cfg, ts.logger)
	return ts
}

// --- Test Cases ---

func TestService_CreateListing_Success(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	farmerID := uuid.New()

	req := CreateListingRequest{
		ProduceType: "Tomatoes",
		Quantity:    decimal.NewFromInt(25),
		Organic:     true,
	}

	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*listing.Listing")).
		Run(func(args mock.Arguments) {
			created := args.Get(1).(*Listing)
			created.ID = uuid.New()
		}).
		Return(nil)
	ts.mockRepo.On("FindByID", ctx, mock.AnythingOfType("uuid.UUID"), true).
		Return(&Listing{ProduceType: "Tomatoes", Quantity: decimal.NewFromInt(25), Status: StatusActive}, nil)

	created, err := ts.service.CreateListing(ctx, farmerID, "farmer", req)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, StatusActive, created.Status)
	ts.mockRepo.AssertExpectations(t)
}

func TestService_CreateListing_DefaultsUnitAndPrice(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()

	var captured *Listing
	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*listing.Listing")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*Listing)
			captured.ID = uuid.New()
		}).
		Return(nil)
	ts.mockRepo.On("FindByID", ctx, mock.AnythingOfType("uuid.UUID"), true).
		Return(&Listing{}, nil)

	_, err := ts.service.CreateListing(ctx, uuid.New(), "farmer", CreateListingRequest{
		ProduceType: "Kale",
		Quantity:    decimal.NewFromFloat(2.5),
	})

	assert.NoError(t, err)
	assert.NotNil(t, captured)
	assert.Equal(t, "kg", captured.Unit)
	assert.True(t, captured.UnitPrice.IsZero())
	assert.True(t, captured.IsDonation())
}

func TestService_CreateListing_NonFarmerForbidden(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()

	_, err := ts.service.CreateListing(ctx, uuid.New(), "buyer", CreateListingRequest{
		ProduceType: "Tomatoes",
		Quantity:    decimal.NewFromInt(5),
	})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_CreateListing_NonPositiveQuantity(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()

	_, err := ts.service.CreateListing(ctx, uuid.New(), "farmer", CreateListingRequest{
		ProduceType: "Tomatoes",
		Quantity:    decimal.Zero,
	})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestService_CreateListing_BestBeforeBeforeHarvest(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()

	harvest := "2026-05-10"
	bestBefore := "2026-05-01"
	_, err := ts.service.CreateListing(ctx, uuid.New(), "farmer", CreateListingRequest{
		ProduceType: "Carrots",
		Quantity:    decimal.NewFromInt(10),
		HarvestDate: &harvest,
		BestBefore:  &bestBefore,
	})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestService_UpdateListing_NotOwner(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	listingID := uuid.New()

	ts.mockRepo.On("FindByID", ctx, listingID, false).
		Return(&Listing{BaseModel: common.BaseModel{ID: listingID}, FarmerID: uuid.New()}, nil)

	produceType := "Potatoes"
	_, err := ts.service.UpdateListing(ctx, listingID, uuid.New(), UpdateListingRequest{ProduceType: &produceType})

	assert.Error(t, err)
	assert.ErrorIs(t, err, common.ErrForbidden)
	ts.mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_UpdateListingStatus_Success(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	listingID := uuid.New()
	farmerID := uuid.New()

	ts.mockRepo.On("FindByID", ctx, listingID, false).
		Return(&Listing{BaseModel: common.BaseModel{ID: listingID}, FarmerID: farmerID, Status: StatusActive}, nil).Once()
	ts.mockRepo.On("UpdateStatus", ctx, listingID, StatusInactive).Return(nil)
	ts.mockRepo.On("FindByID", ctx, listingID, true).
		Return(&Listing{BaseModel: common.BaseModel{ID: listingID}, FarmerID: farmerID, Status: StatusInactive}, nil)

	updated, err := ts.service.UpdateListingStatus(ctx, listingID, farmerID, StatusInactive)

	assert.NoError(t, err)
	assert.Equal(t, StatusInactive, updated.Status)
	ts.mockRepo.AssertExpectations(t)
}

func TestService_DeleteListing_OpenRequestsConflict(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	listingID := uuid.New()
	farmerID := uuid.New()

	ts.mockRepo.On("FindByID", ctx, listingID, false).
		Return(&Listing{BaseModel: common.BaseModel{ID: listingID}, FarmerID: farmerID}, nil)
	ts.mockRepo.On("CountOpenRequests", ctx, listingID).Return(int64(2), nil)

	err := ts.service.DeleteListing(ctx, listingID, farmerID)

	assert.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConflict)
	ts.mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestService_DeleteListing_Success(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	listingID := uuid.New()
	farmerID := uuid.New()

	ts.mockRepo.On("FindByID", ctx, listingID, false).
		Return(&Listing{BaseModel: common.BaseModel{ID: listingID}, FarmerID: farmerID}, nil)
	ts.mockRepo.On("CountOpenRequests", ctx, listingID).Return(int64(0), nil)
	ts.mockRepo.On("Delete", ctx, listingID).Return(nil)

	err := ts.service.DeleteListing(ctx, listingID, farmerID)

	assert.NoError(t, err)
	ts.mockRepo.AssertExpectations(t)
}

func TestService_SearchListings_ForcesActiveStatus(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("Search", ctx, mock.MatchedBy(func(q ListingSearchQuery) bool {
		return q.Status == string(StatusActive) && q.FarmerID == nil
	})).Return([]Listing{}, &common.Pagination{}, nil)

	_, _, err := ts.service.SearchListings(ctx, ListingSearchQuery{Status: "inactive"})

	assert.NoError(t, err)
	ts.mockRepo.AssertExpectations(t)
}

func TestService_GetDonationListings_SetsDonationFilter(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("Search", ctx, mock.MatchedBy(func(q ListingSearchQuery) bool {
		return q.DonationOnly && q.Status == string(StatusActive)
	})).Return([]Listing{}, &common.Pagination{}, nil)

	_, _, err := ts.service.GetDonationListings(ctx, ListingSearchQuery{})

	assert.NoError(t, err)
	ts.mockRepo.AssertExpectations(t)
}

func TestService_DeactivateStaleListings_Error(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("DeactivateStale", ctx, mock.AnythingOfType("time.Time")).
		Return(int64(0), errors.New("db down"))

	_, err := ts.service.DeactivateStaleListings(ctx)

	assert.Error(t, err)
	ts.mockRepo.AssertExpectations(t)
}

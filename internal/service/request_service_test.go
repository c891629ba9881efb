package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/mechanic-backend/internal/models"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
)

type mockRequestRepo struct {
	mock.Mock
}

func (m *mockRequestRepo) Create(ctx context.Context, req *models.ServiceRequest) error {
	args := m.Called(ctx, req)
	if args.Error(0) == nil {
		req.ID = uuid.New()
		req.Status = models.RequestStatusPending
	}
	return args.Error(0)
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *mockRequestRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	args := m.Called(ctx, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceRequest), args.Error(1)
}

func (m *mockRequestRepo) ListByMechanic(ctx context.Context, mechanicID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	args := m.Called(ctx, mechanicID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceRequest), args.Error(1)
}

func (m *mockRequestRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *mockRequestRepo) MarkArrived(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRequestRepo) SetCustomerCompletion(ctx context.Context, id uuid.UUID, materialCost, laborCost, totalCost float64, rating int) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id, materialCost, laborCost, totalCost, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *mockRequestRepo) SetMechanicConfirmed(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *mockRequestRepo) FinalizeCompletion(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockVehicleRepoForRequest struct {
	mock.Mock
}

func (m *mockVehicleRepoForRequest) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

type mockMechanicRepoForRequest struct {
	mock.Mock
}

func (m *mockMechanicRepoForRequest) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.MechanicProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MechanicProfile), args.Error(1)
}

type mockSettler struct {
	mock.Mock
}

func (m *mockSettler) SettleCommission(ctx context.Context, mechanicID, requestID uuid.UUID, laborCost float64) error {
	args := m.Called(ctx, mechanicID, requestID, laborCost)
	return args.Error(0)
}

type mockRatingRecalculator struct {
	mock.Mock
}

func (m *mockRatingRecalculator) Recalculate(ctx context.Context, mechanicID uuid.UUID) error {
	args := m.Called(ctx, mechanicID)
	return args.Error(0)
}

type requestServiceFixture struct {
	requests  *mockRequestRepo
	vehicles  *mockVehicleRepoForRequest
	mechanics *mockMechanicRepoForRequest
	settler   *mockSettler
	ratings   *mockRatingRecalculator
	svc       *RequestService
}

func newRequestServiceFixture() *requestServiceFixture {
	f := &requestServiceFixture{
		requests:  new(mockRequestRepo),
		vehicles:  new(mockVehicleRepoForRequest),
		mechanics: new(mockMechanicRepoForRequest),
		settler:   new(mockSettler),
		ratings:   new(mockRatingRecalculator),
	}
	f.svc = NewRequestService(f.requests, f.vehicles, f.mechanics, f.settler, f.ratings, nil)
	return f
}

func approvedAvailableProfile(userID uuid.UUID) *models.MechanicProfile {
	return &models.MechanicProfile{
		UserID:             userID,
		IsAvailable:        true,
		VerificationStatus: models.VerificationStatusApproved,
	}
}

func TestRequestService_Create_Success(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	customerID := uuid.New()
	mechanicID := uuid.New()
	vehicleID := uuid.New()

	f.vehicles.On("GetByID", ctx, vehicleID).Return(&models.Vehicle{ID: vehicleID, OwnerID: customerID}, nil)
	f.mechanics.On("GetByUserID", ctx, mechanicID).Return(approvedAvailableProfile(mechanicID), nil)
	f.requests.On("Create", ctx, mock.AnythingOfType("*models.ServiceRequest")).Return(nil)

	req, err := f.svc.Create(ctx, CreateRequestInput{
		CustomerID: customerID,
		MechanicID: mechanicID,
		VehicleID:  vehicleID,
		Problem:    "Не заводится двигатель",
		Latitude:   6.5244,
		Longitude:  3.3792,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, customerID, req.CustomerID)
	assert.Equal(t, mechanicID, req.MechanicID)
}

func TestRequestService_Create_VehicleNotOwned(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	vehicleID := uuid.New()
	f.vehicles.On("GetByID", ctx, vehicleID).Return(&models.Vehicle{ID: vehicleID, OwnerID: uuid.New()}, nil)

	_, err := f.svc.Create(ctx, CreateRequestInput{
		CustomerID: uuid.New(),
		MechanicID: uuid.New(),
		VehicleID:  vehicleID,
		Problem:    "Стук в подвеске",
		Latitude:   6.5,
		Longitude:  3.4,
	})

	assert.ErrorIs(t, err, apperror.ErrForbidden)
	f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRequestService_Create_MechanicUnavailable(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	customerID := uuid.New()
	mechanicID := uuid.New()
	vehicleID := uuid.New()

	profile := approvedAvailableProfile(mechanicID)
	profile.IsAvailable = false

	f.vehicles.On("GetByID", ctx, vehicleID).Return(&models.Vehicle{ID: vehicleID, OwnerID: customerID}, nil)
	f.mechanics.On("GetByUserID", ctx, mechanicID).Return(profile, nil)

	_, err := f.svc.Create(ctx, CreateRequestInput{
		CustomerID: customerID,
		MechanicID: mechanicID,
		VehicleID:  vehicleID,
		Problem:    "Пробито колесо",
		Latitude:   6.5,
		Longitude:  3.4,
	})

	assert.ErrorIs(t, err, apperror.ErrMechanicUnavailable)
}

func TestRequestService_Create_InvalidProblem(t *testing.T) {
	f := newRequestServiceFixture()

	_, err := f.svc.Create(context.Background(), CreateRequestInput{
		CustomerID: uuid.New(),
		MechanicID: uuid.New(),
		VehicleID:  uuid.New(),
		Problem:    "   ",
		Latitude:   6.5,
		Longitude:  3.4,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestRequestService_Accept_Success(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	mechanicID := uuid.New()
	req := &models.ServiceRequest{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		MechanicID: mechanicID,
		Status:     models.RequestStatusPending,
	}
	accepted := *req
	accepted.Status = models.RequestStatusAccepted

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil).Once()
	f.requests.On("TransitionStatus", ctx, req.ID, models.RequestStatusPending, models.RequestStatusAccepted).Return(nil)
	f.requests.On("GetByID", ctx, req.ID).Return(&accepted, nil)

	result, err := f.svc.Accept(ctx, req.ID, mechanicID)

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, result.Status)
}

func TestRequestService_Accept_WrongMechanic(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	req := &models.ServiceRequest{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		MechanicID: uuid.New(),
		Status:     models.RequestStatusPending,
	}
	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)

	_, err := f.svc.Accept(ctx, req.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestRequestService_Accept_FromTerminalStatus(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	mechanicID := uuid.New()
	req := &models.ServiceRequest{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		MechanicID: mechanicID,
		Status:     models.RequestStatusCancelled,
	}
	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)

	_, err := f.svc.Accept(ctx, req.ID, mechanicID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	f.requests.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestService_Decline_OnlyFromPending(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	mechanicID := uuid.New()
	req := &models.ServiceRequest{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		MechanicID: mechanicID,
		Status:     models.RequestStatusAccepted,
	}
	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)

	_, err := f.svc.Decline(ctx, req.ID, mechanicID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestRequestService_Cancel_FromAccepted(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	customerID := uuid.New()
	req := &models.ServiceRequest{
		ID:         uuid.New(),
		CustomerID: customerID,
		MechanicID: uuid.New(),
		Status:     models.RequestStatusAccepted,
	}
	cancelled := *req
	cancelled.Status = models.RequestStatusCancelled

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil).Once()
	f.requests.On("TransitionStatus", ctx, req.ID, models.RequestStatusAccepted, models.RequestStatusCancelled).Return(nil)
	f.requests.On("GetByID", ctx, req.ID).Return(&cancelled, nil)

	result, err := f.svc.Cancel(ctx, req.ID, customerID)

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCancelled, result.Status)
}

func TestRequestService_Cancel_InProgressForbidden(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	customerID := uuid.New()
	req := &models.ServiceRequest{
		ID:         uuid.New(),
		CustomerID: customerID,
		MechanicID: uuid.New(),
		Status:     models.RequestStatusInProgress,
	}
	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)

	_, err := f.svc.Cancel(ctx, req.ID, customerID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestRequestService_Arrive_Success(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	mechanicID := uuid.New()
	req := &models.ServiceRequest{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		MechanicID: mechanicID,
		Status:     models.RequestStatusAccepted,
	}
	inProgress := *req
	inProgress.Status = models.RequestStatusInProgress

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil).Once()
	f.requests.On("MarkArrived", ctx, req.ID).Return(nil)
	f.requests.On("GetByID", ctx, req.ID).Return(&inProgress, nil)

	result, err := f.svc.Arrive(ctx, req.ID, mechanicID)

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusInProgress, result.Status)
}

func TestRequestService_CompleteByCustomer_FirstConfirmation(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	customerID := uuid.New()
	req := &models.ServiceRequest{
		ID:         uuid.New(),
		CustomerID: customerID,
		MechanicID: uuid.New(),
		Status:     models.RequestStatusInProgress,
	}

	material, labor, total := 50.0, 100.0, 150.0
	updated := *req
	updated.MaterialCost = &material
	updated.LaborCost = &labor
	updated.TotalCost = &total
	updated.CustomerConfirmed = true

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.requests.On("SetCustomerCompletion", ctx, req.ID, 50.0, 100.0, 150.0, 4).Return(&updated, nil)

	result, err := f.svc.CompleteByCustomer(ctx, req.ID, customerID, CustomerCompletionInput{
		MaterialCost: 50,
		LaborCost:    100,
		Rating:       4,
	})

	require.NoError(t, err)
	assert.True(t, result.CustomerConfirmed)
	assert.False(t, result.MechanicConfirmed)
	// Одно подтверждение заявку не закрывает и расчёт не запускает.
	f.requests.AssertNotCalled(t, "FinalizeCompletion", mock.Anything, mock.Anything)
	f.settler.AssertNotCalled(t, "SettleCommission", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestService_CompleteByCustomer_ClosesAndSettles(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	customerID := uuid.New()
	mechanicID := uuid.New()
	req := &models.ServiceRequest{
		ID:                uuid.New(),
		CustomerID:        customerID,
		MechanicID:        mechanicID,
		Status:            models.RequestStatusInProgress,
		MechanicConfirmed: true,
	}

	material, labor, total := 0.0, 100.0, 100.0
	updated := *req
	updated.MaterialCost = &material
	updated.LaborCost = &labor
	updated.TotalCost = &total
	updated.CustomerConfirmed = true

	completed := updated
	completed.Status = models.RequestStatusCompleted

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil).Once()
	f.requests.On("SetCustomerCompletion", ctx, req.ID, 0.0, 100.0, 100.0, 5).Return(&updated, nil)
	f.requests.On("FinalizeCompletion", ctx, req.ID).Return(true, nil)
	f.settler.On("SettleCommission", ctx, mechanicID, req.ID, 100.0).Return(nil)
	f.ratings.On("Recalculate", mock.Anything, mechanicID).Return(nil).Maybe()
	f.requests.On("GetByID", ctx, req.ID).Return(&completed, nil)

	result, err := f.svc.CompleteByCustomer(ctx, req.ID, customerID, CustomerCompletionInput{
		MaterialCost: 0,
		LaborCost:    100,
		Rating:       5,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, result.Status)
	f.settler.AssertCalled(t, "SettleCommission", ctx, mechanicID, req.ID, 100.0)
}

func TestRequestService_CompleteByCustomer_InvalidRating(t *testing.T) {
	f := newRequestServiceFixture()

	_, err := f.svc.CompleteByCustomer(context.Background(), uuid.New(), uuid.New(), CustomerCompletionInput{
		MaterialCost: 10,
		LaborCost:    50,
		Rating:       6,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestRequestService_CompleteByMechanic_RequiresPricing(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	mechanicID := uuid.New()
	req := &models.ServiceRequest{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		MechanicID: mechanicID,
		Status:     models.RequestStatusInProgress,
	}
	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)

	_, err := f.svc.CompleteByMechanic(ctx, req.ID, mechanicID)
	assert.ErrorIs(t, err, apperror.ErrPricingRequired)
	f.requests.AssertNotCalled(t, "SetMechanicConfirmed", mock.Anything, mock.Anything)
}

func TestRequestService_CompleteByMechanic_ClosesAndSettles(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	mechanicID := uuid.New()
	labor := 200.0
	req := &models.ServiceRequest{
		ID:                uuid.New(),
		CustomerID:        uuid.New(),
		MechanicID:        mechanicID,
		Status:            models.RequestStatusInProgress,
		LaborCost:         &labor,
		CustomerConfirmed: true,
	}

	updated := *req
	updated.MechanicConfirmed = true

	completed := updated
	completed.Status = models.RequestStatusCompleted

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil).Once()
	f.requests.On("SetMechanicConfirmed", ctx, req.ID).Return(&updated, nil)
	f.requests.On("FinalizeCompletion", ctx, req.ID).Return(true, nil)
	f.settler.On("SettleCommission", ctx, mechanicID, req.ID, 200.0).Return(nil)
	f.ratings.On("Recalculate", mock.Anything, mechanicID).Return(nil).Maybe()
	f.requests.On("GetByID", ctx, req.ID).Return(&completed, nil)

	result, err := f.svc.CompleteByMechanic(ctx, req.ID, mechanicID)

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, result.Status)
}

func TestRequestService_CompleteByMechanic_LosesFinalizeRace(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	mechanicID := uuid.New()
	labor := 200.0
	req := &models.ServiceRequest{
		ID:                uuid.New(),
		CustomerID:        uuid.New(),
		MechanicID:        mechanicID,
		Status:            models.RequestStatusInProgress,
		LaborCost:         &labor,
		CustomerConfirmed: true,
	}

	updated := *req
	updated.MechanicConfirmed = true

	completed := updated
	completed.Status = models.RequestStatusCompleted

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil).Once()
	f.requests.On("SetMechanicConfirmed", ctx, req.ID).Return(&updated, nil)
	f.settler.On("SettleCommission", ctx, mechanicID, req.ID, 200.0).Return(nil)
	// Конкурирующий вызов уже закрыл заявку: наш compare-and-set не сработал.
	f.requests.On("FinalizeCompletion", ctx, req.ID).Return(false, nil)
	f.requests.On("GetByID", ctx, req.ID).Return(&completed, nil)

	result, err := f.svc.CompleteByMechanic(ctx, req.ID, mechanicID)

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, result.Status)
	// Расчёт у проигравшего гонку был холостым повтором: уникальный индекс
	// по комиссии не даст списать её дважды, ошибки нет.
	f.settler.AssertNumberOfCalls(t, "SettleCommission", 1)
}

func TestRequestService_CompleteByMechanic_SettleFailureRetryable(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	mechanicID := uuid.New()
	labor := 200.0
	req := &models.ServiceRequest{
		ID:                uuid.New(),
		CustomerID:        uuid.New(),
		MechanicID:        mechanicID,
		Status:            models.RequestStatusInProgress,
		LaborCost:         &labor,
		CustomerConfirmed: true,
	}

	updated := *req
	updated.MechanicConfirmed = true

	completed := updated
	completed.Status = models.RequestStatusCompleted

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil).Once()
	f.requests.On("SetMechanicConfirmed", ctx, req.ID).Return(&updated, nil)
	f.settler.On("SettleCommission", ctx, mechanicID, req.ID, 200.0).
		Return(errors.New("база недоступна")).Once()

	// Сбой расчёта не закрывает заявку: она остаётся in_progress.
	_, err := f.svc.CompleteByMechanic(ctx, req.ID, mechanicID)
	require.Error(t, err)
	f.requests.AssertNotCalled(t, "FinalizeCompletion", mock.Anything, mock.Anything)

	// Повторное подтверждение проводит расчёт и доводит заявку до completed.
	f.requests.On("GetByID", ctx, req.ID).Return(&updated, nil).Once()
	f.settler.On("SettleCommission", ctx, mechanicID, req.ID, 200.0).Return(nil).Once()
	f.requests.On("FinalizeCompletion", ctx, req.ID).Return(true, nil)
	f.ratings.On("Recalculate", mock.Anything, mechanicID).Return(nil).Maybe()
	f.requests.On("GetByID", ctx, req.ID).Return(&completed, nil)

	result, err := f.svc.CompleteByMechanic(ctx, req.ID, mechanicID)

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, result.Status)
	f.settler.AssertNumberOfCalls(t, "SettleCommission", 2)
}

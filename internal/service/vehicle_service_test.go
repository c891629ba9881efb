package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/mechanic-backend/internal/models"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mechanic-backend/internal/repository"
)

type mockVehicleRepo struct {
	mock.Mock
}

func (m *mockVehicleRepo) Create(ctx context.Context, v *models.Vehicle) error {
	args := m.Called(ctx, v)
	if args.Error(0) == nil {
		v.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockVehicleRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Vehicle, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *mockVehicleRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func TestVehicleService_Create_Success(t *testing.T) {
	repo := new(mockVehicleRepo)
	svc := NewVehicleService(repo)
	ownerID := uuid.New()
	year := 2018

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Vehicle")).Return(nil)

	vehicle, err := svc.Create(context.Background(), ownerID, CreateVehicleInput{
		Make:  "  Toyota ",
		Model: "Camry",
		Year:  &year,
	})

	require.NoError(t, err)
	assert.Equal(t, "Toyota", vehicle.Make)
	assert.Equal(t, "Camry", vehicle.Model)
	assert.Equal(t, ownerID, vehicle.OwnerID)
	repo.AssertExpectations(t)
}

func TestVehicleService_Create_MissingMake(t *testing.T) {
	repo := new(mockVehicleRepo)
	svc := NewVehicleService(repo)

	_, err := svc.Create(context.Background(), uuid.New(), CreateVehicleInput{
		Make:  "   ",
		Model: "Camry",
	})

	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Create")
}

func TestVehicleService_Create_InvalidYear(t *testing.T) {
	repo := new(mockVehicleRepo)
	svc := NewVehicleService(repo)
	year := 1900

	_, err := svc.Create(context.Background(), uuid.New(), CreateVehicleInput{
		Make:  "ГАЗ",
		Model: "М-20",
		Year:  &year,
	})

	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestVehicleService_List_EmptyIsNotNil(t *testing.T) {
	repo := new(mockVehicleRepo)
	svc := NewVehicleService(repo)
	ownerID := uuid.New()

	repo.On("ListByOwner", mock.Anything, ownerID).Return(nil, nil)

	vehicles, err := svc.List(context.Background(), ownerID)

	require.NoError(t, err)
	assert.NotNil(t, vehicles)
	assert.Empty(t, vehicles)
}

func TestVehicleService_Delete_NotFound(t *testing.T) {
	repo := new(mockVehicleRepo)
	svc := NewVehicleService(repo)
	id := uuid.New()
	ownerID := uuid.New()

	repo.On("Delete", mock.Anything, id, ownerID).Return(repository.ErrVehicleNotFound)

	err := svc.Delete(context.Background(), id, ownerID)

	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

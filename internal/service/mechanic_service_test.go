package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/mechanic-backend/internal/geo"
	"github.com/ignatzorin/mechanic-backend/internal/models"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
)

type mockMechanicRepo struct {
	mock.Mock
}

func (m *mockMechanicRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.MechanicProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MechanicProfile), args.Error(1)
}

func (m *mockMechanicRepo) SetAvailability(ctx context.Context, userID uuid.UUID, isAvailable bool) error {
	args := m.Called(ctx, userID, isAvailable)
	return args.Error(0)
}

func (m *mockMechanicRepo) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64) error {
	args := m.Called(ctx, userID, lat, lon)
	return args.Error(0)
}

func (m *mockMechanicRepo) ListApprovedAvailable(ctx context.Context) ([]models.AvailableMechanic, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AvailableMechanic), args.Error(1)
}

func (m *mockMechanicRepo) ListApprovedAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]models.AvailableMechanic, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AvailableMechanic), args.Error(1)
}

func (m *mockMechanicRepo) GetStats(ctx context.Context, mechanicID uuid.UUID, commissionRate float64) (*models.MechanicStats, error) {
	args := m.Called(ctx, mechanicID, commissionRate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MechanicStats), args.Error(1)
}

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

type mockGeoIndex struct {
	mock.Mock
}

func (m *mockGeoIndex) Update(ctx context.Context, mechanicID uuid.UUID, lat, lon float64) error {
	args := m.Called(ctx, mechanicID, lat, lon)
	return args.Error(0)
}

func (m *mockGeoIndex) Remove(ctx context.Context, mechanicID uuid.UUID) error {
	args := m.Called(ctx, mechanicID)
	return args.Error(0)
}

func (m *mockGeoIndex) Nearby(ctx context.Context, lat, lon, radiusKm float64) ([]geo.Candidate, error) {
	args := m.Called(ctx, lat, lon, radiusKm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]geo.Candidate), args.Error(1)
}

func availableAt(lat, lon float64, name string, rating float64, spec string) models.AvailableMechanic {
	var specPtr *string
	if spec != "" {
		specPtr = &spec
	}
	return models.AvailableMechanic{
		Profile: models.MechanicProfile{
			UserID:             uuid.New(),
			Specialization:     specPtr,
			IsAvailable:        true,
			Latitude:           &lat,
			Longitude:          &lon,
			Rating:             rating,
			VerificationStatus: models.VerificationStatusApproved,
		},
		FullName: name,
	}
}

func TestMechanicService_FindNearby_SortedByDistance(t *testing.T) {
	repo := new(mockMechanicRepo)
	svc := NewMechanicService(repo, new(mockCatalogRepo), nil, 0)
	ctx := context.Background()

	// Точка поиска — центр Лагоса; 0.01 градуса широты это примерно 1.1 км.
	near := availableAt(6.53, 3.3792, "Ближний", 4.5, "двигатель")
	far := availableAt(6.60, 3.3792, "Дальний", 4.9, "двигатель")

	repo.On("ListApprovedAvailable", ctx).Return([]models.AvailableMechanic{far, near}, nil)

	result, err := svc.FindNearby(ctx, NearbyParams{Latitude: 6.5244, Longitude: 3.3792})

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Ближний", result[0].FullName)
	assert.Equal(t, "Дальний", result[1].FullName)
	assert.LessOrEqual(t, result[0].DistanceKm, result[1].DistanceKm)
}

func TestMechanicService_FindNearby_RadiusCutsOff(t *testing.T) {
	repo := new(mockMechanicRepo)
	svc := NewMechanicService(repo, new(mockCatalogRepo), nil, 0)
	ctx := context.Background()

	near := availableAt(6.53, 3.3792, "Ближний", 4.5, "")
	far := availableAt(7.0, 3.3792, "Дальний", 4.9, "") // около 53 км

	repo.On("ListApprovedAvailable", ctx).Return([]models.AvailableMechanic{near, far}, nil)

	result, err := svc.FindNearby(ctx, NearbyParams{Latitude: 6.5244, Longitude: 3.3792, RadiusKm: 10})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Ближний", result[0].FullName)
}

func TestMechanicService_FindNearby_ConfiguredDefaultRadius(t *testing.T) {
	repo := new(mockMechanicRepo)
	svc := NewMechanicService(repo, new(mockCatalogRepo), nil, 5)
	ctx := context.Background()

	near := availableAt(6.53, 3.3792, "Ближний", 4.5, "")
	mid := availableAt(6.60, 3.3792, "Средний", 4.9, "") // около 8.4 км: внутри стандартных 10, вне настроенных 5

	repo.On("ListApprovedAvailable", ctx).Return([]models.AvailableMechanic{near, mid}, nil)

	// Радиус не задан — берётся настроенный, а не стандартный.
	result, err := svc.FindNearby(ctx, NearbyParams{Latitude: 6.5244, Longitude: 3.3792})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Ближний", result[0].FullName)
}

func TestMechanicService_FindNearby_SkipsMissingLocation(t *testing.T) {
	repo := new(mockMechanicRepo)
	svc := NewMechanicService(repo, new(mockCatalogRepo), nil, 0)
	ctx := context.Background()

	noLocation := models.AvailableMechanic{
		Profile: models.MechanicProfile{
			UserID:             uuid.New(),
			IsAvailable:        true,
			VerificationStatus: models.VerificationStatusApproved,
		},
		FullName: "Без координат",
	}
	near := availableAt(6.53, 3.3792, "Ближний", 4.5, "")

	repo.On("ListApprovedAvailable", ctx).Return([]models.AvailableMechanic{noLocation, near}, nil)

	result, err := svc.FindNearby(ctx, NearbyParams{Latitude: 6.5244, Longitude: 3.3792})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Ближний", result[0].FullName)
}

func TestMechanicService_FindNearby_FiltersSpecializationCaseInsensitive(t *testing.T) {
	repo := new(mockMechanicRepo)
	svc := NewMechanicService(repo, new(mockCatalogRepo), nil, 0)
	ctx := context.Background()

	engine := availableAt(6.53, 3.3792, "Моторист", 4.5, "Ремонт Двигателя")
	tires := availableAt(6.53, 3.38, "Шиномонтажник", 4.2, "шиномонтаж")

	repo.On("ListApprovedAvailable", ctx).Return([]models.AvailableMechanic{engine, tires}, nil)

	result, err := svc.FindNearby(ctx, NearbyParams{
		Latitude:       6.5244,
		Longitude:      3.3792,
		Specialization: "двигател",
	})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Моторист", result[0].FullName)
}

func TestMechanicService_FindNearby_FiltersMinRating(t *testing.T) {
	repo := new(mockMechanicRepo)
	svc := NewMechanicService(repo, new(mockCatalogRepo), nil, 0)
	ctx := context.Background()

	good := availableAt(6.53, 3.3792, "Хороший", 4.8, "")
	weak := availableAt(6.53, 3.38, "Слабый", 3.1, "")

	repo.On("ListApprovedAvailable", ctx).Return([]models.AvailableMechanic{good, weak}, nil)

	result, err := svc.FindNearby(ctx, NearbyParams{
		Latitude:  6.5244,
		Longitude: 3.3792,
		MinRating: 4.0,
	})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Хороший", result[0].FullName)
}

func TestMechanicService_FindNearby_DistanceRoundedToOneDecimal(t *testing.T) {
	repo := new(mockMechanicRepo)
	svc := NewMechanicService(repo, new(mockCatalogRepo), nil, 0)
	ctx := context.Background()

	near := availableAt(6.5344, 3.3792, "Ближний", 4.5, "")
	repo.On("ListApprovedAvailable", ctx).Return([]models.AvailableMechanic{near}, nil)

	result, err := svc.FindNearby(ctx, NearbyParams{Latitude: 6.5244, Longitude: 3.3792})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.InDelta(t, 1.1, result[0].DistanceKm, 0.1)
	// Округление до одного знака.
	assert.Equal(t, result[0].DistanceKm, float64(int(result[0].DistanceKm*10+0.5))/10)
}

func TestMechanicService_FindNearby_InvalidRadius(t *testing.T) {
	svc := NewMechanicService(new(mockMechanicRepo), new(mockCatalogRepo), nil, 0)

	_, err := svc.FindNearby(context.Background(), NearbyParams{
		Latitude:  6.5,
		Longitude: 3.4,
		RadiusKm:  500,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestMechanicService_FindNearby_UsesGeoIndexCandidates(t *testing.T) {
	repo := new(mockMechanicRepo)
	index := new(mockGeoIndex)
	svc := NewMechanicService(repo, new(mockCatalogRepo), index, 0)
	ctx := context.Background()

	near := availableAt(6.53, 3.3792, "Ближний", 4.5, "")
	candidateID := near.Profile.UserID

	index.On("Nearby", ctx, 6.5244, 3.3792, 10.0).
		Return([]geo.Candidate{{MechanicID: candidateID, DistKm: 0.6}}, nil)
	repo.On("ListApprovedAvailableByIDs", ctx, []uuid.UUID{candidateID}).
		Return([]models.AvailableMechanic{near}, nil)

	result, err := svc.FindNearby(ctx, NearbyParams{Latitude: 6.5244, Longitude: 3.3792, RadiusKm: 10})

	require.NoError(t, err)
	require.Len(t, result, 1)
	repo.AssertNotCalled(t, "ListApprovedAvailable", mock.Anything)
}

func TestMechanicService_FindNearby_GeoIndexFailureFallsBack(t *testing.T) {
	repo := new(mockMechanicRepo)
	index := new(mockGeoIndex)
	svc := NewMechanicService(repo, new(mockCatalogRepo), index, 0)
	ctx := context.Background()

	near := availableAt(6.53, 3.3792, "Ближний", 4.5, "")

	index.On("Nearby", ctx, 6.5244, 3.3792, 10.0).Return(nil, errors.New("redis: connection refused"))
	repo.On("ListApprovedAvailable", ctx).Return([]models.AvailableMechanic{near}, nil)

	result, err := svc.FindNearby(ctx, NearbyParams{Latitude: 6.5244, Longitude: 3.3792, RadiusKm: 10})

	require.NoError(t, err)
	require.Len(t, result, 1)
}

func TestMechanicService_SetAvailability_SyncsGeoIndex(t *testing.T) {
	repo := new(mockMechanicRepo)
	index := new(mockGeoIndex)
	svc := NewMechanicService(repo, new(mockCatalogRepo), index, 0)
	ctx := context.Background()

	mechanicID := uuid.New()
	lat, lon := 6.53, 3.38
	profile := &models.MechanicProfile{
		UserID:             mechanicID,
		IsAvailable:        true,
		Latitude:           &lat,
		Longitude:          &lon,
		VerificationStatus: models.VerificationStatusApproved,
	}

	repo.On("SetAvailability", ctx, mechanicID, true).Return(nil)
	repo.On("GetByUserID", ctx, mechanicID).Return(profile, nil)
	index.On("Update", ctx, mechanicID, lat, lon).Return(nil)

	result, err := svc.SetAvailability(ctx, mechanicID, true)

	require.NoError(t, err)
	assert.True(t, result.IsAvailable)
	index.AssertExpectations(t)
}

func TestMechanicService_SetAvailability_OfflineRemovesFromIndex(t *testing.T) {
	repo := new(mockMechanicRepo)
	index := new(mockGeoIndex)
	svc := NewMechanicService(repo, new(mockCatalogRepo), index, 0)
	ctx := context.Background()

	mechanicID := uuid.New()
	profile := &models.MechanicProfile{
		UserID:             mechanicID,
		IsAvailable:        false,
		VerificationStatus: models.VerificationStatusApproved,
	}

	repo.On("SetAvailability", ctx, mechanicID, false).Return(nil)
	repo.On("GetByUserID", ctx, mechanicID).Return(profile, nil)
	index.On("Remove", ctx, mechanicID).Return(nil)

	_, err := svc.SetAvailability(ctx, mechanicID, false)

	require.NoError(t, err)
	index.AssertExpectations(t)
}

func TestMechanicService_UpdateLocation_InvalidCoordinates(t *testing.T) {
	svc := NewMechanicService(new(mockMechanicRepo), new(mockCatalogRepo), nil, 0)

	err := svc.UpdateLocation(context.Background(), uuid.New(), 120.0, 3.4)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestMechanicService_Stats(t *testing.T) {
	repo := new(mockMechanicRepo)
	svc := NewMechanicService(repo, new(mockCatalogRepo), nil, 0)
	ctx := context.Background()

	mechanicID := uuid.New()
	repo.On("GetStats", ctx, mechanicID, CommissionRate).
		Return(&models.MechanicStats{JobsToday: 2, EarningsToday: 170.0, Rating: 4.5, TotalJobs: 12}, nil)

	stats, err := svc.Stats(ctx, mechanicID)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.JobsToday)
	assert.Equal(t, 170.0, stats.EarningsToday)
}

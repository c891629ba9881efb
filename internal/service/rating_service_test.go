package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRatingRepo struct {
	mock.Mock
}

func (m *mockRatingRepo) ListCompletedRatings(ctx context.Context, mechanicID uuid.UUID) ([]int, error) {
	args := m.Called(ctx, mechanicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockRatingRepo) UpdateRating(ctx context.Context, userID uuid.UUID, rating float64) error {
	args := m.Called(ctx, userID, rating)
	return args.Error(0)
}

func TestRatingService_Recalculate_MeanRoundedToOneDecimal(t *testing.T) {
	repo := new(mockRatingRepo)
	svc := NewRatingService(repo)
	ctx := context.Background()

	mechanicID := uuid.New()
	repo.On("ListCompletedRatings", ctx, mechanicID).Return([]int{4, 5, 3}, nil)
	repo.On("UpdateRating", ctx, mechanicID, 4.0).Return(nil)

	err := svc.Recalculate(ctx, mechanicID)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRatingService_Recalculate_Rounding(t *testing.T) {
	repo := new(mockRatingRepo)
	svc := NewRatingService(repo)
	ctx := context.Background()

	mechanicID := uuid.New()
	// (5+4+4)/3 = 4.3333 -> 4.3
	repo.On("ListCompletedRatings", ctx, mechanicID).Return([]int{5, 4, 4}, nil)
	repo.On("UpdateRating", ctx, mechanicID, 4.3).Return(nil)

	err := svc.Recalculate(ctx, mechanicID)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRatingService_Recalculate_NoRatings(t *testing.T) {
	repo := new(mockRatingRepo)
	svc := NewRatingService(repo)
	ctx := context.Background()

	mechanicID := uuid.New()
	repo.On("ListCompletedRatings", ctx, mechanicID).Return([]int{}, nil)

	err := svc.Recalculate(ctx, mechanicID)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "UpdateRating", mock.Anything, mock.Anything, mock.Anything)
}

func TestRatingService_Recalculate_SingleRating(t *testing.T) {
	repo := new(mockRatingRepo)
	svc := NewRatingService(repo)
	ctx := context.Background()

	mechanicID := uuid.New()
	repo.On("ListCompletedRatings", ctx, mechanicID).Return([]int{5}, nil)
	repo.On("UpdateRating", ctx, mechanicID, 5.0).Return(nil)

	err := svc.Recalculate(ctx, mechanicID)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_SamePoint(t *testing.T) {
	d := DistanceKm(6.5244, 3.3792, 6.5244, 3.3792)
	assert.Equal(t, 0.0, d)
}

func TestDistanceKm_LagosPlusTenthDegreeNorth(t *testing.T) {
	// 0.1° широты ≈ 11.1 км
	d := DistanceKm(6.5244, 3.3792, 6.6244, 3.3792)
	assert.InDelta(t, 11.1, d, 0.2)
}

func TestDistanceKm_Symmetric(t *testing.T) {
	d1 := DistanceKm(6.5244, 3.3792, 6.45, 3.40)
	d2 := DistanceKm(6.45, 3.40, 6.5244, 3.3792)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 11.1, RoundKm(11.1194))
	assert.Equal(t, 11.2, RoundKm(11.15))
	assert.Equal(t, 0.0, RoundKm(0.04))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(6.5244, 3.3792))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(90.5, 0))
	assert.False(t, ValidCoordinates(0, -181))
}

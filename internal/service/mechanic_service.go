package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/geo"
	"github.com/ignatzorin/mechanic-backend/internal/logger"
	"github.com/ignatzorin/mechanic-backend/internal/models"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mechanic-backend/internal/repository"
	"github.com/ignatzorin/mechanic-backend/internal/validation"
)

// DefaultSearchRadiusKm радиус поиска механиков, если клиент не задал свой.
const DefaultSearchRadiusKm = 10.0

// MechanicRepository описывает зависимости MechanicService от слоя хранилища.
type MechanicRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.MechanicProfile, error)
	SetAvailability(ctx context.Context, userID uuid.UUID, isAvailable bool) error
	UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64) error
	ListApprovedAvailable(ctx context.Context) ([]models.AvailableMechanic, error)
	ListApprovedAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]models.AvailableMechanic, error)
	GetStats(ctx context.Context, mechanicID uuid.UUID, commissionRate float64) (*models.MechanicStats, error)
}

// CatalogRepository отдаёт справочник категорий услуг.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// GeoIndex описывает необязательный гео-индекс доступных механиков.
// При nil или ошибке индекса сервис переходит на полный скан по базе.
type GeoIndex interface {
	Update(ctx context.Context, mechanicID uuid.UUID, lat, lon float64) error
	Remove(ctx context.Context, mechanicID uuid.UUID) error
	Nearby(ctx context.Context, lat, lon, radiusKm float64) ([]geo.Candidate, error)
}

// NearbyParams параметры поиска механиков поблизости.
type NearbyParams struct {
	Latitude       float64
	Longitude      float64
	RadiusKm       float64
	Specialization string
	MinRating      float64
}

// MechanicService отвечает за поиск механиков по карте, доступность и статистику.
type MechanicService struct {
	mechanics     MechanicRepository
	catalog       CatalogRepository
	geoIndex      GeoIndex
	defaultRadius float64
}

// NewMechanicService создаёт сервис механиков. geoIndex может быть nil,
// при defaultRadiusKm <= 0 берётся DefaultSearchRadiusKm.
func NewMechanicService(mechanics MechanicRepository, catalog CatalogRepository, geoIndex GeoIndex, defaultRadiusKm float64) *MechanicService {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = DefaultSearchRadiusKm
	}
	return &MechanicService{
		mechanics:     mechanics,
		catalog:       catalog,
		geoIndex:      geoIndex,
		defaultRadius: defaultRadiusKm,
	}
}

// FindNearby ищет верифицированных доступных механиков в радиусе от точки.
// Результат отсортирован по возрастанию расстояния, расстояние округлено
// до одного знака. Механики без координат в выдачу не попадают.
func (s *MechanicService) FindNearby(ctx context.Context, p NearbyParams) ([]models.NearbyMechanic, error) {
	if err := validation.ValidateCoordinates(p.Latitude, p.Longitude); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if p.RadiusKm == 0 {
		p.RadiusKm = s.defaultRadius
	}
	if err := validation.ValidateRadiusKm(p.RadiusKm); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	mechanics, err := s.loadCandidates(ctx, p)
	if err != nil {
		return nil, err
	}

	result := make([]models.NearbyMechanic, 0, len(mechanics))
	for _, m := range mechanics {
		if !m.Profile.HasLocation() {
			continue
		}
		if !matchSpecialization(m.Profile.Specialization, p.Specialization) {
			continue
		}
		if p.MinRating > 0 && m.Profile.Rating < p.MinRating {
			continue
		}

		dist := geo.DistanceKm(p.Latitude, p.Longitude, *m.Profile.Latitude, *m.Profile.Longitude)
		if dist > p.RadiusKm {
			continue
		}

		result = append(result, models.NearbyMechanic{
			UserID:         m.Profile.UserID,
			FullName:       m.FullName,
			Specialization: m.Profile.Specialization,
			Latitude:       *m.Profile.Latitude,
			Longitude:      *m.Profile.Longitude,
			Rating:         m.Profile.Rating,
			TotalJobs:      m.Profile.TotalJobs,
			DistanceKm:     geo.RoundKm(dist),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})

	return result, nil
}

// loadCandidates достаёт кандидатов из гео-индекса, а при его отсутствии
// или сбое читает всех доступных механиков из базы.
func (s *MechanicService) loadCandidates(ctx context.Context, p NearbyParams) ([]models.AvailableMechanic, error) {
	if s.geoIndex != nil {
		candidates, err := s.geoIndex.Nearby(ctx, p.Latitude, p.Longitude, p.RadiusKm)
		if err == nil {
			if len(candidates) == 0 {
				return nil, nil
			}
			ids := make([]uuid.UUID, 0, len(candidates))
			for _, c := range candidates {
				ids = append(ids, c.MechanicID)
			}
			return s.mechanics.ListApprovedAvailableByIDs(ctx, ids)
		}
		logger.WithComponent("mechanics").Warnf("гео-индекс недоступен, переходим на скан по базе: %v", err)
	}
	return s.mechanics.ListApprovedAvailable(ctx)
}

func matchSpecialization(have *string, want string) bool {
	if want == "" {
		return true
	}
	if have == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*have), strings.ToLower(want))
}

// GetProfile возвращает профиль механика.
func (s *MechanicService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.MechanicProfile, error) {
	profile, err := s.mechanics.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMechanicNotFound) {
			return nil, apperror.ErrMechanicNotFound
		}
		return nil, err
	}
	return profile, nil
}

// SetAvailability переключает доступность механика и синхронизирует гео-индекс:
// доступный механик с координатами попадает в индекс, недоступный удаляется.
func (s *MechanicService) SetAvailability(ctx context.Context, userID uuid.UUID, isAvailable bool) (*models.MechanicProfile, error) {
	if err := s.mechanics.SetAvailability(ctx, userID, isAvailable); err != nil {
		if errors.Is(err, repository.ErrMechanicNotFound) {
			return nil, apperror.ErrMechanicNotFound
		}
		return nil, err
	}

	profile, err := s.mechanics.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.syncGeoIndex(ctx, profile)
	return profile, nil
}

// UpdateLocation обновляет координаты механика и гео-индекс.
func (s *MechanicService) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64) error {
	if err := validation.ValidateCoordinates(lat, lon); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if err := s.mechanics.UpdateLocation(ctx, userID, lat, lon); err != nil {
		if errors.Is(err, repository.ErrMechanicNotFound) {
			return apperror.ErrMechanicNotFound
		}
		return err
	}

	profile, err := s.mechanics.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	s.syncGeoIndex(ctx, profile)
	return nil
}

// syncGeoIndex приводит гео-индекс в соответствие с профилем.
// Ошибки индекса не фатальны: поиск умеет работать без него.
func (s *MechanicService) syncGeoIndex(ctx context.Context, profile *models.MechanicProfile) {
	if s.geoIndex == nil {
		return
	}

	if profile.IsAvailable && profile.VerificationStatus == models.VerificationStatusApproved && profile.HasLocation() {
		if err := s.geoIndex.Update(ctx, profile.UserID, *profile.Latitude, *profile.Longitude); err != nil {
			logger.WithComponent("mechanics").Warnf("не удалось обновить гео-индекс для %s: %v", profile.UserID, err)
		}
		return
	}

	if err := s.geoIndex.Remove(ctx, profile.UserID); err != nil {
		logger.WithComponent("mechanics").Warnf("не удалось удалить %s из гео-индекса: %v", profile.UserID, err)
	}
}

// Categories возвращает справочник категорий услуг.
func (s *MechanicService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.catalog.ListCategories(ctx)
}

// Stats возвращает статистику механика за сегодня.
func (s *MechanicService) Stats(ctx context.Context, mechanicID uuid.UUID) (*models.MechanicStats, error) {
	stats, err := s.mechanics.GetStats(ctx, mechanicID, CommissionRate)
	if err != nil {
		if errors.Is(err, repository.ErrMechanicNotFound) {
			return nil, apperror.ErrMechanicNotFound
		}
		return nil, err
	}
	return stats, nil
}

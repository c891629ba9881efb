package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/mechanic-backend/internal/logger"
)

const mechanicsGeoKey = "mechanics:available"

// Candidate представляет механика из гео-индекса с расстоянием в километрах.
type Candidate struct {
	MechanicID uuid.UUID
	DistKm     float64
}

// LocationIndex хранит координаты доступных механиков в Redis GEO.
// Индекс вспомогательный: источником истины остаётся база, при недоступности
// Redis поиск выполняется полным сканом по базе.
type LocationIndex struct {
	rdb *redis.Client
}

// NewLocationIndex создаёт гео-индекс поверх подключения к Redis.
func NewLocationIndex(rdb *redis.Client) *LocationIndex {
	return &LocationIndex{rdb: rdb}
}

func memberName(mechanicID uuid.UUID) string {
	return "mechanic:" + mechanicID.String()
}

func parseMember(member string) (uuid.UUID, error) {
	parts := strings.SplitN(member, ":", 2)
	if len(parts) != 2 {
		return uuid.Nil, fmt.Errorf("геоиндекс: некорректный member %q", member)
	}
	return uuid.Parse(parts[1])
}

// Update записывает координаты механика в индекс.
func (l *LocationIndex) Update(ctx context.Context, mechanicID uuid.UUID, lat, lon float64) error {
	if !ValidCoordinates(lat, lon) {
		return fmt.Errorf("геоиндекс: некорректные координаты lat=%.8f lon=%.8f", lat, lon)
	}
	return l.rdb.GeoAdd(ctx, mechanicsGeoKey, &redis.GeoLocation{
		Name:      memberName(mechanicID),
		Longitude: lon,
		Latitude:  lat,
	}).Err()
}

// Remove удаляет механика из индекса (ушёл в офлайн или стал занят).
func (l *LocationIndex) Remove(ctx context.Context, mechanicID uuid.UUID) error {
	return l.rdb.ZRem(ctx, mechanicsGeoKey, memberName(mechanicID)).Err()
}

// Nearby возвращает кандидатов в радиусе radiusKm, отсортированных по расстоянию.
func (l *LocationIndex) Nearby(ctx context.Context, lat, lon, radiusKm float64) ([]Candidate, error) {
	res, err := l.rdb.GeoSearchLocation(ctx, mechanicsGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lon,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	candidates := make([]Candidate, 0, len(res))
	for _, item := range res {
		id, err := parseMember(item.Name)
		if err != nil {
			logger.WithComponent("geo").Warnf("пропускаем некорректный member %s: %v", item.Name, err)
			continue
		}
		candidates = append(candidates, Candidate{MechanicID: id, DistKm: item.Dist})
	}
	return candidates, nil
}

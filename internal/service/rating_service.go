package service

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/logger"
)

// RatingRepository описывает зависимости RatingService от слоя хранилища.
type RatingRepository interface {
	ListCompletedRatings(ctx context.Context, mechanicID uuid.UUID) ([]int, error)
	UpdateRating(ctx context.Context, userID uuid.UUID, rating float64) error
}

// RatingService пересчитывает средний рейтинг механика по оценкам
// завершённых заявок. Рейтинг хранится округлённым до одного знака.
type RatingService struct {
	ratings RatingRepository
}

// NewRatingService создаёт сервис рейтинга.
func NewRatingService(ratings RatingRepository) *RatingService {
	return &RatingService{ratings: ratings}
}

// Recalculate читает все оценки механика, считает среднее и записывает его
// в профиль. Без оценок рейтинг не трогаем.
func (s *RatingService) Recalculate(ctx context.Context, mechanicID uuid.UUID) error {
	ratings, err := s.ratings.ListCompletedRatings(ctx, mechanicID)
	if err != nil {
		return err
	}
	if len(ratings) == 0 {
		return nil
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := math.Round(float64(sum)/float64(len(ratings))*10) / 10

	if err := s.ratings.UpdateRating(ctx, mechanicID, mean); err != nil {
		return err
	}

	logger.WithComponent("rating").WithFields(map[string]interface{}{
		"mechanic_id": mechanicID,
		"rating":      mean,
		"votes":       len(ratings),
	}).Info("рейтинг механика пересчитан")

	return nil
}

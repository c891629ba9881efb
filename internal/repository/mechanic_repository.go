package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/mechanic-backend/internal/models"
)

// ErrMechanicNotFound возвращается, когда профиль механика не найден.
var ErrMechanicNotFound = errors.New("mechanic not found")

// MechanicRepository отвечает за работу с таблицей mechanic_profiles.
type MechanicRepository struct {
	db *sqlx.DB
}

// NewMechanicRepository создаёт экземпляр репозитория.
func NewMechanicRepository(db *sqlx.DB) *MechanicRepository {
	return &MechanicRepository{db: db}
}

// CreateProfile создаёт профиль механика при регистрации.
func (r *MechanicRepository) CreateProfile(ctx context.Context, profile *models.MechanicProfile) error {
	query := `
		INSERT INTO mechanic_profiles (user_id, specialization, is_available, verification_status)
		VALUES ($1, $2, FALSE, 'pending')
		RETURNING user_id, is_available, rating, total_jobs, wallet_balance, verification_status, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query, profile.UserID, profile.Specialization).Scan(
		&profile.UserID, &profile.IsAvailable, &profile.Rating, &profile.TotalJobs,
		&profile.WalletBalance, &profile.VerificationStatus, &profile.UpdatedAt,
	); err != nil {
		return fmt.Errorf("mechanic repository: create profile %w", err)
	}
	return nil
}

// GetByUserID возвращает профиль механика.
func (r *MechanicRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.MechanicProfile, error) {
	var profile models.MechanicProfile
	query := `SELECT * FROM mechanic_profiles WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMechanicNotFound
		}
		return nil, fmt.Errorf("mechanic repository: get by user id %w", err)
	}
	return &profile, nil
}

// SetAvailability переключает доступность механика.
func (r *MechanicRepository) SetAvailability(ctx context.Context, userID uuid.UUID, isAvailable bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE mechanic_profiles SET is_available = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, isAvailable)
	if err != nil {
		return fmt.Errorf("mechanic repository: set availability %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMechanicNotFound
	}
	return nil
}

// UpdateLocation обновляет текущие координаты механика.
func (r *MechanicRepository) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE mechanic_profiles SET latitude = $2, longitude = $3, updated_at = NOW() WHERE user_id = $1
	`, userID, lat, lon)
	if err != nil {
		return fmt.Errorf("mechanic repository: update location %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMechanicNotFound
	}
	return nil
}

// mechanicRow строка выборки доступных механиков вместе с именем пользователя.
type mechanicRow struct {
	models.MechanicProfile
	FullName string `db:"full_name"`
}

const availableMechanicsQuery = `
	SELECT p.user_id, p.specialization, p.is_available, p.latitude, p.longitude,
	       p.rating, p.total_jobs, p.wallet_balance, p.verification_status, p.updated_at,
	       u.full_name
	FROM mechanic_profiles p
	JOIN users u ON u.id = p.user_id
	WHERE p.verification_status = 'approved'
	  AND p.is_available = TRUE
	  AND u.is_active = TRUE
`

// ListApprovedAvailable возвращает всех верифицированных и доступных механиков.
func (r *MechanicRepository) ListApprovedAvailable(ctx context.Context) ([]models.AvailableMechanic, error) {
	var rows []mechanicRow
	if err := r.db.SelectContext(ctx, &rows, availableMechanicsQuery); err != nil {
		return nil, fmt.Errorf("mechanic repository: list available %w", err)
	}
	return toAvailableMechanics(rows), nil
}

// ListApprovedAvailableByIDs возвращает верифицированных и доступных механиков
// из заданного набора (кандидаты из гео-индекса).
func (r *MechanicRepository) ListApprovedAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]models.AvailableMechanic, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(availableMechanicsQuery+` AND p.user_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("mechanic repository: build in query %w", err)
	}
	query = r.db.Rebind(query)

	var rows []mechanicRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("mechanic repository: list available by ids %w", err)
	}
	return toAvailableMechanics(rows), nil
}

func toAvailableMechanics(rows []mechanicRow) []models.AvailableMechanic {
	mechanics := make([]models.AvailableMechanic, 0, len(rows))
	for _, row := range rows {
		mechanics = append(mechanics, models.AvailableMechanic{
			Profile:  row.MechanicProfile,
			FullName: row.FullName,
		})
	}
	return mechanics
}

// UpdateRating записывает пересчитанный средний рейтинг механика.
func (r *MechanicRepository) UpdateRating(ctx context.Context, userID uuid.UUID, rating float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE mechanic_profiles SET rating = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, rating)
	if err != nil {
		return fmt.Errorf("mechanic repository: update rating %w", err)
	}
	return nil
}

// ListCompletedRatings возвращает все оценки по завершённым заявкам механика.
func (r *MechanicRepository) ListCompletedRatings(ctx context.Context, mechanicID uuid.UUID) ([]int, error) {
	var ratings []int
	err := r.db.SelectContext(ctx, &ratings, `
		SELECT customer_rating FROM service_requests
		WHERE mechanic_id = $1 AND status = 'completed' AND customer_rating IS NOT NULL
	`, mechanicID)
	if err != nil {
		return nil, fmt.Errorf("mechanic repository: list completed ratings %w", err)
	}
	return ratings, nil
}

// GetStats возвращает статистику механика за сегодня.
func (r *MechanicRepository) GetStats(ctx context.Context, mechanicID uuid.UUID, commissionRate float64) (*models.MechanicStats, error) {
	var stats models.MechanicStats
	// Заработок за день считается по той же ставке комиссии, что и расчёты.
	// TODO: уточнить ставку для статистики — мобильный клиент исторически показывал 10%.
	query := `
		SELECT COUNT(*) AS jobs_today,
		       COALESCE(SUM(labor_cost), 0) * (1 - $2) AS earnings_today
		FROM service_requests
		WHERE mechanic_id = $1
		  AND status = 'completed'
		  AND completed_at >= date_trunc('day', NOW())
	`
	row := r.db.QueryRowxContext(ctx, query, mechanicID, commissionRate)
	if err := row.Scan(&stats.JobsToday, &stats.EarningsToday); err != nil {
		return nil, fmt.Errorf("mechanic repository: get stats %w", err)
	}

	profile, err := r.GetByUserID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	stats.Rating = profile.Rating
	stats.TotalJobs = profile.TotalJobs

	return &stats, nil
}

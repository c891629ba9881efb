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

// ErrRequestNotFound возвращается, когда заявка не найдена.
var ErrRequestNotFound = errors.New("service request not found")

// ErrStaleStatus возвращается, когда compare-and-set перехода не сработал:
// заявка уже не в ожидаемом статусе.
var ErrStaleStatus = errors.New("request status changed concurrently")

const requestColumns = `
	id, customer_id, mechanic_id, vehicle_id, category_id, problem,
	latitude, longitude, address, status, material_cost, labor_cost, total_cost,
	customer_rating, mechanic_confirmed, customer_confirmed,
	created_at, updated_at, arrived_at, completed_at
`

// RequestRepository отвечает за работу с таблицей service_requests.
// Все переходы статусов выполняются через compare-and-set по текущему
// статусу, поэтому повторный или конкурирующий переход не применится дважды.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository создаёт экземпляр репозитория.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create сохраняет новую заявку в статусе pending.
func (r *RequestRepository) Create(ctx context.Context, req *models.ServiceRequest) error {
	query := `
		INSERT INTO service_requests
			(customer_id, mechanic_id, vehicle_id, category_id, problem, latitude, longitude, address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
		RETURNING id, status, mechanic_confirmed, customer_confirmed, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		req.CustomerID, req.MechanicID, req.VehicleID, req.CategoryID,
		req.Problem, req.Latitude, req.Longitude, req.Address,
	).Scan(&req.ID, &req.Status, &req.MechanicConfirmed, &req.CustomerConfirmed, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("request repository: create %w", err)
	}
	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repository: get by id %w", err)
	}
	return &req, nil
}

// ListByCustomer возвращает заявки клиента, новые первыми.
func (r *RequestRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	var requests []models.ServiceRequest
	query := `SELECT ` + requestColumns + ` FROM service_requests
		WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &requests, query, customerID, limit, offset); err != nil {
		return nil, fmt.Errorf("request repository: list by customer %w", err)
	}
	return requests, nil
}

// ListByMechanic возвращает заявки, назначенные механику, новые первыми.
func (r *RequestRepository) ListByMechanic(ctx context.Context, mechanicID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	var requests []models.ServiceRequest
	query := `SELECT ` + requestColumns + ` FROM service_requests
		WHERE mechanic_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &requests, query, mechanicID, limit, offset); err != nil {
		return nil, fmt.Errorf("request repository: list by mechanic %w", err)
	}
	return requests, nil
}

// TransitionStatus переводит заявку из статуса from в статус to.
// Возвращает ErrStaleStatus, если заявка уже не в статусе from.
func (r *RequestRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE service_requests SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return fmt.Errorf("request repository: transition status %w", err)
	}
	return checkAffected(res)
}

// MarkArrived переводит заявку accepted -> in_progress и фиксирует время прибытия.
func (r *RequestRepository) MarkArrived(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE service_requests SET status = 'in_progress', arrived_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'accepted'
	`, id)
	if err != nil {
		return fmt.Errorf("request repository: mark arrived %w", err)
	}
	return checkAffected(res)
}

// SetCustomerCompletion записывает стоимость, оценку и флаг подтверждения клиента.
// Применяется только пока заявка in_progress; возвращает обновлённую заявку.
func (r *RequestRepository) SetCustomerCompletion(ctx context.Context, id uuid.UUID, materialCost, laborCost, totalCost float64, rating int) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	query := `
		UPDATE service_requests
		SET material_cost = $2, labor_cost = $3, total_cost = $4,
		    customer_rating = $5, customer_confirmed = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
		RETURNING ` + requestColumns
	err := r.db.GetContext(ctx, &req, query, id, materialCost, laborCost, totalCost, rating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("request repository: set customer completion %w", err)
	}
	return &req, nil
}

// SetMechanicConfirmed проставляет флаг подтверждения механика.
// Применяется только пока заявка in_progress; возвращает обновлённую заявку.
func (r *RequestRepository) SetMechanicConfirmed(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	query := `
		UPDATE service_requests
		SET mechanic_confirmed = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
		RETURNING ` + requestColumns
	err := r.db.GetContext(ctx, &req, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("request repository: set mechanic confirmed %w", err)
	}
	return &req, nil
}

// FinalizeCompletion переводит заявку in_progress -> completed, если обе
// стороны подтвердили завершение. Возвращает true тому вызову, чей UPDATE
// реально сработал: при конкурирующих подтверждениях расчёт запустит ровно
// один из них.
func (r *RequestRepository) FinalizeCompletion(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE service_requests SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
		  AND mechanic_confirmed = TRUE AND customer_confirmed = TRUE
	`, id)
	if err != nil {
		return false, fmt.Errorf("request repository: finalize completion %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func checkAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStaleStatus
	}
	return nil
}

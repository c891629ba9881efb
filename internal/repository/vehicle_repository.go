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

// ErrVehicleNotFound возвращается, когда автомобиль не найден.
var ErrVehicleNotFound = errors.New("vehicle not found")

type VehicleRepository struct {
	db *sqlx.DB
}

func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `id, owner_id, make, model, year, plate_number, created_at`

func (r *VehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO vehicles (owner_id, make, model, year, plate_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, v.OwnerID, v.Make, v.Model, v.Year, v.PlateNumber).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("vehicle repository: create %w", err)
	}
	return nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var v models.Vehicle
	err := r.db.GetContext(ctx, &v, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("vehicle repository: get by id %w", err)
	}
	return &v, nil
}

func (r *VehicleRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.SelectContext(ctx, &vehicles, `
		SELECT `+vehicleColumns+` FROM vehicles WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("vehicle repository: list by owner %w", err)
	}
	return vehicles, nil
}

func (r *VehicleRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("vehicle repository: delete %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/models"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mechanic-backend/internal/repository"
)

// VehicleRepository описывает зависимости VehicleService от слоя хранилища.
type VehicleRepository interface {
	Create(ctx context.Context, v *models.Vehicle) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Vehicle, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

// CreateVehicleInput данные нового транспорта.
type CreateVehicleInput struct {
	Make        string
	Model       string
	Year        *int
	PlateNumber *string
}

// VehicleService управляет транспортом клиента.
type VehicleService struct {
	vehicles VehicleRepository
}

// NewVehicleService создаёт сервис транспорта.
func NewVehicleService(vehicles VehicleRepository) *VehicleService {
	return &VehicleService{vehicles: vehicles}
}

// Create добавляет транспорт клиенту.
func (s *VehicleService) Create(ctx context.Context, ownerID uuid.UUID, in CreateVehicleInput) (*models.Vehicle, error) {
	make_ := strings.TrimSpace(in.Make)
	model := strings.TrimSpace(in.Model)
	if make_ == "" || model == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "марка и модель обязательны")
	}
	if in.Year != nil && (*in.Year < 1950 || *in.Year > 2100) {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный год выпуска")
	}

	vehicle := &models.Vehicle{
		OwnerID:     ownerID,
		Make:        make_,
		Model:       model,
		Year:        in.Year,
		PlateNumber: in.PlateNumber,
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// List возвращает транспорт клиента.
func (s *VehicleService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Vehicle, error) {
	vehicles, err := s.vehicles.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

// Delete удаляет транспорт клиента.
func (s *VehicleService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	if err := s.vehicles.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return apperror.ErrVehicleNotFound
		}
		return err
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceRequest описывает заявку на ремонт от клиента к механику.
// Инвариант: total_cost = material_cost + labor_cost, когда оба заданы;
// статус completed достижим только при обоих флагах подтверждения.
type ServiceRequest struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	CustomerID        uuid.UUID  `db:"customer_id" json:"customer_id"`
	MechanicID        uuid.UUID  `db:"mechanic_id" json:"mechanic_id"`
	VehicleID         uuid.UUID  `db:"vehicle_id" json:"vehicle_id"`
	CategoryID        *uuid.UUID `db:"category_id" json:"category_id,omitempty"`
	Problem           string     `db:"problem" json:"problem"`
	Latitude          float64    `db:"latitude" json:"latitude"`
	Longitude         float64    `db:"longitude" json:"longitude"`
	Address           *string    `db:"address" json:"address,omitempty"`
	Status            string     `db:"status" json:"status"`
	MaterialCost      *float64   `db:"material_cost" json:"material_cost,omitempty"`
	LaborCost         *float64   `db:"labor_cost" json:"labor_cost,omitempty"`
	TotalCost         *float64   `db:"total_cost" json:"total_cost,omitempty"`
	CustomerRating    *int       `db:"customer_rating" json:"customer_rating,omitempty"`
	MechanicConfirmed bool       `db:"mechanic_confirmed" json:"mechanic_confirmed"`
	CustomerConfirmed bool       `db:"customer_confirmed" json:"customer_confirmed"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
	ArrivedAt         *time.Time `db:"arrived_at" json:"arrived_at,omitempty"`
	CompletedAt       *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// BothConfirmed проверяет, подтвердили ли завершение обе стороны.
func (r *ServiceRequest) BothConfirmed() bool {
	return r.MechanicConfirmed && r.CustomerConfirmed
}

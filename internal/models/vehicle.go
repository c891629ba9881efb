package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle описывает транспортное средство клиента.
type Vehicle struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	Make        string    `db:"make" json:"make"`
	Model       string    `db:"model" json:"model"`
	Year        *int      `db:"year" json:"year,omitempty"`
	PlateNumber *string   `db:"plate_number" json:"plate_number,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

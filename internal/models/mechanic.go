package models

import (
	"time"

	"github.com/google/uuid"
)

// MechanicProfile описывает профиль механика.
// Поиск по карте учитывает только верифицированных (approved) и доступных механиков.
type MechanicProfile struct {
	UserID             uuid.UUID `db:"user_id" json:"user_id"`
	Specialization     *string   `db:"specialization" json:"specialization,omitempty"`
	IsAvailable        bool      `db:"is_available" json:"is_available"`
	Latitude           *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude          *float64  `db:"longitude" json:"longitude,omitempty"`
	Rating             float64   `db:"rating" json:"rating"`
	TotalJobs          int       `db:"total_jobs" json:"total_jobs"`
	WalletBalance      float64   `db:"wallet_balance" json:"wallet_balance"`
	VerificationStatus string    `db:"verification_status" json:"verification_status"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// HasLocation проверяет, что у механика заданы координаты.
func (p *MechanicProfile) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// AvailableMechanic объединяет профиль механика с именем пользователя
// для выборок, где нужны оба (поиск поблизости).
type AvailableMechanic struct {
	Profile  MechanicProfile
	FullName string
}

// NearbyMechanic представляет механика в выдаче поиска поблизости.
type NearbyMechanic struct {
	UserID         uuid.UUID `json:"user_id"`
	FullName       string    `json:"full_name"`
	Specialization *string   `json:"specialization,omitempty"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Rating         float64   `json:"rating"`
	TotalJobs      int       `json:"total_jobs"`
	DistanceKm     float64   `json:"distance_km"`
}

// MechanicStats содержит статистику механика за сегодня.
type MechanicStats struct {
	JobsToday     int     `json:"jobs_today"`
	EarningsToday float64 `json:"earnings_today"`
	Rating        float64 `json:"rating"`
	TotalJobs     int     `json:"total_jobs"`
}

package dto

import "github.com/google/uuid"

// RegisterRequest тело запроса POST /auth/register.
type RegisterRequest struct {
	Email          string  `json:"email" binding:"required"`
	Password       string  `json:"password" binding:"required"`
	FullName       string  `json:"full_name" binding:"required"`
	Phone          *string `json:"phone,omitempty"`
	Role           string  `json:"role" binding:"required,oneof=customer mechanic"`
	Specialization *string `json:"specialization,omitempty"`
}

// LoginRequest тело запроса POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest тело запроса POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest тело запроса PUT /profile.
type UpdateProfileRequest struct {
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// CreateRequestRequest тело запроса POST /service-requests.
// Координаты приходят указателями: ноль — валидная широта и долгота,
// binding required на float64 отбросил бы её как пустое поле.
type CreateRequestRequest struct {
	MechanicID uuid.UUID  `json:"mechanic_id" binding:"required"`
	VehicleID  uuid.UUID  `json:"vehicle_id" binding:"required"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Problem    string     `json:"problem" binding:"required"`
	Latitude   *float64   `json:"latitude" binding:"required"`
	Longitude  *float64   `json:"longitude" binding:"required"`
	Address    *string    `json:"address,omitempty"`
}

// CompleteByCustomerRequest тело запроса PUT /service-requests/:id/complete.
// Клиент указывает стоимость и оценку в одном вызове.
type CompleteByCustomerRequest struct {
	MaterialCost float64 `json:"material_cost" binding:"min=0"`
	LaborCost    float64 `json:"labor_cost" binding:"required,gt=0"`
	Rating       int     `json:"rating" binding:"required,min=1,max=5"`
}

// UpdateAvailabilityRequest тело запроса PUT /mechanics/availability.
type UpdateAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// UpdateLocationRequest тело запроса PUT /mechanics/location.
// Координаты указателями по той же причине, что и в CreateRequestRequest.
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// WithdrawRequest тело запроса POST /mechanic/wallet/withdraw.
type WithdrawRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// CreateVehicleRequest тело запроса POST /vehicles.
type CreateVehicleRequest struct {
	Make        string  `json:"make" binding:"required"`
	Model       string  `json:"model" binding:"required"`
	Year        *int    `json:"year,omitempty"`
	PlateNumber *string `json:"plate_number,omitempty"`
}

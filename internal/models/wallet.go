package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы транзакций кошелька
const (
	TransactionTypeCredit     = "credit"
	TransactionTypeTopUp      = "top_up"
	TransactionTypeCommission = "commission_deduction"
	TransactionTypeWithdrawal = "withdrawal"
)

// Статусы транзакций
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Тип сущности, на которую ссылается транзакция
const (
	ReferenceTypeServiceRequest = "service_request"
)

// WalletTransaction представляет запись в журнале кошелька механика.
// Записи неизменяемы после создания; отрицательная сумма означает списание,
// а баланс профиля равен сумме amount по всем записям механика.
// Для каждой завершённой заявки существует не более одной транзакции
// commission_deduction, ссылающейся на неё (уникальный индекс в БД).
type WalletTransaction struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	MechanicID      uuid.UUID  `db:"mechanic_id" json:"mechanic_id"`
	Amount          float64    `db:"amount" json:"amount"`
	TransactionType string     `db:"transaction_type" json:"transaction_type"`
	ReferenceID     *uuid.UUID `db:"reference_id" json:"reference_id,omitempty"`
	ReferenceType   *string    `db:"reference_type" json:"reference_type,omitempty"`
	Status          string     `db:"status" json:"status"`
	Description     *string    `db:"description" json:"description,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Wallet объединяет текущий баланс и страницу журнала транзакций.
type Wallet struct {
	Balance      float64             `json:"balance"`
	Transactions []WalletTransaction `json:"transactions"`
	Total        int                 `json:"total"`
	Page         int                 `json:"page"`
	Limit        int                 `json:"limit"`
}

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

// ErrInsufficientFunds возвращается при выводе суммы больше баланса.
var ErrInsufficientFunds = errors.New("insufficient funds")

// WalletRepository отвечает за журнал wallet_transactions и баланс
// в mechanic_profiles. Баланс меняется только вместе с записями в журнал
// и только внутри одной транзакции под блокировкой строки профиля,
// поэтому баланс всегда равен сумме amount по журналу механика.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository создаёт экземпляр репозитория.
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// SettleCommission проводит расчёт по завершённой заявке двумя записями
// журнала: credit на полную стоимость работ и commission_deduction на долю
// платформы, так что сумма записей равна изменению баланса. Идемпотентность
// обеспечивает частичный уникальный индекс по (reference_id,
// transaction_type): повторный вызов не вставит ни одной записи и не изменит
// баланс. Возвращает false, если расчёт по заявке уже был проведён.
func (r *WalletRepository) SettleCommission(ctx context.Context, mechanicID, requestID uuid.UUID, laborCost, commission float64) (*models.WalletTransaction, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	// Блокируем строку профиля: сериализует расчёт и вывод средств по механику.
	var balance float64
	err = tx.GetContext(ctx, &balance, `
		SELECT wallet_balance FROM mechanic_profiles WHERE user_id = $1 FOR UPDATE
	`, mechanicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrMechanicNotFound
		}
		return nil, false, fmt.Errorf("wallet repository: lock profile %w", err)
	}

	var transaction models.WalletTransaction
	err = tx.GetContext(ctx, &transaction, `
		INSERT INTO wallet_transactions
			(mechanic_id, amount, transaction_type, reference_id, reference_type, status, description)
		VALUES ($1, $2, 'commission_deduction', $3, 'service_request', 'completed', 'Комиссия платформы за заявку')
		ON CONFLICT (reference_id, transaction_type) WHERE transaction_type = 'commission_deduction' DO NOTHING
		RETURNING id, mechanic_id, amount, transaction_type, reference_id, reference_type, status, description, created_at
	`, mechanicID, -commission, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Расчёт уже проведён другим вызовом — ничего не меняем.
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("wallet repository: insert commission %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions
			(mechanic_id, amount, transaction_type, reference_id, reference_type, status, description)
		VALUES ($1, $2, 'credit', $3, 'service_request', 'completed', 'Оплата работ по заявке')
	`, mechanicID, laborCost, requestID)
	if err != nil {
		return nil, false, fmt.Errorf("wallet repository: insert credit %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE mechanic_profiles
		SET wallet_balance = wallet_balance + $2, total_jobs = total_jobs + 1, updated_at = NOW()
		WHERE user_id = $1
	`, mechanicID, laborCost-commission)
	if err != nil {
		return nil, false, fmt.Errorf("wallet repository: credit earnings %w", err)
	}

	return &transaction, true, tx.Commit()
}

// Withdraw списывает сумму с баланса и добавляет запись withdrawal со
// статусом pending. Списание и запись в журнал выполняются в одной
// транзакции, поэтому компенсирующая запись не нужна.
func (r *WalletRepository) Withdraw(ctx context.Context, mechanicID uuid.UUID, amount float64) (*models.WalletTransaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var balance float64
	err = tx.GetContext(ctx, &balance, `
		SELECT wallet_balance FROM mechanic_profiles WHERE user_id = $1 FOR UPDATE
	`, mechanicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMechanicNotFound
		}
		return nil, fmt.Errorf("wallet repository: lock profile %w", err)
	}
	if balance < amount {
		return nil, ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE mechanic_profiles SET wallet_balance = wallet_balance - $2, updated_at = NOW()
		WHERE user_id = $1
	`, mechanicID, amount)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: debit balance %w", err)
	}

	var transaction models.WalletTransaction
	err = tx.GetContext(ctx, &transaction, `
		INSERT INTO wallet_transactions (mechanic_id, amount, transaction_type, status, description)
		VALUES ($1, $2, 'withdrawal', 'pending', 'Вывод средств')
		RETURNING id, mechanic_id, amount, transaction_type, reference_id, reference_type, status, description, created_at
	`, mechanicID, -amount)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: insert withdrawal %w", err)
	}

	return &transaction, tx.Commit()
}

// GetBalance возвращает текущий баланс механика.
func (r *WalletRepository) GetBalance(ctx context.Context, mechanicID uuid.UUID) (float64, error) {
	var balance float64
	err := r.db.GetContext(ctx, &balance, `
		SELECT wallet_balance FROM mechanic_profiles WHERE user_id = $1
	`, mechanicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrMechanicNotFound
		}
		return 0, fmt.Errorf("wallet repository: get balance %w", err)
	}
	return balance, nil
}

// ListTransactions возвращает страницу журнала транзакций механика и общее количество.
func (r *WalletRepository) ListTransactions(ctx context.Context, mechanicID uuid.UUID, limit, offset int) ([]models.WalletTransaction, int, error) {
	var transactions []models.WalletTransaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT id, mechanic_id, amount, transaction_type, reference_id, reference_type, status, description, created_at
		FROM wallet_transactions
		WHERE mechanic_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, mechanicID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("wallet repository: list transactions %w", err)
	}

	var total int
	err = r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM wallet_transactions WHERE mechanic_id = $1
	`, mechanicID)
	if err != nil {
		return nil, 0, fmt.Errorf("wallet repository: count transactions %w", err)
	}

	return transactions, total, nil
}

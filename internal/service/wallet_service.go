package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/logger"
	"github.com/ignatzorin/mechanic-backend/internal/models"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mechanic-backend/internal/repository"
	"github.com/ignatzorin/mechanic-backend/internal/validation"
)

// CommissionRate доля платформы от стоимости работ по завершённой заявке.
const CommissionRate = 0.15

// WalletRepository описывает зависимости WalletService от слоя хранилища.
type WalletRepository interface {
	SettleCommission(ctx context.Context, mechanicID, requestID uuid.UUID, laborCost, commission float64) (*models.WalletTransaction, bool, error)
	Withdraw(ctx context.Context, mechanicID uuid.UUID, amount float64) (*models.WalletTransaction, error)
	GetBalance(ctx context.Context, mechanicID uuid.UUID) (float64, error)
	ListTransactions(ctx context.Context, mechanicID uuid.UUID, limit, offset int) ([]models.WalletTransaction, int, error)
}

// WalletService отвечает за расчёты с механиком: комиссию платформы,
// зачисление заработка и вывод средств.
type WalletService struct {
	wallets WalletRepository
}

// NewWalletService создаёт сервис кошелька.
func NewWalletService(wallets WalletRepository) *WalletService {
	return &WalletService{wallets: wallets}
}

// round2 округляет денежную сумму до копеек.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SettleCommission проводит расчёт по завершённой заявке: в журнал пишутся
// зачисление полной стоимости работ и списание комиссии платформы, на баланс
// механика попадает разница. Повторный вызов по той же заявке ничего не меняет.
func (s *WalletService) SettleCommission(ctx context.Context, mechanicID, requestID uuid.UUID, laborCost float64) error {
	laborCost = round2(laborCost)
	commission := round2(laborCost * CommissionRate)
	earnings := round2(laborCost - commission)

	_, settled, err := s.wallets.SettleCommission(ctx, mechanicID, requestID, laborCost, commission)
	if err != nil {
		return err
	}
	if !settled {
		logger.WithComponent("wallet").WithField("request_id", requestID).
			Warn("комиссия по заявке уже проведена, пропускаем")
		return nil
	}

	logger.WithComponent("wallet").WithFields(map[string]interface{}{
		"mechanic_id": mechanicID,
		"request_id":  requestID,
		"commission":  commission,
		"earnings":    earnings,
	}).Info("расчёт по заявке проведён")

	return nil
}

// Withdraw выводит средства с баланса механика.
func (s *WalletService) Withdraw(ctx context.Context, mechanicID uuid.UUID, amount float64) (*models.WalletTransaction, error) {
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	transaction, err := s.wallets.Withdraw(ctx, mechanicID, round2(amount))
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientBalance
		}
		if errors.Is(err, repository.ErrMechanicNotFound) {
			return nil, apperror.ErrMechanicNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetWallet возвращает баланс и страницу журнала транзакций механика.
func (s *WalletService) GetWallet(ctx context.Context, mechanicID uuid.UUID, page, limit int) (*models.Wallet, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	balance, err := s.wallets.GetBalance(ctx, mechanicID)
	if err != nil {
		if errors.Is(err, repository.ErrMechanicNotFound) {
			return nil, apperror.ErrMechanicNotFound
		}
		return nil, err
	}

	transactions, total, err := s.wallets.ListTransactions(ctx, mechanicID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []models.WalletTransaction{}
	}

	return &models.Wallet{
		Balance:      balance,
		Transactions: transactions,
		Total:        total,
		Page:         page,
		Limit:        limit,
	}, nil
}

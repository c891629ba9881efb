package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/goroutine"
	"github.com/ignatzorin/mechanic-backend/internal/logger"
	"github.com/ignatzorin/mechanic-backend/internal/models"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mechanic-backend/internal/repository"
	"github.com/ignatzorin/mechanic-backend/internal/validation"
)

// backgroundTimeout ограничивает фоновые задачи после завершения заявки.
const backgroundTimeout = 15 * time.Second

// RequestRepository описывает зависимости RequestService от слоя хранилища.
type RequestRepository interface {
	Create(ctx context.Context, req *models.ServiceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error)
	ListByMechanic(ctx context.Context, mechanicID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error
	MarkArrived(ctx context.Context, id uuid.UUID) error
	SetCustomerCompletion(ctx context.Context, id uuid.UUID, materialCost, laborCost, totalCost float64, rating int) (*models.ServiceRequest, error)
	SetMechanicConfirmed(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	FinalizeCompletion(ctx context.Context, id uuid.UUID) (bool, error)
}

// RequestVehicleRepository проверяет принадлежность транспорта клиенту.
type RequestVehicleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

// RequestMechanicRepository проверяет состояние механика при создании заявки.
type RequestMechanicRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.MechanicProfile, error)
}

// Settler проводит расчёт по завершённой заявке.
type Settler interface {
	SettleCommission(ctx context.Context, mechanicID, requestID uuid.UUID, laborCost float64) error
}

// RatingRecalculator пересчитывает рейтинг механика.
type RatingRecalculator interface {
	Recalculate(ctx context.Context, mechanicID uuid.UUID) error
}

// Notifier рассылает уведомления о событиях заявки.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body, notificationType string, referenceID *uuid.UUID) error
}

// CreateRequestInput данные новой заявки.
type CreateRequestInput struct {
	CustomerID uuid.UUID
	MechanicID uuid.UUID
	VehicleID  uuid.UUID
	CategoryID *uuid.UUID
	Problem    string
	Latitude   float64
	Longitude  float64
	Address    *string
}

// CustomerCompletionInput данные подтверждения завершения клиентом.
type CustomerCompletionInput struct {
	MaterialCost float64
	LaborCost    float64
	Rating       int
}

// RequestService управляет жизненным циклом заявки:
// pending -> accepted -> in_progress -> completed, с отменой из pending
// и accepted. Завершение требует подтверждения обеих сторон; расчёт
// с механиком проводит ровно один из двух подтверждающих вызовов.
type RequestService struct {
	requests  RequestRepository
	vehicles  RequestVehicleRepository
	mechanics RequestMechanicRepository
	settler   Settler
	ratings   RatingRecalculator
	notifier  Notifier
}

// NewRequestService создаёт сервис заявок. notifier может быть nil.
func NewRequestService(
	requests RequestRepository,
	vehicles RequestVehicleRepository,
	mechanics RequestMechanicRepository,
	settler Settler,
	ratings RatingRecalculator,
	notifier Notifier,
) *RequestService {
	return &RequestService{
		requests:  requests,
		vehicles:  vehicles,
		mechanics: mechanics,
		settler:   settler,
		ratings:   ratings,
		notifier:  notifier,
	}
}

// Create создаёт заявку в статусе pending. Транспорт должен принадлежать
// клиенту, механик — быть верифицированным и доступным.
func (s *RequestService) Create(ctx context.Context, in CreateRequestInput) (*models.ServiceRequest, error) {
	if err := validation.ValidateProblem(in.Problem); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	vehicle, err := s.vehicles.GetByID(ctx, in.VehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return nil, apperror.ErrVehicleNotFound
		}
		return nil, err
	}
	if vehicle.OwnerID != in.CustomerID {
		return nil, apperror.ErrForbidden
	}

	profile, err := s.mechanics.GetByUserID(ctx, in.MechanicID)
	if err != nil {
		if errors.Is(err, repository.ErrMechanicNotFound) {
			return nil, apperror.ErrMechanicNotFound
		}
		return nil, err
	}
	if profile.VerificationStatus != models.VerificationStatusApproved || !profile.IsAvailable {
		return nil, apperror.ErrMechanicUnavailable
	}

	req := &models.ServiceRequest{
		CustomerID: in.CustomerID,
		MechanicID: in.MechanicID,
		VehicleID:  in.VehicleID,
		CategoryID: in.CategoryID,
		Problem:    in.Problem,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Address:    in.Address,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.notify(req.MechanicID, "Новая заявка", "У вас новая заявка на ремонт", models.NotificationTypeRequestCreated, req.ID)
	return req, nil
}

// GetByID возвращает заявку, доступную только её участникам.
func (s *RequestService) GetByID(ctx context.Context, id, callerID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListForCustomer возвращает заявки клиента.
func (s *RequestService) ListForCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]models.ServiceRequest, error) {
	limit, offset := normalizePage(page, limit)
	requests, err := s.requests.ListByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.ServiceRequest{}
	}
	return requests, nil
}

// ListForMechanic возвращает заявки, назначенные механику.
func (s *RequestService) ListForMechanic(ctx context.Context, mechanicID uuid.UUID, page, limit int) ([]models.ServiceRequest, error) {
	limit, offset := normalizePage(page, limit)
	requests, err := s.requests.ListByMechanic(ctx, mechanicID, limit, offset)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.ServiceRequest{}
	}
	return requests, nil
}

// Accept принимает заявку механиком: pending -> accepted.
func (s *RequestService) Accept(ctx context.Context, id, mechanicID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.getForMechanic(ctx, id, mechanicID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, req, models.RequestStatusAccepted); err != nil {
		return nil, err
	}

	s.notify(req.CustomerID, "Заявка принята", "Механик принял вашу заявку", models.NotificationTypeRequestAccepted, req.ID)
	return s.requests.GetByID(ctx, id)
}

// Decline отклоняет заявку механиком: pending -> cancelled.
func (s *RequestService) Decline(ctx context.Context, id, mechanicID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.getForMechanic(ctx, id, mechanicID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusPending {
		return nil, apperror.ErrInvalidTransition
	}

	if err := s.transition(ctx, req, models.RequestStatusCancelled); err != nil {
		return nil, err
	}

	s.notify(req.CustomerID, "Заявка отклонена", "Механик отклонил вашу заявку", models.NotificationTypeRequestDeclined, req.ID)
	return s.requests.GetByID(ctx, id)
}

// Cancel отменяет заявку клиентом. Допустимо только из pending и accepted:
// начатые работы отменить нельзя.
func (s *RequestService) Cancel(ctx context.Context, id, customerID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.getForCustomer(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusPending && req.Status != models.RequestStatusAccepted {
		return nil, apperror.ErrInvalidTransition
	}

	if err := s.transition(ctx, req, models.RequestStatusCancelled); err != nil {
		return nil, err
	}

	s.notify(req.MechanicID, "Заявка отменена", "Клиент отменил заявку", models.NotificationTypeRequestCancelled, req.ID)
	return s.requests.GetByID(ctx, id)
}

// Arrive отмечает прибытие механика: accepted -> in_progress.
func (s *RequestService) Arrive(ctx context.Context, id, mechanicID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.getForMechanic(ctx, id, mechanicID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(req.Status, models.RequestStatusInProgress) {
		return nil, apperror.ErrInvalidTransition
	}

	if err := s.requests.MarkArrived(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperror.ErrInvalidTransition
		}
		return nil, err
	}

	s.notify(req.CustomerID, "Механик прибыл", "Механик на месте и приступает к осмотру", models.NotificationTypeMechanicArrived, req.ID)
	return s.requests.GetByID(ctx, id)
}

// CompleteByCustomer фиксирует подтверждение клиента: стоимость материалов
// и работ, итоговую сумму и оценку. Если механик уже подтвердил завершение,
// заявка закрывается и проводится расчёт.
func (s *RequestService) CompleteByCustomer(ctx context.Context, id, customerID uuid.UUID, in CustomerCompletionInput) (*models.ServiceRequest, error) {
	if err := validation.ValidateCost("стоимость материалов", in.MaterialCost); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateCost("стоимость работ", in.LaborCost); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.LaborCost <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "стоимость работ должна быть положительной")
	}
	if err := validation.ValidateRating(in.Rating); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	req, err := s.getForCustomer(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusInProgress {
		return nil, apperror.ErrInvalidTransition
	}

	materialCost := round2(in.MaterialCost)
	laborCost := round2(in.LaborCost)
	totalCost := round2(materialCost + laborCost)

	updated, err := s.requests.SetCustomerCompletion(ctx, id, materialCost, laborCost, totalCost, in.Rating)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperror.ErrInvalidTransition
		}
		return nil, err
	}

	return s.tryFinalize(ctx, updated)
}

// CompleteByMechanic фиксирует подтверждение механика. Требует, чтобы клиент
// уже указал стоимость работ: без неё расчёт провести нечем.
func (s *RequestService) CompleteByMechanic(ctx context.Context, id, mechanicID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.getForMechanic(ctx, id, mechanicID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusInProgress {
		return nil, apperror.ErrInvalidTransition
	}
	if req.LaborCost == nil {
		return nil, apperror.ErrPricingRequired
	}

	updated, err := s.requests.SetMechanicConfirmed(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperror.ErrInvalidTransition
		}
		return nil, err
	}

	return s.tryFinalize(ctx, updated)
}

// tryFinalize закрывает заявку, когда обе стороны подтвердили завершение.
// Расчёт проводится до перевода в completed: он идемпотентен, поэтому при
// сбое между расчётом и закрытием заявка остаётся in_progress и повторное
// подтверждение доводит её до конца, не списывая комиссию второй раз.
func (s *RequestService) tryFinalize(ctx context.Context, req *models.ServiceRequest) (*models.ServiceRequest, error) {
	if !req.BothConfirmed() {
		return req, nil
	}

	if req.LaborCost == nil {
		// Оба флага выставляются только после указания стоимости клиентом.
		return nil, fmt.Errorf("request service: заявка %s подтверждена без стоимости работ", req.ID)
	}

	if err := s.settler.SettleCommission(ctx, req.MechanicID, req.ID, *req.LaborCost); err != nil {
		logger.WithComponent("requests").WithField("request_id", req.ID).
			Errorf("не удалось провести расчёт по заявке: %v", err)
		return nil, err
	}

	won, err := s.requests.FinalizeCompletion(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		// Конкурирующее подтверждение уже закрыло заявку; наш расчёт
		// был холостым повтором.
		return s.requests.GetByID(ctx, req.ID)
	}

	mechanicID := req.MechanicID
	customerID := req.CustomerID
	requestID := req.ID
	goroutine.SafeGo(func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		if err := s.ratings.Recalculate(bgCtx, mechanicID); err != nil {
			logger.WithComponent("requests").WithField("mechanic_id", mechanicID).
				Errorf("не удалось пересчитать рейтинг: %v", err)
		}
	})

	s.notify(mechanicID, "Заявка завершена", "Работа по заявке завершена, средства зачислены на баланс", models.NotificationTypeRequestCompleted, requestID)
	s.notify(customerID, "Заявка завершена", "Спасибо, что воспользовались сервисом", models.NotificationTypeRequestCompleted, requestID)

	return s.requests.GetByID(ctx, requestID)
}

// transition выполняет переход статуса с проверкой таблицы переходов.
func (s *RequestService) transition(ctx context.Context, req *models.ServiceRequest, to string) error {
	if !models.CanTransition(req.Status, to) {
		return apperror.ErrInvalidTransition
	}
	if err := s.requests.TransitionStatus(ctx, req.ID, req.Status, to); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperror.ErrInvalidTransition
		}
		return err
	}
	return nil
}

func (s *RequestService) getOwned(ctx context.Context, id, callerID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, err
	}
	if req.CustomerID != callerID && req.MechanicID != callerID {
		return nil, apperror.ErrForbidden
	}
	return req, nil
}

func (s *RequestService) getForCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.getOwned(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != customerID {
		return nil, apperror.ErrForbidden
	}
	return req, nil
}

func (s *RequestService) getForMechanic(ctx context.Context, id, mechanicID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.getOwned(ctx, id, mechanicID)
	if err != nil {
		return nil, err
	}
	if req.MechanicID != mechanicID {
		return nil, apperror.ErrForbidden
	}
	return req, nil
}

// notify отправляет уведомление в фоне, не блокируя основной поток.
func (s *RequestService) notify(userID uuid.UUID, title, body, notificationType string, referenceID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	refID := referenceID
	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, userID, title, body, notificationType, &refID); err != nil {
			logger.WithComponent("requests").WithField("user_id", userID).
				Warnf("не удалось отправить уведомление: %v", err)
		}
	})
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/logger"
	"github.com/ignatzorin/mechanic-backend/internal/models"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool, limit, offset int) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationPusher доставляет событие подключённым клиентам пользователя.
type NotificationPusher interface {
	Push(userID uuid.UUID, event string, data any) error
}

// NotificationService сохраняет уведомления и рассылает их по WebSocket.
type NotificationService struct {
	repo   NotificationRepository
	pusher NotificationPusher
}

// NewNotificationService создаёт сервис уведомлений. pusher может быть nil.
func NewNotificationService(repo NotificationRepository, pusher NotificationPusher) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher}
}

// Notify сохраняет уведомление и отправляет его по WebSocket.
// Сбой доставки не считается ошибкой: уведомление остаётся в БД.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, title, body, notificationType string, referenceID *uuid.UUID) error {
	notification := &models.Notification{
		UserID:      userID,
		Title:       title,
		Body:        body,
		Type:        notificationType,
		ReferenceID: referenceID,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.pusher != nil {
		if err := s.pusher.Push(userID, notificationType, notification); err != nil {
			logger.WithComponent("notifications").WithField("user_id", userID).
				Warnf("не удалось отправить уведомление по WebSocket: %v", err)
		}
	}

	return nil
}

// List возвращает страницу уведомлений пользователя, при onlyUnread — только
// непрочитанные.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, onlyUnread bool, page, limit int) ([]models.Notification, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	notifications, err := s.repo.ListByUser(ctx, userID, onlyUnread, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkAsRead отмечает уведомление пользователя как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

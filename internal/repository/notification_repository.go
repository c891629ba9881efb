package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/mechanic-backend/internal/models"
)

type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO notifications (user_id, title, body, notification_type, reference_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, n.UserID, n.Title, n.Body, n.Type, n.ReferenceID).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool, limit, offset int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, body, notification_type, reference_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1`
	if onlyUnread {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	var notifications []models.Notification
	err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("notification repository: list %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("notification repository: mark read %w", err)
	}
	return nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("notification repository: count unread %w", err)
	}
	return count, nil
}

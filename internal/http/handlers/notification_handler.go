package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/mechanic-backend/internal/http/handlers/common"
	"github.com/ignatzorin/mechanic-backend/internal/service"
)

// NotificationHandler обрабатывает уведомления пользователя.
type NotificationHandler struct {
	svc *service.NotificationService
}

// NewNotificationHandler создаёт новый хэндлер.
func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	page, limit := common.PageParams(c)
	_, onlyUnread := c.GetQuery("unread")
	notifications, err := h.svc.List(c.Request.Context(), userID, onlyUnread, page, limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	unread, err := h.svc.CountUnread(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
		"page":          page,
		"limit":         limit,
	})
}

// MarkAsRead PUT /notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondValidationError(c, err)
		return
	}

	if err := h.svc.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{"message": "уведомление прочитано"})
}

package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/dto"
	"github.com/ignatzorin/mechanic-backend/internal/http/middleware"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
)

var (
	// ErrNoUserInContext возвращается, когда в контексте нет пользователя.
	ErrNoUserInContext = errors.New("пользователь не найден в контексте")

	// ErrInvalidUUID возвращается при неверном формате UUID.
	ErrInvalidUUID = errors.New("неверный формат UUID")
)

// CurrentUserID извлекает идентификатор пользователя из gin.Context.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrNoUserInContext
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoUserInContext
	}

	return userID, nil
}

// CurrentUserRole извлекает роль пользователя из gin.Context.
func CurrentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", ErrNoUserInContext
	}

	role, ok := raw.(string)
	if !ok {
		return "", ErrNoUserInContext
	}

	return role, nil
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("параметр %s отсутствует", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return parsed, nil
}

// PageParams разбирает параметры page и limit из query string.
func PageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// RespondOK отправляет успешный ответ в общем конверте.
func RespondOK(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, dto.OK(data))
}

// RespondErrorMessage отправляет ошибку в общем конверте.
func RespondErrorMessage(c *gin.Context, statusCode int, message string, code apperror.ErrorCode) {
	c.JSON(statusCode, dto.Err(message, string(code)))
}

// RespondError отдаёт ошибку клиенту: AppError со своим статусом и кодом,
// всё остальное уходит в ErrorHandler как внутренняя ошибка.
func RespondError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, dto.Err(appErr.Message, string(appErr.Code)))
		return
	}
	_ = c.Error(err)
}

// RespondValidationError отдаёт 400 с текстом ошибки привязки запроса.
func RespondValidationError(c *gin.Context, err error) {
	RespondErrorMessage(c, http.StatusBadRequest, "некорректное тело запроса: "+err.Error(), apperror.ErrCodeValidation)
}

// RespondUnauthorized отдаёт 401.
func RespondUnauthorized(c *gin.Context) {
	RespondErrorMessage(c, http.StatusUnauthorized, "требуется авторизация", apperror.ErrCodeUnauthorized)
}

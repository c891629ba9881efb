package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/mechanic-backend/internal/dto"
	"github.com/ignatzorin/mechanic-backend/internal/logger"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: известные AppError
// отдаются клиенту со своим статусом и кодом, всё остальное маскируется
// как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				logError(c, err)
			}
			c.JSON(appErr.HTTPStatus, dto.Err(appErr.Message, string(appErr.Code)))
			return
		}

		logError(c, err)
		c.JSON(http.StatusInternalServerError,
			dto.Err("внутренняя ошибка сервера", string(apperror.ErrCodeInternal)))
	}
}

func logError(c *gin.Context, err error) {
	logger.WithComponent("http").WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Error("ошибка обработки запроса")
}

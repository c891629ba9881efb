package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/dto"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметр с указанным именем является валидным UUID.
// Использование: router.GET("/service-requests/:id", UUIDValidator("id"), handler.GetRequest)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		if idStr == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.Err("параметр "+paramName+" обязателен", string(apperror.ErrCodeValidation)))
			return
		}

		if _, err := uuid.Parse(idStr); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.Err("параметр "+paramName+" должен быть валидным UUID", string(apperror.ErrCodeValidation)))
			return
		}

		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/dto"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mechanic-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.Err("требуется авторизация", string(apperror.ErrCodeUnauthorized)))
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		userID, role, err := tokens.ParseAccess(raw)
		if err != nil || userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.Err("токен невалиден", string(apperror.ErrCodeUnauthorized)))
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRoleKey, role)
		c.Next()
	}
}

// RequireRole пропускает только пользователей с указанной ролью.
// Ставится после AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(ContextRoleKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.Err("недостаточно прав", string(apperror.ErrCodeForbidden)))
			return
		}
		if current, ok := raw.(string); !ok || current != role {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.Err("недостаточно прав", string(apperror.ErrCodeForbidden)))
			return
		}
		c.Next()
	}
}

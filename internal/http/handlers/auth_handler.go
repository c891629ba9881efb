package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/mechanic-backend/internal/dto"
	"github.com/ignatzorin/mechanic-backend/internal/http/handlers/common"
	"github.com/ignatzorin/mechanic-backend/internal/service"
)

// AuthHandler обрабатывает регистрацию и аутентификацию.
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler создаёт новый хэндлер.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func requestMeta(c *gin.Context) map[string]string {
	return map[string]string{
		"user_agent": c.GetHeader("User-Agent"),
		"ip":         c.ClientIP(),
	}
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	result, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		Phone:          req.Phone,
		Role:           req.Role,
		Specialization: req.Specialization,
	}, requestMeta(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusCreated, gin.H{
		"user":   result.User,
		"tokens": result.TokenPair,
	})
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	result, err := h.svc.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, requestMeta(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{
		"user":   result.User,
		"tokens": result.TokenPair,
	})
}

// Refresh POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken, requestMeta(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{"tokens": tokens})
}

// Logout POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{"message": "вы вышли из системы"})
}

// Profile GET /profile
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	user, err := h.svc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, user)
}

// UpdateProfile PUT /profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), userID, req.FullName, req.Phone)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, user)
}

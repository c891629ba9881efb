package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/mechanic-backend/internal/dto"
	"github.com/ignatzorin/mechanic-backend/internal/http/handlers/common"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mechanic-backend/internal/service"
)

// MechanicHandler обрабатывает поиск механиков, доступность и статистику.
type MechanicHandler struct {
	svc *service.MechanicService
}

// NewMechanicHandler создаёт новый хэндлер.
func NewMechanicHandler(svc *service.MechanicService) *MechanicHandler {
	return &MechanicHandler{svc: svc}
}

// Nearby GET /mechanics/nearby?lat=..&lng=..&radius=..&specialization=..&min_rating=..
func (h *MechanicHandler) Nearby(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		common.RespondErrorMessage(c, http.StatusBadRequest, "параметр lat обязателен", apperror.ErrCodeValidation)
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		common.RespondErrorMessage(c, http.StatusBadRequest, "параметр lng обязателен", apperror.ErrCodeValidation)
		return
	}

	params := service.NearbyParams{
		Latitude:       lat,
		Longitude:      lon,
		Specialization: c.Query("specialization"),
	}

	if raw := c.Query("radius"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			common.RespondErrorMessage(c, http.StatusBadRequest, "параметр radius должен быть числом", apperror.ErrCodeValidation)
			return
		}
		params.RadiusKm = radius
	}

	if raw := c.Query("min_rating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			common.RespondErrorMessage(c, http.StatusBadRequest, "параметр min_rating должен быть числом", apperror.ErrCodeValidation)
			return
		}
		params.MinRating = minRating
	}

	mechanics, err := h.svc.FindNearby(c.Request.Context(), params)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{"mechanics": mechanics, "count": len(mechanics)})
}

// Categories GET /mechanics/categories
func (h *MechanicHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, http.StatusOK, gin.H{"categories": categories})
}

// UpdateAvailability PUT /mechanics/availability
func (h *MechanicHandler) UpdateAvailability(c *gin.Context) {
	mechanicID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req dto.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	profile, err := h.svc.SetAvailability(c.Request.Context(), mechanicID, *req.IsAvailable)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, profile)
}

// UpdateLocation PUT /mechanics/location
func (h *MechanicHandler) UpdateLocation(c *gin.Context) {
	mechanicID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	if err := h.svc.UpdateLocation(c.Request.Context(), mechanicID, *req.Latitude, *req.Longitude); err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{"message": "координаты обновлены"})
}

// MyProfile GET /mechanics/me
func (h *MechanicHandler) MyProfile(c *gin.Context) {
	mechanicID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	profile, err := h.svc.GetProfile(c.Request.Context(), mechanicID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, profile)
}

// Stats GET /mechanic/stats
func (h *MechanicHandler) Stats(c *gin.Context) {
	mechanicID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), mechanicID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, stats)
}

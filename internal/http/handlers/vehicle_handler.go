package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/mechanic-backend/internal/dto"
	"github.com/ignatzorin/mechanic-backend/internal/http/handlers/common"
	"github.com/ignatzorin/mechanic-backend/internal/service"
)

// VehicleHandler обрабатывает транспорт клиента.
type VehicleHandler struct {
	svc *service.VehicleService
}

// NewVehicleHandler создаёт новый хэндлер.
func NewVehicleHandler(svc *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{svc: svc}
}

// Create POST /vehicles
func (h *VehicleHandler) Create(c *gin.Context) {
	ownerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req dto.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	vehicle, err := h.svc.Create(c.Request.Context(), ownerID, service.CreateVehicleInput{
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
		PlateNumber: req.PlateNumber,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusCreated, vehicle)
}

// List GET /vehicles
func (h *VehicleHandler) List(c *gin.Context) {
	ownerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	vehicles, err := h.svc.List(c.Request.Context(), ownerID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{"vehicles": vehicles})
}

// Delete DELETE /vehicles/:id
func (h *VehicleHandler) Delete(c *gin.Context) {
	ownerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondValidationError(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, ownerID); err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{"message": "транспорт удалён"})
}

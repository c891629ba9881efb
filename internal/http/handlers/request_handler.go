package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/dto"
	"github.com/ignatzorin/mechanic-backend/internal/http/handlers/common"
	"github.com/ignatzorin/mechanic-backend/internal/models"
	"github.com/ignatzorin/mechanic-backend/internal/service"
)

// RequestHandler обрабатывает жизненный цикл заявок на ремонт.
type RequestHandler struct {
	svc *service.RequestService
}

// NewRequestHandler создаёт новый хэндлер.
func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// Create POST /service-requests
func (h *RequestHandler) Create(c *gin.Context) {
	customerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), service.CreateRequestInput{
		CustomerID: customerID,
		MechanicID: req.MechanicID,
		VehicleID:  req.VehicleID,
		CategoryID: req.CategoryID,
		Problem:    req.Problem,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Address:    req.Address,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusCreated, created)
}

// Get GET /service-requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	callerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondValidationError(c, err)
		return
	}

	req, err := h.svc.GetByID(c.Request.Context(), id, callerID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, req)
}

// List GET /service-requests — заявки текущего пользователя:
// клиенту отдаются созданные им, механику — назначенные ему.
func (h *RequestHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	page, limit := common.PageParams(c)

	var requests []models.ServiceRequest
	if role == models.RoleMechanic {
		requests, err = h.svc.ListForMechanic(c.Request.Context(), userID, page, limit)
	} else {
		requests, err = h.svc.ListForCustomer(c.Request.Context(), userID, page, limit)
	}
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{"requests": requests, "page": page, "limit": limit})
}

// ListAssigned GET /mechanics/requests — заявки текущего механика.
func (h *RequestHandler) ListAssigned(c *gin.Context) {
	mechanicID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	page, limit := common.PageParams(c)
	requests, err := h.svc.ListForMechanic(c.Request.Context(), mechanicID, page, limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{"requests": requests, "page": page, "limit": limit})
}

// Cancel PUT /service-requests/:id/cancel — отмена клиентом.
func (h *RequestHandler) Cancel(c *gin.Context) {
	customerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondValidationError(c, err)
		return
	}

	req, err := h.svc.Cancel(c.Request.Context(), id, customerID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, req)
}

// CompleteByCustomer PUT /service-requests/:id/complete — подтверждение
// клиентом со стоимостью и оценкой.
func (h *RequestHandler) CompleteByCustomer(c *gin.Context) {
	customerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondValidationError(c, err)
		return
	}

	var body dto.CompleteByCustomerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	req, err := h.svc.CompleteByCustomer(c.Request.Context(), id, customerID, service.CustomerCompletionInput{
		MaterialCost: body.MaterialCost,
		LaborCost:    body.LaborCost,
		Rating:       body.Rating,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, req)
}

// Accept PUT /mechanics/requests/:id/accept
func (h *RequestHandler) Accept(c *gin.Context) {
	h.mechanicTransition(c, h.svc.Accept)
}

// Decline PUT /mechanics/requests/:id/decline
func (h *RequestHandler) Decline(c *gin.Context) {
	h.mechanicTransition(c, h.svc.Decline)
}

// Arrive PUT /mechanics/requests/:id/arrived
func (h *RequestHandler) Arrive(c *gin.Context) {
	h.mechanicTransition(c, h.svc.Arrive)
}

// CompleteByMechanic PUT /mechanics/requests/:id/complete
func (h *RequestHandler) CompleteByMechanic(c *gin.Context) {
	h.mechanicTransition(c, h.svc.CompleteByMechanic)
}

// mechanicTransition общий каркас переходов статуса со стороны механика.
func (h *RequestHandler) mechanicTransition(
	c *gin.Context,
	fn func(ctx context.Context, id, mechanicID uuid.UUID) (*models.ServiceRequest, error),
) {
	mechanicID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondValidationError(c, err)
		return
	}

	req, err := fn(c.Request.Context(), id, mechanicID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, req)
}

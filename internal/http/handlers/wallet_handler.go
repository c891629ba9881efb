package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/mechanic-backend/internal/dto"
	"github.com/ignatzorin/mechanic-backend/internal/http/handlers/common"
	"github.com/ignatzorin/mechanic-backend/internal/service"
)

// WalletHandler обрабатывает кошелёк механика: баланс, журнал, вывод средств.
type WalletHandler struct {
	svc *service.WalletService
}

// NewWalletHandler создаёт новый хэндлер.
func NewWalletHandler(svc *service.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

// Wallet GET /mechanic/wallet
func (h *WalletHandler) Wallet(c *gin.Context) {
	mechanicID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	page, limit := common.PageParams(c)
	wallet, err := h.svc.GetWallet(c.Request.Context(), mechanicID, page, limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, wallet)
}

// Withdraw POST /mechanic/wallet/withdraw
func (h *WalletHandler) Withdraw(c *gin.Context) {
	mechanicID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondValidationError(c, err)
		return
	}

	transaction, err := h.svc.Withdraw(c.Request.Context(), mechanicID, req.Amount)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusCreated, transaction)
}

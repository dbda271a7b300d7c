package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/middleware"
	"github.com/novachain/backend/internal/service"
	"github.com/novachain/backend/pkg/response"
)

// WalletHandler handles deposits, withdrawals and conversions
type WalletHandler struct {
	wallet *service.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(wallet *service.WalletService) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

// CreateDeposit records a deposit claim for review
// POST /api/deposits
func (h *WalletHandler) CreateDeposit(c *gin.Context) {
	var req service.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.wallet.RequestDeposit(middleware.GetUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, d)
}

// ListDeposits lists the caller's deposits
// GET /api/deposits
func (h *WalletHandler) ListDeposits(c *gin.Context) {
	deposits, err := h.wallet.Deposits(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, deposits)
}

// CreateWithdrawal records a withdrawal request for review
// POST /api/withdrawals
func (h *WalletHandler) CreateWithdrawal(c *gin.Context) {
	var req service.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	w, err := h.wallet.RequestWithdrawal(middleware.GetUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, w)
}

// ListWithdrawals lists the caller's withdrawals
// GET /api/withdrawals
func (h *WalletHandler) ListWithdrawals(c *gin.Context) {
	withdrawals, err := h.wallet.Withdrawals(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, withdrawals)
}

// Convert swaps USDT and a coin at the current price
// POST /api/convert
func (h *WalletHandler) Convert(c *gin.Context) {
	var req service.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.wallet.Convert(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// RegisterRoutes registers wallet routes on an authenticated group
func (h *WalletHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/deposits", h.CreateDeposit)
	rg.GET("/deposits", h.ListDeposits)
	rg.POST("/withdrawals", h.CreateWithdrawal)
	rg.GET("/withdrawals", h.ListWithdrawals)
	rg.POST("/convert", h.Convert)
}

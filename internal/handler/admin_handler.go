package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/internal/service"
	"github.com/novachain/backend/pkg/response"
)

const defaultAdminTradeLimit = 500

// AdminHandler backs the operator console. Every route sits behind the
// admin token middleware.
type AdminHandler struct {
	admin    *service.AdminService
	resolver *service.ModeResolver
	engine   *service.TradeEngine
	wallet   *service.WalletService
	kyc      *service.KYCService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	admin *service.AdminService,
	resolver *service.ModeResolver,
	engine *service.TradeEngine,
	wallet *service.WalletService,
	kyc *service.KYCService,
) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		resolver: resolver,
		engine:   engine,
		wallet:   wallet,
		kyc:      kyc,
	}
}

type modeRequest struct {
	Mode *string `json:"mode"`
}

func (r modeRequest) value() string {
	if r.Mode == nil {
		return ""
	}
	return *r.Mode
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type kycStatusRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// GetGlobalMode returns the global trade mode
// GET /api/admin/trade-mode
func (h *AdminHandler) GetGlobalMode(c *gin.Context) {
	mode, err := h.resolver.GlobalMode()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"mode": mode})
}

// SetGlobalMode sets AUTO, ALL_WIN or ALL_LOSE
// POST /api/admin/trade-mode
func (h *AdminHandler) SetGlobalMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	mode, err := h.resolver.SetGlobalMode(req.value())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"mode": mode})
}

func userModeBody(userID uint, mode models.TradeMode) gin.H {
	var m interface{}
	if mode != "" {
		m = mode
	}
	return gin.H{"user_id": userID, "mode": m}
}

// GetUserMode returns the override of a user, null when none
// GET /api/admin/users/:id/trade-mode
func (h *AdminHandler) GetUserMode(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	mode, err := h.resolver.UserOverride(id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, userModeBody(id, mode))
}

// SetUserMode sets WIN or LOSE for a user; null or empty clears it
// POST /api/admin/users/:id/trade-mode
func (h *AdminHandler) SetUserMode(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	mode, err := h.resolver.SetUserOverride(id, req.value())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, userModeBody(id, mode))
}

// ClearUserMode removes the override of a user
// DELETE /api/admin/users/:id/trade-mode
func (h *AdminHandler) ClearUserMode(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if _, err := h.resolver.SetUserOverride(id, ""); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, userModeBody(id, ""))
}

// ListUsers returns every user with KYC references and trade mode
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.admin.Users()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, users)
}

// DeleteUser soft deletes a user
// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

// ListTrades returns recent trades of every user
// GET /api/admin/trades?limit=500
func (h *AdminHandler) ListTrades(c *gin.Context) {
	trades, err := h.engine.AllTrades(queryLimit(c, defaultAdminTradeLimit))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, trades)
}

// ListDeposits returns every deposit
// GET /api/admin/deposits
func (h *AdminHandler) ListDeposits(c *gin.Context) {
	deposits, err := h.wallet.Deposits(0)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, deposits)
}

// ListWithdrawals returns every withdrawal
// GET /api/admin/withdrawals
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	withdrawals, err := h.wallet.Withdrawals(0)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, withdrawals)
}

// SetDepositStatus approves or rejects a deposit
// POST /api/admin/deposits/:id/status
func (h *AdminHandler) SetDepositStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	d, err := h.wallet.SetDepositStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, d)
}

// SetWithdrawalStatus approves or rejects a withdrawal
// POST /api/admin/withdrawals/:id/status
func (h *AdminHandler) SetWithdrawalStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	w, err := h.wallet.SetWithdrawalStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, w)
}

// SetKYCStatus records a review decision
// POST /api/admin/kyc-status
func (h *AdminHandler) SetKYCStatus(c *gin.Context) {
	var req kycStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.kyc.SetStatus(req.UserID, req.Status); err != nil {
		writeError(c, err)
		return
	}
	status, err := h.kyc.Status(req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"user_id": req.UserID, "status": status})
}

// RegisterRoutes registers admin routes on a group guarded by the admin token
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/trade-mode", h.GetGlobalMode)
	rg.POST("/trade-mode", h.SetGlobalMode)

	users := rg.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.DELETE("/:id", h.DeleteUser)
		users.GET("/:id/trade-mode", h.GetUserMode)
		users.POST("/:id/trade-mode", h.SetUserMode)
		users.DELETE("/:id/trade-mode", h.ClearUserMode)
	}

	rg.GET("/trades", h.ListTrades)
	rg.GET("/deposits", h.ListDeposits)
	rg.GET("/withdrawals", h.ListWithdrawals)
	rg.POST("/deposits/:id/status", h.SetDepositStatus)
	rg.POST("/withdrawals/:id/status", h.SetWithdrawalStatus)
	rg.POST("/kyc-status", h.SetKYCStatus)
}

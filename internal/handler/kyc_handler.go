package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/middleware"
	"github.com/novachain/backend/internal/service"
	"github.com/novachain/backend/pkg/response"
)

// KYCHandler handles identity review submissions
type KYCHandler struct {
	kyc *service.KYCService
}

// NewKYCHandler creates a new KYCHandler
func NewKYCHandler(kyc *service.KYCService) *KYCHandler {
	return &KYCHandler{kyc: kyc}
}

// Submit stores document references and marks the caller pending
// POST /api/kyc
func (h *KYCHandler) Submit(c *gin.Context) {
	var req service.KYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.kyc.Submit(middleware.GetUserID(c), &req); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "pending"})
}

// Status returns the caller's review state
// GET /api/kyc/status
func (h *KYCHandler) Status(c *gin.Context) {
	status, err := h.kyc.Status(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"status": status})
}

// RegisterRoutes registers KYC routes on an authenticated group
func (h *KYCHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/kyc", h.Submit)
	rg.GET("/kyc/status", h.Status)
}

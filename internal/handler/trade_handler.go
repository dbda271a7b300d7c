package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/middleware"
	"github.com/novachain/backend/internal/service"
	"github.com/novachain/backend/pkg/response"
)

// TradeHandler handles timed trade requests. Settlement is never
// reachable over HTTP.
type TradeHandler struct {
	engine *service.TradeEngine
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(engine *service.TradeEngine) *TradeHandler {
	return &TradeHandler{engine: engine}
}

// OpenTrade stakes USDT on a direction for a number of seconds
// POST /api/trade
func (h *TradeHandler) OpenTrade(c *gin.Context) {
	var req service.OpenTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.UserID = middleware.GetUserID(c)

	result, err := h.engine.OpenTrade(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// History lists the caller's trades, newest first
// GET /api/trade/history
func (h *TradeHandler) History(c *gin.Context) {
	trades, err := h.engine.History(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, trades)
}

// RegisterRoutes registers trade routes on an authenticated group
func (h *TradeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/trade", h.OpenTrade)
	rg.GET("/trade/history", h.History)
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/pkg/response"
	"github.com/shopspring/decimal"
)

// PriceBoard is the part of the oracle the dashboard views need
type PriceBoard interface {
	PriceOrFallback(ctx context.Context, symbol string) (decimal.Decimal, bool)
	Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal
}

// PriceHandler handles price-related API requests
type PriceHandler struct {
	prices PriceBoard
}

// NewPriceHandler creates a new PriceHandler
func NewPriceHandler(prices PriceBoard) *PriceHandler {
	return &PriceHandler{
		prices: prices,
	}
}

// GetPrice returns the current USD price for a symbol
// GET /api/price/:symbol
func (h *PriceHandler) GetPrice(c *gin.Context) {
	symbol := models.NormalizeCoin(c.Param("symbol"))

	p, fallback := h.prices.PriceOrFallback(c.Request.Context(), symbol)
	response.Success(c, gin.H{
		"symbol":   symbol,
		"price":    p,
		"fallback": fallback,
	})
}

// GetPrices returns the USD price of every supported coin
// GET /api/prices
func (h *PriceHandler) GetPrices(c *gin.Context) {
	response.Success(c, h.prices.Prices(c.Request.Context(), models.SupportedCoins))
}

// RegisterRoutes registers price routes
func (h *PriceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/prices", h.GetPrices)
	rg.GET("/price/:symbol", h.GetPrice)
}

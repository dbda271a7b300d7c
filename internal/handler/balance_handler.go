package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/middleware"
	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/internal/service"
	"github.com/novachain/backend/pkg/response"
	"github.com/shopspring/decimal"
)

// BalanceHandler serves wallet balances and their history
type BalanceHandler struct {
	ledger *service.BalanceLedger
	prices PriceBoard
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(ledger *service.BalanceLedger, prices PriceBoard) *BalanceHandler {
	return &BalanceHandler{ledger: ledger, prices: prices}
}

// BalanceView is one coin of the wallet valued in USD
type BalanceView struct {
	Coin     string          `json:"coin"`
	Balance  decimal.Decimal `json:"balance"`
	PriceUSD decimal.Decimal `json:"price_usd"`
	ValueUSD decimal.Decimal `json:"value_usd"`
}

// GetBalances returns every supported coin with its USD value
// GET /api/balance
func (h *BalanceHandler) GetBalances(c *gin.Context) {
	balances, err := h.ledger.Balances(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	prices := h.prices.Prices(c.Request.Context(), models.SupportedCoins)
	total := decimal.Zero
	views := make([]BalanceView, 0, len(balances))
	for _, b := range balances {
		p := prices[b.Coin]
		value := b.Balance.Mul(p).Round(2)
		total = total.Add(value)
		views = append(views, BalanceView{Coin: b.Coin, Balance: b.Balance, PriceUSD: p, ValueUSD: value})
	}

	response.Success(c, gin.H{
		"balances":  views,
		"total_usd": total,
	})
}

// GetHistory returns balance snapshots, newest first
// GET /api/balance/history?coin=USDT&limit=100
func (h *BalanceHandler) GetHistory(c *gin.Context) {
	coin := models.NormalizeCoin(c.DefaultQuery("coin", models.CoinUSDT))
	history, err := h.ledger.History(middleware.GetUserID(c), coin, queryLimit(c, 100))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, history)
}

// RegisterRoutes registers balance routes on an authenticated group
func (h *BalanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/balance", h.GetBalances)
	rg.GET("/balance/history", h.GetHistory)
}

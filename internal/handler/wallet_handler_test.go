package handler

import (
	"net/http"
	"testing"

	"github.com/novachain/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletHandler_DepositApproval(t *testing.T) {
	s := newTestServer(t)
	uid, auth := s.signup(t, "alice")

	status, env := s.do(t, http.MethodPost, "/api/deposits", map[string]interface{}{
		"coin":       "USDT",
		"amount":     "250",
		"address":    "TXYZ",
		"screenshot": "uploads/proof.png",
	}, auth)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var deposit struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	decode(t, env.Data, &deposit)
	assert.Equal(t, "pending", deposit.Status)

	status, _ = s.do(t, http.MethodPost, "/api/admin/deposits/"+itoa(deposit.ID)+"/status", map[string]string{"status": "approved"}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodPost, "/api/admin/deposits/"+itoa(deposit.ID)+"/status", map[string]string{"status": "bogus"}, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_status", env.Error)

	status, _ = s.do(t, http.MethodPost, "/api/admin/deposits/"+itoa(deposit.ID)+"/status", map[string]string{"status": "approved"}, adminHeaders())
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/api/balance", nil, auth)
	require.Equal(t, http.StatusOK, status)
	var view struct {
		Balances []struct {
			Coin    string `json:"coin"`
			Balance string `json:"balance"`
		} `json:"balances"`
		TotalUSD string `json:"total_usd"`
	}
	decode(t, env.Data, &view)
	require.Len(t, view.Balances, len(models.SupportedCoins))
	assert.Equal(t, "USDT", view.Balances[0].Coin)
	assert.Equal(t, "250", view.Balances[0].Balance)
	assert.Equal(t, "250", view.TotalUSD)

	status, env = s.do(t, http.MethodGet, "/api/balance/history", nil, auth)
	require.Equal(t, http.StatusOK, status)
	var history []map[string]interface{}
	decode(t, env.Data, &history)
	assert.Len(t, history, 1)

	status, env = s.do(t, http.MethodGet, "/api/deposits", nil, auth)
	require.Equal(t, http.StatusOK, status)
	var mine []map[string]interface{}
	decode(t, env.Data, &mine)
	assert.Len(t, mine, 1)

	balance, err := s.ledger.Balance(uid, models.CoinUSDT)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(250)))
}

func TestWalletHandler_WithdrawAndConvert(t *testing.T) {
	s := newTestServer(t)
	uid, auth := s.signup(t, "alice")
	require.NoError(t, s.ledger.Credit(nil, uid, models.CoinUSDT, decimal.NewFromInt(130)))

	status, env := s.do(t, http.MethodPost, "/api/withdrawals", map[string]interface{}{"coin": "USDT", "amount": 500, "address": "TXYZ"}, auth)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "insufficient_balance", env.Error)

	status, _ = s.do(t, http.MethodPost, "/api/withdrawals", map[string]interface{}{"coin": "USDT", "amount": 30, "address": "TXYZ", "network": "TRC20"}, auth)
	require.Equal(t, http.StatusCreated, status)

	status, env = s.do(t, http.MethodPost, "/api/convert", map[string]interface{}{"from_coin": "USDT", "to_coin": "BTC", "amount": 65}, auth)
	require.Equal(t, http.StatusOK, status, env.Message)
	var converted struct {
		Received string `json:"received"`
		Rate     string `json:"rate"`
	}
	decode(t, env.Data, &converted)
	assert.Equal(t, "0.001", converted.Received)
	assert.Equal(t, "65000", converted.Rate)

	status, env = s.do(t, http.MethodPost, "/api/convert", map[string]interface{}{"from_coin": "BTC", "to_coin": "ETH", "amount": 0.001}, auth)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_conversion", env.Error)

	status, env = s.do(t, http.MethodGet, "/api/admin/withdrawals", nil, adminHeaders())
	require.Equal(t, http.StatusOK, status)
	var all []struct {
		ID uint `json:"id"`
	}
	decode(t, env.Data, &all)
	require.Len(t, all, 1)

	status, _ = s.do(t, http.MethodPost, "/api/admin/withdrawals/"+itoa(all[0].ID)+"/status", map[string]string{"status": "approved"}, adminHeaders())
	require.Equal(t, http.StatusOK, status)

	balance, err := s.ledger.Balance(uid, models.CoinUSDT)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(35)), balance.String())

	status, env = s.do(t, http.MethodPost, "/api/admin/withdrawals/999/status", map[string]string{"status": "approved"}, adminHeaders())
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "withdrawal_not_found", env.Error)
}

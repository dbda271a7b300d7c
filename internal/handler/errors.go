package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/service"
	"github.com/novachain/backend/pkg/response"
)

type errorMapping struct {
	err    error
	status int
	reason string
}

var errorMappings = []errorMapping{
	{service.ErrMissingFields, http.StatusBadRequest, "missing_fields"},
	{service.ErrUnsupportedSymbol, http.StatusBadRequest, "unsupported_symbol"},
	{service.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{service.ErrInsufficientBalance, http.StatusBadRequest, "insufficient_balance"},
	{service.ErrTradeNotFound, http.StatusNotFound, "trade_not_found"},
	{service.ErrInvalidMode, http.StatusBadRequest, "invalid_mode"},
	{service.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{service.ErrUnsupportedCoin, http.StatusBadRequest, "unsupported_coin"},
	{service.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{service.ErrInvalidConversion, http.StatusBadRequest, "invalid_conversion"},
	{service.ErrDepositNotFound, http.StatusNotFound, "deposit_not_found"},
	{service.ErrWithdrawalNotFound, http.StatusNotFound, "withdrawal_not_found"},
	{service.ErrUserExists, http.StatusConflict, "user_exists"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
}

// writeError maps a service error to its HTTP status and reason. Unknown
// errors are attached to the context for the request logger and reported
// as a generic 500.
func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			response.Fail(c, m.status, m.reason, m.err.Error())
			return
		}
	}
	_ = c.Error(err)
	response.Fail(c, http.StatusInternalServerError, "internal_error", "internal error")
}

func badRequest(c *gin.Context, err error) {
	response.Fail(c, http.StatusBadRequest, "invalid_request", err.Error())
}

// paramID parses the :id path parameter
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Fail(c, http.StatusBadRequest, "invalid_request", "invalid id")
		return 0, false
	}
	return uint(id), true
}

func queryLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

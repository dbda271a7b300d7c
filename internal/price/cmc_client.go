package price

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/novachain/backend/internal/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	quotesPath = "/v1/cryptocurrency/quotes/latest"
	apiKeyHdr  = "X-CMC_PRO_API_KEY"
	maxRetries = 3
)

// QuoteSource fetches live USD quotes
type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// CMCClient is a CoinMarketCap REST client.
// It implements QuoteSource.
type CMCClient struct {
	client    *resty.Client
	apiKey    string
	logger    *zap.Logger
	limiter   *rate.Limiter
	retryBase time.Duration
}

var _ QuoteSource = (*CMCClient)(nil)

// NewCMCClient creates a CoinMarketCap client from the price config
func NewCMCClient(cfg config.PriceConfig, logger *zap.Logger) *CMCClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &CMCClient{
		client:    client,
		apiKey:    cfg.APIKey,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		retryBase: time.Second,
	}
}

type quotesResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string]struct {
		Symbol string `json:"symbol"`
		Quote  map[string]struct {
			Price decimal.NullDecimal `json:"price"`
		} `json:"quote"`
	} `json:"data"`
}

// Quotes fetches the USD price of every symbol in one request.
// Symbols the upstream does not price are absent from the result.
func (c *CMCClient) Quotes(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader(apiKeyHdr, c.apiKey).
		SetQueryParam("symbol", strings.Join(symbols, ",")).
		SetResult(&quotesResponse{})

	resp, err := c.doRequest(ctx, http.MethodGet, quotesPath, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get quotes: %w", err)
	}

	result := resp.Result().(*quotesResponse)
	if result.Status.ErrorCode != 0 {
		return nil, fmt.Errorf("cmc error %d: %s", result.Status.ErrorCode, result.Status.ErrorMessage)
	}

	prices := make(map[string]decimal.Decimal, len(result.Data))
	for sym, entry := range result.Data {
		usd, ok := entry.Quote["USD"]
		if !ok || !usd.Price.Valid || !usd.Price.Decimal.IsPositive() {
			continue
		}
		prices[strings.ToUpper(sym)] = usd.Price.Decimal
	}
	return prices, nil
}

// doRequest executes req with rate limiting and retries on 429 and 5xx
func (c *CMCClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else {
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.retryBase
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err == nil {
		err = errors.New(resp.Status())
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/novachain/backend/internal/config"
	"github.com/novachain/backend/internal/events"
	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/internal/price"
	"github.com/novachain/backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMissingFields     = errors.New("missing required fields")
	ErrUnsupportedSymbol = errors.New("unsupported symbol")
	ErrUserNotFound      = repository.ErrUserNotFound
	ErrTradeNotFound     = repository.ErrTradeNotFound
)

const defaultSymbol = "BTC"

// Scheduler arranges for a trade to be settled once it is due
type Scheduler interface {
	Schedule(tradeID string, dueAt time.Time)
}

// TradeEngine owns the lifecycle of timed trades
type TradeEngine struct {
	db        *gorm.DB
	users     *repository.UserRepository
	trades    *repository.TradeRepository
	ledger    *BalanceLedger
	resolver  *ModeResolver
	oracle    price.PriceOracle
	publisher events.Publisher
	scheduler Scheduler
	cfg       config.TradeConfig
	logger    *zap.Logger

	random func() float64
	now    func() time.Time
}

// NewTradeEngine creates a new TradeEngine
func NewTradeEngine(
	db *gorm.DB,
	users *repository.UserRepository,
	trades *repository.TradeRepository,
	ledger *BalanceLedger,
	resolver *ModeResolver,
	oracle price.PriceOracle,
	publisher events.Publisher,
	cfg config.TradeConfig,
	logger *zap.Logger,
) *TradeEngine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TradeEngine{
		db:        db,
		users:     users,
		trades:    trades,
		ledger:    ledger,
		resolver:  resolver,
		oracle:    oracle,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		random:    rand.Float64,
		now:       time.Now,
	}
}

// SetScheduler sets the scheduler used for newly opened trades
func (e *TradeEngine) SetScheduler(s Scheduler) {
	e.scheduler = s
}

// SetRandom replaces the source of randomness; f must return values in [0,1)
func (e *TradeEngine) SetRandom(f func() float64) {
	e.random = f
}

// SetClock replaces the time source
func (e *TradeEngine) SetClock(now func() time.Time) {
	e.now = now
}

// OpenTradeRequest represents a request to open a timed trade
type OpenTradeRequest struct {
	UserID    uint            `json:"-"`
	Symbol    string          `json:"symbol"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	Duration  decimal.Decimal `json:"duration"`
}

// OpenTradeResult is returned once a trade is pending
type OpenTradeResult struct {
	Status     string                `json:"status"`
	TradeID    string                `json:"trade_id"`
	EntryPrice decimal.Decimal       `json:"entry_price"`
	Symbol     string                `json:"symbol"`
	Direction  models.TradeDirection `json:"direction"`
	Amount     decimal.Decimal       `json:"amount"`
	Duration   int                   `json:"duration"`
	DueAt      time.Time             `json:"due_at"`
}

// OpenTrade validates req, debits the stake and records a pending trade
func (e *TradeEngine) OpenTrade(ctx context.Context, req *OpenTradeRequest) (*OpenTradeResult, error) {
	if req.UserID == 0 || strings.TrimSpace(req.Direction) == "" || req.Amount.IsZero() || req.Duration.IsZero() {
		return nil, ErrMissingFields
	}

	symbol := models.NormalizeCoin(req.Symbol)
	if symbol == "" {
		symbol = defaultSymbol
	}
	if !models.IsTradableCoin(symbol) {
		return nil, ErrUnsupportedSymbol
	}

	direction := NormalizeDirection(req.Direction)
	amount := decimal.Max(req.Amount, decimal.NewFromFloat(e.cfg.MinAmount))
	duration := ClampDuration(req.Duration, e.cfg)

	user, err := e.users.GetByID(req.UserID)
	if err != nil {
		return nil, err
	}

	entryPrice, fallback := e.oracle.PriceOrFallback(ctx, symbol)

	now := e.now()
	trade := &models.Trade{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Symbol:     symbol,
		Direction:  direction,
		Amount:     amount,
		Duration:   duration,
		EntryPrice: entryPrice,
		Status:     models.TradeStatusPending,
		Profit:     decimal.Zero,
		DueAt:      now.Add(time.Duration(duration) * time.Second),
		CreatedAt:  now,
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := e.ledger.Debit(tx, user.ID, models.CoinUSDT, amount); err != nil {
			return err
		}
		return e.trades.WithTx(tx).Create(trade)
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return nil, err
		}
		return nil, fmt.Errorf("open trade: %w", err)
	}

	e.logger.Info("Trade opened",
		zap.String("trade_id", trade.ID),
		zap.Uint("user_id", user.ID),
		zap.String("symbol", symbol),
		zap.String("direction", string(direction)),
		zap.String("amount", amount.String()),
		zap.Int("duration", duration),
		zap.String("entry_price", entryPrice.String()),
		zap.Bool("fallback_price", fallback),
	)

	if e.scheduler != nil {
		e.scheduler.Schedule(trade.ID, trade.DueAt)
	}
	e.publish(ctx, events.TypeTradeOpened, trade)

	return &OpenTradeResult{
		Status:     "pending",
		TradeID:    trade.ID,
		EntryPrice: entryPrice,
		Symbol:     symbol,
		Direction:  direction,
		Amount:     amount,
		Duration:   duration,
		DueAt:      trade.DueAt,
	}, nil
}

// SettleTrade decides and commits the outcome of a pending trade.
// It reports false without error when the trade was already settled.
func (e *TradeEngine) SettleTrade(ctx context.Context, tradeID string) (*models.Trade, bool, error) {
	if e.cfg.SettleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SettleTimeout)
		defer cancel()
	}

	var settled *models.Trade
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trades := e.trades.WithTx(tx)

		trade, err := trades.GetByID(tradeID)
		if err != nil {
			return err
		}
		if !trade.IsPending() {
			return nil
		}

		mode, err := e.resolver.Resolve(tx, trade.UserID)
		if err != nil {
			return fmt.Errorf("resolve mode: %w", err)
		}

		result := e.decide(mode)
		percent := PayoutPercent(trade.Duration, e.cfg)
		profit := trade.Amount.Neg()
		if result == models.TradeStatusWin {
			profit = trade.Amount.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
		}
		exitPrice := displayPrice(trade.EntryPrice, trade.Direction, result, e.random(), trade.Symbol)
		settledAt := e.now()

		ok, err := trades.MarkSettled(trade.ID, result, profit, exitPrice, settledAt)
		if err != nil {
			return fmt.Errorf("mark settled: %w", err)
		}
		if !ok {
			return nil
		}

		if result == models.TradeStatusWin {
			if err := e.ledger.Credit(tx, trade.UserID, models.CoinUSDT, trade.Amount.Add(profit)); err != nil {
				return fmt.Errorf("credit payout: %w", err)
			}
		}
		if _, err := e.ledger.Snapshot(tx, trade.UserID, models.CoinUSDT, decimal.NewFromInt(1), models.SnapshotTradeSettlement); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}

		trade.Status = result
		trade.Profit = profit
		trade.SettlementPrice = decimal.NewNullDecimal(exitPrice)
		trade.SettledAt = &settledAt
		settled = trade

		e.logger.Info("Trade settled",
			zap.String("trade_id", trade.ID),
			zap.Uint("user_id", trade.UserID),
			zap.String("mode", string(mode)),
			zap.String("result", string(result)),
			zap.String("percent", percent.String()),
			zap.String("profit", profit.String()),
		)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if settled == nil {
		return nil, false, nil
	}

	e.publish(ctx, events.TypeTradeSettled, settled)
	return settled, true, nil
}

// decide returns the forced outcome of mode, or flips a fair coin
func (e *TradeEngine) decide(mode models.TradeMode) models.TradeStatus {
	if result, forced := mode.ForcedResult(); forced {
		return result
	}
	if e.random() < 0.5 {
		return models.TradeStatusWin
	}
	return models.TradeStatusLose
}

func (e *TradeEngine) publish(ctx context.Context, eventType string, trade *models.Trade) {
	event := events.TradeEvent{
		Type:       eventType,
		TradeID:    trade.ID,
		UserID:     trade.UserID,
		Symbol:     trade.Symbol,
		Direction:  string(trade.Direction),
		Amount:     trade.Amount,
		EntryPrice: trade.EntryPrice,
		Status:     string(trade.Status),
		Profit:     trade.Profit,
		ExitPrice:  trade.SettlementPrice,
		OccurredAt: e.now(),
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warn("Failed to publish trade event",
			zap.String("type", eventType),
			zap.String("trade_id", trade.ID),
			zap.Error(err),
		)
	}
}

// History returns every trade of a user, newest first
func (e *TradeEngine) History(userID uint) ([]models.Trade, error) {
	return e.trades.ListByUser(userID)
}

// PendingTrades returns unsettled trades, earliest due first
func (e *TradeEngine) PendingTrades(limit int) ([]models.Trade, error) {
	return e.trades.ListPending(limit)
}

// AdminTrade is a trade with its owner's username
type AdminTrade struct {
	models.Trade
	Username string `json:"username"`
}

// AllTrades returns the most recent trades of every user
func (e *TradeEngine) AllTrades(limit int) ([]AdminTrade, error) {
	trades, err := e.trades.ListAll(limit)
	if err != nil {
		return nil, err
	}
	out := make([]AdminTrade, 0, len(trades))
	for _, t := range trades {
		out = append(out, AdminTrade{Trade: t, Username: t.User.Username})
	}
	return out, nil
}

// NormalizeDirection maps free text to BUY or SELL. Anything that is not a
// recognised sell synonym is a BUY.
func NormalizeDirection(s string) models.TradeDirection {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SELL", "SHORT", "DOWN", "PUT":
		return models.DirectionSell
	default:
		return models.DirectionBuy
	}
}

// ClampDuration bounds seconds to the configured duration range, truncating
// any fraction. Out of range values are compared before conversion so huge
// inputs clamp to the maximum rather than overflowing.
func ClampDuration(seconds decimal.Decimal, cfg config.TradeConfig) int {
	if seconds.LessThan(decimal.NewFromInt(int64(cfg.MinDuration))) {
		return cfg.MinDuration
	}
	if seconds.GreaterThan(decimal.NewFromInt(int64(cfg.MaxDuration))) {
		return cfg.MaxDuration
	}
	return int(seconds.IntPart())
}

// PayoutPercent interpolates the payout rate linearly between the minimum
// and maximum durations, clamped and rounded to 2 dp.
func PayoutPercent(duration int, cfg config.TradeConfig) decimal.Decimal {
	minPct := decimal.NewFromFloat(cfg.MinPercent)
	maxPct := decimal.NewFromFloat(cfg.MaxPercent)
	if cfg.MaxDuration <= cfg.MinDuration {
		return maxPct.Round(2)
	}

	span := decimal.NewFromInt(int64(cfg.MaxDuration - cfg.MinDuration))
	elapsed := decimal.NewFromInt(int64(duration - cfg.MinDuration))
	pct := minPct.Add(elapsed.Mul(maxPct.Sub(minPct)).Div(span))

	if pct.LessThan(minPct) {
		pct = minPct
	}
	if pct.GreaterThan(maxPct) {
		pct = maxPct
	}
	return pct.Round(2)
}

var (
	volatility     = decimal.RequireFromString("0.006")
	halfVolatility = decimal.RequireFromString("0.003")
)

// displayPrice moves entry by up to 0.3% in the direction that agrees with
// the outcome. r must be in [0,1).
func displayPrice(entry decimal.Decimal, dir models.TradeDirection, result models.TradeStatus, r float64, symbol string) decimal.Decimal {
	change := decimal.NewFromFloat(r).Mul(volatility).Sub(halfVolatility).Mul(entry).Abs()

	up := (dir == models.DirectionBuy) == (result == models.TradeStatusWin)
	p := entry.Sub(change)
	if up {
		p = entry.Add(change)
	}

	places := int32(2)
	if symbol == "XRP" || symbol == "TON" {
		places = 4
	}
	return p.Round(places)
}

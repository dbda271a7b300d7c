package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	TypeTradeOpened  = "trade.opened"
	TypeTradeSettled = "trade.settled"
)

// TradeEvent describes a trade lifecycle transition
type TradeEvent struct {
	Type       string              `json:"type"`
	TradeID    string              `json:"trade_id"`
	UserID     uint                `json:"user_id"`
	Symbol     string              `json:"symbol"`
	Direction  string              `json:"direction"`
	Amount     decimal.Decimal     `json:"amount"`
	EntryPrice decimal.Decimal     `json:"entry_price"`
	Status     string              `json:"status"`
	Profit     decimal.Decimal     `json:"profit"`
	ExitPrice  decimal.NullDecimal `json:"settlement_price"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// Publisher delivers trade events. Publishing is best effort.
type Publisher interface {
	Publish(ctx context.Context, event TradeEvent) error
	Close() error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TradeEvent) error { return nil }
func (NopPublisher) Close() error                              { return nil }

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeDirection is the side a timed trade bets on
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "BUY"
	DirectionSell TradeDirection = "SELL"
)

// TradeStatus is the lifecycle state of a timed trade
type TradeStatus string

const (
	TradeStatusPending TradeStatus = "PENDING"
	TradeStatusWin     TradeStatus = "WIN"
	TradeStatusLose    TradeStatus = "LOSE"
)

// Trade is one stake-and-settle cycle. Rows are never deleted.
type Trade struct {
	ID              string              `gorm:"primaryKey;size:36" json:"id"`
	UserID          uint                `gorm:"index;not null" json:"user_id"`
	Symbol          string              `gorm:"size:10;not null" json:"symbol"`
	Direction       TradeDirection      `gorm:"size:4;not null" json:"direction"`
	Amount          decimal.Decimal     `gorm:"type:decimal(36,18);not null" json:"amount"`
	Duration        int                 `gorm:"not null" json:"duration"`
	EntryPrice      decimal.Decimal     `gorm:"type:decimal(36,18);not null" json:"entry_price"`
	Status          TradeStatus         `gorm:"size:10;not null;index:idx_trade_status_due" json:"result"`
	Profit          decimal.Decimal     `gorm:"type:decimal(36,18);not null;default:0" json:"profit"`
	SettlementPrice decimal.NullDecimal `gorm:"type:decimal(36,18)" json:"result_price"`
	DueAt           time.Time           `gorm:"not null;index:idx_trade_status_due" json:"due_at"`
	SettledAt       *time.Time          `json:"settled_at"`
	CreatedAt       time.Time           `gorm:"index" json:"timestamp"`
	UpdatedAt       time.Time           `json:"-"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for Trade model
func (Trade) TableName() string {
	return "trades"
}

// IsPending returns true if the trade has not been settled yet
func (t *Trade) IsPending() bool {
	return t.Status == TradeStatusPending
}

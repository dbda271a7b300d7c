package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CoinUSDT is the settlement currency for trades
const CoinUSDT = "USDT"

// SupportedCoins are the coins every user holds a balance row for
var SupportedCoins = []string{CoinUSDT, "BTC", "ETH", "SOL", "XRP", "TON"}

// TradableCoins are the coins a timed trade can be opened on
var TradableCoins = []string{"BTC", "ETH", "SOL", "XRP", "TON"}

// IsSupportedCoin reports whether coin is held in wallets
func IsSupportedCoin(coin string) bool {
	return contains(SupportedCoins, coin)
}

// IsTradableCoin reports whether coin can be traded
func IsTradableCoin(coin string) bool {
	return contains(TradableCoins, coin)
}

// NormalizeCoin upper-cases and trims a coin symbol
func NormalizeCoin(coin string) string {
	return strings.ToUpper(strings.TrimSpace(coin))
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// UserBalance is the quantity of one coin held by one user
type UserBalance struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	UserID    uint            `gorm:"uniqueIndex:idx_user_coin;not null" json:"user_id"`
	Coin      string          `gorm:"uniqueIndex:idx_user_coin;size:10;not null" json:"coin"`
	Balance   decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for UserBalance model
func (UserBalance) TableName() string {
	return "user_balances"
}

// SnapshotReason records what produced a balance snapshot
type SnapshotReason string

const (
	SnapshotTradeSettlement SnapshotReason = "trade_settlement"
	SnapshotDeposit         SnapshotReason = "deposit"
	SnapshotWithdrawal      SnapshotReason = "withdrawal"
	SnapshotConversion      SnapshotReason = "conversion"
)

// BalanceSnapshot is an append-only record of a balance at a point in time
type BalanceSnapshot struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index:idx_snapshot_user_coin;not null" json:"user_id"`
	Coin      string          `gorm:"index:idx_snapshot_user_coin;size:10;not null" json:"coin"`
	Balance   decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"balance"`
	PriceUSD  decimal.Decimal `gorm:"type:decimal(36,18)" json:"price_usd"`
	Reason    SnapshotReason  `gorm:"size:30" json:"reason"`
	CreatedAt time.Time       `gorm:"index" json:"timestamp"`
}

// TableName specifies the table name for BalanceSnapshot model
func (BalanceSnapshot) TableName() string {
	return "balance_history"
}

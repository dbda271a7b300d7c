package service

import (
	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInsufficientBalance = repository.ErrInsufficientBalance
)

// BalanceLedger mutates per-coin balances. Every mutation is a single
// guarded statement. A nil tx runs outside any transaction.
type BalanceLedger struct {
	balances *repository.BalanceRepository
}

// NewBalanceLedger creates a new BalanceLedger
func NewBalanceLedger(balances *repository.BalanceRepository) *BalanceLedger {
	return &BalanceLedger{balances: balances}
}

func (l *BalanceLedger) repo(tx *gorm.DB) *repository.BalanceRepository {
	if tx == nil {
		return l.balances
	}
	return l.balances.WithTx(tx)
}

// Seed creates zero rows for every supported coin
func (l *BalanceLedger) Seed(tx *gorm.DB, userID uint) error {
	return l.repo(tx).Seed(userID, models.SupportedCoins)
}

// Debit subtracts amount, or fails with ErrInsufficientBalance
func (l *BalanceLedger) Debit(tx *gorm.DB, userID uint, coin string, amount decimal.Decimal) error {
	return l.repo(tx).Debit(userID, coin, amount)
}

// Credit adds amount
func (l *BalanceLedger) Credit(tx *gorm.DB, userID uint, coin string, amount decimal.Decimal) error {
	return l.repo(tx).Credit(userID, coin, amount)
}

// Snapshot appends the current balance of coin to the history
func (l *BalanceLedger) Snapshot(tx *gorm.DB, userID uint, coin string, priceUSD decimal.Decimal, reason models.SnapshotReason) (*models.BalanceSnapshot, error) {
	return l.repo(tx).Snapshot(userID, coin, priceUSD, reason)
}

// Balance returns the balance of one coin
func (l *BalanceLedger) Balance(userID uint, coin string) (decimal.Decimal, error) {
	return l.balances.Get(userID, coin)
}

// Balances returns one entry per supported coin, zero when no row exists
func (l *BalanceLedger) Balances(userID uint) ([]models.UserBalance, error) {
	rows, err := l.balances.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	byCoin := make(map[string]models.UserBalance, len(rows))
	for _, row := range rows {
		byCoin[row.Coin] = row
	}

	out := make([]models.UserBalance, 0, len(models.SupportedCoins))
	for _, coin := range models.SupportedCoins {
		row, ok := byCoin[coin]
		if !ok {
			row = models.UserBalance{UserID: userID, Coin: coin, Balance: decimal.Zero}
		}
		out = append(out, row)
	}
	return out, nil
}

// History returns balance snapshots, newest first
func (l *BalanceLedger) History(userID uint, coin string, limit int) ([]models.BalanceSnapshot, error) {
	return l.balances.History(userID, coin, limit)
}

package repository

import (
	"errors"

	"github.com/novachain/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// BalanceRepository handles per-coin balance and snapshot data access
type BalanceRepository struct {
	db *gorm.DB
}

// NewBalanceRepository creates a new BalanceRepository
func NewBalanceRepository(db *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *BalanceRepository) WithTx(tx *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: tx}
}

// Seed creates a zero balance row for every coin that has none
func (r *BalanceRepository) Seed(userID uint, coins []string) error {
	rows := make([]models.UserBalance, 0, len(coins))
	for _, coin := range coins {
		rows = append(rows, models.UserBalance{UserID: userID, Coin: coin, Balance: decimal.Zero})
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Get returns the balance of one coin, zero when no row exists
func (r *BalanceRepository) Get(userID uint, coin string) (decimal.Decimal, error) {
	var row models.UserBalance
	result := r.db.Where("user_id = ? AND coin = ?", userID, coin).Limit(1).Find(&row)
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, nil
	}
	return row.Balance, nil
}

// ListByUser retrieves every balance row of a user
func (r *BalanceRepository) ListByUser(userID uint) ([]models.UserBalance, error) {
	var rows []models.UserBalance
	result := r.db.Where("user_id = ?", userID).Order("coin").Find(&rows)
	return rows, result.Error
}

// Debit atomically subtracts amount, refusing to go below zero
func (r *BalanceRepository) Debit(userID uint, coin string, amount decimal.Decimal) error {
	result := r.db.Model(&models.UserBalance{}).
		Where("user_id = ? AND coin = ? AND balance >= ?", userID, coin, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// Credit atomically adds amount, creating the row if needed
func (r *BalanceRepository) Credit(userID uint, coin string, amount decimal.Decimal) error {
	row := models.UserBalance{UserID: userID, Coin: coin, Balance: amount}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "coin"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("user_balances.balance + ?", amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&row).Error
}

// Snapshot appends the current balance of a coin to the history
func (r *BalanceRepository) Snapshot(userID uint, coin string, priceUSD decimal.Decimal, reason models.SnapshotReason) (*models.BalanceSnapshot, error) {
	balance, err := r.Get(userID, coin)
	if err != nil {
		return nil, err
	}
	snap := &models.BalanceSnapshot{
		UserID:   userID,
		Coin:     coin,
		Balance:  balance,
		PriceUSD: priceUSD,
		Reason:   reason,
	}
	if err := r.db.Create(snap).Error; err != nil {
		return nil, err
	}
	return snap, nil
}

// History retrieves snapshots newest first; empty coin means all coins
func (r *BalanceRepository) History(userID uint, coin string, limit int) ([]models.BalanceSnapshot, error) {
	var snaps []models.BalanceSnapshot
	query := r.db.Where("user_id = ?", userID)
	if coin != "" {
		query = query.Where("coin = ?", coin)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Order("created_at DESC").Order("id DESC").Find(&snaps)
	return snaps, result.Error
}

package repository

import (
	"errors"
	"time"

	"github.com/novachain/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrTradeNotFound = errors.New("trade not found")
)

// TradeRepository handles trade data access
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *TradeRepository) WithTx(tx *gorm.DB) *TradeRepository {
	return &TradeRepository{db: tx}
}

// Create creates a new trade
func (r *TradeRepository) Create(trade *models.Trade) error {
	return r.db.Create(trade).Error
}

// GetByID retrieves a trade by ID
func (r *TradeRepository) GetByID(id string) (*models.Trade, error) {
	var trade models.Trade
	result := r.db.Where("id = ?", id).First(&trade)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, result.Error
	}
	return &trade, nil
}

// ListByUser retrieves all trades for a user, newest first
func (r *TradeRepository) ListByUser(userID uint) ([]models.Trade, error) {
	var trades []models.Trade
	result := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&trades)
	return trades, result.Error
}

// ListAll retrieves the most recent trades of every user with the owner loaded
func (r *TradeRepository) ListAll(limit int) ([]models.Trade, error) {
	var trades []models.Trade
	query := r.db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	}).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&trades)
	return trades, result.Error
}

// ListPending retrieves pending trades ordered by due time
func (r *TradeRepository) ListPending(limit int) ([]models.Trade, error) {
	var trades []models.Trade
	query := r.db.Where("status = ?", models.TradeStatusPending).Order("due_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&trades)
	return trades, result.Error
}

// MarkSettled moves a pending trade to its terminal state.
// It reports false when the trade was no longer pending.
func (r *TradeRepository) MarkSettled(id string, status models.TradeStatus, profit, settlementPrice decimal.Decimal, settledAt time.Time) (bool, error) {
	result := r.db.Model(&models.Trade{}).
		Where("id = ? AND status = ?", id, models.TradeStatusPending).
		Updates(map[string]interface{}{
			"status":           status,
			"profit":           profit,
			"settlement_price": settlementPrice,
			"settled_at":       settledAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

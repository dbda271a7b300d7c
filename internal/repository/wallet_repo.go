package repository

import (
	"errors"

	"github.com/novachain/backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrDepositNotFound    = errors.New("deposit not found")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
)

// WalletRepository handles deposits, withdrawals and conversions
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

// CreateDeposit creates a new deposit request
func (r *WalletRepository) CreateDeposit(d *models.Deposit) error {
	return r.db.Create(d).Error
}

// GetDeposit retrieves a deposit by ID
func (r *WalletRepository) GetDeposit(id uint) (*models.Deposit, error) {
	var d models.Deposit
	result := r.db.First(&d, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, result.Error
	}
	return &d, nil
}

// ListDeposits retrieves deposits newest first; userID 0 means all users
func (r *WalletRepository) ListDeposits(userID uint) ([]models.Deposit, error) {
	var deposits []models.Deposit
	query := r.db.Order("created_at DESC").Order("id DESC")
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	result := query.Find(&deposits)
	return deposits, result.Error
}

// TransitionDeposit sets the status only if it currently equals from.
// It reports false when another writer changed it first.
func (r *WalletRepository) TransitionDeposit(id uint, from, to models.RequestStatus) (bool, error) {
	result := r.db.Model(&models.Deposit{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CreateWithdrawal creates a new withdrawal request
func (r *WalletRepository) CreateWithdrawal(w *models.Withdrawal) error {
	return r.db.Create(w).Error
}

// GetWithdrawal retrieves a withdrawal by ID
func (r *WalletRepository) GetWithdrawal(id uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	result := r.db.First(&w, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, result.Error
	}
	return &w, nil
}

// ListWithdrawals retrieves withdrawals newest first; userID 0 means all users
func (r *WalletRepository) ListWithdrawals(userID uint) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	query := r.db.Order("created_at DESC").Order("id DESC")
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	result := query.Find(&withdrawals)
	return withdrawals, result.Error
}

// TransitionWithdrawal sets the status only if it currently equals from
func (r *WalletRepository) TransitionWithdrawal(id uint, from, to models.RequestStatus) (bool, error) {
	result := r.db.Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CreateConversion records a completed conversion
func (r *WalletRepository) CreateConversion(c *models.Conversion) error {
	return r.db.Create(c).Error
}

// ListConversions retrieves the conversions of a user, newest first
func (r *WalletRepository) ListConversions(userID uint) ([]models.Conversion, error) {
	var conversions []models.Conversion
	result := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&conversions)
	return conversions, result.Error
}

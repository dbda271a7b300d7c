package repository

import (
	"errors"

	"github.com/novachain/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModeRepository stores the global trade mode and per-user overrides
type ModeRepository struct {
	db *gorm.DB
}

// NewModeRepository creates a new ModeRepository
func NewModeRepository(db *gorm.DB) *ModeRepository {
	return &ModeRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ModeRepository) WithTx(tx *gorm.DB) *ModeRepository {
	return &ModeRepository{db: tx}
}

// GetGlobal returns the stored global mode, or "" when unset
func (r *ModeRepository) GetGlobal() (models.TradeMode, error) {
	var setting models.Setting
	result := r.db.Where("key = ?", models.SettingTradeMode).Limit(1).Find(&setting)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", nil
	}
	return models.TradeMode(setting.Value), nil
}

// SetGlobal upserts the global mode
func (r *ModeRepository) SetGlobal(mode models.TradeMode) error {
	setting := models.Setting{Key: models.SettingTradeMode, Value: string(mode)}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// GetUser returns the override of a user, or "" when none is set
func (r *ModeRepository) GetUser(userID uint) (models.TradeMode, error) {
	var override models.UserTradeMode
	result := r.db.Where("user_id = ?", userID).First(&override)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return override.Mode, nil
}

// SetUser upserts the override of a user
func (r *ModeRepository) SetUser(userID uint, mode models.TradeMode) error {
	override := models.UserTradeMode{UserID: userID, Mode: mode}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mode", "updated_at"}),
	}).Create(&override).Error
}

// ClearUser removes the override of a user
func (r *ModeRepository) ClearUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.UserTradeMode{}).Error
}

// ListUsers returns every override keyed by user ID
func (r *ModeRepository) ListUsers() (map[uint]models.TradeMode, error) {
	var overrides []models.UserTradeMode
	if err := r.db.Find(&overrides).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]models.TradeMode, len(overrides))
	for _, o := range overrides {
		out[o.UserID] = o.Mode
	}
	return out, nil
}

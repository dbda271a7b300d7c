package service

import (
	"errors"
	"strings"

	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidMode = errors.New("invalid trade mode")
)

// ModeResolver decides which outcome bias applies to a user's settlement
type ModeResolver struct {
	modes *repository.ModeRepository
	users *repository.UserRepository
}

// NewModeResolver creates a new ModeResolver
func NewModeResolver(modes *repository.ModeRepository, users *repository.UserRepository) *ModeResolver {
	return &ModeResolver{modes: modes, users: users}
}

func (r *ModeResolver) repo(tx *gorm.DB) *repository.ModeRepository {
	if tx == nil {
		return r.modes
	}
	return r.modes.WithTx(tx)
}

// Resolve returns the user's override, else the global mode, else AUTO.
// Pass the settlement transaction so the read is consistent with the commit.
func (r *ModeResolver) Resolve(tx *gorm.DB, userID uint) (models.TradeMode, error) {
	repo := r.repo(tx)

	override, err := repo.GetUser(userID)
	if err != nil {
		return "", err
	}
	if override.IsOverride() {
		return override, nil
	}

	global, err := repo.GetGlobal()
	if err != nil {
		return "", err
	}
	if global.IsGlobal() {
		return global, nil
	}
	return models.ModeAuto, nil
}

// GlobalMode returns the current global mode
func (r *ModeResolver) GlobalMode() (models.TradeMode, error) {
	mode, err := r.modes.GetGlobal()
	if err != nil {
		return "", err
	}
	if !mode.IsGlobal() {
		return models.ModeAuto, nil
	}
	return mode, nil
}

// SetGlobalMode stores one of AUTO, ALL_WIN or ALL_LOSE
func (r *ModeResolver) SetGlobalMode(mode string) (models.TradeMode, error) {
	m := models.TradeMode(strings.ToUpper(strings.TrimSpace(mode)))
	if !m.IsGlobal() {
		return "", ErrInvalidMode
	}
	if err := r.modes.SetGlobal(m); err != nil {
		return "", err
	}
	return m, nil
}

// UserOverride returns the override of a user, or "" when none is set
func (r *ModeResolver) UserOverride(userID uint) (models.TradeMode, error) {
	if _, err := r.users.GetByID(userID); err != nil {
		return "", err
	}
	return r.modes.GetUser(userID)
}

// SetUserOverride stores WIN or LOSE for a user; an empty mode clears it
func (r *ModeResolver) SetUserOverride(userID uint, mode string) (models.TradeMode, error) {
	m := models.TradeMode(strings.ToUpper(strings.TrimSpace(mode)))
	if m != "" && m != "NULL" && !m.IsOverride() {
		return "", ErrInvalidMode
	}
	if _, err := r.users.GetByID(userID); err != nil {
		return "", err
	}
	if m == "" || m == "NULL" {
		return "", r.modes.ClearUser(userID)
	}
	if err := r.modes.SetUser(userID, m); err != nil {
		return "", err
	}
	return m, nil
}

// UserOverrides returns every override keyed by user ID
func (r *ModeResolver) UserOverrides() (map[uint]models.TradeMode, error) {
	return r.modes.ListUsers()
}

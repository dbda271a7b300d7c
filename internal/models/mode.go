package models

import "time"

// TradeMode biases the outcome of trade settlement
type TradeMode string

const (
	// Global modes
	ModeAuto    TradeMode = "AUTO"
	ModeAllWin  TradeMode = "ALL_WIN"
	ModeAllLose TradeMode = "ALL_LOSE"

	// Per-user overrides
	ModeWin  TradeMode = "WIN"
	ModeLose TradeMode = "LOSE"
)

// IsGlobal reports whether m may be stored as the global mode
func (m TradeMode) IsGlobal() bool {
	return m == ModeAuto || m == ModeAllWin || m == ModeAllLose
}

// IsOverride reports whether m may be stored as a per-user override
func (m TradeMode) IsOverride() bool {
	return m == ModeWin || m == ModeLose
}

// ForcedResult returns the outcome m forces, if any
func (m TradeMode) ForcedResult() (TradeStatus, bool) {
	switch m {
	case ModeWin, ModeAllWin:
		return TradeStatusWin, true
	case ModeLose, ModeAllLose:
		return TradeStatusLose, true
	default:
		return "", false
	}
}

// SettingTradeMode is the settings key holding the global mode
const SettingTradeMode = "TRADE_MODE"

// Setting is a single key/value configuration record
type Setting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Setting model
func (Setting) TableName() string {
	return "settings"
}

// UserTradeMode is a per-user outcome override
type UserTradeMode struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Mode      TradeMode `gorm:"size:10;not null" json:"mode"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserTradeMode model
func (UserTradeMode) TableName() string {
	return "user_trade_modes"
}

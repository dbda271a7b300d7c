package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the review state of a deposit or withdrawal
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// IsValid reports whether s is a known review state
func (s RequestStatus) IsValid() bool {
	return s == RequestPending || s == RequestApproved || s == RequestRejected
}

// Deposit is a user's claim of an incoming transfer awaiting admin review
type Deposit struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index;not null" json:"user_id"`
	Coin       string          `gorm:"size:10;not null" json:"coin"`
	Amount     decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"`
	Address    string          `gorm:"size:255;not null" json:"address"`
	Screenshot string          `gorm:"size:255" json:"screenshot"`
	Status     RequestStatus   `gorm:"size:10;not null;default:'pending'" json:"status"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Deposit model
func (Deposit) TableName() string {
	return "deposits"
}

// Withdrawal is a user's payout request awaiting admin review
type Withdrawal struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	Coin      string          `gorm:"size:10;not null" json:"coin"`
	Amount    decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"`
	Address   string          `gorm:"size:255;not null" json:"address"`
	Network   *string         `gorm:"size:30" json:"network"`
	Status    RequestStatus   `gorm:"size:10;not null;default:'pending'" json:"status"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Withdrawal model
func (Withdrawal) TableName() string {
	return "withdrawals"
}

// Conversion records a USDT/coin swap
type Conversion struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	FromCoin  string          `gorm:"size:10;not null" json:"from_coin"`
	ToCoin    string          `gorm:"size:10;not null" json:"to_coin"`
	Amount    decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"`
	Received  decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"received"`
	Rate      decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"rate"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Conversion model
func (Conversion) TableName() string {
	return "conversions"
}

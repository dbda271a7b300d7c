package models

import (
	"time"

	"gorm.io/gorm"
)

// KYCStatus represents the identity review state of a user
type KYCStatus string

const (
	KYCUnverified KYCStatus = "unverified"
	KYCPending    KYCStatus = "pending"
	KYCApproved   KYCStatus = "approved"
	KYCRejected   KYCStatus = "rejected"
)

// User represents a registered user
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	KYCStatus    KYCStatus      `gorm:"size:20;not null;default:'unverified'" json:"kyc_status"`
	KYCSelfie    string         `gorm:"size:255" json:"kyc_selfie,omitempty"`
	KYCIDCard    string         `gorm:"size:255" json:"kyc_id_card,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Balances []UserBalance `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

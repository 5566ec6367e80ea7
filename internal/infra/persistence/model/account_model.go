package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel mirrors the 'accounts' table. Nullable columns hold the optional
// credential and the two pending-secret slots.
type AccountModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name           string     `gorm:"type:varchar(255);not null"`
	Email          string     `gorm:"type:varchar(320);not null;uniqueIndex:idx_accounts_email"`
	ProviderID     *string    `gorm:"type:varchar(255);uniqueIndex:idx_accounts_provider_id"`
	PasswordHash   *string    `gorm:"type:varchar(255)"`
	Verified       bool       `gorm:"not null"`
	OTPCode        *string    `gorm:"column:otp_code;type:varchar(16)"`
	OTPExpiresAt   *time.Time `gorm:"column:otp_expires_at"`
	ResetTokenHash *string    `gorm:"type:varchar(128);index:idx_accounts_reset_token_hash"`
	ResetExpiresAt *time.Time `gorm:"column:reset_expires_at"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}

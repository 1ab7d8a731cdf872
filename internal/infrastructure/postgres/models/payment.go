package models

import (
	"time"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

type PaymentModel struct {
	ID              string               `gorm:"primaryKey;type:uuid"`
	Hash            string               `gorm:"uniqueIndex;not null"`
	MerchantID      string               `gorm:"index"`
	PaymentMethodID string               `gorm:"index"`
	Amount          string               `gorm:"type:numeric(78,0);not null"`
	TokenDecimals   uint8                `gorm:"type:smallint"`
	TokenSymbol     string
	NetworkID       string               `gorm:"index"`
	Status          domain.PaymentStatus `gorm:"index:idx_status_expires"`
	TxHash          string
	ExpiresAt       time.Time            `gorm:"index:idx_status_expires"`
	ConfirmedAt     *time.Time
	CreatedAt       time.Time            `gorm:"index:idx_created_at"`
	UpdatedAt       time.Time
}

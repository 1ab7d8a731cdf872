package models

import (
	"time"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

// PaymentEventModel rows are append-only: written on every transition,
// never updated or deleted.
type PaymentEventModel struct {
	ID        string               `gorm:"primaryKey;type:uuid"`
	PaymentID string               `gorm:"type:uuid;not null;index"`
	EventType string               `gorm:"not null"`
	OldStatus domain.PaymentStatus
	NewStatus domain.PaymentStatus
	Metadata  string               `gorm:"type:jsonb"`
	CreatedAt time.Time            `gorm:"not null"`
}

type RelayRequestModel struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	RelayRef  string    `gorm:"not null;index"`
	PaymentID string    `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time
}

// TokenModel is the payment-method registry row. This service only
// reads it; administration lives elsewhere.
type TokenModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Address   string `gorm:"not null"`
	Symbol    string
	Decimals  uint8  `gorm:"type:smallint"`
	NetworkID string `gorm:"index"`
}

package domain

import (
	"math/big"
	"time"
)

type PaymentStatus string

const (
	StatusCreated   PaymentStatus = "CREATED"
	StatusPending   PaymentStatus = "PENDING"
	StatusConfirmed PaymentStatus = "CONFIRMED"
	StatusFailed    PaymentStatus = "FAILED"
	StatusExpired   PaymentStatus = "EXPIRED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// allowedTransitions lists the forward-only moves of the payment state machine.
var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	StatusCreated: {StatusPending, StatusConfirmed, StatusFailed, StatusExpired},
	StatusPending: {StatusConfirmed, StatusFailed, StatusExpired},
}

func CanTransition(from, to PaymentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Payment is the authoritative ledger record of one checkout attempt.
// Hash and Amount are immutable after creation: reconciliation trusts
// them as the oracle against on-chain settlement.
type Payment struct {
	ID              string
	Hash            string
	MerchantID      string
	PaymentMethodID string
	Amount          *big.Int
	TokenDecimals   uint8
	TokenSymbol     string
	NetworkID       string
	Status          PaymentStatus
	TxHash          string
	ExpiresAt       time.Time
	ConfirmedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const (
	EventCreated       = "CREATED"
	EventStatusChanged = "STATUS_CHANGED"
)

// PaymentEvent is an append-only audit row written on every transition.
type PaymentEvent struct {
	ID        string
	PaymentID string
	EventType string
	OldStatus PaymentStatus
	NewStatus PaymentStatus
	Metadata  string
	CreatedAt time.Time
}

// RelayRequest links a payment to an outstanding relay submission.
type RelayRequest struct {
	ID        string
	RelayRef  string
	PaymentID string
	CreatedAt time.Time
}

// Token is the read-only registry row backing a payment method. Managed
// elsewhere; this service only reads it for metadata fallback.
type Token struct {
	ID        string
	Address   string
	Symbol    string
	Decimals  uint8
	NetworkID string
}

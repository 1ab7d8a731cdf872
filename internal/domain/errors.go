package domain

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrRelayRequestNotFound = errors.New("relay request not found")
	ErrTokenNotFound        = errors.New("token not found")
	ErrPaymentHashExists    = errors.New("payment hash already exists")
	ErrPaymentNotPayable    = errors.New("payment is not in a payable status")
	ErrDeadlineOverflow     = errors.New("deadline does not fit uint48")
	ErrDeadlineExpired      = errors.New("deadline is in the past")
	ErrBadSignature         = errors.New("signature does not match sender")
	ErrUnexpectedSelector   = errors.New("calldata is not a pay authorization")
	ErrWaitTimeout          = errors.New("wait for terminal status timed out")
)

// InvalidTransitionError rejects a backward or out-of-order status move.
type InvalidTransitionError struct {
	PaymentID string
	From      PaymentStatus
	To        PaymentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s for payment %s", e.From, e.To, e.PaymentID)
}

// AmountMismatchError reports a disagreement between the ledger amount
// and an observed amount. It is surfaced, never auto-resolved in favor
// of either side.
type AmountMismatchError struct {
	PaymentHash string
	Expected    *big.Int
	Actual      *big.Int
	TxHash      string
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch for payment %s: ledger=%s observed=%s tx=%s",
		e.PaymentHash, e.Expected.String(), e.Actual.String(), e.TxHash)
}

type RelayErrorKind string

const (
	RelayErrAuth          RelayErrorKind = "auth_failure"
	RelayErrFunds         RelayErrorKind = "insufficient_relayer_funds"
	RelayErrNonceConflict RelayErrorKind = "nonce_conflict"
	RelayErrNotFound      RelayErrorKind = "not_found"
	RelayErrProvider      RelayErrorKind = "provider"
)

// RelayError classifies relay-side failures so callers can decide
// between retrying and surfacing to the user.
type RelayError struct {
	Kind    RelayErrorKind
	Message string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay error (%s): %s", e.Kind, e.Message)
}

// Retryable reports whether the failure is worth another attempt.
func (e *RelayError) Retryable() bool {
	return e.Kind == RelayErrNonceConflict || e.Kind == RelayErrProvider
}

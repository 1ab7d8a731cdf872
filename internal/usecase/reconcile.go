package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

type ReconcileAction int

const (
	// ReconcileNone: nothing to do — no settlement yet, or the ledger
	// is already terminal.
	ReconcileNone ReconcileAction = iota
	// ReconcileConfirm: settlement amount matches the ledger, advance
	// to CONFIRMED.
	ReconcileConfirm
	// ReconcileMismatch: settlement amount disagrees with the ledger.
	// The ledger is never advanced; the mismatch is surfaced.
	ReconcileMismatch
)

type ReconcileDecision struct {
	Action   ReconcileAction
	Mismatch *domain.AmountMismatchError
}

// Reconcile merges ledger state with a chain observation. The chain is
// authoritative for occurrence, the ledger for amount: both must agree
// before the payment is confirmed. Pure; no network access.
func Reconcile(payment *domain.Payment, observation *domain.SettlementEvent) ReconcileDecision {
	if observation == nil || payment.Status.Terminal() {
		return ReconcileDecision{Action: ReconcileNone}
	}
	if observation.Amount == nil || observation.Amount.Cmp(payment.Amount) != 0 {
		return ReconcileDecision{
			Action: ReconcileMismatch,
			Mismatch: &domain.AmountMismatchError{
				PaymentHash: payment.Hash,
				Expected:    payment.Amount,
				Actual:      observation.Amount,
				TxHash:      observation.TxHash,
			},
		}
	}
	return ReconcileDecision{Action: ReconcileConfirm}
}

// GetPaymentStatus answers a status query, reconciling the ledger with
// on-chain settlement first. A mismatch returns the unchanged payment
// together with the AmountMismatchError for the caller to surface.
func (uc *DefaultPaymentUsecase) GetPaymentStatus(ctx context.Context, hash string) (*domain.Payment, error) {
	payment, err := uc.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return payment, nil
	}

	started := time.Now()
	observation, err := uc.Settlements.SettlementByHash(ctx, payment.Hash)
	if err != nil {
		return nil, fmt.Errorf("query settlement for payment %s: %w", hash, err)
	}
	if uc.Metrics != nil {
		uc.Metrics.ReconcileDuration.WithLabelValues(payment.NetworkID).Observe(time.Since(started).Seconds())
	}

	decision := Reconcile(payment, observation)
	switch decision.Action {
	case ReconcileMismatch:
		if uc.Metrics != nil {
			uc.Metrics.AmountMismatchTotal.WithLabelValues(payment.NetworkID).Inc()
		}
		slog.Error("settlement amount mismatch",
			"payment_hash", payment.Hash,
			"ledger_amount", decision.Mismatch.Expected.String(),
			"settled_amount", decision.Mismatch.Actual.String(),
			"tx_hash", decision.Mismatch.TxHash)
		return payment, decision.Mismatch

	case ReconcileConfirm:
		updated, err := uc.Transition(ctx, payment.ID, domain.StatusConfirmed, observation.TxHash)
		if err != nil {
			// A concurrent transition beat us into a terminal state;
			// terminal states are never revisited.
			var invalid *domain.InvalidTransitionError
			if errors.As(err, &invalid) {
				return uc.PaymentRepo.GetPaymentByID(payment.ID)
			}
			return nil, err
		}
		return updated, nil
	}

	return payment, nil
}

package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

// Transition moves a payment forward in its state machine. The repo
// serializes concurrent transitions on the same payment; the cache copy
// is invalidated synchronously before returning so readers never see
// stale status. Repeating a transition into the current status is a
// no-op: no event row, no second confirmed_at.
func (uc *DefaultPaymentUsecase) Transition(ctx context.Context, paymentID string, newStatus domain.PaymentStatus, txHash string) (*domain.Payment, error) {
	var event *domain.PaymentEvent

	payment, err := uc.PaymentRepo.TransitionPayment(paymentID, func(p *domain.Payment) (*domain.PaymentEvent, error) {
		if p.Status == newStatus {
			return nil, nil
		}
		if !domain.CanTransition(p.Status, newStatus) {
			return nil, &domain.InvalidTransitionError{PaymentID: p.ID, From: p.Status, To: newStatus}
		}

		oldStatus := p.Status
		p.Status = newStatus
		if txHash != "" {
			p.TxHash = txHash
		}
		now := time.Now()
		if newStatus == domain.StatusConfirmed && p.ConfirmedAt == nil {
			p.ConfirmedAt = &now
		}

		event = &domain.PaymentEvent{
			ID:        uuid.New().String(),
			PaymentID: p.ID,
			EventType: domain.EventStatusChanged,
			OldStatus: oldStatus,
			NewStatus: newStatus,
			CreatedAt: now,
		}
		return event, nil
	})
	if err != nil {
		return nil, err
	}

	uc.Cache.Delete(ctx, paymentCacheKey(payment.Hash))

	if event != nil {
		uc.countTransition(payment, newStatus)
		uc.publishEvent(event, payment)
	}

	return payment, nil
}

func (uc *DefaultPaymentUsecase) countTransition(payment *domain.Payment, newStatus domain.PaymentStatus) {
	if uc.Metrics == nil {
		return
	}
	switch newStatus {
	case domain.StatusConfirmed:
		uc.Metrics.PaymentsConfirmedTotal.WithLabelValues(payment.MerchantID, payment.NetworkID).Inc()
	case domain.StatusFailed:
		uc.Metrics.PaymentsFailedTotal.WithLabelValues(payment.MerchantID, payment.NetworkID).Inc()
	case domain.StatusExpired:
		uc.Metrics.PaymentsExpiredTotal.WithLabelValues(payment.MerchantID, payment.NetworkID).Inc()
	}
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

// ExpireOverduePayments moves payments past their deadline to EXPIRED.
// A payment that reached a terminal state between the query and the
// transition is skipped, not an error.
func (uc *DefaultPaymentUsecase) ExpireOverduePayments(ctx context.Context) error {
	payments, err := uc.PaymentRepo.FindOverduePayments()
	if err != nil {
		return err
	}

	for _, payment := range payments {
		if _, err := uc.Transition(ctx, payment.ID, domain.StatusExpired, ""); err != nil {
			var invalid *domain.InvalidTransitionError
			if errors.As(err, &invalid) {
				continue
			}
			slog.Error("failed to expire payment", "payment_id", payment.ID, "error", err.Error())
		}
	}
	return nil
}

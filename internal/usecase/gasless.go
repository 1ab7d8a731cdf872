package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

// SubmitGasless validates a signed forward request against the ledger
// and relays it. The amount encoded in the signed calldata must equal
// the ledger amount exactly; this is the primary defense against a
// client altering the amount after receiving a quote.
func (uc *DefaultPaymentUsecase) SubmitGasless(ctx context.Context, hash string, req *domain.ForwardRequest) (*domain.RelaySubmission, error) {
	payment, err := uc.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.StatusCreated && payment.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: payment %s is %s", domain.ErrPaymentNotPayable, payment.Hash, payment.Status)
	}

	if err := uc.Codec.Validate(req); err != nil {
		return nil, err
	}
	authorizedHash, authorizedAmount, err := uc.Codec.DecodeAuthorizedCall(req.Data)
	if err != nil {
		return nil, err
	}
	if authorizedHash != payment.Hash {
		return nil, fmt.Errorf("%w: calldata is keyed by %s, payment is %s",
			domain.ErrValidation, authorizedHash, payment.Hash)
	}
	if authorizedAmount.Cmp(payment.Amount) != 0 {
		return nil, &domain.AmountMismatchError{
			PaymentHash: payment.Hash,
			Expected:    payment.Amount,
			Actual:      authorizedAmount,
		}
	}

	submission, err := uc.Relay.SubmitForward(ctx, req)
	if err != nil {
		var relayErr *domain.RelayError
		if errors.As(err, &relayErr) && uc.Metrics != nil {
			uc.Metrics.RelayErrorsTotal.WithLabelValues(string(relayErr.Kind)).Inc()
		}
		return nil, err
	}
	if uc.Metrics != nil {
		uc.Metrics.RelaySubmissionsTotal.WithLabelValues("gasless").Inc()
	}

	if err := uc.PaymentRepo.SaveRelayRequest(&domain.RelayRequest{
		ID:        uuid.New().String(),
		RelayRef:  submission.TransactionID,
		PaymentID: payment.ID,
		CreatedAt: time.Now(),
	}); err != nil {
		slog.Error("failed to persist relay request link",
			"payment_id", payment.ID, "relay_ref", submission.TransactionID, "error", err.Error())
	}

	if payment.Status == domain.StatusCreated {
		if _, err := uc.Transition(ctx, payment.ID, domain.StatusPending, ""); err != nil {
			slog.Error("failed to move payment to PENDING after relay submission",
				"payment_id", payment.ID, "error", err.Error())
		}
	}

	return submission, nil
}

// GetRelayStatusForPayment resolves the latest relay submission linked
// to the payment and asks the relay for its current state.
func (uc *DefaultPaymentUsecase) GetRelayStatusForPayment(ctx context.Context, hash string) (*domain.RelaySubmission, error) {
	payment, err := uc.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	link, err := uc.PaymentRepo.GetRelayRequestByPaymentID(payment.ID)
	if err != nil {
		return nil, err
	}
	return uc.Relay.Status(ctx, link.RelayRef)
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/meridianpay/relay-payment-service/internal/domain"
	paymentdto "github.com/meridianpay/relay-payment-service/internal/usecase/dto/payment"
)

func (uc *DefaultPaymentUsecase) CreatePayment(ctx context.Context, input *paymentdto.CreatePaymentInput) (*domain.Payment, error) {
	amount, ok := new(big.Int).SetString(input.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive base-unit integer, got %q", domain.ErrValidation, input.Amount)
	}
	if input.MerchantID == "" || input.PaymentMethodID == "" {
		return nil, fmt.Errorf("%w: merchant and payment method are required", domain.ErrValidation)
	}

	token, err := uc.TokenRepo.GetTokenByID(input.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	// Token metadata comes from the chain; the stored registry row is
	// the fallback when the RPC read fails.
	symbol, decimals := token.Symbol, token.Decimals
	if uc.TokenMeta != nil {
		chainSymbol, chainDecimals, err := uc.TokenMeta.TokenMetadata(ctx, token.Address)
		if err != nil {
			slog.Warn("token metadata read failed, using stored values",
				"token", token.Address, "error", err.Error())
		} else {
			symbol, decimals = chainSymbol, chainDecimals
		}
	}

	ttl := defaultPaymentTTL
	if input.TTLSeconds > 0 {
		ttl = time.Duration(input.TTLSeconds) * time.Second
	}

	now := time.Now()
	id := uuid.New().String()
	payment := &domain.Payment{
		ID:              id,
		Hash:            paymentHash(input, amount, id),
		MerchantID:      input.MerchantID,
		PaymentMethodID: input.PaymentMethodID,
		Amount:          amount,
		TokenDecimals:   decimals,
		TokenSymbol:     symbol,
		NetworkID:       input.NetworkID,
		Status:          domain.StatusCreated,
		ExpiresAt:       now.Add(ttl),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	event := &domain.PaymentEvent{
		ID:        uuid.New().String(),
		PaymentID: id,
		EventType: domain.EventCreated,
		NewStatus: domain.StatusCreated,
		CreatedAt: now,
	}

	if err := uc.PaymentRepo.CreatePayment(payment, event); err != nil {
		return nil, err
	}

	if uc.Metrics != nil {
		uc.Metrics.PaymentsCreatedTotal.WithLabelValues(payment.MerchantID, payment.NetworkID, payment.TokenSymbol).Inc()
	}
	uc.publishEvent(event, payment)

	return payment, nil
}

// paymentHash derives the content-addressed identifier the settlement
// contract will be keyed by. The payment id salts it so a merchant
// retrying the same checkout gets a fresh hash.
func paymentHash(input *paymentdto.CreatePaymentInput, amount *big.Int, id string) string {
	digest := crypto.Keccak256(
		[]byte(input.MerchantID),
		[]byte(input.PaymentMethodID),
		amount.Bytes(),
		[]byte(input.NetworkID),
		[]byte(id),
	)
	return hexutil.Encode(digest)
}

func (uc *DefaultPaymentUsecase) publishEvent(event *domain.PaymentEvent, payment *domain.Payment) {
	if uc.Publisher == nil {
		return
	}
	go func() {
		if err := uc.Publisher.PublishPaymentEvent(event, payment); err != nil {
			slog.Error("failed to publish payment event",
				"payment_id", payment.ID, "event_type", event.EventType, "error", err.Error())
		}
	}()
}

package usecase

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

// cachedPayment is the cache-serializable shape of a payment. Amount is
// kept as a decimal string to avoid float precision loss.
type cachedPayment struct {
	ID              string                `json:"id"`
	Hash            string                `json:"hash"`
	MerchantID      string                `json:"merchant_id"`
	PaymentMethodID string                `json:"payment_method_id"`
	Amount          string                `json:"amount"`
	TokenDecimals   uint8                 `json:"token_decimals"`
	TokenSymbol     string                `json:"token_symbol"`
	NetworkID       string                `json:"network_id"`
	Status          domain.PaymentStatus  `json:"status"`
	TxHash          string                `json:"tx_hash"`
	ExpiresAt       time.Time             `json:"expires_at"`
	ConfirmedAt     *time.Time            `json:"confirmed_at"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func encodeCachedPayment(p *domain.Payment) ([]byte, error) {
	return json.Marshal(cachedPayment{
		ID:              p.ID,
		Hash:            p.Hash,
		MerchantID:      p.MerchantID,
		PaymentMethodID: p.PaymentMethodID,
		Amount:          p.Amount.String(),
		TokenDecimals:   p.TokenDecimals,
		TokenSymbol:     p.TokenSymbol,
		NetworkID:       p.NetworkID,
		Status:          p.Status,
		TxHash:          p.TxHash,
		ExpiresAt:       p.ExpiresAt,
		ConfirmedAt:     p.ConfirmedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	})
}

func decodeCachedPayment(raw []byte) (*domain.Payment, error) {
	var c cachedPayment
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	amount, ok := new(big.Int).SetString(c.Amount, 10)
	if !ok {
		amount = big.NewInt(0)
	}
	return &domain.Payment{
		ID:              c.ID,
		Hash:            c.Hash,
		MerchantID:      c.MerchantID,
		PaymentMethodID: c.PaymentMethodID,
		Amount:          amount,
		TokenDecimals:   c.TokenDecimals,
		TokenSymbol:     c.TokenSymbol,
		NetworkID:       c.NetworkID,
		Status:          c.Status,
		TxHash:          c.TxHash,
		ExpiresAt:       c.ExpiresAt,
		ConfirmedAt:     c.ConfirmedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}, nil
}

// FindByHash is the cache-aside read path: cache first, postgres on
// miss, populate on the way back. A down cache just means every read
// falls through.
func (uc *DefaultPaymentUsecase) FindByHash(ctx context.Context, hash string) (*domain.Payment, error) {
	key := paymentCacheKey(hash)
	if raw, ok := uc.Cache.Get(ctx, key); ok {
		if payment, err := decodeCachedPayment(raw); err == nil {
			return payment, nil
		}
	}

	payment, err := uc.PaymentRepo.GetPaymentByHash(hash)
	if err != nil {
		return nil, err
	}
	if raw, err := encodeCachedPayment(payment); err == nil {
		uc.Cache.Set(ctx, key, raw, 0)
	}
	return payment, nil
}

func (uc *DefaultPaymentUsecase) FindByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return uc.PaymentRepo.GetPaymentByID(paymentID)
}

package payment

import (
	"time"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

type PaymentOutput struct {
	ID            string     `json:"id"`
	Hash          string     `json:"hash"`
	MerchantID    string     `json:"merchantId"`
	Amount        string     `json:"amount"`
	TokenSymbol   string     `json:"tokenSymbol"`
	TokenDecimals uint8      `json:"tokenDecimals"`
	NetworkID     string     `json:"networkId"`
	Status        string     `json:"status"`
	TxHash        string     `json:"txHash,omitempty"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func ToPaymentOutput(p *domain.Payment) *PaymentOutput {
	return &PaymentOutput{
		ID:            p.ID,
		Hash:          p.Hash,
		MerchantID:    p.MerchantID,
		Amount:        p.Amount.String(),
		TokenSymbol:   p.TokenSymbol,
		TokenDecimals: p.TokenDecimals,
		NetworkID:     p.NetworkID,
		Status:        string(p.Status),
		TxHash:        p.TxHash,
		ExpiresAt:     p.ExpiresAt,
		ConfirmedAt:   p.ConfirmedAt,
		CreatedAt:     p.CreatedAt,
	}
}

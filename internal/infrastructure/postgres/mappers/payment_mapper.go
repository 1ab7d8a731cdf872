package mappers

import (
	"math/big"

	"github.com/meridianpay/relay-payment-service/internal/domain"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/postgres/models"
)

func ToGORMPayment(payment *domain.Payment) *models.PaymentModel {
	amount := "0"
	if payment.Amount != nil {
		amount = payment.Amount.String()
	}
	return &models.PaymentModel{
		ID:              payment.ID,
		Hash:            payment.Hash,
		MerchantID:      payment.MerchantID,
		PaymentMethodID: payment.PaymentMethodID,
		Amount:          amount,
		TokenDecimals:   payment.TokenDecimals,
		TokenSymbol:     payment.TokenSymbol,
		NetworkID:       payment.NetworkID,
		Status:          payment.Status,
		TxHash:          payment.TxHash,
		ExpiresAt:       payment.ExpiresAt,
		ConfirmedAt:     payment.ConfirmedAt,
		CreatedAt:       payment.CreatedAt,
		UpdatedAt:       payment.UpdatedAt,
	}
}

func ToDomainPayment(model *models.PaymentModel) *domain.Payment {
	amount, ok := new(big.Int).SetString(model.Amount, 10)
	if !ok {
		amount = big.NewInt(0)
	}
	return &domain.Payment{
		ID:              model.ID,
		Hash:            model.Hash,
		MerchantID:      model.MerchantID,
		PaymentMethodID: model.PaymentMethodID,
		Amount:          amount,
		TokenDecimals:   model.TokenDecimals,
		TokenSymbol:     model.TokenSymbol,
		NetworkID:       model.NetworkID,
		Status:          model.Status,
		TxHash:          model.TxHash,
		ExpiresAt:       model.ExpiresAt,
		ConfirmedAt:     model.ConfirmedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func ToGORMPaymentEvent(event *domain.PaymentEvent) *models.PaymentEventModel {
	return &models.PaymentEventModel{
		ID:        event.ID,
		PaymentID: event.PaymentID,
		EventType: event.EventType,
		OldStatus: event.OldStatus,
		NewStatus: event.NewStatus,
		Metadata:  event.Metadata,
		CreatedAt: event.CreatedAt,
	}
}

func ToDomainRelayRequest(model *models.RelayRequestModel) *domain.RelayRequest {
	return &domain.RelayRequest{
		ID:        model.ID,
		RelayRef:  model.RelayRef,
		PaymentID: model.PaymentID,
		CreatedAt: model.CreatedAt,
	}
}

func ToDomainToken(model *models.TokenModel) *domain.Token {
	return &domain.Token{
		ID:        model.ID,
		Address:   model.Address,
		Symbol:    model.Symbol,
		Decimals:  model.Decimals,
		NetworkID: model.NetworkID,
	}
}

package usecase

import (
	"context"
	"time"

	"github.com/meridianpay/relay-payment-service/internal/domain"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/forwarder"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/metrics"
	paymentdto "github.com/meridianpay/relay-payment-service/internal/usecase/dto/payment"
)

const defaultPaymentTTL = 15 * time.Minute

type PaymentUsecase interface {
	CreatePayment(ctx context.Context, input *paymentdto.CreatePaymentInput) (*domain.Payment, error)
	Transition(ctx context.Context, paymentID string, newStatus domain.PaymentStatus, txHash string) (*domain.Payment, error)

	FindByID(ctx context.Context, paymentID string) (*domain.Payment, error)
	FindByHash(ctx context.Context, hash string) (*domain.Payment, error)

	// GetPaymentStatus is the reconciling read: it cross-checks the
	// ledger against on-chain settlement before answering.
	GetPaymentStatus(ctx context.Context, hash string) (*domain.Payment, error)

	SubmitGasless(ctx context.Context, hash string, req *domain.ForwardRequest) (*domain.RelaySubmission, error)
	GetRelayStatusForPayment(ctx context.Context, hash string) (*domain.RelaySubmission, error)

	ExpireOverduePayments(ctx context.Context) error
}

type DefaultPaymentUsecase struct {
	PaymentRepo domain.PaymentRepository
	TokenRepo   domain.TokenRepository
	Cache       domain.CachePort
	Settlements domain.SettlementReader
	TokenMeta   domain.TokenMetadataReader
	Relay       domain.RelaySubmitter
	Codec       *forwarder.Codec
	Publisher   domain.PaymentEventPublisher
	Metrics     *metrics.PaymentMetrics
}

func NewDefaultPaymentUsecase(
	paymentRepo domain.PaymentRepository,
	tokenRepo domain.TokenRepository,
	cache domain.CachePort,
	settlements domain.SettlementReader,
	tokenMeta domain.TokenMetadataReader,
	relay domain.RelaySubmitter,
	codec *forwarder.Codec,
	publisher domain.PaymentEventPublisher,
	paymentMetrics *metrics.PaymentMetrics) *DefaultPaymentUsecase {

	return &DefaultPaymentUsecase{
		PaymentRepo: paymentRepo,
		TokenRepo:   tokenRepo,
		Cache:       cache,
		Settlements: settlements,
		TokenMeta:   tokenMeta,
		Relay:       relay,
		Codec:       codec,
		Publisher:   publisher,
		Metrics:     paymentMetrics,
	}
}

func paymentCacheKey(hash string) string {
	return "payment:" + hash
}

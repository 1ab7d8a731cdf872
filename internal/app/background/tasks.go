package background

import (
	"context"
	"log"
	"math/big"
	"time"

	"github.com/meridianpay/relay-payment-service/internal/infrastructure/metrics"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/relayer"
	"github.com/meridianpay/relay-payment-service/internal/usecase"
)

type BackgroundTasks struct {
	PaymentUsecase usecase.PaymentUsecase
	RelayService   *relayer.Service
	Metrics        *metrics.PaymentMetrics
}

func NewBackgroundTasks(paymentUC usecase.PaymentUsecase, relayService *relayer.Service, m *metrics.PaymentMetrics) *BackgroundTasks {
	return &BackgroundTasks{
		PaymentUsecase: paymentUC,
		RelayService:   relayService,
		Metrics:        m,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startPaymentExpiry(ctx)
	go bt.startRelayerBalanceUpdate(ctx)
}

func (bt *BackgroundTasks) startPaymentExpiry(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := bt.PaymentUsecase.ExpireOverduePayments(ctx); err != nil {
				log.Printf("Payment expiry error: %v\n", err)
			}
		}
	}
}

func (bt *BackgroundTasks) startRelayerBalanceUpdate(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			address, balance, err := bt.RelayService.Health(ctx)
			if err != nil {
				log.Printf("Relayer balance check failed: %v", err)
				continue
			}
			if bt.Metrics != nil {
				wei, _ := new(big.Float).SetInt(balance).Float64()
				bt.Metrics.RelayerBalance.WithLabelValues(address).Set(wei)
			}
		}
	}
}

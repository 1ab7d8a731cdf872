package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics covers the payment ledger and the relay engine.
type PaymentMetrics struct {
	PaymentsCreatedTotal   prometheus.CounterVec
	PaymentsConfirmedTotal prometheus.CounterVec
	PaymentsFailedTotal    prometheus.CounterVec
	PaymentsExpiredTotal   prometheus.CounterVec

	AmountMismatchTotal prometheus.CounterVec

	RelaySubmissionsTotal prometheus.CounterVec
	RelayErrorsTotal      prometheus.CounterVec

	RelayerBalance prometheus.GaugeVec

	ReconcileDuration prometheus.HistogramVec
}

func NewPaymentMetrics() *PaymentMetrics {
	return &PaymentMetrics{
		PaymentsCreatedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_created_total",
				Help: "Payments created in the ledger",
			},
			[]string{"merchant_id", "network_id", "token_symbol"},
		),

		PaymentsConfirmedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_confirmed_total",
				Help: "Payments confirmed against on-chain settlement",
			},
			[]string{"merchant_id", "network_id"},
		),

		PaymentsFailedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_failed_total",
				Help: "Payments that reached FAILED",
			},
			[]string{"merchant_id", "network_id"},
		),

		PaymentsExpiredTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_expired_total",
				Help: "Payments expired before settlement",
			},
			[]string{"merchant_id", "network_id"},
		),

		AmountMismatchTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_amount_mismatch_total",
				Help: "Reconciliation runs where the settled amount disagreed with the ledger",
			},
			[]string{"network_id"},
		),

		RelaySubmissionsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_submissions_total",
				Help: "Transactions submitted through the relay",
			},
			[]string{"kind"},
		),

		RelayErrorsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_errors_total",
				Help: "Classified relay-side errors",
			},
			[]string{"kind"},
		),

		RelayerBalance: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relayer_balance_wei",
				Help: "Current balance of the relayer account",
			},
			[]string{"address"},
		),

		ReconcileDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_reconcile_duration_seconds",
				Help:    "Time spent reconciling ledger state with chain state",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"network_id"},
		),
	}
}

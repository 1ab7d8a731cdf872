package domain

// PaymentEventPublisher pushes ledger lifecycle changes to the message
// bus for downstream consumers (merchant callbacks, analytics).
type PaymentEventPublisher interface {
	PublishPaymentEvent(event *PaymentEvent, payment *Payment) error
}

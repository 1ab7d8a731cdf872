package domain

type PaymentRepository interface {
	// CreatePayment inserts the payment and its CREATED event atomically.
	// A hash collision returns ErrPaymentHashExists; callers generate a
	// fresh hash on retry, never overwrite.
	CreatePayment(payment *Payment, event *PaymentEvent) error

	// TransitionPayment loads the payment under a row lock, applies fn
	// and persists the mutated payment plus the returned event in one
	// transaction. fn returning a nil event means nothing to persist
	// (idempotent repeat). Concurrent transitions on the same payment
	// are serialized by the lock.
	TransitionPayment(paymentID string, fn func(*Payment) (*PaymentEvent, error)) (*Payment, error)

	GetPaymentByID(paymentID string) (*Payment, error)
	GetPaymentByHash(hash string) (*Payment, error)
	FindOverduePayments() ([]*Payment, error)

	SaveRelayRequest(req *RelayRequest) error
	GetRelayRequestByPaymentID(paymentID string) (*RelayRequest, error)
}

type TokenRepository interface {
	GetTokenByID(tokenID string) (*Token, error)
}

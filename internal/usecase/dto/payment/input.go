package payment

// CreatePaymentInput carries a new checkout attempt. Amount is a
// base-unit integer encoded as a decimal string.
type CreatePaymentInput struct {
	MerchantID      string
	PaymentMethodID string
	Amount          string
	NetworkID       string
	TTLSeconds      int64
}

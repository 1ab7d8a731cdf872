package kafka

import "time"

// PaymentEventMessage is the wire shape of one ledger transition.
// Amount is a base-unit integer encoded as a decimal string.
type PaymentEventMessage struct {
	PaymentID   string    `json:"payment_id"`
	PaymentHash string    `json:"payment_hash"`
	MerchantID  string    `json:"merchant_id"`
	NetworkID   string    `json:"network_id"`
	EventType   string    `json:"event_type"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	Amount      string    `json:"amount"`
	TxHash      string    `json:"tx_hash,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

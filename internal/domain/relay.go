package domain

import (
	"context"
	"math/big"
	"time"
)

type RelayStatus string

const (
	RelayStatusPending   RelayStatus = "pending"
	RelayStatusSent      RelayStatus = "sent"
	RelayStatusMined     RelayStatus = "mined"
	RelayStatusConfirmed RelayStatus = "confirmed"
	RelayStatusFailed    RelayStatus = "failed"
)

// Terminal reports whether the relay-side lifecycle is finished.
func (s RelayStatus) Terminal() bool {
	switch s {
	case RelayStatusMined, RelayStatusConfirmed, RelayStatusFailed:
		return true
	}
	return false
}

// ForwardRequest is the signed meta-transaction authorization. Nonce and
// Deadline must be exactly the values the signer used; the relay never
// re-derives them. Data and Signature are 0x-prefixed hex.
type ForwardRequest struct {
	From      string
	To        string
	Value     *big.Int
	Gas       *big.Int
	Nonce     *big.Int
	Deadline  uint64
	Data      string
	Signature string
}

// RelaySubmission is the relay endpoint's view of a submitted transaction.
type RelaySubmission struct {
	TransactionID string
	Hash          string
	Status        RelayStatus
	CreatedAt     time.Time
}

// RelaySubmitter is the port to the relay execution endpoint.
type RelaySubmitter interface {
	SubmitForward(ctx context.Context, req *ForwardRequest) (*RelaySubmission, error)
	SubmitDirect(ctx context.Context, to, data string, value *big.Int, gasLimit uint64) (*RelaySubmission, error)
	Status(ctx context.Context, relayRef string) (*RelaySubmission, error)
	Cancel(ctx context.Context, relayRef string) (bool, error)
}

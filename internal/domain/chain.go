package domain

import (
	"context"
	"math/big"
)

// SettlementEvent is the on-chain record that a payment's authorized
// call executed with a specific amount.
type SettlementEvent struct {
	PaymentHash string
	Amount      *big.Int
	TxHash      string
	BlockNumber uint64
}

// SettlementReader queries chain state for the settlement event keyed by
// a payment hash. Returns (nil, nil) when no event has appeared yet.
type SettlementReader interface {
	SettlementByHash(ctx context.Context, paymentHash string) (*SettlementEvent, error)
}

// TokenMetadataReader reads ERC-20 metadata from the chain.
type TokenMetadataReader interface {
	TokenMetadata(ctx context.Context, tokenAddress string) (symbol string, decimals uint8, err error)
}

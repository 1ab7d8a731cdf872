package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

// Backend is the subset of ethclient.Client the reader needs.
type Backend interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

const settlementABIJSON = `[
	{"type":"event","name":"PaymentSettled","inputs":[
		{"name":"paymentHash","type":"bytes32","indexed":true},
		{"name":"payer","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"function","name":"symbol","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

var (
	settlementABI = mustParseABI(settlementABIJSON)
	settledTopic  = crypto.Keccak256Hash([]byte("PaymentSettled(bytes32,address,uint256)"))
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("chain: bad ABI: %v", err))
	}
	return parsed
}

// Reader queries settlement events and token metadata. It implements
// domain.SettlementReader and domain.TokenMetadataReader.
type Reader struct {
	backend    Backend
	settlement common.Address
}

func NewReader(backend Backend, settlementAddress string) *Reader {
	return &Reader{
		backend:    backend,
		settlement: common.HexToAddress(settlementAddress),
	}
}

// SettlementByHash looks for a PaymentSettled event keyed by the
// payment hash. Returns (nil, nil) when no event has appeared yet.
func (r *Reader) SettlementByHash(ctx context.Context, paymentHash string) (*domain.SettlementEvent, error) {
	logs, err := r.backend.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{r.settlement},
		Topics: [][]common.Hash{
			{settledTopic},
			{common.HexToHash(paymentHash)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("filter settlement logs for %s: %w", paymentHash, err)
	}
	if len(logs) == 0 {
		return nil, nil
	}
	// The hash is unique per payment; a reorg replay can only duplicate
	// the same settlement, so the newest log wins.
	entry := logs[len(logs)-1]
	values, err := settlementABI.Unpack("PaymentSettled", entry.Data)
	if err != nil {
		return nil, fmt.Errorf("decode settlement event for %s: %w", paymentHash, err)
	}
	return &domain.SettlementEvent{
		PaymentHash: paymentHash,
		Amount:      values[0].(*big.Int),
		TxHash:      entry.TxHash.Hex(),
		BlockNumber: entry.BlockNumber,
	}, nil
}

// TokenMetadata reads symbol and decimals from the token contract.
func (r *Reader) TokenMetadata(ctx context.Context, tokenAddress string) (string, uint8, error) {
	token := common.HexToAddress(tokenAddress)

	symbolCall, _ := settlementABI.Pack("symbol")
	out, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: symbolCall}, nil)
	if err != nil {
		return "", 0, fmt.Errorf("read token symbol: %w", err)
	}
	symbolValues, err := settlementABI.Unpack("symbol", out)
	if err != nil {
		return "", 0, fmt.Errorf("decode token symbol: %w", err)
	}

	decimalsCall, _ := settlementABI.Pack("decimals")
	out, err = r.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: decimalsCall}, nil)
	if err != nil {
		return "", 0, fmt.Errorf("read token decimals: %w", err)
	}
	decimalsValues, err := settlementABI.Unpack("decimals", out)
	if err != nil {
		return "", 0, fmt.Errorf("decode token decimals: %w", err)
	}

	return symbolValues[0].(string), decimalsValues[0].(uint8), nil
}

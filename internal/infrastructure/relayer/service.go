package relayer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jaevor/go-nanoid"

	"github.com/meridianpay/relay-payment-service/internal/domain"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/forwarder"
)

// Backend is the subset of ethclient.Client the relay engine needs.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type Options struct {
	ChainID           int64
	ConfirmationDelay time.Duration
	ReceiptTimeout    time.Duration
	PollInterval      time.Duration
	DefaultGasLimit   uint64
}

// Gas the forwarder itself burns on top of the inner call.
const forwardGasOverhead = 60_000

// Service holds the relayer key, broadcasts transactions and tracks
// them to a terminal state. Submission returns immediately; a monitor
// goroutine per transaction drives the lifecycle.
type Service struct {
	backend Backend
	key     *ecdsa.PrivateKey
	address common.Address
	codec   *forwarder.Codec
	store   *TxStore
	newID   func() string
	opts    Options
}

func NewService(backend Backend, privateKeyHex string, codec *forwarder.Codec, store *TxStore, opts Options) (*Service, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse relayer key: %w", err)
	}
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("init id generator: %w", err)
	}
	if opts.DefaultGasLimit == 0 {
		opts.DefaultGasLimit = 300_000
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.ReceiptTimeout == 0 {
		opts.ReceiptTimeout = 2 * time.Minute
	}
	return &Service{
		backend: backend,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		codec:   codec,
		store:   store,
		newID:   gen,
		opts:    opts,
	}, nil
}

// Address returns the relayer account address.
func (s *Service) Address() common.Address { return s.address }

// SubmitDirect accepts a plain call and returns a tracking id right
// away. Broadcast and monitoring continue in the background.
func (s *Service) SubmitDirect(ctx context.Context, to, dataHex string, value *big.Int, gasLimit uint64) (TransactionRecord, error) {
	if !common.IsHexAddress(to) {
		return TransactionRecord{}, fmt.Errorf("%w: malformed to address %q", domain.ErrValidation, to)
	}
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("%w: data: %v", domain.ErrValidation, err)
	}
	if value == nil {
		value = big.NewInt(0)
	}
	if gasLimit == 0 {
		gasLimit = s.opts.DefaultGasLimit
	}
	rec := &TransactionRecord{
		TransactionID: s.newID(),
		Status:        domain.RelayStatusPending,
		To:            to,
		Data:          data,
		Value:         value,
		GasLimit:      gasLimit,
		CreatedAt:     time.Now(),
	}
	s.store.Put(rec)
	go s.broadcast(rec.TransactionID)
	snapshot, _ := s.store.Get(rec.TransactionID)
	return snapshot, nil
}

// SubmitForward wraps a validated forward request into the forwarder's
// execute call and submits it like any other transaction.
func (s *Service) SubmitForward(ctx context.Context, req *domain.ForwardRequest) (TransactionRecord, error) {
	calldata, err := s.codec.ExecuteCalldata(req)
	if err != nil {
		return TransactionRecord{}, err
	}
	gasLimit := s.opts.DefaultGasLimit
	if req.Gas != nil && req.Gas.IsUint64() {
		gasLimit = req.Gas.Uint64() + forwardGasOverhead
	}
	return s.SubmitDirect(ctx, s.codec.ForwarderAddress().Hex(), hexutil.Encode(calldata), req.Value, gasLimit)
}

// broadcast claims the pending record, signs and sends the transaction,
// then hands off to the monitor. A record canceled before the claim is
// left untouched.
func (s *Service) broadcast(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ReceiptTimeout)
	defer cancel()

	rec, ok := s.store.Get(id)
	if !ok {
		return
	}
	nonce, err := s.backend.PendingNonceAt(ctx, s.address)
	if err != nil {
		s.fail(id, "fetch relayer nonce", err)
		return
	}
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		s.fail(id, "suggest gas price", err)
		return
	}
	to := common.HexToAddress(rec.To)
	tx, err := types.SignNewTx(s.key, types.LatestSignerForChainID(big.NewInt(s.opts.ChainID)), &types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      rec.GasLimit,
		To:       &to,
		Value:    rec.Value,
		Data:     rec.Data,
	})
	if err != nil {
		s.fail(id, "sign transaction", err)
		return
	}
	// The cancel window closes here: once claimed as sent, the tx is
	// going out and Cancel must report false.
	if !s.store.Claim(id, domain.RelayStatusPending, domain.RelayStatusSent) {
		return
	}
	if err := s.backend.SendTransaction(ctx, tx); err != nil {
		s.fail(id, "broadcast transaction", err)
		return
	}
	s.store.Update(id, func(r *TransactionRecord) {
		r.Hash = tx.Hash().Hex()
	})
	slog.Info("relay transaction broadcast", "tx_id", id, "hash", tx.Hash().Hex())
	s.monitor(id, tx.Hash())
}

func (s *Service) fail(id, stage string, err error) {
	slog.Error("relay transaction failed", "tx_id", id, "stage", stage, "error", err.Error())
	s.store.Update(id, func(r *TransactionRecord) {
		r.Status = domain.RelayStatusFailed
	})
}

// monitor polls for the receipt with a bounded timeout. On timeout the
// record keeps its last observed state so a later status query can
// still resolve it.
func (s *Service) monitor(id string, hash common.Hash) {
	deadline := time.Now().Add(s.opts.ReceiptTimeout)
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for range ticker.C {
		if time.Now().After(deadline) {
			slog.Warn("receipt wait timed out, keeping last status", "tx_id", id, "hash", hash.Hex())
			return
		}
		if s.checkReceipt(id, hash) {
			return
		}
	}
}

// checkReceipt performs a single receipt poll, applies the outcome and
// reports whether the on-chain side is resolved.
func (s *Service) checkReceipt(id string, hash common.Hash) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PollInterval)
	receipt, err := s.backend.TransactionReceipt(ctx, hash)
	cancel()
	if err != nil || receipt == nil {
		return false
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		s.store.Update(id, func(r *TransactionRecord) {
			r.Status = domain.RelayStatusFailed
		})
		return true
	}
	if s.store.Claim(id, domain.RelayStatusSent, domain.RelayStatusMined) {
		// Hold mined for the settlement delay before reporting
		// confirmed, guarding against shallow reorgs.
		go func() {
			time.Sleep(s.opts.ConfirmationDelay)
			s.store.Claim(id, domain.RelayStatusMined, domain.RelayStatusConfirmed)
		}()
	}
	return true
}

// GetStatus returns the best-known state, refreshing a stale sent
// record with one synchronous receipt check.
func (s *Service) GetStatus(ctx context.Context, id string) (TransactionRecord, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return TransactionRecord{}, domain.ErrRelayRequestNotFound
	}
	if rec.Status == domain.RelayStatusSent && rec.Hash != "" {
		s.checkReceipt(id, common.HexToHash(rec.Hash))
		rec, _ = s.store.Get(id)
	}
	return rec, nil
}

// Cancel is honored only before broadcast. Once a transaction hash
// exists the submission cannot be undone and Cancel reports false.
func (s *Service) Cancel(id string) bool {
	return s.store.Claim(id, domain.RelayStatusPending, domain.RelayStatusFailed)
}

// WaitFor blocks until the transaction reaches a terminal status or the
// timeout expires. Zero timeout and interval fall back to configuration.
func (s *Service) WaitFor(ctx context.Context, id string, timeout, interval time.Duration) (domain.RelayStatus, error) {
	if timeout == 0 {
		timeout = s.opts.ReceiptTimeout
	}
	if interval == 0 {
		interval = s.opts.PollInterval
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		rec, ok := s.store.Get(id)
		if !ok {
			return "", domain.ErrRelayRequestNotFound
		}
		if rec.Status.Terminal() {
			return rec.Status, nil
		}
		if time.Now().After(deadline) {
			return "", domain.ErrWaitTimeout
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// Nonce reads the forwarder nonce the signer must use. The relay only
// echoes this value; it never substitutes it into a signed request.
func (s *Service) Nonce(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: malformed address %q", domain.ErrValidation, address)
	}
	calldata, err := forwarder.NonceCalldata(address)
	if err != nil {
		return nil, err
	}
	fwd := s.codec.ForwarderAddress()
	out, err := s.backend.CallContract(ctx, ethereum.CallMsg{To: &fwd, Data: calldata}, nil)
	if err != nil {
		return nil, fmt.Errorf("read forwarder nonce: %w", err)
	}
	return forwarder.UnpackNonce(out)
}

// Health reports the relayer account and its current balance.
func (s *Service) Health(ctx context.Context) (string, *big.Int, error) {
	balance, err := s.backend.BalanceAt(ctx, s.address, nil)
	if err != nil {
		return s.address.Hex(), nil, fmt.Errorf("read relayer balance: %w", err)
	}
	return s.address.Hex(), balance, nil
}

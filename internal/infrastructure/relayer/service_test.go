package relayer

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianpay/relay-payment-service/internal/domain"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/forwarder"
)

type fakeBackend struct {
	mu         sync.Mutex
	sent       []*types.Transaction
	receipt    *types.Receipt
	receiptErr error
	sendErr    error
	callOut    []byte
	balance    *big.Int
	nonceGate  chan struct{}
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if b.nonceGate != nil {
		<-b.nonceGate
	}
	return 4, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.receiptErr != nil {
		return nil, b.receiptErr
	}
	return b.receipt, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return b.callOut, nil
}

func (b *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return b.balance, nil
}

func (b *fakeBackend) setReceipt(r *types.Receipt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receipt = r
	b.receiptErr = nil
}

func (b *fakeBackend) sentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

func newTestService(t *testing.T, backend *fakeBackend) *Service {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	codec := forwarder.NewCodec("0x1111111111111111111111111111111111111111", 1337)
	svc, err := NewService(backend, hex.EncodeToString(crypto.FromECDSA(key)), codec, NewTxStore(), Options{
		ChainID:           1337,
		ConfirmationDelay: 20 * time.Millisecond,
		ReceiptTimeout:    2 * time.Second,
		PollInterval:      10 * time.Millisecond,
		DefaultGasLimit:   300_000,
	})
	require.NoError(t, err)
	return svc
}

func TestSubmitDirectReachesConfirmed(t *testing.T) {
	backend := &fakeBackend{receiptErr: errors.New("not found")}
	svc := newTestService(t, backend)

	rec, err := svc.SubmitDirect(context.Background(), "0x2222222222222222222222222222222222222222", "0xdeadbeef", big.NewInt(5), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.RelayStatusPending, rec.Status)
	assert.NotEmpty(t, rec.TransactionID)

	backend.setReceipt(&types.Receipt{Status: types.ReceiptStatusSuccessful})

	status, err := svc.WaitFor(context.Background(), rec.TransactionID, time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Contains(t, []domain.RelayStatus{domain.RelayStatusMined, domain.RelayStatusConfirmed}, status)

	// mined settles into confirmed after the confirmation delay
	require.Eventually(t, func() bool {
		current, getErr := svc.GetStatus(context.Background(), rec.TransactionID)
		return getErr == nil && current.Status == domain.RelayStatusConfirmed
	}, time.Second, 5*time.Millisecond)

	final, err := svc.GetStatus(context.Background(), rec.TransactionID)
	require.NoError(t, err)
	assert.NotEmpty(t, final.Hash)

	require.Equal(t, 1, backend.sentCount())
	tx := backend.sent[0]
	assert.Equal(t, "0x2222222222222222222222222222222222222222", tx.To().Hex())
	assert.Equal(t, uint64(5), tx.Value().Uint64())
	assert.Equal(t, uint64(300_000), tx.Gas())
	assert.Equal(t, uint64(4), tx.Nonce())
}

func TestSubmitDirectRevertedReceipt(t *testing.T) {
	backend := &fakeBackend{receipt: &types.Receipt{Status: types.ReceiptStatusFailed}}
	svc := newTestService(t, backend)

	rec, err := svc.SubmitDirect(context.Background(), "0x2222222222222222222222222222222222222222", "0xdeadbeef", nil, 0)
	require.NoError(t, err)

	status, err := svc.WaitFor(context.Background(), rec.TransactionID, time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, domain.RelayStatusFailed, status)
}

func TestSubmitDirectBroadcastError(t *testing.T) {
	backend := &fakeBackend{sendErr: errors.New("connection refused")}
	svc := newTestService(t, backend)

	rec, err := svc.SubmitDirect(context.Background(), "0x2222222222222222222222222222222222222222", "0xdeadbeef", nil, 0)
	require.NoError(t, err)

	status, err := svc.WaitFor(context.Background(), rec.TransactionID, time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, domain.RelayStatusFailed, status)
	assert.Zero(t, backend.sentCount())
}

func TestSubmitDirectValidation(t *testing.T) {
	svc := newTestService(t, &fakeBackend{})

	_, err := svc.SubmitDirect(context.Background(), "not-an-address", "0xdeadbeef", nil, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.SubmitDirect(context.Background(), "0x2222222222222222222222222222222222222222", "zz", nil, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCancelBeforeBroadcast(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{nonceGate: gate}
	svc := newTestService(t, backend)

	rec, err := svc.SubmitDirect(context.Background(), "0x2222222222222222222222222222222222222222", "0xdeadbeef", nil, 0)
	require.NoError(t, err)

	// Broadcast goroutine is stuck on the nonce fetch; the record is
	// still pending and can be canceled.
	assert.True(t, svc.Cancel(rec.TransactionID))
	close(gate)

	status, err := svc.WaitFor(context.Background(), rec.TransactionID, time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, domain.RelayStatusFailed, status)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, backend.sentCount())
}

func TestCancelAfterBroadcast(t *testing.T) {
	backend := &fakeBackend{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}}
	svc := newTestService(t, backend)

	rec, err := svc.SubmitDirect(context.Background(), "0x2222222222222222222222222222222222222222", "0xdeadbeef", nil, 0)
	require.NoError(t, err)

	_, err = svc.WaitFor(context.Background(), rec.TransactionID, time.Second, 5*time.Millisecond)
	require.NoError(t, err)

	assert.False(t, svc.Cancel(rec.TransactionID))
	assert.Equal(t, 1, backend.sentCount())
}

func TestWaitForTimeout(t *testing.T) {
	backend := &fakeBackend{receiptErr: errors.New("not found")}
	svc := newTestService(t, backend)

	rec, err := svc.SubmitDirect(context.Background(), "0x2222222222222222222222222222222222222222", "0xdeadbeef", nil, 0)
	require.NoError(t, err)

	_, err = svc.WaitFor(context.Background(), rec.TransactionID, 50*time.Millisecond, 5*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrWaitTimeout)

	_, err = svc.WaitFor(context.Background(), "unknown", 50*time.Millisecond, 5*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrRelayRequestNotFound)
}

func TestGetStatusUnknown(t *testing.T) {
	svc := newTestService(t, &fakeBackend{})
	_, err := svc.GetStatus(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrRelayRequestNotFound)
}

func TestNonce(t *testing.T) {
	backend := &fakeBackend{callOut: common.LeftPadBytes(big.NewInt(9).Bytes(), 32)}
	svc := newTestService(t, backend)

	nonce, err := svc.Nonce(context.Background(), "0x2222222222222222222222222222222222222222")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), nonce.Uint64())

	_, err = svc.Nonce(context.Background(), "bogus")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHealth(t *testing.T) {
	backend := &fakeBackend{balance: big.NewInt(123)}
	svc := newTestService(t, backend)

	address, balance, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, svc.Address().Hex(), address)
	assert.Equal(t, uint64(123), balance.Uint64())
}

package usecase

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianpay/relay-payment-service/internal/domain"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/forwarder"
	paymentdto "github.com/meridianpay/relay-payment-service/internal/usecase/dto/payment"
)

const (
	testForwarder = "0x1111111111111111111111111111111111111111"
	testContract  = "0x2222222222222222222222222222222222222222"
)

type fakePaymentRepo struct {
	mu            sync.Mutex
	payments      map[string]*domain.Payment
	idByHash      map[string]string
	events        []*domain.PaymentEvent
	relayRequests []*domain.RelayRequest
	createErr     error
	saveRelayErr  error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: make(map[string]*domain.Payment),
		idByHash: make(map[string]string),
	}
}

func clonePayment(p *domain.Payment) *domain.Payment {
	c := *p
	return &c
}

func (r *fakePaymentRepo) CreatePayment(payment *domain.Payment, event *domain.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.idByHash[payment.Hash]; exists {
		return domain.ErrPaymentHashExists
	}
	r.payments[payment.ID] = clonePayment(payment)
	r.idByHash[payment.Hash] = payment.ID
	r.events = append(r.events, event)
	return nil
}

func (r *fakePaymentRepo) TransitionPayment(paymentID string, fn func(*domain.Payment) (*domain.PaymentEvent, error)) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.payments[paymentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	working := clonePayment(stored)
	event, err := fn(working)
	if err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	r.payments[paymentID] = working
	if event != nil {
		r.events = append(r.events, event)
	}
	return clonePayment(working), nil
}

func (r *fakePaymentRepo) GetPaymentByID(paymentID string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (r *fakePaymentRepo) GetPaymentByHash(hash string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.idByHash[hash]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return clonePayment(r.payments[id]), nil
}

func (r *fakePaymentRepo) FindOverduePayments() ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var overdue []*domain.Payment
	for _, p := range r.payments {
		if !p.Status.Terminal() && p.ExpiresAt.Before(time.Now()) {
			overdue = append(overdue, clonePayment(p))
		}
	}
	return overdue, nil
}

func (r *fakePaymentRepo) SaveRelayRequest(req *domain.RelayRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveRelayErr != nil {
		return r.saveRelayErr
	}
	r.relayRequests = append(r.relayRequests, req)
	return nil
}

func (r *fakePaymentRepo) GetRelayRequestByPaymentID(paymentID string) (*domain.RelayRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.relayRequests) - 1; i >= 0; i-- {
		if r.relayRequests[i].PaymentID == paymentID {
			return r.relayRequests[i], nil
		}
	}
	return nil, domain.ErrRelayRequestNotFound
}

type fakeTokenRepo struct {
	tokens map[string]*domain.Token
}

func (r *fakeTokenRepo) GetTokenByID(tokenID string) (*domain.Token, error) {
	token, ok := r.tokens[tokenID]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return token, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
	down    bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return nil, false
	}
	raw, ok := c.entries[key]
	return raw, ok
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return
	}
	c.entries[key] = value
}

func (c *fakeCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, key)
	delete(c.entries, key)
}

func (c *fakeCache) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.down
}

type fakeSettlements struct {
	event *domain.SettlementEvent
	err   error
	calls int
}

func (s *fakeSettlements) SettlementByHash(ctx context.Context, paymentHash string) (*domain.SettlementEvent, error) {
	s.calls++
	return s.event, s.err
}

type fakeTokenMeta struct {
	symbol   string
	decimals uint8
	err      error
}

func (m *fakeTokenMeta) TokenMetadata(ctx context.Context, tokenAddress string) (string, uint8, error) {
	return m.symbol, m.decimals, m.err
}

type fakeRelay struct {
	submission *domain.RelaySubmission
	err        error
	forwarded  []*domain.ForwardRequest
	status     *domain.RelaySubmission
}

func (r *fakeRelay) SubmitForward(ctx context.Context, req *domain.ForwardRequest) (*domain.RelaySubmission, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.forwarded = append(r.forwarded, req)
	return r.submission, nil
}

func (r *fakeRelay) SubmitDirect(ctx context.Context, to, data string, value *big.Int, gasLimit uint64) (*domain.RelaySubmission, error) {
	return r.submission, r.err
}

func (r *fakeRelay) Status(ctx context.Context, relayRef string) (*domain.RelaySubmission, error) {
	if r.status == nil {
		return nil, domain.ErrRelayRequestNotFound
	}
	return r.status, nil
}

func (r *fakeRelay) Cancel(ctx context.Context, relayRef string) (bool, error) {
	return false, nil
}

type testEnv struct {
	uc          *DefaultPaymentUsecase
	repo        *fakePaymentRepo
	cache       *fakeCache
	settlements *fakeSettlements
	relay       *fakeRelay
	codec       *forwarder.Codec
}

func newTestEnv() *testEnv {
	repo := newFakePaymentRepo()
	cache := newFakeCache()
	settlements := &fakeSettlements{}
	relay := &fakeRelay{
		submission: &domain.RelaySubmission{
			TransactionID: "relay-tx-1",
			Status:        domain.RelayStatusPending,
			CreatedAt:     time.Now(),
		},
	}
	codec := forwarder.NewCodec(testForwarder, 1337)
	tokens := &fakeTokenRepo{tokens: map[string]*domain.Token{
		"usdc-137": {ID: "usdc-137", Address: testContract, Symbol: "USDC", Decimals: 6, NetworkID: "137"},
	}}
	uc := NewDefaultPaymentUsecase(
		repo,
		tokens,
		cache,
		settlements,
		&fakeTokenMeta{symbol: "USDC", decimals: 6},
		relay,
		codec,
		nil,
		nil,
	)
	return &testEnv{uc: uc, repo: repo, cache: cache, settlements: settlements, relay: relay, codec: codec}
}

func (e *testEnv) createPayment(t *testing.T, amount string) *domain.Payment {
	t.Helper()
	payment, err := e.uc.CreatePayment(context.Background(), &paymentdto.CreatePaymentInput{
		MerchantID:      "merchant-1",
		PaymentMethodID: "usdc-137",
		Amount:          amount,
		NetworkID:       "137",
	})
	require.NoError(t, err)
	return payment
}

func TestCreatePayment(t *testing.T) {
	env := newTestEnv()

	payment := env.createPayment(t, "100000000000000000000")
	assert.Equal(t, domain.StatusCreated, payment.Status)
	assert.NotEmpty(t, payment.ID)
	assert.NotEmpty(t, payment.Hash)
	assert.Equal(t, "USDC", payment.TokenSymbol)
	assert.Equal(t, uint8(6), payment.TokenDecimals)
	assert.True(t, payment.ExpiresAt.After(time.Now()))

	require.Len(t, env.repo.events, 1)
	assert.Equal(t, domain.EventCreated, env.repo.events[0].EventType)

	// same checkout again gets a distinct salted hash
	second := env.createPayment(t, "100000000000000000000")
	assert.NotEqual(t, payment.Hash, second.Hash)
}

func TestCreatePaymentValidation(t *testing.T) {
	env := newTestEnv()

	for _, amount := range []string{"", "abc", "-5", "0", "1.5"} {
		_, err := env.uc.CreatePayment(context.Background(), &paymentdto.CreatePaymentInput{
			MerchantID:      "merchant-1",
			PaymentMethodID: "usdc-137",
			Amount:          amount,
			NetworkID:       "137",
		})
		assert.ErrorIs(t, err, domain.ErrValidation, "amount %q", amount)
	}

	_, err := env.uc.CreatePayment(context.Background(), &paymentdto.CreatePaymentInput{
		MerchantID:      "merchant-1",
		PaymentMethodID: "unknown-token",
		Amount:          "100",
		NetworkID:       "137",
	})
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestCreatePaymentMetadataFallback(t *testing.T) {
	env := newTestEnv()
	env.uc.TokenMeta = &fakeTokenMeta{err: assert.AnError}

	payment := env.createPayment(t, "100")
	assert.Equal(t, "USDC", payment.TokenSymbol)
	assert.Equal(t, uint8(6), payment.TokenDecimals)
}

func TestTransitionStateMachine(t *testing.T) {
	env := newTestEnv()

	testCases := []struct {
		from    domain.PaymentStatus
		to      domain.PaymentStatus
		allowed bool
	}{
		{domain.StatusCreated, domain.StatusPending, true},
		{domain.StatusCreated, domain.StatusConfirmed, true},
		{domain.StatusCreated, domain.StatusFailed, true},
		{domain.StatusCreated, domain.StatusExpired, true},
		{domain.StatusPending, domain.StatusConfirmed, true},
		{domain.StatusPending, domain.StatusFailed, true},
		{domain.StatusPending, domain.StatusExpired, true},
		{domain.StatusPending, domain.StatusCreated, false},
		{domain.StatusConfirmed, domain.StatusFailed, false},
		{domain.StatusConfirmed, domain.StatusPending, false},
		{domain.StatusFailed, domain.StatusConfirmed, false},
		{domain.StatusExpired, domain.StatusConfirmed, false},
	}
	for _, tc := range testCases {
		payment := env.createPayment(t, "100")
		env.repo.mu.Lock()
		env.repo.payments[payment.ID].Status = tc.from
		env.repo.mu.Unlock()

		_, err := env.uc.Transition(context.Background(), payment.ID, tc.to, "")
		if tc.allowed {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			var invalid *domain.InvalidTransitionError
			assert.ErrorAs(t, err, &invalid, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestTransitionIdempotentRepeat(t *testing.T) {
	env := newTestEnv()
	payment := env.createPayment(t, "100")

	first, err := env.uc.Transition(context.Background(), payment.ID, domain.StatusConfirmed, "0xaaa")
	require.NoError(t, err)
	require.NotNil(t, first.ConfirmedAt)
	eventsAfterFirst := len(env.repo.events)

	second, err := env.uc.Transition(context.Background(), payment.ID, domain.StatusConfirmed, "0xaaa")
	require.NoError(t, err)
	assert.Equal(t, first.ConfirmedAt.Unix(), second.ConfirmedAt.Unix())
	assert.Len(t, env.repo.events, eventsAfterFirst)
}

func TestTransitionInvalidatesCache(t *testing.T) {
	env := newTestEnv()
	payment := env.createPayment(t, "100")

	// warm the cache
	_, err := env.uc.FindByHash(context.Background(), payment.Hash)
	require.NoError(t, err)
	_, hit := env.cache.Get(context.Background(), paymentCacheKey(payment.Hash))
	require.True(t, hit)

	_, err = env.uc.Transition(context.Background(), payment.ID, domain.StatusPending, "")
	require.NoError(t, err)

	_, hit = env.cache.Get(context.Background(), paymentCacheKey(payment.Hash))
	assert.False(t, hit)
	assert.Contains(t, env.cache.deletes, paymentCacheKey(payment.Hash))
}

func TestFindByHashCacheAside(t *testing.T) {
	env := newTestEnv()
	payment := env.createPayment(t, "123456789")

	loaded, err := env.uc.FindByHash(context.Background(), payment.Hash)
	require.NoError(t, err)
	assert.Zero(t, payment.Amount.Cmp(loaded.Amount))

	// second read must come from the cache
	env.repo.mu.Lock()
	delete(env.repo.idByHash, payment.Hash)
	env.repo.mu.Unlock()

	cached, err := env.uc.FindByHash(context.Background(), payment.Hash)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, cached.ID)
	assert.Zero(t, payment.Amount.Cmp(cached.Amount))
	assert.Equal(t, payment.Status, cached.Status)
}

func TestFindByHashCacheDown(t *testing.T) {
	env := newTestEnv()
	env.cache.down = true
	payment := env.createPayment(t, "100")

	loaded, err := env.uc.FindByHash(context.Background(), payment.Hash)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, loaded.ID)

	_, err = env.uc.FindByHash(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestReconcileDecisionTable(t *testing.T) {
	amount := big.NewInt(100)
	payment := &domain.Payment{Hash: "0xhash", Amount: amount, Status: domain.StatusPending}

	decision := Reconcile(payment, nil)
	assert.Equal(t, ReconcileNone, decision.Action)

	decision = Reconcile(payment, &domain.SettlementEvent{Amount: big.NewInt(100), TxHash: "0xaaa"})
	assert.Equal(t, ReconcileConfirm, decision.Action)

	decision = Reconcile(payment, &domain.SettlementEvent{Amount: big.NewInt(90), TxHash: "0xaaa"})
	assert.Equal(t, ReconcileMismatch, decision.Action)
	require.NotNil(t, decision.Mismatch)
	assert.Equal(t, "100", decision.Mismatch.Expected.String())
	assert.Equal(t, "90", decision.Mismatch.Actual.String())

	confirmed := &domain.Payment{Hash: "0xhash", Amount: amount, Status: domain.StatusConfirmed}
	decision = Reconcile(confirmed, &domain.SettlementEvent{Amount: big.NewInt(90)})
	assert.Equal(t, ReconcileNone, decision.Action)
}

func TestGetPaymentStatusConfirmsOnSettlement(t *testing.T) {
	env := newTestEnv()
	payment := env.createPayment(t, "100000000000000000000")
	env.settlements.event = &domain.SettlementEvent{
		PaymentHash: payment.Hash,
		Amount:      payment.Amount,
		TxHash:      "0xsettled",
	}

	updated, err := env.uc.GetPaymentStatus(context.Background(), payment.Hash)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Equal(t, "0xsettled", updated.TxHash)
	require.NotNil(t, updated.ConfirmedAt)
}

func TestGetPaymentStatusNoSettlementYet(t *testing.T) {
	env := newTestEnv()
	payment := env.createPayment(t, "100")

	loaded, err := env.uc.GetPaymentStatus(context.Background(), payment.Hash)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, loaded.Status)
}

func TestGetPaymentStatusAmountMismatch(t *testing.T) {
	env := newTestEnv()
	ledger, _ := new(big.Int).SetString("100000000000000000000", 10)
	settled, _ := new(big.Int).SetString("90000000000000000000", 10)

	payment := env.createPayment(t, ledger.String())
	env.settlements.event = &domain.SettlementEvent{
		PaymentHash: payment.Hash,
		Amount:      settled,
		TxHash:      "0xsettled",
	}

	returned, err := env.uc.GetPaymentStatus(context.Background(), payment.Hash)
	var mismatch *domain.AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Zero(t, ledger.Cmp(mismatch.Expected))
	assert.Zero(t, settled.Cmp(mismatch.Actual))
	assert.Equal(t, "0xsettled", mismatch.TxHash)

	// ledger never advanced
	require.NotNil(t, returned)
	assert.Equal(t, domain.StatusCreated, returned.Status)
	stored, err := env.uc.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, stored.Status)
}

func TestGetPaymentStatusTerminalSkipsChain(t *testing.T) {
	env := newTestEnv()
	payment := env.createPayment(t, "100")
	_, err := env.uc.Transition(context.Background(), payment.ID, domain.StatusFailed, "")
	require.NoError(t, err)

	loaded, err := env.uc.GetPaymentStatus(context.Background(), payment.Hash)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, loaded.Status)
	assert.Zero(t, env.settlements.calls)
}

func TestGetPaymentStatusChainError(t *testing.T) {
	env := newTestEnv()
	payment := env.createPayment(t, "100")
	env.settlements.err = assert.AnError

	_, err := env.uc.GetPaymentStatus(context.Background(), payment.Hash)
	assert.ErrorIs(t, err, assert.AnError)
}

func signedForwardRequest(t *testing.T, codec *forwarder.Codec, key *ecdsa.PrivateKey, paymentHash string, amount *big.Int) *domain.ForwardRequest {
	t.Helper()
	data, err := forwarder.PayCalldata(paymentHash, amount)
	require.NoError(t, err)
	req := &domain.ForwardRequest{
		From:     crypto.PubkeyToAddress(key.PublicKey).Hex(),
		To:       testContract,
		Value:    big.NewInt(0),
		Gas:      big.NewInt(120_000),
		Nonce:    big.NewInt(0),
		Deadline: uint64(time.Now().Add(10 * time.Minute).Unix()),
		Data:     data,
	}
	sig, err := crypto.Sign(codec.Digest(req), key)
	require.NoError(t, err)
	sig[64] += 27
	req.Signature = hexutil.Encode(sig)
	return req
}

func TestSubmitGasless(t *testing.T) {
	env := newTestEnv()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	payment := env.createPayment(t, "100000000000000000000")
	req := signedForwardRequest(t, env.codec, key, payment.Hash, payment.Amount)

	submission, err := env.uc.SubmitGasless(context.Background(), payment.Hash, req)
	require.NoError(t, err)
	assert.Equal(t, "relay-tx-1", submission.TransactionID)
	require.Len(t, env.relay.forwarded, 1)

	// payment moved to PENDING and the relay link was persisted
	stored, err := env.uc.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	require.Len(t, env.repo.relayRequests, 1)
	assert.Equal(t, "relay-tx-1", env.repo.relayRequests[0].RelayRef)
}

func TestSubmitGaslessAmountMismatch(t *testing.T) {
	env := newTestEnv()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	payment := env.createPayment(t, "100000000000000000000")
	smaller, _ := new(big.Int).SetString("90000000000000000000", 10)
	req := signedForwardRequest(t, env.codec, key, payment.Hash, smaller)

	_, err = env.uc.SubmitGasless(context.Background(), payment.Hash, req)
	var mismatch *domain.AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Zero(t, payment.Amount.Cmp(mismatch.Expected))
	assert.Zero(t, smaller.Cmp(mismatch.Actual))
	assert.Empty(t, env.relay.forwarded)
}

func TestSubmitGaslessWrongHashInCalldata(t *testing.T) {
	env := newTestEnv()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	payment := env.createPayment(t, "100")
	other := env.createPayment(t, "100")
	req := signedForwardRequest(t, env.codec, key, other.Hash, other.Amount)

	_, err = env.uc.SubmitGasless(context.Background(), payment.Hash, req)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, env.relay.forwarded)
}

func TestSubmitGaslessTamperedSignature(t *testing.T) {
	env := newTestEnv()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	payment := env.createPayment(t, "100")
	req := signedForwardRequest(t, env.codec, key, payment.Hash, payment.Amount)
	req.Nonce = big.NewInt(99)

	_, err = env.uc.SubmitGasless(context.Background(), payment.Hash, req)
	assert.ErrorIs(t, err, domain.ErrBadSignature)
}

func TestSubmitGaslessNotPayable(t *testing.T) {
	env := newTestEnv()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	payment := env.createPayment(t, "100")
	_, err = env.uc.Transition(context.Background(), payment.ID, domain.StatusExpired, "")
	require.NoError(t, err)

	req := signedForwardRequest(t, env.codec, key, payment.Hash, payment.Amount)
	_, err = env.uc.SubmitGasless(context.Background(), payment.Hash, req)
	assert.ErrorIs(t, err, domain.ErrPaymentNotPayable)
}

func TestSubmitGaslessRelayFailure(t *testing.T) {
	env := newTestEnv()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	env.relay.err = &domain.RelayError{Kind: domain.RelayErrFunds, Message: "relayer out of gas money"}

	payment := env.createPayment(t, "100")
	req := signedForwardRequest(t, env.codec, key, payment.Hash, payment.Amount)

	_, err = env.uc.SubmitGasless(context.Background(), payment.Hash, req)
	var relayErr *domain.RelayError
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, domain.RelayErrFunds, relayErr.Kind)

	// payment stays CREATED when the relay rejected the submission
	stored, err := env.uc.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, stored.Status)
}

func TestGetRelayStatusForPayment(t *testing.T) {
	env := newTestEnv()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	payment := env.createPayment(t, "100")
	req := signedForwardRequest(t, env.codec, key, payment.Hash, payment.Amount)
	_, err = env.uc.SubmitGasless(context.Background(), payment.Hash, req)
	require.NoError(t, err)

	env.relay.status = &domain.RelaySubmission{
		TransactionID: "relay-tx-1",
		Hash:          "0xbroadcast",
		Status:        domain.RelayStatusMined,
	}
	submission, err := env.uc.GetRelayStatusForPayment(context.Background(), payment.Hash)
	require.NoError(t, err)
	assert.Equal(t, domain.RelayStatusMined, submission.Status)

	other := env.createPayment(t, "100")
	_, err = env.uc.GetRelayStatusForPayment(context.Background(), other.Hash)
	assert.ErrorIs(t, err, domain.ErrRelayRequestNotFound)
}

func TestExpireOverduePayments(t *testing.T) {
	env := newTestEnv()

	overdue := env.createPayment(t, "100")
	fresh := env.createPayment(t, "100")
	confirmed := env.createPayment(t, "100")
	_, err := env.uc.Transition(context.Background(), confirmed.ID, domain.StatusConfirmed, "0xaaa")
	require.NoError(t, err)

	env.repo.mu.Lock()
	env.repo.payments[overdue.ID].ExpiresAt = time.Now().Add(-time.Minute)
	env.repo.payments[confirmed.ID].ExpiresAt = time.Now().Add(-time.Minute)
	env.repo.mu.Unlock()

	require.NoError(t, env.uc.ExpireOverduePayments(context.Background()))

	expired, err := env.uc.FindByID(context.Background(), overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, expired.Status)

	untouched, err := env.uc.FindByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, untouched.Status)

	stillConfirmed, err := env.uc.FindByID(context.Background(), confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stillConfirmed.Status)
}

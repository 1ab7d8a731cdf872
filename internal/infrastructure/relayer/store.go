package relayer

import (
	"math/big"
	"sync"
	"time"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

// TransactionRecord is the relay-side view of one submitted transaction.
// It lives only in memory and is lost on restart; the durable source of
// truth is the payment ledger.
type TransactionRecord struct {
	TransactionID string
	Hash          string
	Status        domain.RelayStatus
	To            string
	Data          []byte
	Value         *big.Int
	GasLimit      uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TxStore is a concurrent in-memory table of in-flight transactions,
// shared by the submission path, the monitor goroutines and status
// queries. Readers always get a copy, never a live pointer.
type TxStore struct {
	mu  sync.RWMutex
	txs map[string]*TransactionRecord
}

func NewTxStore() *TxStore {
	return &TxStore{txs: make(map[string]*TransactionRecord)}
}

func (s *TxStore) Put(rec *TransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.UpdatedAt = time.Now()
	s.txs[rec.TransactionID] = rec
}

func (s *TxStore) Get(id string) (TransactionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.txs[id]
	if !ok {
		return TransactionRecord{}, false
	}
	return *rec, true
}

// Update applies fn to the record under the write lock and returns the
// resulting copy. Returns false if the record does not exist.
func (s *TxStore) Update(id string, fn func(*TransactionRecord)) (TransactionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.txs[id]
	if !ok {
		return TransactionRecord{}, false
	}
	fn(rec)
	rec.UpdatedAt = time.Now()
	return *rec, true
}

// Claim moves the record from one status to another atomically. Used to
// settle the broadcast-versus-cancel race: whoever claims first wins.
func (s *TxStore) Claim(id string, from, to domain.RelayStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.txs[id]
	if !ok || rec.Status != from {
		return false
	}
	rec.Status = to
	rec.UpdatedAt = time.Now()
	return true
}

package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data []*domain.TransactionRecord
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{}
}

// Insert appends a transaction record.
func (s *TransactionStore) Insert(_ context.Context, tx *domain.TransactionRecord) error {
	if tx == nil || tx.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *tx
	s.data = append(s.data, &cp)
	return nil
}

// ByToken retrieves all transactions for a token, newest first.
func (s *TransactionStore) ByToken(_ context.Context, tokenAddress string) ([]*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransactionRecord
	for _, tx := range s.data {
		if tx.TokenAddress == tokenAddress {
			cp := *tx
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs > result[j].TimestampMs
	})

	return result, nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

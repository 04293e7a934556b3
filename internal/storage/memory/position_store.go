package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data []*domain.Position
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{}
}

// Insert adds a new open position.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data {
		if existing.Open() && existing.TokenAddress == p.TokenAddress && existing.RecommenderID == p.RecommenderID {
			return storage.ErrDuplicateKey
		}
	}

	cp := *p
	s.data = append(s.data, &cp)
	return nil
}

// Update replaces the stored position matching the key and entry timestamp.
func (s *PositionStore) Update(_ context.Context, p *domain.Position) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.data {
		if existing.TokenAddress == p.TokenAddress &&
			existing.RecommenderID == p.RecommenderID &&
			existing.TimestampMs == p.TimestampMs {
			cp := *p
			s.data[i] = &cp
			return nil
		}
	}
	return storage.ErrNotFound
}

// Open retrieves all open positions ordered by entry time ASC.
func (s *PositionStore) Open(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.Open() {
			cp := *p
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// GetOpen retrieves the open position for the key.
func (s *PositionStore) GetOpen(_ context.Context, tokenAddress, recommenderID string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data {
		if p.Open() && p.TokenAddress == tokenAddress && p.RecommenderID == recommenderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

var _ storage.PositionStore = (*PositionStore)(nil)

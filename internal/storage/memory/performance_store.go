package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/storage"
)

// PerformanceStore is an in-memory implementation of storage.PerformanceStore.
type PerformanceStore struct {
	mu sync.RWMutex
	// records per (tokenAddress, recommenderID), in insertion order
	data map[perfKey][]*domain.TradePerformanceRecord
}

type perfKey struct {
	token       string
	recommender string
}

// NewPerformanceStore creates a new in-memory performance store.
func NewPerformanceStore() *PerformanceStore {
	return &PerformanceStore{
		data: make(map[perfKey][]*domain.TradePerformanceRecord),
	}
}

// InsertBuy adds a new record with buy-side fields populated.
func (s *PerformanceStore) InsertBuy(_ context.Context, r *domain.TradePerformanceRecord) error {
	if r == nil || r.TokenAddress == "" || r.RecommenderID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := perfKey{r.TokenAddress, r.RecommenderID}
	cp := *r
	s.data[key] = append(s.data[key], &cp)
	return nil
}

// LatestOpen retrieves the most recent record for the key whose sell side
// is not yet populated.
func (s *PerformanceStore) LatestOpen(_ context.Context, tokenAddress, recommenderID string) (*domain.TradePerformanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.latestOpenLocked(tokenAddress, recommenderID)
	if r == nil {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// CompleteSell populates the sell-side fields of the most recent open record.
func (s *PerformanceStore) CompleteSell(_ context.Context, tokenAddress, recommenderID string, sell *domain.TradePerformanceRecord) error {
	if sell == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.latestOpenLocked(tokenAddress, recommenderID)
	if r == nil {
		return storage.ErrNotFound
	}
	if r.Closed() {
		return storage.ErrAlreadyClosed
	}

	r.SellPrice = sell.SellPrice
	r.SellTimestampMs = sell.SellTimestampMs
	r.SellAmount = sell.SellAmount
	r.SellValueUsd = sell.SellValueUsd
	r.ProfitUsd = sell.ProfitUsd
	r.ProfitPercent = sell.ProfitPercent
	return nil
}

// ByToken retrieves all records for a token, newest first.
func (s *PerformanceStore) ByToken(_ context.Context, tokenAddress string) ([]*domain.TradePerformanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradePerformanceRecord
	for key, recs := range s.data {
		if key.token != tokenAddress {
			continue
		}
		for _, r := range recs {
			cp := *r
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BuyTimestampMs > result[j].BuyTimestampMs
	})

	return result, nil
}

// latestOpenLocked returns the newest open record for the key, or nil.
// Caller must hold at least a read lock.
func (s *PerformanceStore) latestOpenLocked(tokenAddress, recommenderID string) *domain.TradePerformanceRecord {
	recs := s.data[perfKey{tokenAddress, recommenderID}]
	for i := len(recs) - 1; i >= 0; i-- {
		if !recs[i].Closed() {
			return recs[i]
		}
	}
	return nil
}

var _ storage.PerformanceStore = (*PerformanceStore)(nil)

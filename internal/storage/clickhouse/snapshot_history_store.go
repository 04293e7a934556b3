package clickhouse

import (
	"context"
	"fmt"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/storage"
)

// SnapshotHistoryStore implements storage.SnapshotHistoryStore using ClickHouse.
// Snapshot history is analytics data: inserts are batched and duplicates are
// tolerated (MergeTree does not enforce uniqueness).
type SnapshotHistoryStore struct {
	conn *Conn
}

// NewSnapshotHistoryStore creates a new SnapshotHistoryStore.
func NewSnapshotHistoryStore(conn *Conn) *SnapshotHistoryStore {
	return &SnapshotHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotHistoryStore = (*SnapshotHistoryStore)(nil)

// InsertBulk appends a batch of snapshot observations.
func (s *SnapshotHistoryStore) InsertBulk(ctx context.Context, snaps []*domain.MarketSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO snapshot_history (
			token_address, fetched_at_ms, price, market_cap, liquidity, volume_24h
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snaps {
		err = batch.Append(
			snap.Address, uint64(snap.FetchedAtMs),
			snap.Price, snap.MarketCap, snap.Liquidity, snap.Volume24h,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

package storage

import (
	"context"

	"solana-trade-engine/internal/domain"
)

// PerformanceStore provides access to trade performance records.
// Records are keyed by (token address, recommender ID); the same pair may
// recur across cycles, so lookups return the most recent open record.
type PerformanceStore interface {
	// InsertBuy adds a new record with buy-side fields populated.
	InsertBuy(ctx context.Context, r *domain.TradePerformanceRecord) error

	// LatestOpen retrieves the most recent record for the key whose sell
	// side is not yet populated. Returns ErrNotFound if none exists.
	LatestOpen(ctx context.Context, tokenAddress, recommenderID string) (*domain.TradePerformanceRecord, error)

	// CompleteSell populates the sell-side fields of the most recent open
	// record for the key. Returns ErrNotFound when no open record exists,
	// ErrAlreadyClosed when the record was completed concurrently.
	CompleteSell(ctx context.Context, tokenAddress, recommenderID string, sell *domain.TradePerformanceRecord) error

	// ByToken retrieves all records for a token, newest first.
	ByToken(ctx context.Context, tokenAddress string) ([]*domain.TradePerformanceRecord, error)
}

// PositionStore provides access to open and closed positions.
type PositionStore interface {
	// Insert adds a new open position. Returns ErrDuplicateKey when an
	// open position already exists for (token address, recommender ID).
	Insert(ctx context.Context, p *domain.Position) error

	// Update replaces the stored position matching (token address,
	// recommender ID, entry timestamp). Returns ErrNotFound if absent.
	Update(ctx context.Context, p *domain.Position) error

	// Open retrieves all open positions ordered by entry time ASC.
	Open(ctx context.Context) ([]*domain.Position, error)

	// GetOpen retrieves the open position for the key. ErrNotFound if none.
	GetOpen(ctx context.Context, tokenAddress, recommenderID string) (*domain.Position, error)
}

// TransactionStore records every trade attempt for auditing.
type TransactionStore interface {
	// Insert appends a transaction record.
	Insert(ctx context.Context, tx *domain.TransactionRecord) error

	// ByToken retrieves all transactions for a token, newest first.
	ByToken(ctx context.Context, tokenAddress string) ([]*domain.TransactionRecord, error)
}

// SnapshotHistoryStore archives market snapshots for offline analysis.
// Write failures are logged by callers and never fail the hot path.
type SnapshotHistoryStore interface {
	// InsertBulk appends a batch of snapshot observations.
	InsertBulk(ctx context.Context, snaps []*domain.MarketSnapshot) error
}

package postgres

import (
	"context"
	"fmt"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	token_address, recommender_id, entry_price, amount, timestamp_ms,
	exit_price, exit_timestamp_ms, highest_price, partial_take_profit
`

// Insert adds a new open position. The partial unique index on
// (token_address, recommender_id) WHERE exit_timestamp_ms IS NULL enforces
// one open position per key.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (
			token_address, recommender_id, entry_price, amount, timestamp_ms,
			highest_price, partial_take_profit
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		p.TokenAddress, p.RecommenderID, p.EntryPrice, int64(p.Amount), p.TimestampMs,
		p.HighestPrice, p.PartialTakeProfit,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// Update replaces the stored position matching the key and entry timestamp.
func (s *PositionStore) Update(ctx context.Context, p *domain.Position) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE positions SET
			entry_price = $4, amount = $5, exit_price = $6, exit_timestamp_ms = $7,
			highest_price = $8, partial_take_profit = $9
		WHERE token_address = $1 AND recommender_id = $2 AND timestamp_ms = $3
	`

	tag, err := s.pool.Exec(ctx, query,
		p.TokenAddress, p.RecommenderID, p.TimestampMs,
		p.EntryPrice, int64(p.Amount), p.ExitPrice, p.ExitTimestampMs,
		p.HighestPrice, p.PartialTakeProfit,
	)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Open retrieves all open positions ordered by entry time ASC.
func (s *PositionStore) Open(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE exit_timestamp_ms IS NULL AND amount > 0
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query open positions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetOpen retrieves the open position for the key.
func (s *PositionStore) GetOpen(ctx context.Context, tokenAddress, recommenderID string) (*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE token_address = $1 AND recommender_id = $2
			AND exit_timestamp_ms IS NULL AND amount > 0
		LIMIT 1
	`

	p, err := scanPosition(s.pool.QueryRow(ctx, query, tokenAddress, recommenderID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query open position: %w", err)
	}
	return p, nil
}

func scanPosition(row rowScanner) (*domain.Position, error) {
	var p domain.Position
	var amount int64
	err := row.Scan(
		&p.TokenAddress, &p.RecommenderID, &p.EntryPrice, &amount, &p.TimestampMs,
		&p.ExitPrice, &p.ExitTimestampMs, &p.HighestPrice, &p.PartialTakeProfit,
	)
	if err != nil {
		return nil, err
	}
	p.Amount = uint64(amount)
	return &p, nil
}

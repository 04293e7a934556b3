package postgres

import (
	"context"
	"fmt"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/storage"
)

// PerformanceStore implements storage.PerformanceStore using PostgreSQL.
type PerformanceStore struct {
	pool *Pool
}

// NewPerformanceStore creates a new PerformanceStore.
func NewPerformanceStore(pool *Pool) *PerformanceStore {
	return &PerformanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PerformanceStore = (*PerformanceStore)(nil)

const perfColumns = `
	token_address, recommender_id,
	buy_price, buy_timestamp_ms, buy_amount, buy_value_usd, buy_market_cap, buy_liquidity,
	sell_price, sell_timestamp_ms, sell_amount, sell_value_usd, profit_usd, profit_percent
`

// InsertBuy adds a new record with buy-side fields populated.
func (s *PerformanceStore) InsertBuy(ctx context.Context, r *domain.TradePerformanceRecord) error {
	if r == nil || r.TokenAddress == "" || r.RecommenderID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_performance (
			token_address, recommender_id,
			buy_price, buy_timestamp_ms, buy_amount, buy_value_usd, buy_market_cap, buy_liquidity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		r.TokenAddress, r.RecommenderID,
		r.BuyPrice, r.BuyTimestampMs, int64(r.BuyAmount), r.BuyValueUsd, r.BuyMarketCap, r.BuyLiquidity,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert performance record: %w", err)
	}
	return nil
}

// LatestOpen retrieves the most recent record for the key whose sell side
// is not yet populated.
func (s *PerformanceStore) LatestOpen(ctx context.Context, tokenAddress, recommenderID string) (*domain.TradePerformanceRecord, error) {
	query := `
		SELECT ` + perfColumns + `
		FROM trade_performance
		WHERE token_address = $1 AND recommender_id = $2 AND sell_timestamp_ms = 0
		ORDER BY buy_timestamp_ms DESC
		LIMIT 1
	`

	r, err := scanPerformance(s.pool.QueryRow(ctx, query, tokenAddress, recommenderID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query latest open record: %w", err)
	}
	return r, nil
}

// CompleteSell populates the sell-side fields of the most recent open record.
func (s *PerformanceStore) CompleteSell(ctx context.Context, tokenAddress, recommenderID string, sell *domain.TradePerformanceRecord) error {
	if sell == nil {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE trade_performance SET
			sell_price = $3, sell_timestamp_ms = $4, sell_amount = $5,
			sell_value_usd = $6, profit_usd = $7, profit_percent = $8
		WHERE (token_address, recommender_id, buy_timestamp_ms) IN (
			SELECT token_address, recommender_id, buy_timestamp_ms
			FROM trade_performance
			WHERE token_address = $1 AND recommender_id = $2 AND sell_timestamp_ms = 0
			ORDER BY buy_timestamp_ms DESC
			LIMIT 1
		)
	`

	tag, err := s.pool.Exec(ctx, query,
		tokenAddress, recommenderID,
		sell.SellPrice, sell.SellTimestampMs, int64(sell.SellAmount),
		sell.SellValueUsd, sell.ProfitUsd, sell.ProfitPercent,
	)
	if err != nil {
		return fmt.Errorf("complete sell side: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ByToken retrieves all records for a token, newest first.
func (s *PerformanceStore) ByToken(ctx context.Context, tokenAddress string) ([]*domain.TradePerformanceRecord, error) {
	query := `
		SELECT ` + perfColumns + `
		FROM trade_performance
		WHERE token_address = $1
		ORDER BY buy_timestamp_ms DESC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query records by token: %w", err)
	}
	defer rows.Close()

	var result []*domain.TradePerformanceRecord
	for rows.Next() {
		r, err := scanPerformance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan performance record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerformance(row rowScanner) (*domain.TradePerformanceRecord, error) {
	var r domain.TradePerformanceRecord
	var buyAmount, sellAmount int64
	err := row.Scan(
		&r.TokenAddress, &r.RecommenderID,
		&r.BuyPrice, &r.BuyTimestampMs, &buyAmount, &r.BuyValueUsd, &r.BuyMarketCap, &r.BuyLiquidity,
		&r.SellPrice, &r.SellTimestampMs, &sellAmount, &r.SellValueUsd, &r.ProfitUsd, &r.ProfitPercent,
	)
	if err != nil {
		return nil, err
	}
	r.BuyAmount = uint64(buyAmount)
	r.SellAmount = uint64(sellAmount)
	return &r, nil
}

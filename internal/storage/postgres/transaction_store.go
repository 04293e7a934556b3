package postgres

import (
	"context"
	"fmt"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// Insert appends a transaction record.
func (s *TransactionStore) Insert(ctx context.Context, tx *domain.TransactionRecord) error {
	if tx == nil || tx.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO transactions (
			signature, position_id, token_address, side,
			amount_in, amount_out, slippage_bps, status, error, timestamp_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		tx.Signature, tx.PositionID, tx.TokenAddress, string(tx.Side),
		int64(tx.AmountIn), int64(tx.AmountOut), tx.SlippageBps, tx.Status, tx.Error, tx.TimestampMs,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ByToken retrieves all transactions for a token, newest first.
func (s *TransactionStore) ByToken(ctx context.Context, tokenAddress string) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT signature, position_id, token_address, side,
			amount_in, amount_out, slippage_bps, status, error, timestamp_ms
		FROM transactions
		WHERE token_address = $1
		ORDER BY timestamp_ms DESC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query transactions by token: %w", err)
	}
	defer rows.Close()

	var result []*domain.TransactionRecord
	for rows.Next() {
		var tx domain.TransactionRecord
		var side string
		var amountIn, amountOut int64
		if err := rows.Scan(
			&tx.Signature, &tx.PositionID, &tx.TokenAddress, &side,
			&amountIn, &amountOut, &tx.SlippageBps, &tx.Status, &tx.Error, &tx.TimestampMs,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Side = domain.TradeDirection(side)
		tx.AmountIn = uint64(amountIn)
		tx.AmountOut = uint64(amountOut)
		result = append(result, &tx)
	}
	return result, rows.Err()
}

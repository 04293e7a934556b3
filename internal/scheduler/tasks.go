package scheduler

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"solana-trade-engine/internal/observability"
	"solana-trade-engine/internal/signals"
	"solana-trade-engine/internal/storage"
	"solana-trade-engine/internal/wallet"
)

// MinOperatingLamports is the balance floor below which signal generation
// is skipped entirely (0.05 SOL).
const MinOperatingLamports = 50_000_000

// SignalGenerationTask wraps a generator run with the operating-balance
// floor: a wallet too small to trade generates no signals.
func SignalGenerationTask(executor wallet.Executor, gen *signals.Generator, logger *zap.Logger) TaskFunc {
	return func(ctx context.Context) error {
		balance, err := executor.Balance(ctx)
		if err != nil {
			return err
		}
		if balance < MinOperatingLamports {
			logger.Info("balance below operating floor, skipping signal generation",
				zap.Uint64("lamports", balance),
				zap.Uint64("floor", MinOperatingLamports))
			return nil
		}
		_, err = gen.Run(ctx)
		return err
	}
}

// WalletSync periodically refreshes the SOL balance and the token balances
// of all open positions, caching them for cheap reads.
type WalletSync struct {
	executor  wallet.Executor
	positions storage.PositionStore
	logger    *zap.Logger

	mu     sync.RWMutex
	sol    uint64
	tokens map[string]uint64
}

func NewWalletSync(executor wallet.Executor, positions storage.PositionStore, logger *zap.Logger) *WalletSync {
	return &WalletSync{
		executor:  executor,
		positions: positions,
		logger:    logger,
		tokens:    make(map[string]uint64),
	}
}

// Task runs one sync pass.
func (w *WalletSync) Task(ctx context.Context) error {
	sol, err := w.executor.Balance(ctx)
	if err != nil {
		return err
	}

	tokens := make(map[string]uint64)
	open, err := w.positions.Open(ctx)
	if err != nil {
		return err
	}
	for _, pos := range open {
		bal, err := w.executor.TokenBalance(ctx, pos.TokenAddress)
		if err != nil {
			w.logger.Warn("token balance sync failed",
				zap.String("token", pos.TokenAddress),
				zap.Error(err))
			continue
		}
		tokens[pos.TokenAddress] = bal.Amount
	}

	w.mu.Lock()
	w.sol = sol
	w.tokens = tokens
	w.mu.Unlock()
	observability.SetWalletBalance(sol)

	w.logger.Info("wallet synced",
		zap.Uint64("sol_lamports", sol),
		zap.Int("token_accounts", len(tokens)))
	return nil
}

// SOLBalance returns the last synced SOL balance in lamports.
func (w *WalletSync) SOLBalance() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sol
}

// TokenBalance returns the last synced balance for a mint, zero if unknown.
func (w *WalletSync) TokenBalance(mint string) uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tokens[mint]
}

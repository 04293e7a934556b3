// Package trader validates, sizes and executes buy/sell intents and records
// their outcomes.
package trader

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/marketdata"
	"solana-trade-engine/internal/performance"
	"solana-trade-engine/internal/slippage"
	"solana-trade-engine/internal/solana"
	"solana-trade-engine/internal/storage"
	"solana-trade-engine/internal/wallet"
)

// Config holds the risk limits of the buy sizer.
type Config struct {
	// MaxPositionFraction caps one position at this share of the wallet
	// balance.
	MaxPositionFraction float64
	// LiquidityCapFraction caps one trade at this share of pool liquidity.
	LiquidityCapFraction float64
	// BearishSizeFactor shrinks buys in a bearish market.
	BearishSizeFactor float64
	// MinTradeLamports rejects dust-sized buys.
	MinTradeLamports uint64
	// ConditionLookback is the number of history periods used to classify
	// the market.
	ConditionLookback int
}

// DefaultConfig returns the production risk limits.
func DefaultConfig() Config {
	return Config{
		MaxPositionFraction:  0.1,
		LiquidityCapFraction: 0.02,
		BearishSizeFactor:    0.8,
		MinTradeLamports:     1_000_000, // 0.001 SOL
		ConditionLookback:    24,
	}
}

// Trader drives quote, execution, confirmation and bookkeeping for buy and
// sell intents.
type Trader struct {
	cfg       Config
	executor  wallet.Executor
	market    *marketdata.Cache
	model     *slippage.Model
	validator *Validator
	tracker   *performance.Tracker
	positions storage.PositionStore
	txs       storage.TransactionStore
	ledger    *PendingSellLedger
	logger    *zap.Logger
	now       func() time.Time
}

func New(
	cfg Config,
	executor wallet.Executor,
	market *marketdata.Cache,
	model *slippage.Model,
	tracker *performance.Tracker,
	positions storage.PositionStore,
	txs storage.TransactionStore,
	logger *zap.Logger,
) *Trader {
	return &Trader{
		cfg:       cfg,
		executor:  executor,
		market:    market,
		model:     model,
		validator: NewValidator(market, logger),
		tracker:   tracker,
		positions: positions,
		txs:       txs,
		ledger:    NewPendingSellLedger(),
		logger:    logger,
		now:       time.Now,
	}
}

// Ledger exposes the pending-sell ledger for the monitor, which subtracts
// in-flight amounts before emitting new sell intents.
func (t *Trader) Ledger() *PendingSellLedger { return t.ledger }

// solPriceUsd returns the current SOL/USD price, zero when unavailable.
func (t *Trader) solPriceUsd(ctx context.Context) float64 {
	snap, err := t.market.Get(ctx, solana.WSOLMint)
	if err != nil {
		t.logger.Warn("SOL price unavailable", zap.Error(err))
		return 0
	}
	return snap.Price
}

// marketCondition classifies the market from recent SOL price history.
// Degrades to neutral when history is unavailable.
func (t *Trader) marketCondition(ctx context.Context) domain.MarketCondition {
	history, err := t.market.PriceHistory(ctx, solana.WSOLMint, t.cfg.ConditionLookback+1)
	if err != nil {
		t.logger.Warn("market condition history unavailable", zap.Error(err))
		return domain.MarketNeutral
	}
	return slippage.DetectCondition(history, t.cfg.ConditionLookback)
}

func (t *Trader) recordTransaction(ctx context.Context, tx *domain.TransactionRecord) {
	tx.TimestampMs = t.now().UnixMilli()
	if err := t.txs.Insert(ctx, tx); err != nil {
		t.logger.Error("transaction record write failed",
			zap.String("token", tx.TokenAddress),
			zap.Error(err))
	}
}

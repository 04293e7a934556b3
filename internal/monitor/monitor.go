// Package monitor watches open positions and emits sell intents on
// stop-loss, take-profit and trailing-stop conditions.
package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/idhash"
	"solana-trade-engine/internal/marketdata"
	"solana-trade-engine/internal/observability"
	"solana-trade-engine/internal/storage"
	"solana-trade-engine/internal/trader"
	"solana-trade-engine/internal/wallet"
)

// Config holds the exit thresholds.
type Config struct {
	// StopLossPct exits the full position when price falls this fraction
	// below entry.
	StopLossPct float64
	// TakeProfitPct sells half the position when price rises this fraction
	// above entry and arms the trailing stop on the remainder.
	TakeProfitPct float64
	// TrailingStopPct exits the remainder when price retraces this fraction
	// from the tracked high.
	TrailingStopPct float64
	// Interval is the cadence of monitoring passes.
	Interval time.Duration
}

// DefaultConfig returns the production exit thresholds.
func DefaultConfig() Config {
	return Config{
		StopLossPct:     0.20,
		TakeProfitPct:   0.50,
		TrailingStopPct: 0.20,
		Interval:        60 * time.Second,
	}
}

// Monitor evaluates exit conditions for open positions. It never executes
// trades itself; it only publishes sell intents.
type Monitor struct {
	cfg       Config
	positions storage.PositionStore
	market    *marketdata.Cache
	executor  wallet.Executor
	ledger    *trader.PendingSellLedger
	publish   func(domain.SellSignal) bool
	logger    *zap.Logger
	now       func() time.Time
}

func New(
	cfg Config,
	positions storage.PositionStore,
	market *marketdata.Cache,
	executor wallet.Executor,
	ledger *trader.PendingSellLedger,
	publish func(domain.SellSignal) bool,
	logger *zap.Logger,
) *Monitor {
	return &Monitor{
		cfg:       cfg,
		positions: positions,
		market:    market,
		executor:  executor,
		ledger:    ledger,
		publish:   publish,
		logger:    logger,
		now:       time.Now,
	}
}

// Check runs one monitoring pass over all open positions.
func (m *Monitor) Check(ctx context.Context) error {
	open, err := m.positions.Open(ctx)
	if err != nil {
		return fmt.Errorf("load open positions: %w", err)
	}
	observability.SetOpenPositions(len(open))
	if len(open) == 0 {
		return nil
	}

	addresses := make([]string, 0, len(open))
	for _, pos := range open {
		addresses = append(addresses, pos.TokenAddress)
	}
	snaps, err := m.market.GetBatch(ctx, addresses)
	if err != nil {
		return fmt.Errorf("refresh snapshots: %w", err)
	}

	for _, pos := range open {
		snap := snaps[pos.TokenAddress]
		if snap == nil || snap.IsZero() {
			m.logger.Warn("no market data for open position",
				zap.String("token", pos.TokenAddress))
			continue
		}
		m.evaluate(ctx, pos, snap.Price)
	}
	return nil
}

// evaluate applies the exit rules to one position at the given price.
func (m *Monitor) evaluate(ctx context.Context, pos *domain.Position, price float64) {
	if price > pos.HighestPrice {
		pos.HighestPrice = price
		if err := m.positions.Update(ctx, pos); err != nil {
			m.logger.Error("highest price update failed",
				zap.String("token", pos.TokenAddress),
				zap.Error(err))
		}
	}

	// Amount already reserved by in-flight sells is off limits.
	pending := m.ledger.Pending(pos.TokenAddress)
	if pending >= pos.Amount {
		return
	}
	available := pos.Amount - pending

	switch {
	case price <= pos.EntryPrice*(1-m.cfg.StopLossPct):
		m.emit(ctx, pos, available, domain.ReasonStopLoss)

	case pos.PartialTakeProfit && price <= pos.HighestPrice*(1-m.cfg.TrailingStopPct):
		m.emit(ctx, pos, available, domain.ReasonTrailingStop)

	case !pos.PartialTakeProfit && price >= pos.EntryPrice*(1+m.cfg.TakeProfitPct):
		half := available / 2
		if half == 0 {
			return
		}
		if !m.emit(ctx, pos, half, domain.ReasonTakeProfit) {
			return
		}
		// Arm the trailing stop on the remainder. Set at most once.
		pos.PartialTakeProfit = true
		if err := m.positions.Update(ctx, pos); err != nil {
			m.logger.Error("take-profit flag update failed",
				zap.String("token", pos.TokenAddress),
				zap.Error(err))
		}
	}
}

// emit publishes one sell intent. Returns false when the signal was dropped.
func (m *Monitor) emit(ctx context.Context, pos *domain.Position, amount uint64, reason string) bool {
	// Without a live balance the sell cannot be valued (decimals are
	// unknown); skip this pass, the next sweep retries.
	bal, err := m.executor.TokenBalance(ctx, pos.TokenAddress)
	if err != nil {
		m.logger.Warn("token balance lookup failed, skipping exit this pass",
			zap.String("token", pos.TokenAddress),
			zap.Error(err))
		return false
	}
	balance := bal.Amount
	decimals := bal.Decimals
	if amount > balance {
		amount = balance
	}
	if amount == 0 {
		return false
	}

	sig := domain.SellSignal{
		PositionID:        idhash.NewPositionID(pos.TokenAddress, pos.RecommenderID, domain.DirectionSell, m.now().UnixMilli()),
		TokenAddress:      pos.TokenAddress,
		TradeAmount:       amount,
		CurrentBalance:    balance,
		WalletAddress:     m.executor.Address(),
		SellRecommenderID: pos.RecommenderID,
		Reason:            reason,
		TokenDecimals:     decimals,
	}
	if !m.publish(sig) {
		m.logger.Warn("sell signal dropped, bus full",
			zap.String("token", pos.TokenAddress),
			zap.String("reason", reason))
		return false
	}
	observability.RecordSellIntent(reason)

	m.logger.Info("sell signal emitted",
		zap.String("token", pos.TokenAddress),
		zap.String("reason", reason),
		zap.Uint64("amount", amount))
	return true
}

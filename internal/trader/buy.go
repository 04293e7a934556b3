package trader

import (
	"context"
	"math"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/observability"
	"solana-trade-engine/internal/performance"
	"solana-trade-engine/internal/slippage"
	"solana-trade-engine/internal/solana"
	"solana-trade-engine/internal/wallet"
)

// HandleBuy executes one buy intent end to end. A validation or sizing
// rejection returns (nil, nil) after logging: it is a decision, not a fault.
// An execution failure is returned inside the Result; no performance record
// or position is created for it.
func (t *Trader) HandleBuy(ctx context.Context, sig domain.BuySignal) (*wallet.Result, error) {
	if sig.TokenAddress == solana.WSOLMint {
		// Base-currency fallback: the wallet already holds SOL, there is
		// nothing to swap.
		t.logger.Info("holding base currency, no swap needed",
			zap.String("position_id", sig.PositionID))
		return nil, nil
	}

	val, err := t.validator.ValidateToken(ctx, sig.TokenAddress)
	if err != nil {
		return nil, err
	}
	if !val.IsValid {
		observability.RecordTradeRejected("buy")
		t.logger.Info("buy rejected",
			zap.String("token", sig.TokenAddress),
			zap.String("reason", val.Reason))
		return nil, nil
	}
	snap := val.Snapshot

	balance, err := t.executor.Balance(ctx)
	if err != nil {
		return nil, err
	}

	volatility := slippage.VolatilityFromHistory(snap.PriceHistory)
	condition := t.marketCondition(ctx)
	solPrice := t.solPriceUsd(ctx)

	amountLamports := sig.AmountLamports
	if amountLamports == 0 {
		amountLamports = t.optimalBuyAmount(balance, snap, volatility, condition, solPrice)
	}
	if amountLamports < t.cfg.MinTradeLamports {
		observability.RecordTradeRejected("buy")
		t.logger.Info("buy rejected: amount too small",
			zap.String("token", sig.TokenAddress),
			zap.Uint64("lamports", amountLamports))
		return nil, nil
	}

	tradeUsd := domain.LamportsToSOL(amountLamports) * solPrice
	bps := t.model.ComputeBps(slippage.Inputs{
		TradeAmountUsd: tradeUsd,
		Liquidity:      snap.Liquidity,
		Volatility:     volatility,
		Volume24h:      snap.Volume24h,
		MarketCap:      snap.MarketCap,
		Condition:      condition,
		Direction:      domain.DirectionBuy,
	})

	res, err := t.executor.Buy(ctx, sig.TokenAddress, amountLamports, bps)
	if err != nil {
		return nil, err
	}

	status := domain.TxStatusConfirmed
	if !res.Success {
		status = domain.TxStatusFailed
	}
	observability.RecordTrade("buy", status)
	t.recordTransaction(ctx, &domain.TransactionRecord{
		Signature:    res.Signature,
		PositionID:   sig.PositionID,
		TokenAddress: sig.TokenAddress,
		Side:         domain.DirectionBuy,
		AmountIn:     amountLamports,
		AmountOut:    res.OutAmount,
		SlippageBps:  bps,
		Status:       status,
		Error:        res.Error,
	})

	if !res.Success {
		t.logger.Warn("buy execution failed",
			zap.String("token", sig.TokenAddress),
			zap.String("error", res.Error))
		return res, nil
	}

	if _, err := t.tracker.RecordBuy(ctx, performance.BuyFill{
		TokenAddress:  sig.TokenAddress,
		RecommenderID: sig.RecommenderID,
		Price:         snap.Price,
		Amount:        res.OutAmount,
		ValueUsd:      tradeUsd,
		MarketCap:     snap.MarketCap,
		Liquidity:     snap.Liquidity,
	}); err != nil {
		t.logger.Error("buy fill bookkeeping failed",
			zap.String("token", sig.TokenAddress),
			zap.Error(err))
	}

	if err := t.positions.Insert(ctx, &domain.Position{
		TokenAddress:  sig.TokenAddress,
		RecommenderID: sig.RecommenderID,
		EntryPrice:    snap.Price,
		Amount:        res.OutAmount,
		TimestampMs:   t.now().UnixMilli(),
		HighestPrice:  snap.Price,
	}); err != nil {
		t.logger.Error("position insert failed",
			zap.String("token", sig.TokenAddress),
			zap.Error(err))
	}

	t.logger.Info("buy executed",
		zap.String("token", sig.TokenAddress),
		zap.Uint64("lamports_in", amountLamports),
		zap.Uint64("tokens_out", res.OutAmount),
		zap.Int("slippage_bps", bps),
		zap.String("signature", res.Signature))
	return res, nil
}

// optimalBuyAmount sizes a buy in lamports. Never exceeds the wallet balance
// and never exceeds the liquidity cap. Without a SOL/USD price the cap
// cannot be valued, so the size degrades to zero and the buy is rejected.
func (t *Trader) optimalBuyAmount(balance uint64, snap *domain.MarketSnapshot, volatility float64, condition domain.MarketCondition, solPrice float64) uint64 {
	if solPrice <= 0 {
		return 0
	}

	size := float64(balance) * t.cfg.MaxPositionFraction

	size *= math.Max(0.5, 1-volatility)
	if condition == domain.MarketBearish {
		size *= t.cfg.BearishSizeFactor
	}

	capUsd := snap.Liquidity * t.cfg.LiquidityCapFraction
	capLamports := capUsd / solPrice * domain.LamportsPerSOL
	size = math.Min(size, capLamports)

	size = math.Min(size, float64(balance))
	if size < 0 {
		return 0
	}
	return uint64(size)
}

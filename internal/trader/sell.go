package trader

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/observability"
	"solana-trade-engine/internal/performance"
	"solana-trade-engine/internal/slippage"
	"solana-trade-engine/internal/storage"
	"solana-trade-engine/internal/wallet"
)

// HandleSell executes one sell intent. The requested amount is reserved in
// the pending-sell ledger for the whole attempt and released on every exit
// path, including a panic mid-flight.
func (t *Trader) HandleSell(ctx context.Context, sig domain.SellSignal) (res *wallet.Result, err error) {
	if sig.TradeAmount == 0 {
		observability.RecordTradeRejected("sell")
		t.logger.Info("sell rejected: non-positive amount",
			zap.String("token", sig.TokenAddress))
		return nil, nil
	}
	if sig.TradeAmount > sig.CurrentBalance {
		observability.RecordTradeRejected("sell")
		t.logger.Info("sell rejected: amount exceeds balance",
			zap.String("token", sig.TokenAddress),
			zap.Uint64("amount", sig.TradeAmount),
			zap.Uint64("balance", sig.CurrentBalance))
		return nil, nil
	}

	t.ledger.Add(sig.TokenAddress, sig.TradeAmount)
	defer t.ledger.Release(sig.TokenAddress, sig.TradeAmount)
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("sell panicked",
				zap.String("token", sig.TokenAddress),
				zap.Any("panic", r))
			res = nil
			err = fmt.Errorf("sell of %s panicked: %v", sig.TokenAddress, r)
		}
	}()

	snap, err := t.market.Get(ctx, sig.TokenAddress)
	if err != nil {
		return nil, err
	}

	volatility := slippage.VolatilityFromHistory(snap.PriceHistory)
	condition := t.marketCondition(ctx)
	solPrice := t.solPriceUsd(ctx)

	// Value the sold amount at the current market price.
	tradeUsd := domain.FromBaseUnits(sig.TradeAmount, sig.TokenDecimals) * snap.Price
	bps := t.model.ComputeBps(slippage.Inputs{
		TradeAmountUsd: tradeUsd,
		Liquidity:      snap.Liquidity,
		Volatility:     volatility,
		Volume24h:      snap.Volume24h,
		MarketCap:      snap.MarketCap,
		Condition:      condition,
		Direction:      domain.DirectionSell,
	})

	res, err = t.executor.Sell(ctx, sig.TokenAddress, sig.TradeAmount, bps)
	if err != nil {
		return nil, err
	}

	status := domain.TxStatusConfirmed
	if !res.Success {
		status = domain.TxStatusFailed
	}
	observability.RecordTrade("sell", status)
	t.recordTransaction(ctx, &domain.TransactionRecord{
		Signature:    res.Signature,
		PositionID:   sig.PositionID,
		TokenAddress: sig.TokenAddress,
		Side:         domain.DirectionSell,
		AmountIn:     sig.TradeAmount,
		AmountOut:    res.OutAmount,
		SlippageBps:  bps,
		Status:       status,
		Error:        res.Error,
	})

	if !res.Success {
		t.logger.Warn("sell execution failed",
			zap.String("token", sig.TokenAddress),
			zap.String("reason", sig.Reason),
			zap.String("error", res.Error))
		return res, nil
	}

	sellValueUsd := domain.LamportsToSOL(res.OutAmount) * solPrice
	_, perr := t.tracker.CompleteSell(ctx, performance.SellFill{
		TokenAddress:  sig.TokenAddress,
		RecommenderID: sig.SellRecommenderID,
		Price:         snap.Price,
		Amount:        sig.TradeAmount,
		ValueUsd:      sellValueUsd,
	})
	switch {
	case errors.Is(perr, storage.ErrNotFound):
		t.logger.Warn("unmatched sell, no open buy record",
			zap.String("token", sig.TokenAddress),
			zap.String("recommender", sig.SellRecommenderID))
	case perr != nil:
		t.logger.Error("sell fill bookkeeping failed",
			zap.String("token", sig.TokenAddress),
			zap.Error(perr))
	}

	t.closePositionAmount(ctx, sig, snap.Price)

	t.logger.Info("sell executed",
		zap.String("token", sig.TokenAddress),
		zap.String("reason", sig.Reason),
		zap.Uint64("tokens_in", sig.TradeAmount),
		zap.Uint64("lamports_out", res.OutAmount),
		zap.Int("slippage_bps", bps),
		zap.String("signature", res.Signature))
	return res, nil
}

// closePositionAmount reduces the open position by the sold amount and marks
// it exited when nothing remains.
func (t *Trader) closePositionAmount(ctx context.Context, sig domain.SellSignal, price float64) {
	pos, err := t.positions.GetOpen(ctx, sig.TokenAddress, sig.SellRecommenderID)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		t.logger.Error("position lookup failed",
			zap.String("token", sig.TokenAddress),
			zap.Error(err))
		return
	}

	if sig.TradeAmount >= pos.Amount {
		pos.Amount = 0
		now := t.now().UnixMilli()
		pos.ExitPrice = &price
		pos.ExitTimestampMs = &now
	} else {
		pos.Amount -= sig.TradeAmount
	}

	if err := t.positions.Update(ctx, pos); err != nil {
		t.logger.Error("position update failed",
			zap.String("token", sig.TokenAddress),
			zap.Error(err))
	}
}

// Package performance persists buy/sell fills and derives realized P&L.
package performance

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/storage"
)

// BuyFill captures the executed buy side of a trade.
type BuyFill struct {
	TokenAddress  string
	RecommenderID string
	Price         float64
	Amount        uint64 // token base units received
	ValueUsd      float64
	MarketCap     float64
	Liquidity     float64
}

// SellFill captures the executed sell side of a trade.
type SellFill struct {
	TokenAddress  string
	RecommenderID string
	Price         float64
	Amount        uint64 // token base units sold
	ValueUsd      float64
}

// Tracker records fills against the performance store. A sell only completes
// a record when a matching open buy exists; unmatched sells are reported via
// storage.ErrNotFound and never fabricate a record.
type Tracker struct {
	store  storage.PerformanceStore
	logger *zap.Logger
	now    func() time.Time
}

func NewTracker(store storage.PerformanceStore, logger *zap.Logger) *Tracker {
	return &Tracker{store: store, logger: logger, now: time.Now}
}

// RecordBuy persists a new performance record with the buy side populated.
func (t *Tracker) RecordBuy(ctx context.Context, fill BuyFill) (*domain.TradePerformanceRecord, error) {
	r := &domain.TradePerformanceRecord{
		TokenAddress:   fill.TokenAddress,
		RecommenderID:  fill.RecommenderID,
		BuyPrice:       fill.Price,
		BuyTimestampMs: t.now().UnixMilli(),
		BuyAmount:      fill.Amount,
		BuyValueUsd:    fill.ValueUsd,
		BuyMarketCap:   fill.MarketCap,
		BuyLiquidity:   fill.Liquidity,
	}
	if err := t.store.InsertBuy(ctx, r); err != nil {
		return nil, fmt.Errorf("insert buy record: %w", err)
	}
	t.logger.Info("buy recorded",
		zap.String("token", fill.TokenAddress),
		zap.String("recommender", fill.RecommenderID),
		zap.Float64("value_usd", fill.ValueUsd))
	return r, nil
}

// CompleteSell closes the most recent open record for the fill's key and
// returns it with realized P&L. Returns storage.ErrNotFound when no open
// buy exists.
func (t *Tracker) CompleteSell(ctx context.Context, fill SellFill) (*domain.TradePerformanceRecord, error) {
	open, err := t.store.LatestOpen(ctx, fill.TokenAddress, fill.RecommenderID)
	if err != nil {
		return nil, err
	}

	profit := fill.ValueUsd - open.BuyValueUsd
	var pct float64
	if open.BuyValueUsd != 0 {
		pct = profit / open.BuyValueUsd * 100
	}

	sell := &domain.TradePerformanceRecord{
		SellPrice:       fill.Price,
		SellTimestampMs: t.now().UnixMilli(),
		SellAmount:      fill.Amount,
		SellValueUsd:    fill.ValueUsd,
		ProfitUsd:       profit,
		ProfitPercent:   pct,
	}
	if err := t.store.CompleteSell(ctx, fill.TokenAddress, fill.RecommenderID, sell); err != nil {
		return nil, err
	}

	t.logger.Info("sell recorded",
		zap.String("token", fill.TokenAddress),
		zap.String("recommender", fill.RecommenderID),
		zap.Float64("profit_usd", profit),
		zap.Float64("profit_percent", pct))

	closed := *open
	closed.SellPrice = sell.SellPrice
	closed.SellTimestampMs = sell.SellTimestampMs
	closed.SellAmount = sell.SellAmount
	closed.SellValueUsd = sell.SellValueUsd
	closed.ProfitUsd = profit
	closed.ProfitPercent = pct
	return &closed, nil
}

// History returns all records for a token, newest first.
func (t *Tracker) History(ctx context.Context, tokenAddress string) ([]*domain.TradePerformanceRecord, error) {
	return t.store.ByToken(ctx, tokenAddress)
}

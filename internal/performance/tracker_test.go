package performance

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"solana-trade-engine/internal/storage"
	"solana-trade-engine/internal/storage/memory"
)

func newTestTracker() *Tracker {
	tr := NewTracker(memory.NewPerformanceStore(), zap.NewNop())
	ms := int64(1_700_000_000_000)
	tr.now = func() time.Time {
		ms += 1000
		return time.UnixMilli(ms)
	}
	return tr
}

func TestRecordBuyThenCompleteSell(t *testing.T) {
	tr := newTestTracker()
	ctx := context.Background()

	_, err := tr.RecordBuy(ctx, BuyFill{
		TokenAddress:  "mintA",
		RecommenderID: "rec-1",
		Price:         0.5,
		Amount:        1_000_000,
		ValueUsd:      100,
		MarketCap:     5e6,
		Liquidity:     2e5,
	})
	if err != nil {
		t.Fatalf("record buy: %v", err)
	}

	closed, err := tr.CompleteSell(ctx, SellFill{
		TokenAddress:  "mintA",
		RecommenderID: "rec-1",
		Price:         0.75,
		Amount:        1_000_000,
		ValueUsd:      150,
	})
	if err != nil {
		t.Fatalf("complete sell: %v", err)
	}
	if closed.ProfitUsd != 50 {
		t.Fatalf("expected profit 50, got %f", closed.ProfitUsd)
	}
	if closed.ProfitPercent != 50 {
		t.Fatalf("expected 50%%, got %f", closed.ProfitPercent)
	}
	if !closed.Closed() {
		t.Fatal("record should be closed")
	}
}

func TestCompleteSellUnmatched(t *testing.T) {
	tr := newTestTracker()
	_, err := tr.CompleteSell(context.Background(), SellFill{
		TokenAddress:  "mintA",
		RecommenderID: "rec-1",
		ValueUsd:      10,
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteSellLoss(t *testing.T) {
	tr := newTestTracker()
	ctx := context.Background()

	if _, err := tr.RecordBuy(ctx, BuyFill{
		TokenAddress: "mintA", RecommenderID: "rec-1", ValueUsd: 200, Amount: 10,
	}); err != nil {
		t.Fatalf("record buy: %v", err)
	}

	closed, err := tr.CompleteSell(ctx, SellFill{
		TokenAddress: "mintA", RecommenderID: "rec-1", ValueUsd: 80, Amount: 10,
	})
	if err != nil {
		t.Fatalf("complete sell: %v", err)
	}
	if closed.ProfitUsd != -120 {
		t.Fatalf("expected -120, got %f", closed.ProfitUsd)
	}
	if closed.ProfitPercent != -60 {
		t.Fatalf("expected -60%%, got %f", closed.ProfitPercent)
	}
}

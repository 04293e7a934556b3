package signals

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/solana"
)

func TestGeneratorPublishesTopCandidate(t *testing.T) {
	src := &stubSource{name: "trend", sigs: []domain.TokenSignal{
		{Address: "mintA", Score: 55, Liquidity: 1e6, Volume24h: 1e6, MarketCap: 1e7, Reasons: []string{"trend", "momentum"}},
	}}

	var published []domain.BuySignal
	gen := NewGenerator(
		NewAggregator(zap.NewNop(), src),
		NewScorer(zap.NewNop()),
		func(s domain.BuySignal) bool { published = append(published, s); return true },
		zap.NewNop(),
	)

	intent, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(published) != 1 {
		t.Fatalf("expected 1 published signal, got %d", len(published))
	}
	if intent.TokenAddress != "mintA" {
		t.Fatalf("expected mintA, got %s", intent.TokenAddress)
	}
	if intent.AmountLamports != 0 {
		t.Fatalf("scored candidate should defer sizing, got %d", intent.AmountLamports)
	}
	if intent.PositionID == "" {
		t.Fatal("expected a position ID")
	}
	if intent.Reason != "trend; momentum" {
		t.Fatalf("unexpected reason: %q", intent.Reason)
	}
}

func TestGeneratorFallsBackToBaseCurrency(t *testing.T) {
	src := &stubSource{name: "trend", sigs: []domain.TokenSignal{
		{Address: "mintA", Score: 10, Liquidity: 1_000, Volume24h: 1_000},
	}}

	var published []domain.BuySignal
	gen := NewGenerator(
		NewAggregator(zap.NewNop(), src),
		NewScorer(zap.NewNop()),
		func(s domain.BuySignal) bool { published = append(published, s); return true },
		zap.NewNop(),
	)

	intent, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.TokenAddress != solana.WSOLMint {
		t.Fatalf("expected base currency fallback, got %s", intent.TokenAddress)
	}
	if intent.AmountLamports != FallbackBuyLamports {
		t.Fatalf("expected %d lamports, got %d", FallbackBuyLamports, intent.AmountLamports)
	}
	if len(published) != 1 {
		t.Fatalf("expected 1 published signal, got %d", len(published))
	}
}

func TestGeneratorDropsWhenBusFull(t *testing.T) {
	src := &stubSource{name: "trend", sigs: nil}
	gen := NewGenerator(
		NewAggregator(zap.NewNop(), src),
		NewScorer(zap.NewNop()),
		func(domain.BuySignal) bool { return false },
		zap.NewNop(),
	)

	intent, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent != nil {
		t.Fatal("dropped publish should yield nil intent")
	}
}

package signals

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
)

type stubSource struct {
	name string
	sigs []domain.TokenSignal
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context) ([]domain.TokenSignal, error) {
	return s.sigs, s.err
}

func TestAggregateMergesDuplicates(t *testing.T) {
	trend := &stubSource{name: "trend", sigs: []domain.TokenSignal{
		{Address: "mintA", Score: 5, Reasons: []string{"trend"}, Price: 1.5, Technical: &domain.TechnicalSignals{RSI: 40}},
		{Address: "mintB", Score: 3, Reasons: []string{"trend"}},
	}}
	social := &stubSource{name: "social", sigs: []domain.TokenSignal{
		{Address: "mintA", Score: 7, Reasons: []string{"social buzz"}, Social: &domain.SocialMetrics{MentionCount: 200}},
	}}

	agg := NewAggregator(zap.NewNop(), trend, social)
	out := agg.Aggregate(context.Background())

	if len(out) != 2 {
		t.Fatalf("expected 2 merged signals, got %d", len(out))
	}
	a := out[0]
	if a.Address != "mintA" {
		t.Fatalf("expected mintA first, got %s", a.Address)
	}
	if a.Score != 12 {
		t.Fatalf("expected summed score 12, got %f", a.Score)
	}
	if len(a.Reasons) != 2 || a.Reasons[0] != "trend" || a.Reasons[1] != "social buzz" {
		t.Fatalf("reasons not concatenated: %v", a.Reasons)
	}
	if a.Technical == nil || a.Social == nil {
		t.Fatal("expected technical and social payloads merged")
	}
	if a.Price != 1.5 {
		t.Fatalf("expected price kept from first source, got %f", a.Price)
	}
}

func TestAggregateSkipsFailingSource(t *testing.T) {
	ok := &stubSource{name: "trend", sigs: []domain.TokenSignal{{Address: "mintA", Score: 1}}}
	bad := &stubSource{name: "rank", err: errors.New("feed down")}

	agg := NewAggregator(zap.NewNop(), bad, ok)
	out := agg.Aggregate(context.Background())
	if len(out) != 1 || out[0].Address != "mintA" {
		t.Fatalf("expected surviving source's signal, got %v", out)
	}
}

func TestFeedSourceDrainsWithoutBlocking(t *testing.T) {
	src := NewFeedSource("rank", 2)
	if !src.Submit(domain.TokenSignal{Address: "mintA"}) {
		t.Fatal("submit into empty buffer failed")
	}
	if !src.Submit(domain.TokenSignal{Address: "mintB"}) {
		t.Fatal("submit into half-full buffer failed")
	}
	if src.Submit(domain.TokenSignal{Address: "mintC"}) {
		t.Fatal("submit into full buffer should report false")
	}

	out, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 drained signals, got %d", len(out))
	}

	out, _ = src.Fetch(context.Background())
	if len(out) != 0 {
		t.Fatalf("expected empty drain, got %d", len(out))
	}
}

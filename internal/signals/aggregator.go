// Package signals collects raw trading signals from independent sources,
// normalizes them into TokenSignal values and ranks them for execution.
package signals

import (
	"context"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
)

// Source produces normalized token signals from one feed family
// (trend, social, rank).
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.TokenSignal, error)
}

// Aggregator merges signals from all configured sources. A failing source is
// logged and skipped: one dead feed never blocks the cycle.
type Aggregator struct {
	sources []Source
	logger  *zap.Logger
}

func NewAggregator(logger *zap.Logger, sources ...Source) *Aggregator {
	return &Aggregator{sources: sources, logger: logger}
}

// Aggregate fetches every source and merges duplicates by address:
// reasons concatenate, partial scores sum, and unset technical/social
// payloads are filled from whichever source carries them.
func (a *Aggregator) Aggregate(ctx context.Context) []domain.TokenSignal {
	merged := make(map[string]*domain.TokenSignal)
	var order []string

	for _, src := range a.sources {
		sigs, err := src.Fetch(ctx)
		if err != nil {
			a.logger.Warn("signal source failed",
				zap.String("source", src.Name()),
				zap.Error(err))
			continue
		}
		for i := range sigs {
			sig := sigs[i]
			if sig.Address == "" {
				continue
			}
			existing, ok := merged[sig.Address]
			if !ok {
				cp := sig
				merged[sig.Address] = &cp
				order = append(order, sig.Address)
				continue
			}
			mergeInto(existing, &sig)
		}
	}

	out := make([]domain.TokenSignal, 0, len(order))
	for _, addr := range order {
		out = append(out, *merged[addr])
	}
	return out
}

func mergeInto(dst, src *domain.TokenSignal) {
	dst.Score += src.Score
	dst.Reasons = append(dst.Reasons, src.Reasons...)
	if dst.Symbol == "" {
		dst.Symbol = src.Symbol
	}
	if dst.Price == 0 {
		dst.Price = src.Price
	}
	if dst.MarketCap == 0 {
		dst.MarketCap = src.MarketCap
	}
	if dst.Volume24h == 0 {
		dst.Volume24h = src.Volume24h
	}
	if dst.Liquidity == 0 {
		dst.Liquidity = src.Liquidity
	}
	if dst.Technical == nil {
		dst.Technical = src.Technical
	}
	if dst.Social == nil {
		dst.Social = src.Social
	}
}

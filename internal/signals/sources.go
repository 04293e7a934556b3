package signals

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/marketdata"
)

// TrendSource derives technical signals for a configured watchlist from
// market data snapshots and price history.
type TrendSource struct {
	cache        *marketdata.Cache
	watchlist    []string
	historyLimit int
	logger       *zap.Logger
}

func NewTrendSource(cache *marketdata.Cache, watchlist []string, logger *zap.Logger) *TrendSource {
	return &TrendSource{
		cache:        cache,
		watchlist:    watchlist,
		historyLimit: 50,
		logger:       logger,
	}
}

func (s *TrendSource) Name() string { return "trend" }

func (s *TrendSource) Fetch(ctx context.Context) ([]domain.TokenSignal, error) {
	snaps, err := s.cache.GetBatch(ctx, s.watchlist)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshots: %w", err)
	}

	out := make([]domain.TokenSignal, 0, len(s.watchlist))
	for _, addr := range s.watchlist {
		snap, ok := snaps[addr]
		if !ok || snap.IsZero() {
			continue
		}

		history := snap.PriceHistory
		if len(history) == 0 {
			history, err = s.cache.PriceHistory(ctx, addr, s.historyLimit)
			if err != nil {
				s.logger.Warn("price history unavailable",
					zap.String("address", addr),
					zap.Error(err))
			}
		}

		out = append(out, domain.TokenSignal{
			Address:   addr,
			Price:     snap.Price,
			MarketCap: snap.MarketCap,
			Volume24h: snap.Volume24h,
			Liquidity: snap.Liquidity,
			Reasons:   []string{"trend"},
			Technical: ComputeTechnicals(history),
		})
	}
	return out, nil
}

// FeedSource adapts a push feed (websocket rank stream, social consumer) to
// the pull-based Source interface. Producers push into Submit; Fetch drains
// whatever accumulated since the last cycle without blocking.
type FeedSource struct {
	name string
	ch   chan domain.TokenSignal
}

func NewFeedSource(name string, buffer int) *FeedSource {
	return &FeedSource{name: name, ch: make(chan domain.TokenSignal, buffer)}
}

func (s *FeedSource) Name() string { return s.name }

// Submit enqueues a signal for the next aggregation cycle. Returns false if
// the buffer is full; the caller decides whether to drop or retry.
func (s *FeedSource) Submit(sig domain.TokenSignal) bool {
	select {
	case s.ch <- sig:
		return true
	default:
		return false
	}
}

func (s *FeedSource) Fetch(_ context.Context) ([]domain.TokenSignal, error) {
	var out []domain.TokenSignal
	for {
		select {
		case sig := <-s.ch:
			out = append(out, sig)
		default:
			return out, nil
		}
	}
}

package signals

import (
	"testing"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
)

func TestTechnicalScoreBands(t *testing.T) {
	tests := []struct {
		name string
		tech domain.TechnicalSignals
		want float64
	}{
		{
			name: "oversold bullish macd increasing volume",
			tech: domain.TechnicalSignals{
				RSI:           25,
				MACD:          domain.MACD{Value: 2, Signal: 1, Histogram: 1},
				VolumeProfile: domain.VolumeProfile{Trend: domain.VolumeTrendIncreasing, UnusualActivity: true},
				Volatility:    0.04,
			},
			want: 8 + 5 + 3 + 2 + 2,
		},
		{
			name: "overbought bearish macd volatile",
			tech: domain.TechnicalSignals{
				RSI:           80,
				MACD:          domain.MACD{Value: -2, Signal: -1, Histogram: -1},
				VolumeProfile: domain.VolumeProfile{Trend: domain.VolumeTrendDecreasing},
				Volatility:    0.3,
			},
			want: 1 + 1 - 2,
		},
		{
			name: "neutral",
			tech: domain.TechnicalSignals{
				RSI:        50,
				MACD:       domain.MACD{},
				Volatility: 0.1,
			},
			want: 4 + 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := technicalScore(&tt.tech); got != tt.want {
				t.Fatalf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestTechnicalScoreNeverNegative(t *testing.T) {
	tech := domain.TechnicalSignals{
		RSI:        80,
		MACD:       domain.MACD{Value: -2, Signal: -1, Histogram: -1},
		Volatility: 0.5,
	}
	if got := technicalScore(&tech); got < 0 {
		t.Fatalf("technical score went negative: %f", got)
	}
}

func TestSocialScore(t *testing.T) {
	m := domain.SocialMetrics{MentionCount: 500, Sentiment: 0.5, InfluencerMentions: 3}
	// min(5,10) + 0.5*10 + min(6,10) = 16
	if got := socialScore(&m); got != 16 {
		t.Fatalf("expected 16, got %f", got)
	}

	caps := domain.SocialMetrics{MentionCount: 100_000, Sentiment: 1, InfluencerMentions: 100}
	if got := socialScore(&caps); got != 30 {
		t.Fatalf("expected capped 30, got %f", got)
	}

	negative := domain.SocialMetrics{MentionCount: 0, Sentiment: -1, InfluencerMentions: 0}
	if got := socialScore(&negative); got != 0 {
		t.Fatalf("expected floor 0, got %f", got)
	}
}

func TestMarketScoreCapBands(t *testing.T) {
	tests := []struct {
		cap  float64
		want float64
	}{
		{2e9, 1},
		{5e8, 3},
		{5e7, 7},
		{5e6, 5},
		{5e5, 2},
	}
	for _, tt := range tests {
		sig := domain.TokenSignal{MarketCap: tt.cap}
		if got := marketScore(&sig); got != tt.want {
			t.Fatalf("cap %g: expected %f, got %f", tt.cap, tt.want, got)
		}
	}
}

func TestMarketScoreRatioTermsCapped(t *testing.T) {
	sig := domain.TokenSignal{
		MarketCap: 1e6,
		Volume24h: 1e6, // ratio 100% -> capped 10
		Liquidity: 1e6, // ratio 100% -> capped 10
	}
	if got := marketScore(&sig); got != 5+10+10 {
		t.Fatalf("expected 25, got %f", got)
	}
}

func TestQualifiesFilter(t *testing.T) {
	s := NewScorer(zap.NewNop())
	tests := []struct {
		name string
		sig  domain.TokenSignal
		want bool
	}{
		{"all above", domain.TokenSignal{Score: 60, Liquidity: 50_000, Volume24h: 100_000}, true},
		{"score below", domain.TokenSignal{Score: 59.9, Liquidity: 50_000, Volume24h: 100_000}, false},
		{"liquidity below", domain.TokenSignal{Score: 90, Liquidity: 49_999, Volume24h: 100_000}, false},
		{"volume below", domain.TokenSignal{Score: 90, Liquidity: 50_000, Volume24h: 99_999}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Qualifies(&tt.sig); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRankSortsDescendingAndFilters(t *testing.T) {
	s := NewScorer(zap.NewNop())
	// MarketCap 1e7 contributes 7+10+10=27 to each; partial scores
	// differentiate the two qualifying instruments.
	sigs := []domain.TokenSignal{
		{Address: "mid", Score: 40, Liquidity: 1e6, Volume24h: 1e6, MarketCap: 1e7},
		{Address: "top", Score: 55, Liquidity: 1e6, Volume24h: 1e6, MarketCap: 1e7},
		{Address: "filtered", Score: 10, Liquidity: 1_000, Volume24h: 1_000},
	}
	ranked := s.Rank(sigs)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 qualifying signals, got %d", len(ranked))
	}
	if ranked[0].Address != "top" || ranked[1].Address != "mid" {
		t.Fatalf("wrong order: %s, %s", ranked[0].Address, ranked[1].Address)
	}
	if ranked[0].Score != 55+27 {
		t.Fatalf("expected recomputed score 82, got %f", ranked[0].Score)
	}
}

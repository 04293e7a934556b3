package signals

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/observability"
)

// Qualification thresholds. An instrument is tradeable only when all three
// hold.
const (
	MinScore     = 60.0
	MinLiquidity = 50_000.0
	MinVolume24h = 100_000.0
)

// Breakdown carries the sub-scores of one instrument.
type Breakdown struct {
	Technical float64
	Social    float64
	Market    float64
	Total     float64
}

// Scorer ranks aggregated token signals.
type Scorer struct {
	logger *zap.Logger
}

func NewScorer(logger *zap.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Score computes the sub-scores for a single signal. Technical and social
// sub-scores are never negative.
func (s *Scorer) Score(sig *domain.TokenSignal) Breakdown {
	b := Breakdown{
		Technical: technicalScore(sig.Technical),
		Social:    socialScore(sig.Social),
		Market:    marketScore(sig),
	}
	b.Total = b.Technical + b.Social + b.Market + sig.Score
	return b
}

// Qualifies reports whether a scored signal passes the trade filter.
func (s *Scorer) Qualifies(sig *domain.TokenSignal) bool {
	return sig.Score >= MinScore &&
		sig.Liquidity >= MinLiquidity &&
		sig.Volume24h >= MinVolume24h
}

// Rank scores every signal in place, drops non-qualifying instruments and
// returns the rest sorted by score descending.
func (s *Scorer) Rank(sigs []domain.TokenSignal) []domain.TokenSignal {
	qualified := make([]domain.TokenSignal, 0, len(sigs))
	for i := range sigs {
		b := s.Score(&sigs[i])
		sigs[i].Score = b.Total
		observability.RecordSignalScored(s.Qualifies(&sigs[i]))
		if s.Qualifies(&sigs[i]) {
			qualified = append(qualified, sigs[i])
		} else {
			s.logger.Debug("signal filtered out",
				zap.String("address", sigs[i].Address),
				zap.Float64("score", b.Total),
				zap.Float64("liquidity", sigs[i].Liquidity),
				zap.Float64("volume24h", sigs[i].Volume24h))
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Score > qualified[j].Score
	})
	return qualified
}

func technicalScore(t *domain.TechnicalSignals) float64 {
	if t == nil {
		return 0
	}

	var score float64
	switch {
	case t.RSI < 30: // oversold
		score += 8
	case t.RSI > 70: // overbought
		score += 1
	default:
		score += 4
	}

	switch {
	case t.MACD.Value > t.MACD.Signal && t.MACD.Histogram > 0:
		score += 5
	case t.MACD.Value < t.MACD.Signal && t.MACD.Histogram < 0:
		score += 1
	default:
		score += 2
	}

	if t.VolumeProfile.Trend == domain.VolumeTrendIncreasing {
		score += 3
	}
	if t.VolumeProfile.UnusualActivity {
		score += 2
	}

	switch {
	case t.Volatility > 0.2:
		score -= 2
	case t.Volatility < 0.05:
		score += 2
	}

	return math.Max(score, 0)
}

func socialScore(m *domain.SocialMetrics) float64 {
	if m == nil {
		return 0
	}
	score := math.Min(float64(m.MentionCount)/100, 10)
	score += m.Sentiment * 10
	score += math.Min(float64(m.InfluencerMentions)*2, 10)
	return math.Max(score, 0)
}

func marketScore(sig *domain.TokenSignal) float64 {
	var score float64
	switch cap := sig.MarketCap; {
	case cap >= 1e9:
		score += 1
	case cap >= 1e8:
		score += 3
	case cap >= 1e7:
		score += 7
	case cap >= 1e6:
		score += 5
	default:
		score += 2
	}

	if sig.MarketCap > 0 {
		score += math.Min(sig.Volume24h/sig.MarketCap*100, 10)
		score += math.Min(sig.Liquidity/sig.MarketCap*100, 10)
	}
	return score
}

package slippage

import (
	"math"

	"solana-trade-engine/internal/domain"
)

// VolatilityFromHistory returns the standard deviation of log returns over
// the given price series. Fewer than two usable points yields 0.
func VolatilityFromHistory(history []domain.PricePoint) float64 {
	var returns []float64
	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1].Price, history[i].Price
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(returns)))
}

// conditionThreshold is the relative move over the lookback window that
// flips the market condition out of neutral.
const conditionThreshold = 0.05

// DetectCondition classifies the market by comparing the latest price to the
// price lookback periods earlier: more than +5% is bullish, less than -5%
// bearish, anything else (including insufficient history) neutral.
func DetectCondition(history []domain.PricePoint, lookback int) domain.MarketCondition {
	if lookback <= 0 || len(history) <= lookback {
		return domain.MarketNeutral
	}
	latest := history[len(history)-1].Price
	past := history[len(history)-1-lookback].Price
	if past <= 0 {
		return domain.MarketNeutral
	}

	change := (latest - past) / past
	switch {
	case change > conditionThreshold:
		return domain.MarketBullish
	case change < -conditionThreshold:
		return domain.MarketBearish
	default:
		return domain.MarketNeutral
	}
}

package signals

import (
	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/slippage"
)

const (
	rsiPeriod  = 14
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// ComputeTechnicals derives RSI, MACD and volatility from a price series.
// Returns neutral values (RSI 50, zero MACD) when the series is too short
// for the indicator windows.
func ComputeTechnicals(history []domain.PricePoint) *domain.TechnicalSignals {
	prices := make([]float64, 0, len(history))
	for _, p := range history {
		if p.Price > 0 {
			prices = append(prices, p.Price)
		}
	}

	tech := &domain.TechnicalSignals{
		RSI:        computeRSI(prices),
		Volatility: slippage.VolatilityFromHistory(history),
	}
	tech.MACD = computeMACD(prices)

	trend := domain.VolumeTrendStable
	if n := len(prices); n >= 2 {
		switch {
		case prices[n-1] > prices[n-2]:
			trend = domain.VolumeTrendIncreasing
		case prices[n-1] < prices[n-2]:
			trend = domain.VolumeTrendDecreasing
		}
	}
	tech.VolumeProfile = domain.VolumeProfile{Trend: trend}
	return tech
}

// computeRSI is the Wilder relative strength index over rsiPeriod samples.
func computeRSI(prices []float64) float64 {
	if len(prices) < rsiPeriod+1 {
		return 50
	}

	var gain, loss float64
	start := len(prices) - rsiPeriod - 1
	for i := start + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

func computeMACD(prices []float64) domain.MACD {
	if len(prices) < macdSlow {
		return domain.MACD{}
	}

	fast := emaSeries(prices, macdFast)
	slow := emaSeries(prices, macdSlow)

	macdLine := make([]float64, len(prices))
	for i := range prices {
		macdLine[i] = fast[i] - slow[i]
	}

	signal := emaSeries(macdLine[macdSlow-1:], macdSignal)
	last := len(prices) - 1
	sig := signal[len(signal)-1]
	return domain.MACD{
		Value:     macdLine[last],
		Signal:    sig,
		Histogram: macdLine[last] - sig,
	}
}

// emaSeries returns the exponential moving average at every index, seeded
// with the first sample.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

package signals

import (
	"testing"

	"solana-trade-engine/internal/domain"
)

func series(prices ...float64) []domain.PricePoint {
	out := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = domain.PricePoint{TimestampMs: int64(i), Price: p}
	}
	return out
}

func TestComputeTechnicalsShortSeriesNeutral(t *testing.T) {
	tech := ComputeTechnicals(series(1, 1.1, 1.2))
	if tech.RSI != 50 {
		t.Fatalf("expected neutral RSI 50, got %f", tech.RSI)
	}
	if tech.MACD.Value != 0 || tech.MACD.Signal != 0 {
		t.Fatalf("expected zero MACD, got %+v", tech.MACD)
	}
	if tech.VolumeProfile.Trend != domain.VolumeTrendIncreasing {
		t.Fatalf("expected increasing trend, got %s", tech.VolumeProfile.Trend)
	}
}

func TestComputeRSI(t *testing.T) {
	// Monotonically rising series: no losses, RSI pegs at 100.
	up := make([]float64, 30)
	for i := range up {
		up[i] = 1 + float64(i)*0.01
	}
	if got := computeRSI(up); got != 100 {
		t.Fatalf("expected RSI 100 for all-gains series, got %f", got)
	}

	down := make([]float64, 30)
	for i := range down {
		down[i] = 10 - float64(i)*0.1
	}
	if got := computeRSI(down); got != 0 {
		t.Fatalf("expected RSI 0 for all-losses series, got %f", got)
	}

	// Alternating equal gains and losses balance out near 50.
	alt := make([]float64, 31)
	alt[0] = 10
	for i := 1; i < len(alt); i++ {
		if i%2 == 1 {
			alt[i] = alt[i-1] + 0.1
		} else {
			alt[i] = alt[i-1] - 0.1
		}
	}
	got := computeRSI(alt)
	if got < 45 || got > 55 {
		t.Fatalf("expected RSI near 50, got %f", got)
	}
}

func TestComputeMACDUptrendPositive(t *testing.T) {
	up := make([]float64, 60)
	for i := range up {
		up[i] = 1 + float64(i)*0.05
	}
	macd := computeMACD(up)
	if macd.Value <= 0 {
		t.Fatalf("expected positive MACD in uptrend, got %f", macd.Value)
	}
}

func TestComputeTechnicalsIgnoresZeroPrices(t *testing.T) {
	tech := ComputeTechnicals(series(1, 0, 1.1, 0, 1.2))
	if tech == nil {
		t.Fatal("expected technicals")
	}
	if tech.RSI != 50 {
		t.Fatalf("expected neutral RSI for short cleaned series, got %f", tech.RSI)
	}
}

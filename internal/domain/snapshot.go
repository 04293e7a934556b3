package domain

// PricePoint is one historical price observation.
type PricePoint struct {
	TimestampMs int64
	Price       float64
}

// MarketSnapshot is a per-instrument market state owned by the market data
// cache. Mutated only by cache refresh; expires after the configured TTL.
type MarketSnapshot struct {
	Address      string
	Price        float64
	MarketCap    float64
	Liquidity    float64
	Volume24h    float64
	PriceHistory []PricePoint
	FetchedAtMs  int64
}

// ZeroSnapshot returns a well-formed all-zero snapshot for an instrument
// whose provider lookup failed. Downstream consumers always receive a
// usable value.
func ZeroSnapshot(address string) *MarketSnapshot {
	return &MarketSnapshot{Address: address}
}

// IsZero reports whether the snapshot carries no market data.
func (s *MarketSnapshot) IsZero() bool {
	return s.Price == 0 && s.MarketCap == 0 && s.Liquidity == 0 && s.Volume24h == 0
}

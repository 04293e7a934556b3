package domain

// TradePerformanceRecord tracks one buy and its eventual matching sell,
// keyed by (token address, recommender ID). Buy-side fields are fixed at
// creation; sell-side fields transition from zero to populated exactly once.
type TradePerformanceRecord struct {
	TokenAddress  string
	RecommenderID string

	// Buy side, set at creation.
	BuyPrice       float64
	BuyTimestampMs int64
	BuyAmount      uint64 // token base units received
	BuyValueUsd    float64
	BuyMarketCap   float64
	BuyLiquidity   float64

	// Sell side, populated once when the matching sell completes.
	SellPrice       float64
	SellTimestampMs int64
	SellAmount      uint64 // token base units sold
	SellValueUsd    float64
	ProfitUsd       float64
	ProfitPercent   float64
}

// Closed reports whether the sell side has been populated.
func (r *TradePerformanceRecord) Closed() bool {
	return r.SellTimestampMs != 0
}

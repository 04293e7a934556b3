package domain

// VolumeTrend classifies the recent direction of trading volume.
type VolumeTrend string

const (
	VolumeTrendIncreasing VolumeTrend = "increasing"
	VolumeTrendDecreasing VolumeTrend = "decreasing"
	VolumeTrendStable     VolumeTrend = "stable"
)

// MACD holds moving-average-convergence-divergence values.
type MACD struct {
	Value     float64
	Signal    float64
	Histogram float64
}

// VolumeProfile describes the volume pattern of an instrument.
type VolumeProfile struct {
	Trend           VolumeTrend
	UnusualActivity bool
}

// TechnicalSignals holds per-instrument technical indicators used by the scorer.
type TechnicalSignals struct {
	RSI           float64
	MACD          MACD
	VolumeProfile VolumeProfile
	Volatility    float64 // stdev of log returns over recent price history
}

// SocialMetrics holds social-feed derived metrics for an instrument.
type SocialMetrics struct {
	MentionCount       int
	Sentiment          float64 // [-1, 1]
	InfluencerMentions int
}

// TokenSignal is the normalized shape every signal source produces.
// Created fresh each aggregation cycle, consumed immediately by the scorer,
// never persisted.
type TokenSignal struct {
	Address   string // mint address, unique key
	Symbol    string
	MarketCap float64
	Volume24h float64
	Price     float64
	Liquidity float64

	// Score is recomputed on every scoring pass.
	Score float64
	// Reasons is append-only during aggregation.
	Reasons []string

	Technical *TechnicalSignals
	Social    *SocialMetrics
}

// BuySignal is an immutable buy intent. Amount is denominated in lamports
// of the quote currency (SOL).
type BuySignal struct {
	PositionID        string
	TokenAddress      string
	AmountLamports    uint64
	ExpectedOutAmount uint64
	RecommenderID     string
	Reason            string
}

// SellSignal is an immutable sell intent. TradeAmount and CurrentBalance are
// denominated in token base units.
type SellSignal struct {
	PositionID        string
	TokenAddress      string
	TradeAmount       uint64
	CurrentBalance    uint64
	WalletAddress     string
	SellRecommenderID string
	Reason            string
	ExpectedOutAmount uint64
	// TokenDecimals converts TradeAmount to display units at the quote
	// and valuation boundaries.
	TokenDecimals int
}

// PriceSignal carries an externally-sourced price observation.
type PriceSignal struct {
	TokenAddress string
	Price        float64
	TimestampMs  int64
}

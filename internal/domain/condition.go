package domain

// MarketCondition classifies the broad market regime, derived from the
// base currency (SOL) price relative to N periods ago.
type MarketCondition string

const (
	MarketBullish MarketCondition = "bullish"
	MarketNeutral MarketCondition = "neutral"
	MarketBearish MarketCondition = "bearish"
)

// IsValid checks if the condition is a known value.
func (c MarketCondition) IsValid() bool {
	return c == MarketBullish || c == MarketNeutral || c == MarketBearish
}

// TradeDirection distinguishes the two sides of a swap.
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "buy"
	DirectionSell TradeDirection = "sell"
)

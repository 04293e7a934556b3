package domain

// Sell reason strings emitted by the position monitor.
const (
	ReasonStopLoss     = "Stop loss triggered"
	ReasonTakeProfit   = "Take profit triggered"
	ReasonTrailingStop = "Trailing stop triggered"
)

// Position is an open (or closed) holding of a single instrument.
type Position struct {
	TokenAddress  string
	RecommenderID string
	EntryPrice    float64
	Amount        uint64 // token base units remaining in the position
	TimestampMs   int64

	ExitPrice       *float64
	ExitTimestampMs *int64

	// HighestPrice is monotonically non-decreasing; maintained by the
	// position monitor for trailing-stop evaluation.
	HighestPrice float64

	// PartialTakeProfit is set at most once, when the take-profit half
	// sell fires and the trailing stop is armed on the remainder.
	PartialTakeProfit bool
}

// Open reports whether the position still holds any amount.
func (p *Position) Open() bool {
	return p.ExitTimestampMs == nil && p.Amount > 0
}

package domain

// Transaction status constants.
const (
	TxStatusPending   = "pending"
	TxStatusConfirmed = "confirmed"
	TxStatusFailed    = "failed"
)

// TransactionRecord is the audit row written for every buy/sell attempt,
// regardless of outcome.
type TransactionRecord struct {
	Signature    string // empty when the attempt never reached submission
	PositionID   string
	TokenAddress string
	Side         TradeDirection
	AmountIn     uint64 // lamports for buys, token base units for sells
	AmountOut    uint64
	SlippageBps  int
	Status       string
	Error        string
	TimestampMs  int64
}

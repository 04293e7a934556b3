package solana

// WSOLMint is the Wrapped SOL mint address, the quote side of every swap.
const WSOLMint = "So11111111111111111111111111111111111111112"

// Commitment levels reported by getSignatureStatuses.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// SignatureStatus is the confirmation state of a submitted transaction.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int
	ConfirmationStatus string
	Err                interface{} // non-nil when the transaction failed on chain
}

// Confirmed reports whether the transaction reached confirmed or finalized
// commitment without an on-chain error.
func (s *SignatureStatus) Confirmed() bool {
	if s == nil || s.Err != nil {
		return false
	}
	return s.ConfirmationStatus == CommitmentConfirmed || s.ConfirmationStatus == CommitmentFinalized
}

// TokenBalance is an SPL token account balance.
type TokenBalance struct {
	Mint     string
	Amount   uint64 // base units
	Decimals int
}

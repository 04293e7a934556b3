// Package marketdata provides batched access to per-instrument market
// snapshots behind a TTL cache.
package marketdata

import (
	"context"

	"solana-trade-engine/internal/domain"
)

// TokenSecurity is the provider's safety assessment of a token.
type TokenSecurity struct {
	Verified          bool
	MutableMetadata   bool
	FreezeAuthority   bool
	Flags             []string // provider-specific suspicious attributes
}

// Suspicious reports whether the token carries attributes that disqualify
// it from trading.
func (s *TokenSecurity) Suspicious() bool {
	return s.MutableMetadata || s.FreezeAuthority || len(s.Flags) > 0
}

// Provider is the outward boundary to the market-data service.
type Provider interface {
	// FetchSnapshots retrieves market snapshots for up to the provider's
	// batch limit of addresses in one call. Addresses missing from the
	// result failed on the provider side.
	FetchSnapshots(ctx context.Context, addresses []string) (map[string]*domain.MarketSnapshot, error)

	// FetchPriceHistory retrieves recent price points for one instrument,
	// oldest first.
	FetchPriceHistory(ctx context.Context, address string, limit int) ([]domain.PricePoint, error)

	// FetchTokenSecurity retrieves the safety assessment for one instrument.
	FetchTokenSecurity(ctx context.Context, address string) (*TokenSecurity, error)
}

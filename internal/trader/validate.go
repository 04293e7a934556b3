package trader

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/marketdata"
)

// Trade admission floors. Checked again at execution time even though the
// scorer filters on the same thresholds: market data may have moved between
// scoring and execution.
const (
	MinTradeLiquidity = 50_000.0
	MinTradeVolume24h = 100_000.0
)

// Validation is the outcome of pre-trade token checks. Snapshot is always
// set when the lookup itself succeeded, valid or not.
type Validation struct {
	IsValid  bool
	Reason   string
	Snapshot *domain.MarketSnapshot
}

// Validator runs pre-trade safety checks against market data.
type Validator struct {
	market *marketdata.Cache
	logger *zap.Logger
}

func NewValidator(market *marketdata.Cache, logger *zap.Logger) *Validator {
	return &Validator{market: market, logger: logger}
}

// ValidateToken checks liquidity, volume and token security, in that order.
// The first failing check decides the reason.
func (v *Validator) ValidateToken(ctx context.Context, tokenAddress string) (*Validation, error) {
	snap, err := v.market.Get(ctx, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("market data for %s: %w", tokenAddress, err)
	}

	if snap.IsZero() {
		return &Validation{Reason: "No market data available", Snapshot: snap}, nil
	}
	if snap.Liquidity < MinTradeLiquidity {
		return &Validation{
			Reason:   fmt.Sprintf("Insufficient liquidity: $%.0f < $%.0f", snap.Liquidity, MinTradeLiquidity),
			Snapshot: snap,
		}, nil
	}
	if snap.Volume24h < MinTradeVolume24h {
		return &Validation{
			Reason:   fmt.Sprintf("Insufficient 24h volume: $%.0f < $%.0f", snap.Volume24h, MinTradeVolume24h),
			Snapshot: snap,
		}, nil
	}

	sec, err := v.market.TokenSecurity(ctx, tokenAddress)
	if err != nil {
		// Security lookup failure blocks the trade rather than waving
		// an unverifiable token through.
		v.logger.Warn("token security lookup failed",
			zap.String("token", tokenAddress),
			zap.Error(err))
		return &Validation{Reason: "Token security unavailable", Snapshot: snap}, nil
	}
	if !sec.Verified {
		return &Validation{Reason: "Token is not verified", Snapshot: snap}, nil
	}
	if sec.Suspicious() {
		return &Validation{Reason: "Token flagged as suspicious", Snapshot: snap}, nil
	}

	return &Validation{IsValid: true, Snapshot: snap}, nil
}

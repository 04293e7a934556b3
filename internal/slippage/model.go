// Package slippage computes trade-size- and volatility-aware slippage
// tolerances in basis points.
package slippage

import (
	"math"

	"solana-trade-engine/internal/domain"
)

// Policy knobs. These are fixed policy, not estimates: tests pin specific
// inputs to specific bps outputs.
const (
	DefaultBaseSlippage       = 0.005 // 0.5%
	DefaultMaxSlippage        = 0.25  // 25%
	DefaultLiquidityMult      = 2.0
	DefaultImpactThresholdPct = 0.1 // trade size as % of liquidity
	DefaultHighVolThreshold   = 0.1
	DefaultBearishSellMult    = 1.2
	DefaultVolumeRatioFloor   = 0.05 // volume24h / marketCap
)

// Inputs are the parameters of one slippage computation.
type Inputs struct {
	TradeAmountUsd float64
	Liquidity      float64
	Volatility     float64 // stdev of log returns
	Volume24h      float64
	MarketCap      float64
	Condition      domain.MarketCondition
	Direction      domain.TradeDirection
}

// Model computes dynamic slippage tolerances.
type Model struct {
	BaseSlippage       float64
	MaxSlippage        float64
	LiquidityMult      float64
	ImpactThresholdPct float64
	HighVolThreshold   float64
	BearishSellMult    float64
	VolumeRatioFloor   float64
}

// NewModel returns a model with the default policy knobs.
func NewModel() *Model {
	return &Model{
		BaseSlippage:       DefaultBaseSlippage,
		MaxSlippage:        DefaultMaxSlippage,
		LiquidityMult:      DefaultLiquidityMult,
		ImpactThresholdPct: DefaultImpactThresholdPct,
		HighVolThreshold:   DefaultHighVolThreshold,
		BearishSellMult:    DefaultBearishSellMult,
		VolumeRatioFloor:   DefaultVolumeRatioFloor,
	}
}

// ComputeBps returns the slippage tolerance in basis points. Deterministic:
// identical inputs always yield identical output, 0 ≤ out ≤ MaxSlippage bps.
func (m *Model) ComputeBps(in Inputs) int {
	slippage := m.BaseSlippage

	// Super-linear impact penalty once trade size exceeds the threshold
	// share of pool liquidity.
	if in.Liquidity > 0 {
		liquidityPct := in.TradeAmountUsd / in.Liquidity * 100
		if liquidityPct > m.ImpactThresholdPct {
			slippage += math.Pow(liquidityPct, 1.5) * m.LiquidityMult * 0.01
		}
	}

	if in.Direction == domain.DirectionSell {
		if in.Volatility > m.HighVolThreshold {
			slippage *= 1 + in.Volatility
		}
		if in.Condition == domain.MarketBearish {
			slippage *= m.BearishSellMult
		}
	}

	// Deep 24h volume relative to market cap earns a discount of up to
	// half the base on the buy path.
	if in.Direction == domain.DirectionBuy && in.MarketCap > 0 {
		ratio := in.Volume24h / in.MarketCap
		if ratio > m.VolumeRatioFloor {
			slippage -= math.Min(ratio, 0.5) * m.BaseSlippage
		}
	}

	if slippage > m.MaxSlippage {
		slippage = m.MaxSlippage
	}
	if slippage < 0 {
		slippage = 0
	}

	return int(math.Floor(slippage * 10000))
}

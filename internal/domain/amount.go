package domain

import "math"

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// Trade amounts are carried as integer minor units (lamports / token base
// units) end to end. Float conversion happens only at the display and
// provider boundaries.

// SOLToLamports converts a display-unit SOL amount to lamports.
// Negative inputs convert to zero.
func SOLToLamports(sol float64) uint64 {
	if sol <= 0 || math.IsNaN(sol) || math.IsInf(sol, 0) {
		return 0
	}
	return uint64(math.Round(sol * LamportsPerSOL))
}

// LamportsToSOL converts lamports to display-unit SOL.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}

// ToBaseUnits converts a display-unit token amount to base units given the
// mint's decimals. Negative inputs convert to zero.
func ToBaseUnits(amount float64, decimals int) uint64 {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return uint64(math.Round(amount * math.Pow10(decimals)))
}

// FromBaseUnits converts token base units to display units.
func FromBaseUnits(amount uint64, decimals int) float64 {
	return float64(amount) / math.Pow10(decimals)
}

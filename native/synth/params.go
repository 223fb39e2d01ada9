package synth

import (
	"fmt"
	"math/big"
)

// Params groups the solvency limits applied by the engine. All values are
// fixed at construction and never mutated at runtime.
type Params struct {
	// LiquidationThreshold is the percentage of nominal collateral value
	// counted toward solvency. 50 means positions must be 200%
	// overcollateralized.
	LiquidationThreshold uint64
	// LiquidationBonus is the percentage of the covered debt's collateral
	// value paid to liquidators on top of the covered amount.
	LiquidationBonus uint64
	// MinHealthFactor is the solvency floor in 1e18 fixed point. Accounts
	// below it are eligible for liquidation.
	MinHealthFactor *big.Int
}

// DefaultParams returns the protocol defaults: 50% threshold, 10% bonus,
// minimum health factor 1.0.
func DefaultParams() Params {
	return Params{
		LiquidationThreshold: 50,
		LiquidationBonus:     10,
		MinHealthFactor:      new(big.Int).Set(precision),
	}
}

// Validate rejects parameter sets the solvency math cannot support.
func (p Params) Validate() error {
	if p.LiquidationThreshold == 0 || p.LiquidationThreshold > 100 {
		return fmt.Errorf("synth engine: liquidation threshold %d out of range (0, 100]", p.LiquidationThreshold)
	}
	if p.LiquidationBonus >= 100 {
		return fmt.Errorf("synth engine: liquidation bonus %d must be below 100", p.LiquidationBonus)
	}
	if p.MinHealthFactor == nil || p.MinHealthFactor.Sign() <= 0 {
		return fmt.Errorf("synth engine: minimum health factor must be positive")
	}
	return nil
}

// Clone returns a deep copy of the parameter set.
func (p Params) Clone() Params {
	clone := Params{
		LiquidationThreshold: p.LiquidationThreshold,
		LiquidationBonus:     p.LiquidationBonus,
	}
	if p.MinHealthFactor != nil {
		clone.MinHealthFactor = new(big.Int).Set(p.MinHealthFactor)
	}
	return clone
}

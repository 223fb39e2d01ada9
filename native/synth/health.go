package synth

import "math/big"

// HealthFactor computes the solvency ratio for a debt and collateral value
// pair in 1e18 fixed point. Only thresholdPercent of the nominal collateral
// value counts toward solvency. Zero debt yields the maximum representable
// factor: an account with no debt is always safe.
func HealthFactor(debt, collateralValue *big.Int, thresholdPercent uint64) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(maxHealthFactor)
	}
	if collateralValue == nil {
		collateralValue = big.NewInt(0)
	}
	adjusted := percentOf(collateralValue, thresholdPercent)
	factor := new(big.Int).Mul(adjusted, precision)
	return factor.Quo(factor, debt)
}

// IsHealthy reports whether the factor meets the minimum.
func IsHealthy(factor, minimum *big.Int) bool {
	if factor == nil || minimum == nil {
		return false
	}
	return factor.Cmp(minimum) >= 0
}

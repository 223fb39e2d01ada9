package synth

import (
	"errors"
	"math/big"

	"synthmint/native/oracle"
)

// Valuation converts between asset quantities and reference-currency value
// using gated price feed reads. It holds no state of its own.
type Valuation struct {
	gate *oracle.Gate
}

// NewValuation wraps the staleness gate the engine prices through.
func NewValuation(gate *oracle.Gate) *Valuation {
	return &Valuation{gate: gate}
}

// ReferenceValue converts an asset amount (18-decimal base units) to
// reference-currency value: price is lifted from feed precision to 18
// decimals, multiplied by the amount and scaled back down. Stale or invalid
// prices fail the call; the caller must propagate, never substitute.
func (v *Valuation) ReferenceValue(feedID string, amount *big.Int) (*big.Int, error) {
	if v == nil || v.gate == nil {
		return nil, errors.New("synth engine: valuation not configured")
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	round, err := v.gate.LatestRound(feedID)
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Mul(round.Price, additionalFeedPrecision)
	value.Mul(value, amount)
	return value.Quo(value, precision), nil
}

// TokenAmount is the exact inverse of ReferenceValue: it converts a
// reference-currency amount into an asset quantity.
//
// The price here is the freshest round read without the staleness gate. The
// one caller, the liquidation seizure sizing path, already performs gated
// reads in the same operation, so a stale feed still aborts the liquidation
// before any sizing result is used.
func (v *Valuation) TokenAmount(feedID string, refAmount *big.Int) (*big.Int, error) {
	if v == nil || v.gate == nil {
		return nil, errors.New("synth engine: valuation not configured")
	}
	if refAmount == nil || refAmount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	round, err := v.gate.LatestRoundUnchecked(feedID)
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Mul(refAmount, precision)
	denom := new(big.Int).Mul(round.Price, additionalFeedPrecision)
	return amount.Quo(amount, denom), nil
}

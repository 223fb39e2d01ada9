package synth

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Asset identifies a registered collateral asset and the price feed backing
// its valuation. The registered set is fixed at engine construction.
type Asset struct {
	Symbol string
	FeedID string
}

// Position records an account's deposited collateral per asset and its
// minted debt in reference-currency base units.
type Position struct {
	Collateral map[string]*big.Int
	Debt       *big.Int
}

// NewPosition returns an empty, zero-initialised position.
func NewPosition() *Position {
	return &Position{
		Collateral: make(map[string]*big.Int),
		Debt:       big.NewInt(0),
	}
}

// Clone returns a deep copy used for operation snapshots.
func (p *Position) Clone() *Position {
	if p == nil {
		return NewPosition()
	}
	clone := NewPosition()
	for symbol, amount := range p.Collateral {
		if amount != nil {
			clone.Collateral[symbol] = new(big.Int).Set(amount)
		}
	}
	if p.Debt != nil {
		clone.Debt = new(big.Int).Set(p.Debt)
	}
	return clone
}

// CollateralOf returns a copy of the position amount for the asset.
func (p *Position) CollateralOf(symbol string) *big.Int {
	if p == nil {
		return big.NewInt(0)
	}
	if amount, ok := p.Collateral[symbol]; ok && amount != nil {
		return new(big.Int).Set(amount)
	}
	return big.NewInt(0)
}

// AccountInfo is a read-only snapshot of an account's solvency inputs.
type AccountInfo struct {
	Address         common.Address
	Debt            *big.Int
	CollateralValue *big.Int
	HealthFactor    *big.Int
}

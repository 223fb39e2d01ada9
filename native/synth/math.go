package synth

import "math/big"

var (
	precision               = mustBigInt("1000000000000000000") // 1e18
	additionalFeedPrecision = mustBigInt("10000000000")         // lifts 8-decimal feed prices to 18 decimals
	liquidationPrecision    = big.NewInt(100)

	// maxHealthFactor is the unbounded health factor assigned to accounts
	// with zero debt.
	maxHealthFactor = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// checkedSub returns a-b, reporting failure instead of producing a negative
// balance. Every balance decrement in the engine goes through it.
func checkedSub(a, b *big.Int) (*big.Int, bool) {
	if a == nil {
		a = big.NewInt(0)
	}
	if b == nil || a.Cmp(b) < 0 {
		return nil, false
	}
	return new(big.Int).Sub(a, b), true
}

func percentOf(amount *big.Int, pct uint64) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(pct))
	return out.Quo(out, liquidationPrecision)
}

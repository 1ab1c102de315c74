package lending

import "math/big"

var (
	// hfPrecision scales health factors so they survive integer division.
	hfPrecision = mustBigInt("1000000000000000000") // 1e18

	// MinHealthFactor is the boundary below which a position becomes
	// liquidatable. A health factor of exactly 1e18 means the discounted
	// collateral value equals the outstanding debt.
	MinHealthFactor = mustBigInt("1000000000000000000") // 1e18

	// MaxHealthFactor is the sentinel returned for positions with no debt.
	MaxHealthFactor = mustBigInt("115792089237316195423570985008687907853269984665640564039457584007913129639935") // 2^256-1
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// mulDiv computes a*b/den with floor semantics. Multiplication runs before
// division to minimise truncation error.
func mulDiv(a, b, den *big.Int) *big.Int {
	if a == nil || b == nil || den == nil || den.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, den)
}

// minBig returns the smaller of a and b as a fresh value.
func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// pow10 returns 10^n.
func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

package lending

import (
	"errors"
	"math/big"
)

// InterestModel is the piecewise-linear utilization curve charged on borrows.
// Rates rise gently up to the optimal utilization point and steeply beyond it
// to push the pool back towards liquidity. All parameters are fixed at
// construction.
type InterestModel struct {
	baseRate  uint64
	slope1    uint64
	slope2    uint64
	optimal   uint64
	precision uint64
}

var (
	errSlopeOrder   = errors.New("lending: slope2 must exceed slope1")
	errOptimalRange = errors.New("lending: optimal utilization must be within (0,100]")
	errZeroDivisor  = errors.New("lending: precision must be positive")
)

// NewInterestModel validates and constructs an interest model. The second
// slope must be strictly steeper than the first so the marginal cost of
// borrowing past the optimal point always increases.
func NewInterestModel(baseRate, slope1, slope2, optimal, precision uint64) (*InterestModel, error) {
	if slope2 <= slope1 {
		return nil, errSlopeOrder
	}
	if optimal == 0 || optimal > 100 {
		return nil, errOptimalRange
	}
	if precision == 0 {
		return nil, errZeroDivisor
	}
	return &InterestModel{
		baseRate:  baseRate,
		slope1:    slope1,
		slope2:    slope2,
		optimal:   optimal,
		precision: precision,
	}, nil
}

// Rate returns the borrow rate for the given utilization percentage.
//
// Utilization is caller-bounded to [0,100]; out-of-range inputs still flow
// through the same formula and are not clamped. Division is integer floor
// division since truncation is part of the billing contract.
func (m *InterestModel) Rate(utilization uint64) uint64 {
	if utilization <= m.optimal {
		return m.baseRate + utilization*m.slope1/m.precision
	}
	belowOptimal := m.optimal * m.slope1 / m.precision
	aboveOptimal := (utilization - m.optimal) * m.slope2 / m.precision
	return m.baseRate + belowOptimal + aboveOptimal
}

// Utilization derives the pool utilization percentage from the aggregate
// totals. An empty pool has zero utilization; the result is capped at 100 so
// transient aggregate skew cannot produce a nonsensical advisory figure.
func (m *InterestModel) Utilization(totalBorrowed, totalSupplied *big.Int) uint64 {
	if totalBorrowed == nil || totalBorrowed.Sign() <= 0 {
		return 0
	}
	if totalSupplied == nil || totalSupplied.Sign() <= 0 {
		return 0
	}
	pct := new(big.Int).Mul(totalBorrowed, big.NewInt(100))
	pct.Quo(pct, totalSupplied)
	if !pct.IsUint64() || pct.Uint64() > 100 {
		return 100
	}
	return pct.Uint64()
}

// BaseRate exposes the configured floor rate.
func (m *InterestModel) BaseRate() uint64 { return m.baseRate }

// Optimal exposes the configured utilization breakpoint.
func (m *InterestModel) Optimal() uint64 { return m.optimal }

// DefaultInterestModel carries the pool's reference curve: a 2% floor, a
// shallow slope up to 80% utilization and a steep penalty slope beyond it.
func DefaultInterestModel() *InterestModel {
	model, err := NewInterestModel(2, 4, 75, 80, 100)
	if err != nil {
		panic(err)
	}
	return model
}

package lending

import (
	"math/big"

	"lendvault/crypto"
)

// Position records the collateral held on behalf of a single user. Debt is
// never stored here: it is always read fresh from the debt-token ledger so the
// two books cannot drift apart.
type Position struct {
	// Address is the unique account identifier owning the position.
	Address crypto.Address
	// Collateral is the base-asset amount locked in the pool. It is only
	// increased by deposits and only decreased by withdrawals and
	// liquidations.
	Collateral *big.Int
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := &Position{Address: p.Address}
	if p.Collateral != nil {
		clone.Collateral = new(big.Int).Set(p.Collateral)
	}
	return clone
}

// PoolState carries the advisory pool-wide aggregates. The per-position
// balances are authoritative; these totals exist for utilization reporting
// and metrics.
type PoolState struct {
	// TotalCollateral is the aggregate base asset locked across all
	// positions.
	TotalCollateral *big.Int
	// TotalDebt tracks the outstanding debt tokens issued by this pool.
	TotalDebt *big.Int
}

// Clone returns a deep copy of the pool state.
func (s *PoolState) Clone() *PoolState {
	if s == nil {
		return nil
	}
	clone := &PoolState{}
	if s.TotalCollateral != nil {
		clone.TotalCollateral = new(big.Int).Set(s.TotalCollateral)
	}
	if s.TotalDebt != nil {
		clone.TotalDebt = new(big.Int).Set(s.TotalDebt)
	}
	return clone
}

// PoolSnapshot is a read-only view of the pool served to callers.
type PoolSnapshot struct {
	TotalCollateral *big.Int
	TotalDebt       *big.Int
	Utilization     uint64
	BorrowRate      uint64
}

// RiskParameters groups the immutable safety limits configured at
// construction.
type RiskParameters struct {
	// CollateralizationRatio is the minimum collateral-to-debt ratio required
	// at borrow time, expressed as a percentage (150 means 150%).
	CollateralizationRatio uint64
	// LiquidationThreshold is the share of collateral value counted towards
	// the health factor, expressed as a percentage.
	LiquidationThreshold uint64
}

package events

import (
	"math/big"

	"lendvault/core/types"
	"lendvault/crypto"
)

const (
	// TypeCollateralDeposited is emitted when a user locks base-asset
	// collateral in the pool.
	TypeCollateralDeposited = "lending.collateralDeposited"
	// TypeCollateralWithdrawn is emitted when collateral is released back to
	// its owner.
	TypeCollateralWithdrawn = "lending.collateralWithdrawn"
	// TypeLendTokenBorrowed is emitted when debt tokens are minted against a
	// collateral position.
	TypeLendTokenBorrowed = "lending.lendTokenBorrowed"
	// TypeCollateralLiquidated captures a forced reduction of an unhealthy
	// position.
	TypeCollateralLiquidated = "lending.collateralLiquidated"
)

// CollateralDeposited captures a successful collateral deposit.
type CollateralDeposited struct {
	User   [20]byte
	Amount *big.Int
}

// EventType satisfies the Event interface.
func (CollateralDeposited) EventType() string { return TypeCollateralDeposited }

// Event renders the deposit as a wire-level event payload.
func (e CollateralDeposited) Event() *types.Event {
	return &types.Event{Type: TypeCollateralDeposited, Attributes: map[string]string{
		"user":   crypto.MustNewAddress(crypto.VaultPrefix, e.User[:]).String(),
		"amount": formatAmount(e.Amount),
	}}
}

// CollateralWithdrawn captures collateral returned to a user.
type CollateralWithdrawn struct {
	User   [20]byte
	Amount *big.Int
}

func (CollateralWithdrawn) EventType() string { return TypeCollateralWithdrawn }

func (e CollateralWithdrawn) Event() *types.Event {
	return &types.Event{Type: TypeCollateralWithdrawn, Attributes: map[string]string{
		"user":   crypto.MustNewAddress(crypto.VaultPrefix, e.User[:]).String(),
		"amount": formatAmount(e.Amount),
	}}
}

// LendTokenBorrowed captures debt tokens issued to a borrower.
type LendTokenBorrowed struct {
	User   [20]byte
	Amount *big.Int
}

func (LendTokenBorrowed) EventType() string { return TypeLendTokenBorrowed }

func (e LendTokenBorrowed) Event() *types.Event {
	return &types.Event{Type: TypeLendTokenBorrowed, Attributes: map[string]string{
		"user":   crypto.MustNewAddress(crypto.VaultPrefix, e.User[:]).String(),
		"amount": formatAmount(e.Amount),
	}}
}

// CollateralLiquidated captures a liquidation: seized collateral and the debt
// burned against it.
type CollateralLiquidated struct {
	User         [20]byte
	Collateral   *big.Int
	TokensBurned *big.Int
}

func (CollateralLiquidated) EventType() string { return TypeCollateralLiquidated }

func (e CollateralLiquidated) Event() *types.Event {
	return &types.Event{Type: TypeCollateralLiquidated, Attributes: map[string]string{
		"user":         crypto.MustNewAddress(crypto.VaultPrefix, e.User[:]).String(),
		"collateral":   formatAmount(e.Collateral),
		"tokensBurned": formatAmount(e.TokensBurned),
	}}
}

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

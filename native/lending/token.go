package lending

import (
	"math/big"

	"lendvault/crypto"
)

// DebtToken is the narrow capability the pool holds over the external
// debt-token ledger. Mint and burn are restricted to the pool holding this
// handle; the ledger's lifecycle is owned elsewhere.
type DebtToken interface {
	Mint(to crypto.Address, amount *big.Int) error
	Burn(from crypto.Address, amount *big.Int) error
	BalanceOf(addr crypto.Address) (*big.Int, error)
}

// AssetTransfer returns base-asset collateral to users on withdrawal. The
// transfer is the final effect of a withdraw: the engine mutates its state
// first and rolls back when the transfer reports failure.
type AssetTransfer interface {
	Transfer(to crypto.Address, amount *big.Int) error
}

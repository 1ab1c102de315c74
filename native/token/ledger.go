package token

import (
	"errors"
	"math/big"
	"sync"

	"lendvault/crypto"
)

var (
	ErrInvalidAmount       = errors.New("token ledger: amount must be positive")
	ErrInsufficientBalance = errors.New("token ledger: insufficient balance")
)

// Ledger is an in-process fungible token book. Balances move through
// Transfer; supply changes only through the Operator capability handed out at
// wiring time, which keeps mint and burn restricted to the pool that owns the
// handle.
type Ledger struct {
	mu          sync.RWMutex
	symbol      string
	balances    map[string]*big.Int
	totalSupply *big.Int
}

// NewLedger constructs an empty ledger for the given token symbol.
func NewLedger(symbol string) *Ledger {
	return &Ledger{
		symbol:      symbol,
		balances:    make(map[string]*big.Int),
		totalSupply: big.NewInt(0),
	}
}

// Symbol returns the token symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// BalanceOf returns a copy of the balance recorded for addr. Unknown
// addresses hold zero.
func (l *Ledger) BalanceOf(addr crypto.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bal, ok := l.balances[string(addr.Bytes())]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

// TotalSupply returns a copy of the outstanding supply.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.totalSupply)
}

// Transfer moves amount from one holder to another.
func (l *Ledger) Transfer(from, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	fromKey := string(from.Bytes())
	bal, ok := l.balances[fromKey]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[fromKey] = new(big.Int).Sub(bal, amount)
	l.credit(to, amount)
	return nil
}

// Operator returns the mint/burn capability over this ledger. Hand it only to
// the component allowed to change supply.
func (l *Ledger) Operator() *Operator {
	return &Operator{ledger: l}
}

func (l *Ledger) credit(addr crypto.Address, amount *big.Int) {
	key := string(addr.Bytes())
	bal, ok := l.balances[key]
	if !ok {
		bal = big.NewInt(0)
	}
	l.balances[key] = new(big.Int).Add(bal, amount)
}

// Operator is the restricted supply-management handle over a Ledger. It
// satisfies the debt-token capability the lending engine consumes.
type Operator struct {
	ledger *Ledger
}

// Mint issues amount new tokens to the recipient.
func (o *Operator) Mint(to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	o.ledger.mu.Lock()
	defer o.ledger.mu.Unlock()

	o.ledger.credit(to, amount)
	o.ledger.totalSupply = new(big.Int).Add(o.ledger.totalSupply, amount)
	return nil
}

// Burn destroys amount tokens held by from.
func (o *Operator) Burn(from crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	o.ledger.mu.Lock()
	defer o.ledger.mu.Unlock()

	key := string(from.Bytes())
	bal, ok := o.ledger.balances[key]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	o.ledger.balances[key] = new(big.Int).Sub(bal, amount)
	o.ledger.totalSupply = new(big.Int).Sub(o.ledger.totalSupply, amount)
	return nil
}

// BalanceOf adapts the ledger's balance query to the capability interface.
func (o *Operator) BalanceOf(addr crypto.Address) (*big.Int, error) {
	return o.ledger.BalanceOf(addr), nil
}

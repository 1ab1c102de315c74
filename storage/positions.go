package storage

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"lendvault/crypto"
	"lendvault/native/lending"
)

const (
	positionKeyPrefix = "lending/position/"
	poolStateKey      = "lending/pool"
)

// PositionStore persists the collateral ledger's positions and pool
// aggregates in a key-value database. It satisfies the lending engine's state
// interface.
type PositionStore struct {
	db Database
}

// NewPositionStore wraps the supplied database.
func NewPositionStore(db Database) *PositionStore {
	return &PositionStore{db: db}
}

type storedPosition struct {
	Prefix     string   `json:"prefix"`
	Address    string   `json:"address"`
	Collateral *big.Int `json:"collateral"`
}

type storedPool struct {
	TotalCollateral *big.Int `json:"totalCollateral"`
	TotalDebt       *big.Int `json:"totalDebt"`
}

func positionKey(addr crypto.Address) []byte {
	return []byte(positionKeyPrefix + hex.EncodeToString(addr.Bytes()))
}

// GetPosition loads the stored position for addr. A missing position returns
// nil without error.
func (s *PositionStore) GetPosition(addr crypto.Address) (*lending.Position, error) {
	raw, err := s.db.Get(positionKey(addr))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedPosition
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("storage: decode position: %w", err)
	}
	rawAddr, err := hex.DecodeString(stored.Address)
	if err != nil {
		return nil, fmt.Errorf("storage: decode position address: %w", err)
	}
	pos := &lending.Position{
		Address:    crypto.NewAddress(crypto.AddressPrefix(stored.Prefix), rawAddr),
		Collateral: stored.Collateral,
	}
	if pos.Collateral == nil {
		pos.Collateral = big.NewInt(0)
	}
	return pos, nil
}

// PutPosition persists the position.
func (s *PositionStore) PutPosition(p *lending.Position) error {
	if p == nil {
		return errors.New("storage: nil position")
	}
	stored := storedPosition{
		Prefix:     string(p.Address.Prefix()),
		Address:    hex.EncodeToString(p.Address.Bytes()),
		Collateral: p.Collateral,
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("storage: encode position: %w", err)
	}
	return s.db.Put(positionKey(p.Address), raw)
}

// GetPoolState loads the advisory pool aggregates. Missing state returns nil
// without error.
func (s *PositionStore) GetPoolState() (*lending.PoolState, error) {
	raw, err := s.db.Get([]byte(poolStateKey))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedPool
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("storage: decode pool state: %w", err)
	}
	return &lending.PoolState{
		TotalCollateral: stored.TotalCollateral,
		TotalDebt:       stored.TotalDebt,
	}, nil
}

// PutPoolState persists the pool aggregates.
func (s *PositionStore) PutPoolState(state *lending.PoolState) error {
	if state == nil {
		return errors.New("storage: nil pool state")
	}
	raw, err := json.Marshal(storedPool{
		TotalCollateral: state.TotalCollateral,
		TotalDebt:       state.TotalDebt,
	})
	if err != nil {
		return fmt.Errorf("storage: encode pool state: %w", err)
	}
	return s.db.Put([]byte(poolStateKey), raw)
}

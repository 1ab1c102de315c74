package storage

import (
	"math/big"
	"testing"

	"lendvault/crypto"
	"lendvault/native/lending"
)

func makeAddress(last byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = last
	return crypto.NewAddress(crypto.VaultPrefix, raw)
}

func TestPositionStoreRoundTrip(t *testing.T) {
	store := NewPositionStore(NewMemDB())
	addr := makeAddress(0x01)

	got, err := store.GetPosition(addr)
	if err != nil {
		t.Fatalf("get absent position: %v", err)
	}
	if got != nil {
		t.Fatal("absent position must be nil")
	}

	pos := &lending.Position{Address: addr, Collateral: big.NewInt(1_234)}
	if err := store.PutPosition(pos); err != nil {
		t.Fatalf("put position: %v", err)
	}

	got, err = store.GetPosition(addr)
	if err != nil {
		t.Fatalf("get position: %v", err)
	}
	if got == nil || got.Collateral.Cmp(big.NewInt(1_234)) != 0 {
		t.Fatalf("unexpected position: %+v", got)
	}
	if got.Address.String() != addr.String() {
		t.Fatalf("address round trip mismatch: %s != %s", got.Address, addr)
	}
}

func TestPoolStateRoundTrip(t *testing.T) {
	store := NewPositionStore(NewMemDB())

	got, err := store.GetPoolState()
	if err != nil {
		t.Fatalf("get absent pool state: %v", err)
	}
	if got != nil {
		t.Fatal("absent pool state must be nil")
	}

	state := &lending.PoolState{
		TotalCollateral: big.NewInt(9_000),
		TotalDebt:       big.NewInt(4_500),
	}
	if err := store.PutPoolState(state); err != nil {
		t.Fatalf("put pool state: %v", err)
	}
	got, err = store.GetPoolState()
	if err != nil {
		t.Fatalf("get pool state: %v", err)
	}
	if got.TotalCollateral.Cmp(big.NewInt(9_000)) != 0 || got.TotalDebt.Cmp(big.NewInt(4_500)) != 0 {
		t.Fatalf("unexpected pool state: %+v", got)
	}
}

func TestMemDBMissingKey(t *testing.T) {
	db := NewMemDB()
	if _, err := db.Get([]byte("missing")); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

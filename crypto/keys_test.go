package crypto

import (
	"bytes"
	"testing"
)

func TestAddressEncodeDecodeRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	if got := len(addr.Bytes()); got != 20 {
		t.Fatalf("expected 20-byte address, got %d", got)
	}

	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode address: %v", err)
	}
	if decoded.Prefix() != VaultPrefix {
		t.Fatalf("unexpected prefix %q", decoded.Prefix())
	}
	if !bytes.Equal(decoded.Bytes(), addr.Bytes()) {
		t.Fatalf("round trip mismatch: %x != %x", decoded.Bytes(), addr.Bytes())
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-bech32"); err == nil {
		t.Fatal("expected error for malformed address")
	}
}

func TestPrivateKeyBytesRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore key: %v", err)
	}
	if restored.PubKey().Address().String() != key.PubKey().Address().String() {
		t.Fatal("restored key derives a different address")
	}
}

package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"lendvault/crypto"
)

// generateAccount creates a fresh secp256k1 keypair and returns the bech32
// address together with the hex-encoded private key. Used to seed genesis
// balances without an external wallet.
func generateAccount() (address, key string, err error) {
	priv, err := crypto.GeneratePrivateKey()
	if err != nil {
		return "", "", fmt.Errorf("generate account key: %w", err)
	}
	return priv.PubKey().Address().String(), hex.EncodeToString(priv.Bytes()), nil
}

// accountFromKey re-derives the account address from a stored private key.
func accountFromKey(rawKey string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(rawKey))
	if err != nil {
		return "", fmt.Errorf("decode account key: %w", err)
	}
	priv, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		return "", fmt.Errorf("parse account key: %w", err)
	}
	return priv.PubKey().Address().String(), nil
}

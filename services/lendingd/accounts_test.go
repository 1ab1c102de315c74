package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lendvault/crypto"
)

func TestGenerateAccountRoundTrip(t *testing.T) {
	address, key, err := generateAccount()
	require.NoError(t, err)

	decoded, err := crypto.DecodeAddress(address)
	require.NoError(t, err)
	require.Equal(t, crypto.VaultPrefix, decoded.Prefix())

	derived, err := accountFromKey(key)
	require.NoError(t, err)
	require.Equal(t, address, derived)
}

func TestAccountFromKeyRejectsMalformedInput(t *testing.T) {
	_, err := accountFromKey("not hex")
	require.Error(t, err)

	_, err = accountFromKey("abcd")
	require.Error(t, err)
}

package spheretest

import (
	"testing"

	"github.com/glowsphere/glowsphere/pkg/crypto/keys"
	"github.com/stretchr/testify/require"
)

var _nonce uint32

// Nonce returns a unique number that can be used as a nonce for new transactions.
func Nonce() uint32 {
	_nonce++
	return _nonce
}

// Account returns a deterministic account derived from the name, so that
// "deployer" or "wallet_1" always map to the same principal.
func Account(name string) Signer {
	return NewSingleSigner(keys.NewPrivateKeyFromSeed(name))
}

// NewAccount returns a signer with a random private key.
func NewAccount(t testing.TB) Signer {
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	return NewSingleSigner(priv)
}

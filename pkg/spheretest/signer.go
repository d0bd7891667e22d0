package spheretest

import (
	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/crypto/keys"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// Signer is an account able to sign transactions.
type Signer interface {
	// Principal returns the principal of the signer.
	Principal() util.Uint160
	// Address returns the address of the signer.
	Address() string
	// SignTx signs a transaction.
	SignTx(*transaction.Transaction)
}

// signer represents simple-signature signer.
type signer keys.PrivateKey

// NewSingleSigner returns a signer for the provided private key.
func NewSingleSigner(priv *keys.PrivateKey) Signer {
	return (*signer)(priv)
}

// Principal implements Signer interface.
func (s *signer) Principal() util.Uint160 {
	return (*keys.PrivateKey)(s).Principal()
}

// Address implements Signer interface.
func (s *signer) Address() string {
	return (*keys.PrivateKey)(s).Address()
}

// SignTx implements Signer interface.
func (s *signer) SignTx(tx *transaction.Transaction) {
	tx.Sign((*keys.PrivateKey)(s))
}

package keys

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/glowsphere/glowsphere/pkg/crypto/hash"
	"github.com/glowsphere/glowsphere/pkg/encoding/address"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// PrivateKeyLen is the length of the serialized private key in bytes.
const PrivateKeyLen = 32

// PrivateKey represents a secp256k1 private key used to sign transactions.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// NewPrivateKey creates a new random secp256k1 private key.
func NewPrivateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: k}, nil
}

// NewPrivateKeyFromHex returns a PrivateKey created from the given hex string.
func NewPrivateKeyFromHex(str string) (*PrivateKey, error) {
	b, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(b)
}

// NewPrivateKeyFromBytes returns a PrivateKey from the given byte slice.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeyLen {
		return nil, fmt.Errorf(
			"invalid byte length: expected %d bytes got %d", PrivateKeyLen, len(b),
		)
	}
	k := secp256k1.PrivKeyFromBytes(b)
	if k.Key.IsZero() {
		return nil, errors.New("invalid private key: zero scalar")
	}
	return &PrivateKey{key: k}, nil
}

// NewPrivateKeyFromSeed deterministically derives a private key from the
// given seed string. It's only suitable for tests and development setups.
func NewPrivateKeyFromSeed(seed string) *PrivateKey {
	h := hash.Sha256([]byte(seed))
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(h.BytesBE())}
}

// PublicKey derives the public key from the private key.
func (p *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: p.key.PubKey()}
}

// Principal returns the principal corresponding to the private key.
func (p *PrivateKey) Principal() util.Uint160 {
	return p.PublicKey().Principal()
}

// Address derives the textual principal address from the private key.
func (p *PrivateKey) Address() string {
	return address.Uint160ToString(p.Principal())
}

// SignHash signs the given hash and returns a DER-encoded signature.
func (p *PrivateKey) SignHash(h util.Uint256) []byte {
	return ecdsa.Sign(p.key, h.BytesBE()).Serialize()
}

// SignHashable signs some Hashable item.
func (p *PrivateKey) SignHashable(item hash.Hashable) []byte {
	return p.SignHash(item.Hash())
}

// Bytes returns the underlying private key bytes.
func (p *PrivateKey) Bytes() []byte {
	return p.key.Serialize()
}

// String implements the stringer interface, it returns a hex-encoded key.
func (p *PrivateKey) String() string {
	return hex.EncodeToString(p.Bytes())
}

// Destroy wipes the contents of the private key from memory. Any operations
// with the key after call to Destroy have undefined behavior.
func (p *PrivateKey) Destroy() {
	p.key.Zero()
}

package keys

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/glowsphere/glowsphere/pkg/crypto/hash"
	"github.com/glowsphere/glowsphere/pkg/encoding/address"
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// PublicKeyLen is the length of the compressed public key in bytes.
const PublicKeyLen = 33

// PublicKey represents a secp256k1 public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

var errEmptyKey = errors.New("empty public key")

// NewPublicKeyFromString returns a public key created from the
// given hex string.
func NewPublicKeyFromString(s string) (*PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return NewPublicKeyFromBytes(b)
}

// NewPublicKeyFromBytes returns a public key created from the given compressed
// (or uncompressed) serialized form.
func NewPublicKeyFromBytes(b []byte) (*PublicKey, error) {
	pubKey := new(PublicKey)
	if err := pubKey.DecodeBytes(b); err != nil {
		return nil, err
	}
	return pubKey, nil
}

// DecodeBytes decodes a PublicKey from the given slice of bytes.
func (p *PublicKey) DecodeBytes(data []byte) error {
	if len(data) == 0 {
		return errEmptyKey
	}
	k, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	p.key = k
	return nil
}

// Bytes returns the compressed byte representation of the key.
func (p *PublicKey) Bytes() []byte {
	if p == nil || p.key == nil {
		return nil
	}
	return p.key.SerializeCompressed()
}

// Equal returns true in case public keys are equal.
func (p *PublicKey) Equal(key *PublicKey) bool {
	return bytes.Equal(p.Bytes(), key.Bytes())
}

// Principal returns the principal identified by the key.
func (p *PublicKey) Principal() util.Uint160 {
	return hash.Hash160(p.Bytes())
}

// Address returns the textual principal address of the key.
func (p *PublicKey) Address() string {
	return address.Uint160ToString(p.Principal())
}

// Verify returns true if the DER-encoded signature is valid for the given
// hash and the key.
func (p *PublicKey) Verify(signature []byte, h []byte) bool {
	if p == nil || p.key == nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(h, p.key)
}

// VerifyHashable returns true if the signature is valid for the given item.
func (p *PublicKey) VerifyHashable(signature []byte, item hash.Hashable) bool {
	h := item.Hash()
	return p.Verify(signature, h.BytesBE())
}

// EncodeBinary encodes the key in its compressed form.
func (p *PublicKey) EncodeBinary(w *io.BinWriter) {
	w.WriteVarBytes(p.Bytes())
}

// DecodeBinary decodes the key from its compressed form.
func (p *PublicKey) DecodeBinary(r *io.BinReader) {
	b := r.ReadVarBytes(PublicKeyLen * 2)
	if r.Err != nil {
		return
	}
	r.Err = p.DecodeBytes(b)
}

// String implements the Stringer interface.
func (p *PublicKey) String() string {
	return hex.EncodeToString(p.Bytes())
}

// MarshalJSON implements the json.Marshaler interface.
func (p *PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(p.Bytes()))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("failed to decode public key from hex bytes: %w", err)
	}
	return p.DecodeBytes(b)
}

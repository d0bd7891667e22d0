/*
Package hash contains wrappers for the hash functions used to derive
principals and to identify blocks and transactions.
*/
package hash

import (
	"crypto/sha256"

	"github.com/glowsphere/glowsphere/pkg/util"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // SA1019: principals are defined via RIPEMD160
)

// Hashable represents an object which can be hashed. Usually, these objects
// are io.Serializable and signable. They tend to cache the hash inside for
// effectiveness, providing this accessor method.
type Hashable interface {
	Hash() util.Uint256
}

// Sha256 hashes the incoming byte slice using the sha256 algorithm.
func Sha256(data []byte) util.Uint256 {
	return sha256.Sum256(data)
}

// DoubleSha256 performs sha256 twice on the given data.
func DoubleSha256(data []byte) util.Uint256 {
	h1 := Sha256(data)
	return Sha256(h1.BytesBE())
}

// RipeMD160 performs the RIPEMD160 hash algorithm on the given data.
func RipeMD160(data []byte) util.Uint160 {
	var hash util.Uint160
	hasher := ripemd160.New()
	_, _ = hasher.Write(data)

	hasher.Sum(hash[:0])
	return hash
}

// Hash160 performs sha256 and then ripemd160 on the given data.
func Hash160(data []byte) util.Uint160 {
	h1 := Sha256(data)
	return RipeMD160(h1.BytesBE())
}

// Checksum returns the checksum for a given piece of data using DoubleSha256
// as the hash algorithm. It returns the first 4 bytes of the resulting slice.
func Checksum(data []byte) []byte {
	hash := DoubleSha256(data)
	return hash[:4]
}

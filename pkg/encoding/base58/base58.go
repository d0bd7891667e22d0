/*
Package base58 wraps generic base58 encoder with a base58check variant that
appends a 4-byte checksum.
*/
package base58

import (
	"bytes"
	"errors"

	"github.com/glowsphere/glowsphere/pkg/crypto/hash"
	"github.com/mr-tron/base58"
)

// ErrChecksum is returned when base58check-encoded data doesn't match its
// checksum.
var ErrChecksum = errors.New("checksum mismatch")

// CheckDecode implements base58-encoded string decoding with a hash-based
// checksum check.
func CheckDecode(s string) (b []byte, err error) {
	b, err = base58.Decode(s)
	if err != nil {
		return nil, err
	}

	if len(b) < 5 {
		return nil, errors.New("invalid base-58 check string: missing checksum")
	}

	if !bytes.Equal(hash.Checksum(b[:len(b)-4]), b[len(b)-4:]) {
		return nil, ErrChecksum
	}
	b = b[:len(b)-4]

	return b, nil
}

// CheckEncode encodes the given byte slice into a base58 string with a
// hash-based checksum appended to it.
func CheckEncode(b []byte) string {
	b = append(b, hash.Checksum(b)...)

	return base58.Encode(b)
}

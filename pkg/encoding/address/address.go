/*
Package address implements conversion of principals to/from
their textual (base58check) representation.
*/
package address

import (
	"errors"

	"github.com/glowsphere/glowsphere/pkg/encoding/base58"
	"github.com/glowsphere/glowsphere/pkg/util"
)

const (
	// GlowAddressVersion is the version byte used for GlowSphere principals,
	// it makes all addresses start with 'G'.
	GlowAddressVersion byte = 0x26
)

// Prefix is the byte used to prepend to addresses when encoding them. It can
// be changed and defaults to GlowAddressVersion.
var Prefix = GlowAddressVersion

// Uint160ToString returns the textual address of the given principal.
func Uint160ToString(u util.Uint160) string {
	// Don't forget to prepend the Address version.
	b := append([]byte{Prefix}, u.BytesBE()...)
	return base58.CheckEncode(b)
}

// StringToUint160 attempts to decode the given address string into a
// principal.
func StringToUint160(s string) (u util.Uint160, err error) {
	b, err := base58.CheckDecode(s)
	if err != nil {
		return u, err
	}
	if len(b) == 0 || b[0] != Prefix {
		return u, errors.New("wrong address prefix")
	}
	return util.Uint160DecodeBytes(b[1:])
}

package address

import (
	"strings"
	"testing"

	"github.com/glowsphere/glowsphere/pkg/crypto/hash"
	"github.com/glowsphere/glowsphere/pkg/encoding/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint160DecodeEncodeAddress(t *testing.T) {
	for _, seed := range []string{"deployer", "wallet_1", "wallet_2"} {
		u := hash.Hash160([]byte(seed))
		addr := Uint160ToString(u)
		assert.True(t, strings.HasPrefix(addr, "G"), addr)

		val, err := StringToUint160(addr)
		require.NoError(t, err)
		assert.Equal(t, u, val)
	}
}

func TestUint160DecodeBadBase58(t *testing.T) {
	addr := Uint160ToString(hash.Hash160([]byte("deployer")))

	_, err := StringToUint160(addr[:len(addr)-1] + "@")
	require.Error(t, err)
}

func TestUint160DecodeBadPrefix(t *testing.T) {
	u := hash.Hash160([]byte("deployer"))
	addr := base58.CheckEncode(append([]byte{0x17}, u.BytesBE()...))

	_, err := StringToUint160(addr)
	require.Error(t, err)
}

func TestPrefixFirstLetter(t *testing.T) {
	u := hash.Hash160([]byte("wallet_9"))
	addr := Uint160ToString(u)
	assert.Equal(t, byte('G'), addr[0])
}

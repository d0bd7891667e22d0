package keys

import (
	"encoding/json"
	"testing"

	"github.com/glowsphere/glowsphere/pkg/crypto/hash"
	"github.com/glowsphere/glowsphere/pkg/encoding/address"
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrivateKeyRoundTrip(t *testing.T) {
	priv, err := NewPrivateKey()
	require.NoError(t, err)

	restored, err := NewPrivateKeyFromHex(priv.String())
	require.NoError(t, err)
	assert.Equal(t, priv.Bytes(), restored.Bytes())
	assert.True(t, priv.PublicKey().Equal(restored.PublicKey()))
	assert.Equal(t, priv.Address(), restored.Address())
}

func TestPrivateKeyFromBytesErrors(t *testing.T) {
	_, err := NewPrivateKeyFromBytes([]byte{1, 2, 3})
	require.Error(t, err)

	_, err = NewPrivateKeyFromBytes(make([]byte, PrivateKeyLen))
	require.Error(t, err)

	_, err = NewPrivateKeyFromHex("zz")
	require.Error(t, err)
}

func TestPrivateKeyFromSeedIsDeterministic(t *testing.T) {
	a := NewPrivateKeyFromSeed("deployer")
	b := NewPrivateKeyFromSeed("deployer")
	c := NewPrivateKeyFromSeed("wallet_1")

	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.NotEqual(t, a.Bytes(), c.Bytes())
	assert.NotEqual(t, a.Principal(), c.Principal())
}

func TestSignVerify(t *testing.T) {
	priv := NewPrivateKeyFromSeed("signer")
	pub := priv.PublicKey()
	h := hash.Sha256([]byte("glow"))

	sig := priv.SignHash(h)
	assert.True(t, pub.Verify(sig, h.BytesBE()))

	other := hash.Sha256([]byte("sphere"))
	assert.False(t, pub.Verify(sig, other.BytesBE()))
	assert.False(t, pub.Verify([]byte{1, 2, 3}, h.BytesBE()))
	assert.False(t, NewPrivateKeyFromSeed("other").PublicKey().Verify(sig, h.BytesBE()))
}

func TestPublicKeyEncoding(t *testing.T) {
	pub := NewPrivateKeyFromSeed("encoding").PublicKey()
	require.Len(t, pub.Bytes(), PublicKeyLen)

	fromStr, err := NewPublicKeyFromString(pub.String())
	require.NoError(t, err)
	assert.True(t, pub.Equal(fromStr))

	data, err := json.Marshal(pub)
	require.NoError(t, err)
	actual := new(PublicKey)
	require.NoError(t, json.Unmarshal(data, actual))
	assert.True(t, pub.Equal(actual))

	bw := io.NewBufBinWriter()
	pub.EncodeBinary(bw.BinWriter)
	require.NoError(t, bw.Err)
	decoded := new(PublicKey)
	r := io.NewBinReaderFromBuf(bw.Bytes())
	decoded.DecodeBinary(r)
	require.NoError(t, r.Err)
	assert.True(t, pub.Equal(decoded))

	_, err = NewPublicKeyFromBytes(nil)
	require.Error(t, err)
	_, err = NewPublicKeyFromBytes([]byte{0x02, 0x01})
	require.Error(t, err)
}

func TestPublicKeyAddress(t *testing.T) {
	pub := NewPrivateKeyFromSeed("address").PublicKey()
	u, err := address.StringToUint160(pub.Address())
	require.NoError(t, err)
	assert.Equal(t, pub.Principal(), u)
}

package smartcontract

import (
	"encoding/json"
	"testing"

	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse(t *testing.T) {
	ok := NewOK(NewInteger(1))
	assert.Equal(t, "(ok u1)", ok.String())
	_, isErr := ok.ErrorCode()
	assert.False(t, isErr)

	bad := NewErr(101)
	assert.Equal(t, "(err u101)", bad.String())
	code, isErr := bad.ErrorCode()
	assert.True(t, isErr)
	assert.Equal(t, uint64(101), code)

	for _, r := range []Response{ok, bad, NewOK(routineTuple())} {
		data, err := json.Marshal(r)
		require.NoError(t, err)
		var actual Response
		require.NoError(t, json.Unmarshal(data, &actual))
		assert.Equal(t, r, actual)

		bw := io.NewBufBinWriter()
		r.EncodeBinary(bw.BinWriter)
		require.NoError(t, bw.Err)
		actual = Response{}
		br := io.NewBinReaderFromBuf(bw.Bytes())
		actual.DecodeBinary(br)
		require.NoError(t, br.Err)
		assert.Equal(t, r, actual)
	}
}

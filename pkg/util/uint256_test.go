package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint256DecodeString(t *testing.T) {
	hexStr := "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"
	val, err := Uint256DecodeString(hexStr)
	require.NoError(t, err)
	assert.Equal(t, hexStr, val.String())

	_, err = Uint256DecodeString(hexStr[1:])
	assert.Error(t, err)
}

func TestUint256MarshalJSON(t *testing.T) {
	str := "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"
	expected, err := Uint256DecodeString(str)
	require.NoError(t, err)

	data, err := json.Marshal(expected)
	require.NoError(t, err)
	assert.Equal(t, `"0x`+str+`"`, string(data))

	var u Uint256
	require.NoError(t, json.Unmarshal(data, &u))
	assert.True(t, expected.Equals(u))
}

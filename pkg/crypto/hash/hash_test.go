package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSha256(t *testing.T) {
	input := []byte("hello")
	data := Sha256(input)

	expected := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	actual := hex.EncodeToString(data.BytesBE())

	assert.Equal(t, expected, actual)
}

func TestDoubleSha256(t *testing.T) {
	input := []byte("hello")
	data := DoubleSha256(input)

	firstSha := Sha256(input)
	doubleSha := Sha256(firstSha.BytesBE())
	expected := hex.EncodeToString(doubleSha.BytesBE())

	actual := hex.EncodeToString(data.BytesBE())
	assert.Equal(t, expected, actual)
}

func TestRipeMD160(t *testing.T) {
	input := []byte("hello")
	data := RipeMD160(input)

	expected := "108f07b8382412612c048d07d13f814118445acd"
	actual := hex.EncodeToString(data.BytesBE())
	assert.Equal(t, expected, actual)
}

func TestHash160(t *testing.T) {
	input := "02cccafb41b220cab63fd77108d2d1ebcffa32be26da29a04dca4996afce5f75db"
	publicKeyBytes, _ := hex.DecodeString(input)
	data := Hash160(publicKeyBytes)

	expected := RipeMD160(Sha256(publicKeyBytes).BytesBE())
	assert.Equal(t, expected, data)
}

func TestChecksum(t *testing.T) {
	input := []byte("hello")
	sum := Checksum(input)
	full := DoubleSha256(input)
	assert.Equal(t, full[:4], sum)
}

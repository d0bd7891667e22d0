package flags

import (
	"flag"
	"io"
	"testing"

	"github.com/glowsphere/glowsphere/pkg/encoding/address"
	"github.com/glowsphere/glowsphere/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	expected := util.Uint160{1, 2, 3}
	for _, s := range []string{
		expected.String(),
		"0x" + expected.String(),
		address.Uint160ToString(expected),
	} {
		u, err := ParseAddress(s)
		require.NoError(t, err, s)
		require.Equal(t, expected, u)
	}

	_, err := ParseAddress("not an address")
	require.Error(t, err)
}

func TestAddressFlag(t *testing.T) {
	set := flag.NewFlagSet("flagSet", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	f := AddressFlag{Name: "caller, c", Usage: "some usage"}
	f.Apply(set)
	require.Equal(t, "caller, c", f.GetName())
	require.Equal(t, "--caller value, -c value\tsome usage", f.String())

	expected := util.Uint160{4, 5, 6}
	require.NoError(t, set.Parse([]string{"--caller", address.Uint160ToString(expected)}))
	addr := set.Lookup("caller").Value.(*Address)
	require.True(t, addr.IsSet)
	require.Equal(t, expected, addr.Uint160())
	require.Equal(t, address.Uint160ToString(expected), addr.String())

	require.Error(t, set.Parse([]string{"-c", "bad"}))
}

func TestAddressNotSetPanics(t *testing.T) {
	require.Panics(t, func() {
		new(Address).Uint160()
	})
}

// Package chain contains functions creating new test blockchain instances.
package chain

import (
	"testing"

	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/glowsphere/glowsphere/pkg/core"
	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// NewSingle creates a new blockchain instance with the default protocol
// configuration over an in-memory store. The chain is running and is
// closed automatically when the test ends.
func NewSingle(t testing.TB) *core.Blockchain {
	return NewSingleWithCustomConfig(t, nil)
}

// NewSingleWithCustomConfig is similar to NewSingle, but allows to override
// the protocol configuration.
func NewSingleWithCustomConfig(t testing.TB, f func(*config.ProtocolConfiguration)) *core.Blockchain {
	return NewSingleWithCustomConfigAndStore(t, f, nil, true)
}

// NewSingleWithCustomConfigAndStore is similar to NewSingleWithCustomConfig,
// but also allows to use a custom store (memory store is used if nil) and
// to not run the chain.
func NewSingleWithCustomConfigAndStore(t testing.TB, f func(*config.ProtocolConfiguration), st storage.Store, run bool) *core.Blockchain {
	cfg := config.Default().ProtocolConfiguration
	if f != nil {
		f(&cfg)
	}
	if st == nil {
		st = storage.NewMemoryStore()
	}
	bc, err := core.NewBlockchain(st, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	if run {
		bc.Run()
	}
	t.Cleanup(bc.Close)
	return bc
}

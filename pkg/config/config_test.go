package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glowsphere/glowsphere/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config"))
	require.NoError(t, err)
	require.Equal(t, time.Second, cfg.ProtocolConfiguration.TimePerBlock)
	require.True(t, cfg.ProtocolConfiguration.SkipEmptyBlocks)
	require.Equal(t, dbconfig.BoltDB, cfg.ApplicationConfiguration.DBConfiguration.Type)
	require.True(t, cfg.ApplicationConfiguration.RPC.Enabled)
	require.Equal(t, []string{":30333"}, cfg.ApplicationConfiguration.RPC.GetAddresses())
}

func TestLoadUnitTestConfig(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("..", "..", "config", "protocol.unit_testnet.yml"))
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, cfg.ProtocolConfiguration.TimePerBlock)
	require.Equal(t, dbconfig.InMemoryDB, cfg.ApplicationConfiguration.DBConfiguration.Type)
	require.Equal(t, "debug", cfg.ApplicationConfiguration.LogLevel)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadRelativePath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "protocol.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
ApplicationConfiguration:
  LogPath: "logs/node.log"
  DBConfiguration:
    Type: boltdb
    BoltDBOptions:
      FilePath: "chains/test.bolt"
`), 0o644))

	cfg, err := LoadFile(cfgPath, "/base")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/base", "chains/test.bolt"), cfg.ApplicationConfiguration.DBConfiguration.BoltDBOptions.FilePath)
	require.Equal(t, filepath.Join("/base", "logs/node.log"), cfg.ApplicationConfiguration.LogPath)
	// Defaults are kept for what's not specified.
	require.Equal(t, defaultTimePerBlock, cfg.ProtocolConfiguration.TimePerBlock)
}

func TestLoadBytesErrors(t *testing.T) {
	for name, data := range map[string]string{
		"unknown field":  "ProtocolConfiguration:\n  Magic: 42\n",
		"bad db":         "ApplicationConfiguration:\n  DBConfiguration:\n    Type: redis\n",
		"bad log level":  "ApplicationConfiguration:\n  LogLevel: loud\n",
		"bad encoding":   "ApplicationConfiguration:\n  LogEncoding: xml\n",
		"zero pool":      "ProtocolConfiguration:\n  MemPoolSize: -1\n",
		"too many txs":   "ProtocolConfiguration:\n  MaxTransactionsPerBlock: 1000\n",
		"no rpc address": "ApplicationConfiguration:\n  RPC:\n    Enabled: true\n    Addresses: []\n",
		"bad yaml":       "ProtocolConfiguration: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBytes([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestGenerateUserAgent(t *testing.T) {
	Version = "0.1.0"
	t.Cleanup(func() { Version = "" })
	require.Equal(t, "/GLOWSPHERE:0.1.0/", Config{}.GenerateUserAgent())
}

func TestApplicationConfigurationEquals(t *testing.T) {
	a := &ApplicationConfiguration{}
	o := &ApplicationConfiguration{LogLevel: "debug", RPC: RPC{BasicService: BasicService{Enabled: true}}}
	require.True(t, a.EqualsButServices(o))
	o.DBConfiguration.Type = dbconfig.LevelDB
	require.False(t, a.EqualsButServices(o))
}

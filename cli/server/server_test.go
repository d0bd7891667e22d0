package server

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/glowsphere/glowsphere/pkg/core/glowsphere"
	"github.com/glowsphere/glowsphere/pkg/core/storage/dbconfig"
	"github.com/glowsphere/glowsphere/pkg/spheretest"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

// writeConfig stores a unit test configuration using the BoltDB file at
// dbPath and returns the path to the configuration file.
func writeConfig(t *testing.T, dir string, dbPath string) string {
	cfg := config.Default()
	cfg.ApplicationConfiguration.DBConfiguration = dbconfig.DBConfiguration{
		Type:          dbconfig.BoltDB,
		BoltDBOptions: dbconfig.BoltDBOptions{FilePath: dbPath},
	}
	cfg.ApplicationConfiguration.LogPath = filepath.Join(dir, "node.log")
	cfg.ApplicationConfiguration.RPC.Enabled = false
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	p := filepath.Join(dir, "protocol.yml")
	require.NoError(t, os.WriteFile(p, data, os.ModePerm))
	return p
}

func newContext(t *testing.T, flags map[string]string) *cli.Context {
	set := flag.NewFlagSet("flagSet", flag.ContinueOnError)
	for k, v := range flags {
		set.String(k, v, "")
	}
	set.Uint("count", 0, "")
	set.Uint("start", 0, "")
	set.Uint("skip", 0, "")
	set.Bool("debug", false, "")
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestInitBlockChain(t *testing.T) {
	t.Run("bad storage", func(t *testing.T) {
		cfg := config.Default()
		cfg.ApplicationConfiguration.DBConfiguration.Type = "unknown"
		_, err := initBlockChain(cfg, zaptest.NewLogger(t))
		require.Error(t, err)
	})
	t.Run("bad protocol config", func(t *testing.T) {
		cfg := config.Default()
		cfg.ProtocolConfiguration.MemPoolSize = 0
		_, err := initBlockChain(cfg, zaptest.NewLogger(t))
		require.Error(t, err)
	})
	t.Run("inmemory", func(t *testing.T) {
		chain, err := initBlockChain(config.Default(), zaptest.NewLogger(t))
		require.NoError(t, err)
		require.Equal(t, uint32(0), chain.BlockHeight())
		chain.Close()
	})
}

func TestDumpAndRestore(t *testing.T) {
	d := t.TempDir()
	srcCfgPath := writeConfig(t, d, filepath.Join(d, "src.bolt"))
	dstDir := filepath.Join(d, "dst")
	require.NoError(t, os.MkdirAll(dstDir, os.ModePerm))
	dstCfgPath := writeConfig(t, dstDir, filepath.Join(dstDir, "dst.bolt"))
	dumpPath := filepath.Join(d, "chain.dump")

	cfg, err := config.LoadFile(srcCfgPath)
	require.NoError(t, err)
	chain, err := initBlockChain(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	e := spheretest.NewExecutor(t, chain)
	c := e.DeployerInvoker()
	c.Invoke(t, 1, glowsphere.MethodCreateRoutine, "Morning Routine", "d", []string{"Cleanser"}, true)
	c.WithSigner(spheretest.Account("wallet_1")).Invoke(t, true, glowsphere.MethodLikeRoutine, 1)
	e.AddNewBlock(t)
	expectedHash := chain.CurrentBlockHash()
	chain.Close()

	t.Run("unexpected args", func(t *testing.T) {
		set := flag.NewFlagSet("flagSet", flag.ContinueOnError)
		require.NoError(t, set.Parse([]string{"something"}))
		require.Error(t, dumpDB(cli.NewContext(cli.NewApp(), set, nil)))
		require.Error(t, restoreDB(cli.NewContext(cli.NewApp(), set, nil)))
	})

	t.Run("dump too high", func(t *testing.T) {
		ctx := newContext(t, map[string]string{"config-file": srcCfgPath, "out": dumpPath})
		require.NoError(t, ctx.Set("start", "10"))
		require.Error(t, dumpDB(ctx))
	})

	ctx := newContext(t, map[string]string{"config-file": srcCfgPath, "out": dumpPath})
	require.NoError(t, dumpDB(ctx))

	t.Run("restore too many", func(t *testing.T) {
		ctx := newContext(t, map[string]string{"config-file": dstCfgPath, "in": dumpPath})
		require.NoError(t, ctx.Set("count", "10"))
		require.Error(t, restoreDB(ctx))
	})

	ctx = newContext(t, map[string]string{"config-file": dstCfgPath, "in": dumpPath})
	require.NoError(t, restoreDB(ctx))

	cfg, err = config.LoadFile(dstCfgPath)
	require.NoError(t, err)
	restored, err := initBlockChain(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer restored.Close()
	require.Equal(t, uint32(3), restored.BlockHeight())
	require.Equal(t, expectedHash, restored.CurrentBlockHash())
}

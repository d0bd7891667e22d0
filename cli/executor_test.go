package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/glowsphere/glowsphere/cli/app"
	"github.com/glowsphere/glowsphere/cli/input"
	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/glowsphere/glowsphere/pkg/core"
	"github.com/glowsphere/glowsphere/pkg/core/producer"
	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/glowsphere/glowsphere/pkg/crypto/keys"
	"github.com/glowsphere/glowsphere/pkg/services/rpcsrv"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"go.uber.org/zap/zaptest"
)

const testConfigPath = "../config/protocol.unit_testnet.yml"

var (
	deployer = keys.NewPrivateKeyFromSeed("deployer")
	wallet1  = keys.NewPrivateKeyFromSeed("wallet_1")
	wallet2  = keys.NewPrivateKeyFromSeed("wallet_2")
)

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Chain is a blockchain instance (can be empty).
	Chain *core.Blockchain
	// RPC is an RPC server to query (can be empty).
	RPC *rpcsrv.Server
	// Endpoint is the RPC server HTTP endpoint.
	Endpoint string
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
}

func newTestChain(t *testing.T) (*core.Blockchain, *rpcsrv.Server) {
	cfg, err := config.LoadFile(testConfigPath)
	require.NoError(t, err, "could not load config")

	logger := zaptest.NewLogger(t)
	chain, err := core.NewBlockchain(storage.NewMemoryStore(), cfg.ProtocolConfiguration, logger)
	require.NoError(t, err, "could not create chain")
	chain.Run()

	prod := producer.New(chain, cfg.ProtocolConfiguration, logger)
	prod.Start()

	errCh := make(chan error, 2)
	rpcServer := rpcsrv.New(chain, cfg.ApplicationConfiguration.RPC, cfg.GenerateUserAgent(), logger, errCh)
	rpcServer.Start()
	t.Cleanup(func() {
		rpcServer.Shutdown()
		prod.Shutdown()
		chain.Close()
	})
	return chain, rpcServer
}

func newExecutor(t *testing.T, needChain bool) *executor {
	e := &executor{
		CLI: app.New(),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	// Errors are returned from Run instead of exiting the process.
	e.CLI.ExitErrHandler = func(*cli.Context, error) {}
	if needChain {
		e.Chain, e.RPC = newTestChain(t)
		e.Endpoint = "http://" + e.RPC.Addresses()[0]
	}
	t.Cleanup(func() {
		input.Terminal = nil
	})
	return e
}

// GetNextLine returns the next line from Out.
func (e *executor) GetNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

// checkNextLine takes the next line from Out and checks it against the
// expected one.
func (e *executor) checkNextLine(t *testing.T, expected string) {
	require.Equal(t, expected, e.GetNextLine(t))
}

// checkEOF checks that there is no more output.
func (e *executor) checkEOF(t *testing.T) {
	require.Equal(t, 0, e.Out.Len(), e.Out.String())
}

// Run runs the command and checks that it succeeded.
func (e *executor) Run(t *testing.T, args ...string) {
	e.Out.Reset()
	e.Err.Reset()
	require.NoError(t, e.run(args...), e.Err.String())
}

// RunWithError runs the command and checks that it failed.
func (e *executor) RunWithError(t *testing.T, args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	err := e.run(args...)
	require.Error(t, err)
	return err
}

func (e *executor) run(args ...string) error {
	return e.CLI.Run(append([]string{"glowsphere"}, args...))
}

// withRPC appends the RPC endpoint flag to the arguments.
func (e *executor) withRPC(args ...string) []string {
	return append(args, "-r", e.Endpoint)
}

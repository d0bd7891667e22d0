/*
Package contract implements CLI commands calling GlowSphere contract methods
over RPC.
*/
package contract

import (
	"fmt"
	"strconv"
	"time"

	"github.com/glowsphere/glowsphere/cli/flags"
	"github.com/glowsphere/glowsphere/cli/options"
	"github.com/glowsphere/glowsphere/pkg/rpcclient"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
	"github.com/urfave/cli"
)

// minPollInterval is the lowest receipt polling interval used with --await.
const minPollInterval = 100 * time.Millisecond

var (
	txFlags   = append([]cli.Flag{options.Key, options.Await}, options.RPC...)
	readFlags = options.RPC

	callerFlag = flags.AddressFlag{
		Name:  "caller",
		Usage: "address (or hex principal) the read-only call is made on behalf of",
	}
)

// NewCommands returns 'routine', 'user' and 'progress' commands.
func NewCommands() []cli.Command {
	return []cli.Command{
		newRoutineCommand(),
		newUserCommand(),
		newProgressCommand(),
	}
}

// invoke signs and sends a transaction calling the method. With --await it
// waits for the receipt and prints the call response, otherwise the
// transaction hash is printed.
func invoke(ctx *cli.Context, method string, args ...any) error {
	params, err := smartcontract.NewParametersFromValues(args...)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	priv, err := options.GetPrivateKey(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer priv.Destroy()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	tx, err := c.SignAndPushTx(priv, method, params...)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if !ctx.Bool("await") {
		fmt.Fprintln(ctx.App.Writer, tx.Hash().String())
		return nil
	}
	r, err := c.WaitReceipt(gctx, tx.Hash(), tx.ValidUntilBlock, pollInterval(c))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to await transaction %s: %w", tx.Hash(), err), 1)
	}
	if r.IsFault() {
		return cli.NewExitError(fmt.Errorf("transaction %s failed: %s", tx.Hash(), r.FaultException), 1)
	}
	fmt.Fprintln(ctx.App.Writer, r.Response.String())
	if !r.Response.OK {
		return cli.NewExitError(fmt.Sprintf("call returned an error: %s", r.Response), 1)
	}
	return nil
}

func pollInterval(c *rpcclient.Client) time.Duration {
	v, err := c.GetVersion()
	if err != nil {
		return minPollInterval
	}
	d := time.Duration(v.Protocol.MillisecondsPerBlock) * time.Millisecond / 2
	if d < minPollInterval {
		d = minPollInterval
	}
	return d
}

// query runs a read-only RPC call and prints its result.
func query(ctx *cli.Context, f func(c *rpcclient.Client) (smartcontract.Parameter, error)) error {
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	p, err := f(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return printParameter(ctx, p)
}

func printParameter(ctx *cli.Context, p smartcontract.Parameter) error {
	fmt.Fprintln(ctx.App.Writer, p.String())
	return nil
}

func getCaller(ctx *cli.Context) *util.Uint160 {
	addr := ctx.Generic("caller").(*flags.Address)
	if !addr.IsSet {
		return nil
	}
	u := addr.Uint160()
	return &u
}

func argsCount(ctx *cli.Context, n int) error {
	if len(ctx.Args()) != n {
		return cli.NewExitError(fmt.Errorf("expected %d argument(s), got %d", n, len(ctx.Args())), 1)
	}
	return nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, cli.NewExitError(fmt.Errorf("invalid id %q: %w", s, err), 1)
	}
	return id, nil
}

func parseAddress(s string) (util.Uint160, error) {
	u, err := flags.ParseAddress(s)
	if err != nil {
		return u, cli.NewExitError(fmt.Errorf("invalid address %q: %w", s, err), 1)
	}
	return u, nil
}

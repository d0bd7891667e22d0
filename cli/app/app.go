package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/glowsphere/glowsphere/cli/contract"
	"github.com/glowsphere/glowsphere/cli/server"
	"github.com/glowsphere/glowsphere/cli/wallet"
	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "GlowSphere\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a GlowSphere instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "glowsphere"
	ctl.Version = config.Version
	ctl.Usage = "GlowSphere skincare routine ledger node and client"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, server.NewCommands()...)
	ctl.Commands = append(ctl.Commands, contract.NewCommands()...)
	ctl.Commands = append(ctl.Commands, wallet.NewCommands()...)
	return ctl
}

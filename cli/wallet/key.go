/*
Package wallet implements CLI commands managing account keys.
*/
package wallet

import (
	"fmt"

	"github.com/glowsphere/glowsphere/cli/options"
	"github.com/glowsphere/glowsphere/pkg/crypto/keys"
	"github.com/urfave/cli"
)

// NewCommands returns 'key' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "key",
		Usage: "generate keys and derive addresses",
		Subcommands: []cli.Command{
			{
				Name:      "generate",
				Usage:     "generate a new random private key",
				UsageText: "glowsphere key generate",
				Action:    generateKey,
			},
			{
				Name:      "address",
				Usage:     "print the address and principal of a private key",
				UsageText: "glowsphere key address [-k key]",
				Action:    keyAddress,
				Flags:     []cli.Flag{options.Key},
			},
		},
	}}
}

func generateKey(ctx *cli.Context) error {
	if len(ctx.Args()) != 0 {
		return cli.NewExitError(fmt.Errorf("unexpected arguments: %v", ctx.Args()), 1)
	}
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer priv.Destroy()
	printKey(ctx, priv, true)
	return nil
}

func keyAddress(ctx *cli.Context) error {
	if len(ctx.Args()) != 0 {
		return cli.NewExitError(fmt.Errorf("unexpected arguments: %v", ctx.Args()), 1)
	}
	priv, err := options.GetPrivateKey(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer priv.Destroy()
	printKey(ctx, priv, false)
	return nil
}

func printKey(ctx *cli.Context, priv *keys.PrivateKey, withPrivate bool) {
	w := ctx.App.Writer
	if withPrivate {
		fmt.Fprintf(w, "Private key: %s\n", priv.String())
	}
	fmt.Fprintf(w, "Public key: %s\n", priv.PublicKey().String())
	fmt.Fprintf(w, "Address: %s\n", priv.Address())
	fmt.Fprintf(w, "Principal: %s\n", priv.Principal().String())
}

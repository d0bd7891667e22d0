package contract

import (
	"github.com/glowsphere/glowsphere/pkg/core/glowsphere"
	"github.com/glowsphere/glowsphere/pkg/rpcclient"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/urfave/cli"
)

func newProgressCommand() cli.Command {
	addFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "notes",
			Usage: "free-form notes",
		},
		cli.StringFlag{
			Name:  "photo",
			Usage: "hash of the progress photo",
		},
	}, txFlags...)
	return cli.Command{
		Name:  "progress",
		Usage: "record and inspect skincare progress",
		Subcommands: []cli.Command{
			{
				Name:      "add",
				Usage:     "add a progress record for a routine",
				UsageText: "glowsphere progress add <routine-id> --photo <hash> [--notes <text>] [-k key] [--await] [-r endpoint]",
				Action:    addProgressRecord,
				Flags:     addFlags,
			},
			{
				Name:        "get",
				Usage:       "print a progress record of a user",
				UsageText:   "glowsphere progress get <address> <record-id> [--caller <address>] [-r endpoint]",
				Description: "Records are visible to their owner only, the owner is the caller unless --caller is given.",
				Action:      getProgressRecord,
				Flags:       append([]cli.Flag{callerFlag}, readFlags...),
			},
		},
	}
}

func addProgressRecord(ctx *cli.Context) error {
	if err := argsCount(ctx, 1); err != nil {
		return err
	}
	id, err := parseID(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	return invoke(ctx, glowsphere.MethodAddProgressRecord, id, ctx.String("notes"), ctx.String("photo"))
}

func getProgressRecord(ctx *cli.Context) error {
	if err := argsCount(ctx, 2); err != nil {
		return err
	}
	u, err := parseAddress(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	id, err := parseID(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	caller := getCaller(ctx)
	if caller == nil {
		caller = &u
	}
	return query(ctx, func(c *rpcclient.Client) (smartcontract.Parameter, error) {
		return c.GetProgressRecord(u, id, caller)
	})
}

package contract

import (
	"strconv"

	"github.com/glowsphere/glowsphere/pkg/core/glowsphere"
	"github.com/glowsphere/glowsphere/pkg/rpcclient"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/urfave/cli"
)

func newRoutineCommand() cli.Command {
	createFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "name, n",
			Usage: "routine name",
		},
		cli.StringFlag{
			Name:  "description",
			Usage: "routine description",
		},
		cli.StringSliceFlag{
			Name:  "product, p",
			Usage: "product used in the routine, can be repeated",
		},
		cli.BoolFlag{
			Name:  "private",
			Usage: "make the routine visible to its creator only",
		},
	}, txFlags...)
	return cli.Command{
		Name:  "routine",
		Usage: "create, like and inspect skincare routines",
		Subcommands: []cli.Command{
			{
				Name:      "create",
				Usage:     "create a new routine",
				UsageText: "glowsphere routine create --name <name> [--description <text>] [-p <product>]... [--private] [-k key] [--await] [-r endpoint]",
				Action:    createRoutine,
				Flags:     createFlags,
			},
			{
				Name:      "like",
				Usage:     "like a routine",
				UsageText: "glowsphere routine like <id> [-k key] [--await] [-r endpoint]",
				Action:    routineAction(glowsphere.MethodLikeRoutine),
				Flags:     txFlags,
			},
			{
				Name:      "unlike",
				Usage:     "remove a like from a routine",
				UsageText: "glowsphere routine unlike <id> [-k key] [--await] [-r endpoint]",
				Action:    routineAction(glowsphere.MethodUnlikeRoutine),
				Flags:     txFlags,
			},
			{
				Name:      "visibility",
				Usage:     "make own routine public or private",
				UsageText: "glowsphere routine visibility <id> <public|private> [-k key] [--await] [-r endpoint]",
				Action:    setVisibility,
				Flags:     txFlags,
			},
			{
				Name:      "get",
				Usage:     "print a routine",
				UsageText: "glowsphere routine get <id> [--caller address] [-r endpoint]",
				Action:    getRoutine,
				Flags:     append([]cli.Flag{callerFlag}, readFlags...),
			},
			{
				Name:      "has-liked",
				Usage:     "check whether the user liked the routine",
				UsageText: "glowsphere routine has-liked <address> <id> [-r endpoint]",
				Action:    hasLiked,
				Flags:     readFlags,
			},
			{
				Name:      "count",
				Usage:     "print the number of routines created",
				UsageText: "glowsphere routine count [-r endpoint]",
				Action:    getRoutineCount,
				Flags:     readFlags,
			},
		},
	}
}

func createRoutine(ctx *cli.Context) error {
	if err := argsCount(ctx, 0); err != nil {
		return err
	}
	name := ctx.String("name")
	if name == "" {
		return cli.NewExitError("routine name is required, use --name", 1)
	}
	products := ctx.StringSlice("product")
	if products == nil {
		products = []string{}
	}
	return invoke(ctx, glowsphere.MethodCreateRoutine, name, ctx.String("description"), products, !ctx.Bool("private"))
}

func routineAction(method string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		if err := argsCount(ctx, 1); err != nil {
			return err
		}
		id, err := parseID(ctx.Args().Get(0))
		if err != nil {
			return err
		}
		return invoke(ctx, method, id)
	}
}

func setVisibility(ctx *cli.Context) error {
	if err := argsCount(ctx, 2); err != nil {
		return err
	}
	id, err := parseID(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	var isPublic bool
	switch v := ctx.Args().Get(1); v {
	case "public":
		isPublic = true
	case "private":
	default:
		isPublic, err = strconv.ParseBool(v)
		if err != nil {
			return cli.NewExitError("visibility must be 'public' or 'private'", 1)
		}
	}
	return invoke(ctx, glowsphere.MethodSetRoutineVisibility, id, isPublic)
}

func getRoutine(ctx *cli.Context) error {
	if err := argsCount(ctx, 1); err != nil {
		return err
	}
	id, err := parseID(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	caller := getCaller(ctx)
	return query(ctx, func(c *rpcclient.Client) (smartcontract.Parameter, error) {
		return c.GetRoutine(id, caller)
	})
}

func getRoutineCount(ctx *cli.Context) error {
	if err := argsCount(ctx, 0); err != nil {
		return err
	}
	return query(ctx, func(c *rpcclient.Client) (smartcontract.Parameter, error) {
		res, err := c.InvokeFunction(glowsphere.MethodGetRoutineCount, nil, nil)
		if err != nil {
			return smartcontract.Parameter{}, err
		}
		return res.Response.Value, nil
	})
}

func hasLiked(ctx *cli.Context) error {
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
	return query(ctx, func(c *rpcclient.Client) (smartcontract.Parameter, error) {
		ok, err := c.HasLiked(u, id)
		return smartcontract.NewBool(ok), err
	})
}

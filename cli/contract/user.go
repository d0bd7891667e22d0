package contract

import (
	"github.com/glowsphere/glowsphere/pkg/core/glowsphere"
	"github.com/glowsphere/glowsphere/pkg/rpcclient"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/urfave/cli"
)

func newUserCommand() cli.Command {
	return cli.Command{
		Name:  "user",
		Usage: "follow users and inspect their stats",
		Subcommands: []cli.Command{
			{
				Name:      "follow",
				Usage:     "follow a user",
				UsageText: "glowsphere user follow <address> [-k key] [--await] [-r endpoint]",
				Action:    userAction(glowsphere.MethodFollowUser),
				Flags:     txFlags,
			},
			{
				Name:      "unfollow",
				Usage:     "stop following a user",
				UsageText: "glowsphere user unfollow <address> [-k key] [--await] [-r endpoint]",
				Action:    userAction(glowsphere.MethodUnfollowUser),
				Flags:     txFlags,
			},
			{
				Name:      "is-following",
				Usage:     "check whether one user follows another",
				UsageText: "glowsphere user is-following <follower> <followee> [-r endpoint]",
				Action:    isFollowing,
				Flags:     readFlags,
			},
			{
				Name:      "stats",
				Usage:     "print user counters",
				UsageText: "glowsphere user stats <address> [-r endpoint]",
				Action:    getUserStats,
				Flags:     readFlags,
			},
		},
	}
}

func userAction(method string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		if err := argsCount(ctx, 1); err != nil {
			return err
		}
		u, err := parseAddress(ctx.Args().Get(0))
		if err != nil {
			return err
		}
		return invoke(ctx, method, u)
	}
}

func isFollowing(ctx *cli.Context) error {
	if err := argsCount(ctx, 2); err != nil {
		return err
	}
	follower, err := parseAddress(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	followee, err := parseAddress(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	return query(ctx, func(c *rpcclient.Client) (smartcontract.Parameter, error) {
		ok, err := c.IsFollowing(follower, followee)
		return smartcontract.NewBool(ok), err
	})
}

func getUserStats(ctx *cli.Context) error {
	if err := argsCount(ctx, 1); err != nil {
		return err
	}
	u, err := parseAddress(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	return query(ctx, func(c *rpcclient.Client) (smartcontract.Parameter, error) {
		return c.GetUserStats(u)
	})
}

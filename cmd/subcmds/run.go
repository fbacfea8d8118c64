package subcmds

import (
	"github.com/quellsh/quell/actions"
	"github.com/quellsh/quell/config"

	"github.com/urfave/cli/v2"
)

func RunCmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a rule's command once, without watching",
		ArgsUsage: "<rule>",
		Action: func(ctx *cli.Context) error {
			if ctx.Args().Len() != 1 {
				return cli.Exit("usage: quell run <rule>", 1)
			}

			log := newLogger(ctx)

			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			action := actions.NewRunAction(cfg, log)
			if err := action.Execute(ctx.Context, ctx.Args().First()); err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			return nil
		},
	}
}

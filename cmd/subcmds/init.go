package subcmds

import (
	"github.com/quellsh/quell/actions"

	"github.com/urfave/cli/v2"
)

func InitCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter quell.yml",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Overwrite an existing quell.yml",
			},
		},
		Action: func(ctx *cli.Context) error {
			log := newLogger(ctx)

			action := actions.NewInitAction(log, ctx.Bool("force"))
			if err := action.Execute(ctx.String("config")); err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			return nil
		},
	}
}

package cmd

import (
	"github.com/quellsh/quell/cmd/subcmds"

	"github.com/urfave/cli/v2"
)

func NewApp() *cli.App {
	return &cli.App{
		Name:    "quell",
		Usage:   "Debounced file watcher - run commands once change bursts settle",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to quell.yml (default: auto-detect via git root)",
			},
		},
		Commands: []*cli.Command{
			subcmds.InitCmd(),
			subcmds.WatchCmd(),
			subcmds.RunCmd(),
		},
	}
}

package subcmds

import (
	"os/signal"
	"syscall"

	"github.com/quellsh/quell/actions"
	"github.com/quellsh/quell/config"
	"github.com/quellsh/quell/logger"

	"github.com/urfave/cli/v2"
)

func WatchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch rule paths and run commands after changes settle",
		ArgsUsage: "[rules...]",
		Action: func(ctx *cli.Context) error {
			log := newLogger(ctx)

			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			watchCtx, cancel := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			go func() {
				<-watchCtx.Done()
				log.Info("shutting down...")
			}()

			action := actions.NewWatchAction(cfg, log)
			if err := action.Execute(watchCtx, ctx.Args().Slice()); err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			return nil
		},
	}
}

func newLogger(ctx *cli.Context) logger.Logger {
	level := logger.InfoLevel
	if ctx.Bool("debug") {
		level = logger.DebugLevel
	}
	return logger.New(level)
}

package actions

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/quellsh/quell/config"
	"github.com/quellsh/quell/logger"
	"github.com/quellsh/quell/runner"
)

type RunAction struct {
	config *config.Config
	log    logger.Logger
}

func NewRunAction(cfg *config.Config, log logger.Logger) *RunAction {
	return &RunAction{
		config: cfg,
		log:    log,
	}
}

// Execute runs a rule's command once, without watching.
func (a *RunAction) Execute(ctx context.Context, ruleName string) error {
	rule, ok := a.config.Rule(ruleName)
	if !ok {
		return errors.Errorf("rule not found: %s", ruleName)
	}

	ruleLog := a.log.WithPrefix(rule.Name)
	ruleLog.Info("running...")

	start := time.Now()
	err := runner.Run(ctx, rule.Command, &runner.Options{
		Env:    rule.Env,
		Shell:  a.config.Shell,
		Stdout: ruleLog.Writer(),
		Stderr: ruleLog.Writer(),
	})
	if err != nil {
		ruleLog.Error("command failed", logger.Err(err))
		return err
	}

	ruleLog.Info("done", logger.Duration("duration", time.Since(start)))
	return nil
}

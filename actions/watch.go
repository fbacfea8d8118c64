package actions

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/quellsh/quell/config"
	"github.com/quellsh/quell/logger"
	"github.com/quellsh/quell/runner"
	"github.com/quellsh/quell/watcher"
)

type WatchAction struct {
	config *config.Config
	log    logger.Logger
}

func NewWatchAction(cfg *config.Config, log logger.Logger) *WatchAction {
	return &WatchAction{
		config: cfg,
		log:    log,
	}
}

// Execute watches every selected rule until ctx is cancelled. Each rule
// gets its own watcher and debounce engine; the rule's command runs once
// up front and then once per settled change batch.
func (a *WatchAction) Execute(ctx context.Context, ruleNames []string) error {
	rules, err := selectRules(a.config, ruleNames)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, rule := range rules {
		rule := rule
		g.Go(func() error {
			return a.watchRule(ctx, rule)
		})
	}
	return g.Wait()
}

func (a *WatchAction) watchRule(ctx context.Context, rule *config.Rule) error {
	ruleLog := a.log.WithPrefix(rule.Name)

	w, err := watcher.NewWatcher(rule.Paths, rule.Ignore, rule.Debounce.Policy(), ruleLog)
	if err != nil {
		return err
	}
	defer w.Stop()

	// Batches can settle while a slow command is still running; the
	// mutex serializes runs so they never overlap.
	var runMu sync.Mutex
	w.OnBatch(func(paths []string) {
		runMu.Lock()
		defer runMu.Unlock()

		ruleLog.Info("changes settled", logger.Int("files", len(paths)))
		a.runCommand(ctx, rule, ruleLog)
	})

	ruleLog.Info("running...")
	a.runCommand(ctx, rule, ruleLog)

	ruleLog.Info("watching", logger.Strings("paths", rule.Paths))
	return w.Start(ctx)
}

func (a *WatchAction) runCommand(ctx context.Context, rule *config.Rule, ruleLog logger.Logger) {
	start := time.Now()
	err := runner.Run(ctx, rule.Command, &runner.Options{
		Env:    rule.Env,
		Shell:  a.config.Shell,
		Stdout: ruleLog.Writer(),
		Stderr: ruleLog.Writer(),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		ruleLog.Error("command failed", logger.Err(err))
		return
	}
	ruleLog.Info("done", logger.Duration("duration", time.Since(start)))
}

func selectRules(cfg *config.Config, names []string) ([]*config.Rule, error) {
	if len(names) == 0 {
		rules := make([]*config.Rule, len(cfg.Rules))
		for i := range cfg.Rules {
			rules[i] = &cfg.Rules[i]
		}
		return rules, nil
	}

	rules := make([]*config.Rule, 0, len(names))
	for _, name := range names {
		rule, ok := cfg.Rule(name)
		if !ok {
			return nil, errors.Errorf("rule not found: %s", name)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

package actions

import (
	"os"

	"github.com/pkg/errors"

	"github.com/quellsh/quell/config"
	"github.com/quellsh/quell/logger"
)

const starterConfig = `shell: /bin/sh

rules:
  - name: app
    paths: ["."]
    ignore: ["**/dist/**"]
    command: echo "files changed"
    debounce:
      delay: 200ms
      max_wait: 2s
`

type InitAction struct {
	log   logger.Logger
	force bool
}

func NewInitAction(log logger.Logger, force bool) *InitAction {
	return &InitAction{
		log:   log,
		force: force,
	}
}

// Execute writes a starter quell.yml. Refuses to overwrite an existing
// file unless forced.
func (a *InitAction) Execute(path string) error {
	if path == "" {
		path = config.DefaultFile
	}

	if !a.force {
		if _, err := os.Stat(path); err == nil {
			return errors.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(starterConfig), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}

	a.log.Info("wrote starter config", logger.String("path", path))
	return nil
}

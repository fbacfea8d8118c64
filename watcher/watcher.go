package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/quellsh/quell/debounce"
	"github.com/quellsh/quell/logger"
)

// Watcher follows a set of directory trees and reports change batches.
// Raw filesystem events are fed into a debounce engine; once a burst of
// changes settles (or the policy's max wait forces it), the batch
// callback receives every path touched during the burst.
//
// The watcher owns its engine: Stop disposes it along with the
// underlying filesystem watcher, and SetPolicy reconfigures it.
type Watcher struct {
	paths  []string
	ignore []string
	log    logger.Logger
	fsw    *fsnotify.Watcher
	engine *debounce.Engine[[]string]

	mu      sync.Mutex
	changed map[string]struct{}
	onBatch func(paths []string)
}

// NewWatcher builds a watcher for the given trees. Engine options are
// forwarded to the embedded debounce engine; tests pass
// debounce.WithClock to drive it deterministically.
func NewWatcher(paths, ignore []string, policy debounce.Policy, log logger.Logger, engineOpts ...debounce.Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	w := &Watcher{
		paths:   paths,
		ignore:  ignore,
		log:     log,
		fsw:     fsw,
		changed: make(map[string]struct{}),
	}

	engine, err := debounce.New(w.deliver, policy, engineOpts...)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	w.engine = engine

	return w, nil
}

// OnBatch registers the callback receiving settled change batches. Set
// it before Start.
func (w *Watcher) OnBatch(fn func(paths []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onBatch = fn
}

// SetPolicy swaps the debounce policy for subsequent changes. Changes
// accumulated but not yet delivered are discarded, matching the
// engine's reconfigure semantics.
func (w *Watcher) SetPolicy(policy debounce.Policy) error {
	if err := w.engine.Reconfigure(policy); err != nil {
		return err
	}
	w.mu.Lock()
	w.changed = make(map[string]struct{})
	w.mu.Unlock()
	return nil
}

// Start watches the configured paths until ctx is cancelled or the
// watcher is stopped.
func (w *Watcher) Start(ctx context.Context) error {
	for _, path := range w.paths {
		if err := w.addRecursive(path); err != nil {
			return errors.Wrapf(err, "failed to watch path %s", path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0 {
				w.record(event.Name)
			}

			if event.Op&fsnotify.Create != 0 {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					w.addRecursive(event.Name)
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.log.Warn("watch error", logger.Err(err))
			}
		}
	}
}

// Stop disposes the engine, discarding any pending batch, and closes
// the filesystem watcher. Idempotent.
func (w *Watcher) Stop() {
	w.engine.Dispose()
	w.fsw.Close()
}

// record adds path to the pending batch and triggers the engine with a
// snapshot of it. The snapshot is taken outside the engine call so a
// leading invocation, which runs synchronously, cannot deadlock on the
// watcher's lock.
func (w *Watcher) record(path string) {
	w.mu.Lock()
	w.changed[path] = struct{}{}
	snapshot := make([]string, 0, len(w.changed))
	for p := range w.changed {
		snapshot = append(snapshot, p)
	}
	w.mu.Unlock()

	if err := w.engine.Trigger(snapshot); err != nil {
		w.log.Debug("change dropped", logger.String("path", path), logger.Err(err))
	}
}

// deliver is the engine's action: it hands the settled batch to the
// callback and clears those paths from the pending set. Later snapshots
// always contain earlier ones, so removing exactly the delivered paths
// keeps changes recorded after the engine took its payload.
func (w *Watcher) deliver(paths []string) {
	w.mu.Lock()
	for _, p := range paths {
		delete(w.changed, p)
	}
	fn := w.onBatch
	w.mu.Unlock()

	if fn != nil {
		fn(paths)
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			base := filepath.Base(path)
			if base == ".git" || base == "node_modules" || base == ".venv" || base == "__pycache__" {
				return filepath.SkipDir
			}

			if w.shouldIgnore(path) {
				return filepath.SkipDir
			}

			if err = w.fsw.Add(path); err != nil {
				return nil
			}
		}

		return nil
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	for _, pattern := range w.ignore {
		if strings.Contains(pattern, "**") {
			pattern = strings.ReplaceAll(pattern, "**", "*")
		}

		pattern = strings.TrimPrefix(pattern, "./")

		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}

		if stem := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*"); stem != "" && strings.Contains(path, stem) {
			return true
		}
	}

	return false
}

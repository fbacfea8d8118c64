package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bitfield/script"
)

// Options control how a rule command is executed.
type Options struct {
	WorkDir string
	Env     map[string]string
	Shell   string
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration
}

// Run executes cmdStr through the configured shell, streaming output to
// the given writers. It returns when the command exits, the context is
// cancelled or the timeout elapses. A non-zero exit status is an error.
func Run(ctx context.Context, cmdStr string, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Shell == "" {
		opts.Shell = "/bin/sh"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	wrappedCmd := cmdStr
	if opts.WorkDir != "" {
		wrappedCmd = fmt.Sprintf("cd %q && (\n%s\n)", opts.WorkDir, cmdStr)
	}

	shellParts := strings.Fields(opts.Shell)
	fullCmd := strings.Join(shellParts, " ") + " -c " + shellQuote(wrappedCmd)

	done := make(chan error, 1)
	go func() {
		pipe := script.NewPipe().WithEnv(ComposeEnv(opts.Env))
		pipe = pipe.Exec(fullCmd)
		pipe = pipe.WithStdout(opts.Stdout).WithStderr(opts.Stderr)
		_, err := pipe.Stdout()
		exitStatus := pipe.ExitStatus()
		if err == nil && exitStatus != 0 {
			err = fmt.Errorf("command exited with status %d", exitStatus)
		}
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// ComposeEnv layers extra variables over the process environment.
func ComposeEnv(extra map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\"'\"'") + "'"
}

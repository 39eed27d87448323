// Package taskexec builds the daily task from a configured command.
//
// The scheduler stays agnostic: it only ever sees a func() error.
package taskexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"dayrun/pkg/logx"
)

type Config struct {
	Command string
	Args    []string
	Workdir string
	Timeout time.Duration // 0 disables the per-run timeout
}

// New returns a task that runs the configured command once per invocation,
// capturing combined output into the log.
func New(cfg Config, log logx.Logger) (func() error, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("task command is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	return func() error {
		ctx := context.Background()
		cancel := func() {}
		if cfg.Timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}
		defer cancel()

		cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
		if cfg.Workdir != "" {
			cmd.Dir = cfg.Workdir
		}

		start := time.Now()
		out, err := cmd.CombinedOutput()
		if s := strings.TrimSpace(string(out)); s != "" {
			log.Info("task output", logx.String("output", s))
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("command %q timed out after %s: %w", cfg.Command, time.Since(start).Round(time.Millisecond), ctxErr)
			}
			return fmt.Errorf("command %q: %w", cfg.Command, err)
		}
		return nil
	}, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package helper

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const (
	defaultWaitDelay    = time.Second
	defaultSpawnBackoff = 50 * time.Millisecond
	defaultSpawnRetries = 4
)

// Config configures a Client.
type Config struct {
	// Path is the helper executable. Required.
	Path string
	// Dir is the working directory for helper processes. Empty means the
	// current directory.
	Dir string
	// WaitDelay bounds how long output copying may continue after the
	// process is gone. Defaults to one second.
	WaitDelay time.Duration
	Logger    *slog.Logger
}

// Client runs the helper executable as a child process.
type Client struct {
	path      string
	dir       string
	waitDelay time.Duration
	logger    *slog.Logger
	backoff   func() retry.Backoff
}

// Compile-time check.
var _ Invoker = (*Client)(nil)

// NewClient creates a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Path == "" {
		return nil, oops.Code("HELPER_INVALID_INVOCATION").Errorf("helper path is required")
	}
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = defaultWaitDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		path:      cfg.Path,
		dir:       cfg.Dir,
		waitDelay: cfg.WaitDelay,
		logger:    cfg.Logger.With("component", "helper"),
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(defaultSpawnRetries, retry.NewConstant(defaultSpawnBackoff))
		},
	}, nil
}

// Path returns the helper executable path.
func (c *Client) Path() string {
	return c.path
}

// Invoke implements Invoker.
func (c *Client) Invoke(ctx context.Context, inv Invocation) (Outcome, error) {
	command := inv.Command()
	if command == "" {
		return Outcome{}, oops.Code("HELPER_INVALID_INVOCATION").Errorf("helper invocation has no command")
	}
	if inv.Timeout <= 0 {
		return Outcome{}, oops.Code("HELPER_INVALID_INVOCATION").
			With("command", command).
			With("timeout", inv.Timeout).
			Errorf("helper invocation timeout must be positive")
	}
	poll := inv.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	if ctx.Err() != nil {
		recordInvocation(command, StatusCancelled.String(), 0)
		return Outcome{Status: StatusCancelled, ExitCode: -1}, nil
	}

	log := c.logger.With("command", command)
	stdout := NewLineCollector(nil)
	stderr := NewLineCollector(func(line string) {
		if line != "" {
			log.WarnContext(ctx, "helper stderr", "line", line)
		}
	})

	started := time.Now()
	cmd, err := c.start(ctx, inv.Args, stdout, stderr)
	if err != nil {
		recordInvocation(command, StatusSpawnFailed, 0)
		return Outcome{}, err
	}
	log.DebugContext(ctx, "helper started", "pid", cmd.Process.Pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	timer := time.NewTimer(inv.Timeout)
	defer timer.Stop()

	status := StatusCompleted
	tick := 0
wait:
	for {
		select {
		case waitErr := <-done:
			var exitErr *exec.ExitError
			if waitErr != nil && !errors.As(waitErr, &exitErr) {
				log.WarnContext(ctx, "helper wait failed", "error", waitErr)
			}
			break wait
		case <-ticker.C:
			tick++
			if inv.OnTick != nil {
				inv.OnTick(tick)
			}
		case <-timer.C:
			status = StatusTimedOut
			c.kill(ctx, cmd, done)
			break wait
		case <-ctx.Done():
			status = StatusCancelled
			c.kill(ctx, cmd, done)
			break wait
		}
	}

	_ = stdout.Close()
	_ = stderr.Close()

	out := Outcome{
		Status:   status,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
		Duration: time.Since(started),
	}
	if status == StatusCompleted && cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	recordInvocation(command, status.String(), out.Duration)
	log.DebugContext(ctx, "helper finished",
		"status", status.String(),
		"exit_code", out.ExitCode,
		"ticks", tick,
		"duration", out.Duration,
	)
	return out, nil
}

// start spawns the process, retrying while the executable is busy.
func (c *Client) start(ctx context.Context, args []string, stdout, stderr *LineCollector) (*exec.Cmd, error) {
	cmd, err := retry.DoValue(ctx, c.backoff(), func(_ context.Context) (*exec.Cmd, error) {
		// An exec.Cmd cannot be reused after a failed Start.
		cmd := exec.Command(c.path, args...) //nolint:gosec // helper path comes from trusted configuration
		cmd.Dir = c.dir
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		cmd.WaitDelay = c.waitDelay
		if err := cmd.Start(); err != nil {
			if errors.Is(err, syscall.ETXTBSY) {
				return nil, retry.RetryableError(err)
			}
			return nil, err
		}
		return cmd, nil
	})
	if err != nil {
		return nil, oops.Code("HELPER_SPAWN_FAILED").
			With("path", c.path).
			With("command", args[0]).
			Wrapf(err, "start helper")
	}
	return cmd, nil
}

// kill terminates the process and waits for it to be reaped.
func (c *Client) kill(ctx context.Context, cmd *exec.Cmd, done <-chan error) {
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		c.logger.WarnContext(ctx, "helper kill failed", "pid", cmd.Process.Pid, "error", err)
	}
	<-done
}

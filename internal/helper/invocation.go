// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package helper

import (
	"context"
	"time"
)

// Helper commands.
const (
	CommandLogin       = "nexus-login"
	CommandGetMetafile = "get-metafile"
	CommandGetFile     = "get-file"
)

// DefaultPollInterval is the wait granularity when an Invocation leaves
// PollInterval unset.
const DefaultPollInterval = time.Second

// Status is the way an invocation ended.
type Status int

const (
	// StatusCompleted means the process exited on its own.
	StatusCompleted Status = iota
	// StatusTimedOut means the timeout elapsed and the process was killed.
	StatusTimedOut
	// StatusCancelled means the context was cancelled and the process was killed.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusTimedOut:
		return "timeout"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Invocation describes one helper call.
type Invocation struct {
	// Args are passed verbatim as argv; Args[0] is the helper command.
	Args []string
	// Timeout bounds the wall-clock wait. Required.
	Timeout time.Duration
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// OnTick, if set, is called on the invoking goroutine after each elapsed
	// poll interval with the 1-based tick number.
	OnTick func(tick int)
}

// Command returns the helper command name, or "" if Args is empty.
func (inv Invocation) Command() string {
	if len(inv.Args) == 0 {
		return ""
	}
	return inv.Args[0]
}

// Outcome is the result of an Invocation.
type Outcome struct {
	Status Status
	// Stdout holds every received line followed by "\n", then one more "\n"
	// for the end of the stream.
	Stdout string
	// Stderr uses the same accumulation as Stdout.
	Stderr string
	// ExitCode is the process exit code, or -1 if it was killed.
	ExitCode int
	Duration time.Duration
}

// Completed reports whether the process exited on its own.
func (o Outcome) Completed() bool {
	return o.Status == StatusCompleted
}

// Invoker runs helper invocations.
type Invoker interface {
	// Invoke runs inv and waits for it to finish. The only error is a failure
	// to start the process; timeouts and cancellation are reported in the
	// Outcome.
	Invoke(ctx context.Context, inv Invocation) (Outcome, error)
}

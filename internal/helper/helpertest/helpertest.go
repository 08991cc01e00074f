// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package helpertest provides test doubles and fixtures for the helper process
// client.
package helpertest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mscloader/nexussso/internal/helper"
)

// MockInvoker is a testify mock of helper.Invoker.
type MockInvoker struct {
	mock.Mock
}

// Invoke implements helper.Invoker.
func (m *MockInvoker) Invoke(ctx context.Context, inv helper.Invocation) (helper.Outcome, error) {
	args := m.Called(ctx, inv)
	return args.Get(0).(helper.Outcome), args.Error(1)
}

// InvokerFunc adapts a function to helper.Invoker.
type InvokerFunc func(ctx context.Context, inv helper.Invocation) (helper.Outcome, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, inv helper.Invocation) (helper.Outcome, error) {
	return f(ctx, inv)
}

// Command matches an Invocation by helper command name.
func Command(name string) any {
	return mock.MatchedBy(func(inv helper.Invocation) bool {
		return inv.Command() == name
	})
}

// Args matches an Invocation by its exact argv.
func Args(want ...string) any {
	return mock.MatchedBy(func(inv helper.Invocation) bool {
		if len(inv.Args) != len(want) {
			return false
		}
		for i := range want {
			if inv.Args[i] != want[i] {
				return false
			}
		}
		return true
	})
}

// Stream renders lines the way helper.LineCollector accumulates them.
func Stream(lines ...string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}

// Completed returns a completed outcome whose stdout holds lines.
func Completed(lines ...string) helper.Outcome {
	return helper.Outcome{Status: helper.StatusCompleted, Stdout: Stream(lines...)}
}

// TimedOut returns a timed-out outcome.
func TimedOut() helper.Outcome {
	return helper.Outcome{Status: helper.StatusTimedOut, Stdout: Stream(), ExitCode: -1}
}

// Cancelled returns a cancelled outcome.
func Cancelled() helper.Outcome {
	return helper.Outcome{Status: helper.StatusCancelled, Stdout: Stream(), ExitCode: -1}
}

// Ticks calls inv.OnTick for ticks 1..n.
func Ticks(inv helper.Invocation, n int) {
	if inv.OnTick == nil {
		return
	}
	for i := 1; i <= n; i++ {
		inv.OnTick(i)
	}
}

// WriteScript writes an executable POSIX shell script named name into dir and
// returns its path. Tests using it are skipped on Windows.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell helper scripts require a POSIX shell")
	}
	path := filepath.Join(dir, name)
	//nolint:gosec // test helper must be executable
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// Verify interfaces are satisfied.
var (
	_ helper.Invoker = (*MockInvoker)(nil)
	_ helper.Invoker = InvokerFunc(nil)
)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package helpertest

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mscloader/nexussso/internal/helper"
)

func TestStream(t *testing.T) {
	assert.Equal(t, "\n", Stream())
	assert.Equal(t, "a\nb\n\n", Stream("a", "b"))
}

func TestMockInvoker_MatchesCommand(t *testing.T) {
	m := &MockInvoker{}
	m.On("Invoke", context.Background(), Command(helper.CommandGetFile)).Return(Completed("ok"), nil)

	out, err := m.Invoke(context.Background(), helper.Invocation{Args: []string{helper.CommandGetFile, "u", "d", "k"}})
	require.NoError(t, err)
	assert.Equal(t, "ok\n\n", out.Stdout)
	m.AssertExpectations(t)
}

func TestArgsMatcher(t *testing.T) {
	m := &MockInvoker{}
	m.On("Invoke", context.Background(), Args(helper.CommandLogin, "tok")).Return(TimedOut(), nil)

	out, err := m.Invoke(context.Background(), helper.Invocation{Args: []string{helper.CommandLogin, "tok"}})
	require.NoError(t, err)
	assert.Equal(t, helper.StatusTimedOut, out.Status)
}

func TestTicks(t *testing.T) {
	var got []int
	Ticks(helper.Invocation{OnTick: func(n int) { got = append(got, n) }}, 3)
	assert.Equal(t, []int{1, 2, 3}, got)

	Ticks(helper.Invocation{}, 3)
}

func TestWriteScript(t *testing.T) {
	path := WriteScript(t, t.TempDir(), "helper.sh", "echo hi")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100, "script must be executable")
}

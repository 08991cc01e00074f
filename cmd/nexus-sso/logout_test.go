// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mscloader/nexussso/internal/credential"
)

func TestLogout(t *testing.T) {
	tests := []struct {
		name       string
		initial    credential.Credentials
		args       []string
		stdin      string
		wantOut    string
		wantStored bool
	}{
		{"not logged in", credential.Credentials{}, nil, "", "Not logged in.", false},
		{"confirmed", stored, nil, "y\n", "Logged out.", false},
		{"confirmed long form", stored, nil, "YES\n", "Logged out.", false},
		{"declined", stored, nil, "n\n", "Logout cancelled.", true},
		{"end of input declines", stored, nil, "", "Logout cancelled.", true},
		{"yes flag skips prompt", stored, []string{"--yes"}, "", "Logged out.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newCLIHarness(t, tt.initial).withStdin(tt.stdin)

			out, err := h.run(append([]string{"logout"}, tt.args...)...)
			require.NoError(t, err)

			assert.Contains(t, out, tt.wantOut)
			_, ok := h.store.Load(context.Background())
			assert.Equal(t, tt.wantStored, ok)
		})
	}
}

func TestLogout_PromptText(t *testing.T) {
	h := newCLIHarness(t, stored).withStdin("n\n")

	out, err := h.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "NexusMods Login: Are you sure you want to log out? [y/N]")
}

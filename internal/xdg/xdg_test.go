// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mscloader/nexussso/pkg/errutil"
)

func TestDirs(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		fn       func() (string, error)
		want     string
	}{
		{"config from env", "XDG_CONFIG_HOME", "/custom/config", ConfigDir, "/custom/config/nexus-sso"},
		{"config default", "XDG_CONFIG_HOME", "", ConfigDir, "/home/testuser/.config/nexus-sso"},
		{"data from env", "XDG_DATA_HOME", "/custom/data", DataDir, "/custom/data/nexus-sso"},
		{"data default", "XDG_DATA_HOME", "", DataDir, "/home/testuser/.local/share/nexus-sso"},
		{"state from env", "XDG_STATE_HOME", "/custom/state", StateDir, "/custom/state/nexus-sso"},
		{"state default", "XDG_STATE_HOME", "", StateDir, "/home/testuser/.local/state/nexus-sso"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", "/home/testuser")
			t.Setenv(tt.envVar, tt.envValue)

			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilePaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CONFIG_HOME", "/config")

	cred, err := CredentialPath()
	require.NoError(t, err)
	assert.Equal(t, "/data/nexus-sso/credentials.bin", cred)

	key, err := KeyPath()
	require.NoError(t, err)
	assert.Equal(t, "/data/nexus-sso/credentials.key", key)

	cfg, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/config/nexus-sso/config.yaml", cfg)
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, EnsureDir(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestEnsureDir_Existing(t *testing.T) {
	path := t.TempDir()
	assert.NoError(t, EnsureDir(path))
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	err := EnsureDir(filepath.Join(file, "child"))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "XDG_DIR_FAILED")
}

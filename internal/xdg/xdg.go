// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package xdg provides XDG Base Directory paths for nexus-sso.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "nexus-sso"

// Default file names inside the data directory.
const (
	CredentialFile = "credentials.bin"
	KeyFile        = "credentials.key"
	ConfigFile     = "config.yaml"
)

func home() (string, error) {
	h := os.Getenv("HOME")
	if h == "" {
		var err error
		h, err = os.UserHomeDir()
		if err != nil {
			return "", oops.Code("XDG_NO_HOME").Wrap(err)
		}
	}
	return h, nil
}

func resolve(envVar string, fallback ...string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		h, err := home()
		if err != nil {
			return "", err
		}
		base = filepath.Join(append([]string{h}, fallback...)...)
	}
	return filepath.Join(base, appName), nil
}

// ConfigDir returns the XDG config directory for nexus-sso.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for nexus-sso.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() (string, error) {
	return resolve("XDG_DATA_HOME", ".local", "share")
}

// StateDir returns the XDG state directory for nexus-sso.
// Checks XDG_STATE_HOME first, falls back to ~/.local/state.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", ".local", "state")
}

// CredentialPath returns the default sealed credential file location.
func CredentialPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, CredentialFile), nil
}

// KeyPath returns the default installation key file location.
func KeyPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, KeyFile), nil
}

// ConfigPath returns the default config file location.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFile), nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("XDG_DIR_FAILED").With("path", path).Wrapf(err, "create directory")
	}
	return nil
}

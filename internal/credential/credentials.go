// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package credential persists the NexusMods API key and login token for this
// installation.
package credential

import (
	"context"
	"log/slog"
)

const redacted = "[REDACTED]"

// Credentials are the secrets returned by a successful login. A zero value
// means "not logged in".
type Credentials struct {
	APIKey string
	Token  string
}

// IsZero reports whether c holds no API key. A record without an API key is
// unusable, so it counts as empty.
func (c Credentials) IsZero() bool {
	return c.APIKey == ""
}

// String never reveals the secrets.
func (c Credentials) String() string {
	if c.IsZero() {
		return "Credentials{}"
	}
	return "Credentials{APIKey:" + redacted + ", Token:" + redacted + "}"
}

// GoString never reveals the secrets.
func (c Credentials) GoString() string {
	return c.String()
}

// LogValue implements slog.LogValuer.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("present", !c.IsZero()),
		slog.Bool("has_token", c.Token != ""),
	)
}

// Store loads and saves the installation's credentials.
type Store interface {
	// Load returns the stored credentials. Missing, unreadable or malformed
	// storage yields false; it is never an error.
	Load(ctx context.Context) (Credentials, bool)
	// Save replaces the stored credentials.
	Save(ctx context.Context, c Credentials) error
	// Delete removes stored credentials. Deleting nothing succeeds.
	Delete(ctx context.Context) error
}

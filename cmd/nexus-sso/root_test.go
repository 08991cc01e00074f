// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mscloader/nexussso/internal/config"
	"github.com/mscloader/nexussso/internal/credential"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"login", "logout", "status", "agent", "config"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "helper", "helper-dir", "storage", "storage-key", "login-timeout", "log-format", "log-level", "metrics-addr"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestConfigCmd_ShowsEffectiveConfig(t *testing.T) {
	h := newCLIHarness(t, credential.Credentials{})

	out, err := h.run("config", "--log-format", "text")
	require.NoError(t, err)

	var got map[string]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "/opt/updater/updater", got["helper"]["path"])
	assert.Equal(t, "text", got["log"]["format"])
	assert.Equal(t, "debug", got["log"]["level"])
	assert.Equal(t, "10ms", got["session"]["poll_interval"])
}

func TestConfigCmd_Schema(t *testing.T) {
	h := newCLIHarness(t, credential.Credentials{})

	out, err := h.run("config", "schema")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, config.SchemaID, doc["$id"])
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mscloader/nexussso/pkg/errutil"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, SchemaID, doc["$id"])
	assert.Equal(t, false, doc["additionalProperties"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"helper", "storage", "session", "cache", "log", "metrics"} {
		assert.Contains(t, props, key)
	}

	sess := props["session"].(map[string]any)["properties"].(map[string]any)
	timeout := sess["login_timeout"].(map[string]any)
	assert.Equal(t, "string", timeout["type"])
	assert.Empty(t, doc["required"])
}

func TestValidateYAML(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"empty document", "", false},
		{"comment only", "# nothing here\n", false},
		{"full file", "helper:\n  path: /bin/u\nsession:\n  login_timeout: 1h30m\n  cancel_prompt_tick: 2\nlog:\n  level: error\n", false},
		{"fractional duration", "session:\n  poll_interval: 1.5s\n", false},
		{"unknown key", "helpr:\n  path: /bin/u\n", true},
		{"wrong type", "helper: /bin/u\n", true},
		{"bad level", "log:\n  level: chatty\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateYAML([]byte(tt.body))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA")
		})
	}
}

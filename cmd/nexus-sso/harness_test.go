// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mscloader/nexussso/internal/credential"
	"github.com/mscloader/nexussso/internal/helper"
	"github.com/mscloader/nexussso/internal/helper/helpertest"
)

// cliHarness runs the command tree against an in-memory store and a fake
// helper.
type cliHarness struct {
	deps    *Deps
	store   *credential.MemoryStore
	helper  *helpertest.MockInvoker
	invoker helper.Invoker
	signals chan chan<- os.Signal
	cfgPath string
	dir     string
}

func newCLIHarness(t *testing.T, initial credential.Credentials) *cliHarness {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	h := &cliHarness{
		store:   credential.NewMemoryStore(initial),
		helper:  &helpertest.MockInvoker{},
		signals: make(chan chan<- os.Signal, 8),
		dir:     dir,
	}
	h.invoker = h.helper

	h.cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(h.cfgPath, []byte(`
helper:
  path: /opt/updater/updater
  dir: `+filepath.Join(dir, "updater")+`
session:
  launch_delay: "0"
  poll_interval: 10ms
log:
  level: debug
`), 0o600))

	h.deps = &Deps{
		HelperFactory: func(cfg helper.Config) (helper.Invoker, error) {
			require.Equal(t, "/opt/updater/updater", cfg.Path)
			return h.invoker, nil
		},
		StoreFactory: func(credential.FileStoreConfig) (credential.Store, error) {
			return h.store, nil
		},
		Signals: func(c chan<- os.Signal, _ ...os.Signal) {
			h.signals <- c
		},
		StopSignals: func(chan<- os.Signal) {},
		Stdin:       strings.NewReader(""),
		LogWriter:   io.Discard,
	}
	t.Cleanup(func() { h.helper.AssertExpectations(t) })
	return h
}

func (h *cliHarness) withStdin(s string) *cliHarness {
	h.deps.Stdin = strings.NewReader(s)
	return h
}

func (h *cliHarness) run(args ...string) (string, error) {
	return h.runContext(context.Background(), args...)
}

func (h *cliHarness) runContext(ctx context.Context, args ...string) (string, error) {
	cmd := newRootCmd(h.deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", h.cfgPath}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// expectAccount makes the helper verify any key as alice.
func (h *cliHarness) expectAccount() {
	h.helper.On("Invoke", mock.Anything, helpertest.Command(helper.CommandGetMetafile)).
		Return(helpertest.Completed(
			`"name": "alice",`,
			`"is_premium?": true,`,
			`"is_supporter?": false,`,
			`"profile_url": "https://avatars.example.com/alice.png",`,
		), nil)
	// The image is never written, so no profile path is reported.
	h.helper.On("Invoke", mock.Anything, helpertest.Command(helper.CommandGetFile)).
		Return(helpertest.Completed(), nil).Maybe()
}

var stored = credential.Credentials{APIKey: "stored-key", Token: "stored-token"}

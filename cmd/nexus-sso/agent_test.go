// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mscloader/nexussso/internal/credential"
	"github.com/mscloader/nexussso/internal/observability"
)

func TestAgent_ServesStatusUntilInterrupted(t *testing.T) {
	h := newCLIHarness(t, stored)
	h.expectAccount()

	servers := make(chan ObservabilityServer, 1)
	h.deps.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, opts ...observability.Option) ObservabilityServer {
		assert.Equal(t, "127.0.0.1:0", addr)
		srv := observability.NewServer(addr, ready, opts...)
		servers <- srv
		return srv
	}

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := h.run("agent", "--metrics-addr", "127.0.0.1:0")
		done <- result{out, err}
	}()

	var srv ObservabilityServer
	select {
	case srv = <-servers:
	case <-time.After(5 * time.Second):
		t.Fatal("observability server was not created")
	}
	sigCh := <-h.signals

	client := &http.Client{
		Timeout:   time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
	status := func() map[string]any {
		resp, err := client.Get("http://" + srv.Addr() + "/status")
		if err != nil {
			return nil
		}
		defer func() { _ = resp.Body.Close() }()
		var got map[string]any
		if json.NewDecoder(resp.Body).Decode(&got) != nil {
			return nil
		}
		return got
	}

	require.Eventually(t, func() bool {
		got := status()
		return got != nil && got["state"] == "Ready"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "alice", status()["user_name"])

	resp, err := client.Get("http://" + srv.Addr() + "/healthz/readiness")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "nexus_sso_session_state")
	assert.True(t, strings.Contains(string(body), "nexus_sso_build_info"))

	sigCh <- os.Interrupt

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Contains(t, r.out, "Agent started")
		assert.Contains(t, r.out, "[LOGGED IN alice (PREMIUM)]")
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop after interrupt")
	}
}

func TestAgent_WithoutMetricsAddr(t *testing.T) {
	h := newCLIHarness(t, credential.Credentials{})
	h.deps.ObservabilityServerFactory = func(string, observability.ReadinessChecker, ...observability.Option) ObservabilityServer {
		t.Error("observability server must not be created without metrics.addr")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-h.signals
		cancel()
	}()

	out, err := h.runContext(ctx, "agent")
	require.NoError(t, err)
	assert.Contains(t, out, "Agent started")
}

type failingServer struct{}

func (failingServer) Start() (<-chan error, error) {
	return nil, io.ErrClosedPipe
}
func (failingServer) Stop(context.Context) error { return nil }
func (failingServer) Addr() string                { return "" }

func TestAgent_ServerStartFailure(t *testing.T) {
	h := newCLIHarness(t, credential.Credentials{})
	h.deps.ObservabilityServerFactory = func(string, observability.ReadinessChecker, ...observability.Option) ObservabilityServer {
		return failingServer{}
	}

	_, err := h.run("agent", "--metrics-addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

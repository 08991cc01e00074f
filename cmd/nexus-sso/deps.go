// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/mscloader/nexussso/internal/credential"
	"github.com/mscloader/nexussso/internal/helper"
	"github.com/mscloader/nexussso/internal/observability"
)

// Deps contains injectable dependencies for the CLI commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// HelperFactory creates the helper process client.
	// Default: helper.NewClient
	HelperFactory func(cfg helper.Config) (helper.Invoker, error)

	// StoreFactory creates the credential store.
	// Default: credential.NewFileStore
	StoreFactory func(cfg credential.FileStoreConfig) (credential.Store, error)

	// ObservabilityServerFactory creates the agent's observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, opts ...observability.Option) ObservabilityServer

	// Signals relays interrupt signals to c.
	// Default: signal.Notify
	Signals func(c chan<- os.Signal, sig ...os.Signal)

	// StopSignals undoes Signals.
	// Default: signal.Stop
	StopSignals func(c chan<- os.Signal)

	// Stdin answers confirmation prompts.
	// Default: os.Stdin
	Stdin io.Reader

	// LogWriter receives log records.
	// Default: os.Stderr
	LogWriter io.Writer
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (d *Deps) withDefaults() *Deps {
	out := &Deps{}
	if d != nil {
		*out = *d
	}
	if out.HelperFactory == nil {
		out.HelperFactory = func(cfg helper.Config) (helper.Invoker, error) {
			return helper.NewClient(cfg)
		}
	}
	if out.StoreFactory == nil {
		out.StoreFactory = func(cfg credential.FileStoreConfig) (credential.Store, error) {
			return credential.NewFileStore(cfg)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, opts ...observability.Option) ObservabilityServer {
			return observability.NewServer(addr, ready, opts...)
		}
	}
	if out.Signals == nil {
		out.Signals = signal.Notify
	}
	if out.StopSignals == nil {
		out.StopSignals = signal.Stop
	}
	if out.Stdin == nil {
		out.Stdin = os.Stdin
	}
	if out.LogWriter == nil {
		out.LogWriter = os.Stderr
	}
	return out
}

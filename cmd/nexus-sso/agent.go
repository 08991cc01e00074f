// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mscloader/nexussso/internal/asset"
	"github.com/mscloader/nexussso/internal/helper"
	"github.com/mscloader/nexussso/internal/observability"
	"github.com/mscloader/nexussso/internal/session"
	"github.com/mscloader/nexussso/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

func newAgentCmd(rc *rootConfig, deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "agent",
		Short: "Restore the session and serve status until stopped",
		Long: `Verify the stored session, then keep running and serve /status,
/metrics and health probes on metrics.addr until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAgent(cmd, rc, deps)
		},
	}
}

func runAgent(cmd *cobra.Command, rc *rootConfig, deps *Deps) error {
	cfg, err := loadConfig(cmd, rc)
	if err != nil {
		return err
	}

	out := newLockedWriter(cmd.OutOrStdout())
	a, err := newApp(cfg, deps, out, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr,
			func() bool { return !a.session.Busy() },
			observability.WithRegistrars(helper.RegisterMetrics, asset.RegisterMetrics, session.RegisterMetrics),
			observability.WithStatus(func() any { return a.session.Snapshot() }),
			observability.WithBuildInfo(version, commit),
			observability.WithLogger(a.logger),
		)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.Code("AGENT_START_FAILED").Wrapf(err, "start observability server")
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := obsServer.Stop(shutdownCtx); err != nil {
				errutil.LogError(a.logger, "stop observability server", err)
			}
		}()
		go monitorServerErrors(ctx, cancel, obsErrCh, a.logger)
		a.logger.Info("observability server started", "addr", obsServer.Addr())
	}

	stop := onInterrupt(deps, func(sig os.Signal) {
		a.logger.Info("received shutdown signal", "signal", sig.String())
		a.session.Cancel()
		cancel()
	})
	defer stop()

	started := make(chan struct{})
	go func() {
		defer close(started)
		if err := a.session.Start(ctx); err != nil {
			errutil.LogErrorContext(ctx, a.logger, "restore session", err)
		}
	}()

	fmt.Fprintln(out, "Agent started")
	<-ctx.Done()
	<-started

	a.logger.Info("shutting down")
	return nil
}

// monitorServerErrors cancels the agent when a server fails. It exits when an
// error arrives, the channel closes, or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("observability server error, triggering shutdown", "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}

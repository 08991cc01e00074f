// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mscloader/nexussso/internal/session"
)

// loginConfig holds configuration for the login command.
type loginConfig struct {
	force bool
}

func newLoginCmd(rc *rootConfig, deps *Deps) *cobra.Command {
	cfg := &loginConfig{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to NexusMods through the browser",
		Long: `Open the NexusMods login page through the updater helper and wait
for the API key. Press Ctrl-C to cancel the wait.

Stored credentials are verified first; if they are still valid nothing
else happens unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, rc, cfg, deps)
		},
	}

	cmd.Flags().BoolVar(&cfg.force, "force", false, "log in again even if the stored session is valid")

	return cmd
}

func runLogin(cmd *cobra.Command, rc *rootConfig, lc *loginConfig, deps *Deps) error {
	cfg, err := loadConfig(cmd, rc)
	if err != nil {
		return err
	}

	out := newLockedWriter(cmd.OutOrStdout())
	a, err := newApp(cfg, deps, out, newPromptConfirmer(deps.Stdin, out))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// The first interrupt cancels the running flow; with no flow running it
	// aborts the command.
	stop := onInterrupt(deps, func(sig os.Signal) {
		a.logger.Info("interrupted", "signal", sig.String())
		if !a.session.Cancel() {
			cancel()
		}
	})
	defer stop()

	if err := a.session.Start(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return oops.Code("LOGIN_INTERRUPTED").Wrapf(err, "login interrupted")
	}

	if a.session.State() == session.Ready {
		if !lc.force {
			a.session.Wait()
			fmt.Fprintf(out, "Already logged in as %s.\n", a.session.Snapshot().UserName)
			return nil
		}
		if err := a.session.Logout(ctx); err != nil {
			return err
		}
	}

	if err := a.session.RequestLogin(ctx); err != nil {
		return err
	}
	a.session.Wait()

	snap := a.session.Snapshot()
	if snap.State != session.Ready {
		return oops.Code("LOGIN_INCOMPLETE").
			With("state", snap.State.String()).
			Errorf("login did not complete")
	}
	fmt.Fprintf(out, "Logged in as %s (%s).\n", snap.UserName, snap.MemberStatus)
	return nil
}

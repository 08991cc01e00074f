// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mscloader/nexussso/internal/session"
)

// logoutConfig holds configuration for the logout command.
type logoutConfig struct {
	yes bool
}

func newLogoutCmd(rc *rootConfig, deps *Deps) *cobra.Command {
	cfg := &logoutConfig{}

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored NexusMods session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogout(cmd, rc, cfg, deps)
		},
	}

	cmd.Flags().BoolVarP(&cfg.yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func runLogout(cmd *cobra.Command, rc *rootConfig, lc *logoutConfig, deps *Deps) error {
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

	ctx := cmd.Context()
	if _, ok := a.store.Load(ctx); !ok {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	if !lc.yes {
		confirmer := newPromptConfirmer(deps.Stdin, out)
		if !confirmer.ConfirmLogout(ctx, session.LogoutQuestion, session.PromptTitle) {
			fmt.Fprintln(out, "Logout cancelled.")
			return nil
		}
	}

	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Logged out.")
	return nil
}

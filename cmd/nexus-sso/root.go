// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/mscloader/nexussso/internal/config"
)

// rootConfig holds flags shared by every subcommand.
type rootConfig struct {
	configFile string
}

// NewRootCmd creates the root command for the nexus-sso CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

// newRootCmd builds the command tree. If deps is nil, default
// implementations are used.
func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()
	rc := &rootConfig{}

	cmd := &cobra.Command{
		Use:   "nexus-sso",
		Short: "NexusMods single sign-on session manager",
		Long: `nexus-sso logs in to NexusMods through the updater helper,
keeps the API key sealed on disk and reports the signed-in account.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&rc.configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/nexus-sso/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newLoginCmd(rc, deps))
	cmd.AddCommand(newLogoutCmd(rc, deps))
	cmd.AddCommand(newStatusCmd(rc, deps))
	cmd.AddCommand(newAgentCmd(rc, deps))
	cmd.AddCommand(newConfigCmd(rc))

	return cmd
}

// loadConfig reads the config file named by --config (or the default
// location) overlaid with the flags the user set.
func loadConfig(cmd *cobra.Command, rc *rootConfig) (config.Config, error) {
	return config.Load(config.LoadOptions{
		Path:     rc.configFile,
		Required: rc.configFile != "",
		Flags:    cmd.Flags(),
	})
}

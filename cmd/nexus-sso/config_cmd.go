// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mscloader/nexussso/internal/config"
)

func newConfigCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after defaults, the config file and flags
have been applied, as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, rc)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return oops.Code("CONFIG_FORMAT").Wrapf(err, "format config")
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the config file JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	return cmd
}

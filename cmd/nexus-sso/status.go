// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mscloader/nexussso/internal/session"
)

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	yamlOutput bool
}

// Validate checks that the configuration is valid.
func (cfg *statusConfig) Validate() error {
	if cfg.jsonOutput && cfg.yamlOutput {
		return oops.Code("STATUS_INVALID_FLAGS").Errorf("--json and --yaml are mutually exclusive")
	}
	return nil
}

func newStatusCmd(rc *rootConfig, deps *Deps) *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Verify the stored session and show the account",
		Long: `Verify the stored API key through the updater helper and show the
signed-in account, its membership and the cached profile image.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, rc, cfg, deps)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().BoolVar(&cfg.yamlOutput, "yaml", false, "output status as YAML")

	return cmd
}

func runStatus(cmd *cobra.Command, rc *rootConfig, sc *statusConfig, deps *Deps) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, rc)
	if err != nil {
		return err
	}

	// Events would interleave with structured output.
	a, err := newApp(cfg, deps, io.Discard, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.session.Start(cmd.Context()); err != nil {
		return err
	}
	a.session.Wait()

	output, err := formatStatus(a.session.Snapshot(), sc)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

func formatStatus(snap session.Snapshot, sc *statusConfig) (string, error) {
	switch {
	case sc.jsonOutput:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return "", oops.Code("STATUS_FORMAT").Wrapf(err, "format JSON")
		}
		return string(data) + "\n", nil
	case sc.yamlOutput:
		data, err := yaml.Marshal(snap)
		if err != nil {
			return "", oops.Code("STATUS_FORMAT").Wrapf(err, "format YAML")
		}
		return string(data), nil
	default:
		return formatStatusTable(snap), nil
	}
}

func formatStatusTable(snap session.Snapshot) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "STATE\t%s\n", snap.State)
	fmt.Fprintf(w, "DISPLAY\t%s\n", snap.DisplayText)
	if snap.UserName != "" {
		fmt.Fprintf(w, "USER\t%s\n", snap.UserName)
		fmt.Fprintf(w, "MEMBER\t%s\n", snap.MemberStatus)
		fmt.Fprintf(w, "SUPPORTER\t%s\n", yesNo(snap.IsSupporter))
	}
	if snap.ProfileImagePath != "" {
		fmt.Fprintf(w, "PROFILE\t%s\n", snap.ProfileImagePath)
	}
	_ = w.Flush()
	return buf.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

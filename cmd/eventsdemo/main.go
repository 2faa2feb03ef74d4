// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Command eventsdemo plays a YAML scenario file against the events
// library and prints the delivery order, exercising the library the
// way a human reading the README would.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carlowood/events/internal/scenario"
	"github.com/carlowood/events/xlog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "eventsdemo",
		Short: "Play a scenario file against the events library",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var scenarioPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a scenario file, play its trigger timeline, and check delivery counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, scenarioPath)
		},
	}
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "path to a scenario YAML file")
	cmd.MarkFlagRequired("scenario")
	return cmd
}

func runScenario(cmd *cobra.Command, path string) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}

	log := xlog.WithPrefix(xlog.FromWriter(cmd.OutOrStdout()), "")
	result := scenario.Run(s, log)

	if err := scenario.Check(s, result); err != nil {
		return err
	}
	return nil
}

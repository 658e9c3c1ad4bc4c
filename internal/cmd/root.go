// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const progName = "vdrun"

type rootFlags struct {
	debug   bool
	version bool
}

func newRootCommand(cfg IO) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           progName,
		Short:         "Launch and supervise the host processes of a virtual device",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(cfg.Stderr, flags.debug)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !flags.version {
				return cmd.Help()
			}

			buildInfo, err := getBuildInfo()
			if err != nil {
				return err
			}

			fmt.Fprintf(cfg.Stdout, "Version: %s\n", buildInfo.Main.Version)

			return nil
		},
	}

	root.SetIn(cfg.Stdin)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)

	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	root.Flags().BoolVar(&flags.version, "version", false, "show version and exit")

	root.AddCommand(
		newLaunchCommand(),
		newLogTeeCommand(cfg),
		newControlCommand(cfg),
		newStatusCommand(cfg),
	)

	return root
}

func getBuildInfo() (*debug.BuildInfo, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, ErrReadBuildInfo
	}

	return buildInfo, nil
}

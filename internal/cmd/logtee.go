// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"github.com/aibor/vdrun/internal/logtee"
	"github.com/spf13/cobra"
)

func newLogTeeCommand(cfg IO) *cobra.Command {
	var processName, logFile string

	cmd := &cobra.Command{
		Use:    logtee.SubCommand,
		Short:  "Relay stdin into a log file and prefixed onto stdout",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(*cobra.Command, []string) error {
			return logtee.RelayToFile(cfg.Stdin, logFile, cfg.Stdout, processName) //nolint:wrapcheck
		},
	}

	cmd.Flags().StringVar(&processName, "process-name", "", "name of the relayed process")
	cmd.Flags().StringVar(&logFile, "log-file", "", "log file to append to")
	_ = cmd.MarkFlagRequired("process-name")
	_ = cmd.MarkFlagRequired("log-file")

	return cmd
}

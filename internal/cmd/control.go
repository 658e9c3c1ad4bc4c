// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/controlenv"
	"github.com/aibor/vdrun/internal/resource"
	"github.com/spf13/cobra"
)

func newControlCommand(cfg IO) *cobra.Command {
	var socketDir, configPath string

	cmd := &cobra.Command{
		Use:   "control <ls|type|call> [args...]",
		Short: "Talk to the gRPC services of a running instance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if socketDir == "" {
				instanceCfg, err := config.Load(configPath)
				if err != nil {
					return err //nolint:wrapcheck
				}

				socketDir = filepath.Join(instanceCfg.InstanceDir, resource.ControlSocketDir)
			}

			output, err := controlenv.HandleCmds(
				cmd.Context(),
				socketDir,
				args[0],
				args[1:],
				&controlenv.GRPCInvoker{},
			)
			if err != nil {
				return fmt.Errorf("control: %w", err)
			}

			fmt.Fprint(cfg.Stdout, output)

			return nil
		},
	}

	// Arguments after the control command may start with a dash.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&socketDir, "socket-dir", "", "directory with the gRPC server sockets")
	cmd.Flags().StringVar(&configPath, "config", "", "instance config file to derive the socket directory from")
	cmd.MarkFlagsOneRequired("socket-dir", "config")

	return cmd
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/state"
	"github.com/spf13/cobra"
)

func newStatusCommand(cfg IO) *cobra.Command {
	var stateDB, configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the launched instances",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if stateDB == "" {
				instanceCfg, err := config.Load(configPath)
				if err != nil {
					return err //nolint:wrapcheck
				}

				stateDB = instanceCfg.StatePath()
			}

			var records []state.Record

			err := withStore(stateDB, func(store *state.Store) error {
				var err error

				records, err = store.List()

				return err //nolint:wrapcheck
			})
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}

			if records == nil {
				records = []state.Record{}
			}

			encoder := json.NewEncoder(cfg.Stdout)
			encoder.SetIndent("", "  ")

			return encoder.Encode(records) //nolint:wrapcheck
		},
	}

	cmd.Flags().StringVar(&stateDB, "state-db", "", "launch record database")
	cmd.Flags().StringVar(&configPath, "config", "", "instance config file to derive the database path from")
	cmd.MarkFlagsOneRequired("state-db", "config")

	return cmd
}

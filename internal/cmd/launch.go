// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/feature"
	"github.com/aibor/vdrun/internal/features"
	"github.com/aibor/vdrun/internal/launch"
	"github.com/aibor/vdrun/internal/logtee"
	"github.com/aibor/vdrun/internal/resource"
	"github.com/aibor/vdrun/internal/state"
	"github.com/aibor/vdrun/internal/vm"
	"github.com/spf13/cobra"
)

const launcherLog = "launcher.log"

func newLaunchCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Launch the instance and run until it is stopped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err //nolint:wrapcheck
			}

			return runInstance(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "instance config file (.toml, .yaml)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func setupInstance(ctx context.Context, cfg *config.InstanceConfig) (*feature.Graph, string, error) {
	backend, err := vm.ForName(cfg.VMManager, cfg)
	if err != nil {
		return nil, "", err //nolint:wrapcheck
	}

	alloc := resource.NewAllocator(cfg)
	tee := &logtee.Creator{
		Binary: cfg.LogTeeBinary,
		LogPath: func(string) (string, error) {
			return alloc.AllocatePath(resource.LogRole(launcherLog))
		},
	}

	graph, err := features.Assemble(cfg, alloc, backend, tee)
	if err != nil {
		return nil, "", err //nolint:wrapcheck
	}

	err = graph.Run(ctx)
	if err != nil {
		closeGraph(graph)
		return nil, "", fmt.Errorf("setup: %w", err)
	}

	return graph, backend.Name(), nil
}

func runInstance(ctx context.Context, cfg *config.InstanceConfig) error {
	graph, backendName, err := setupInstance(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGraph(graph)

	cmds, err := graph.CollectCommands()
	if err != nil {
		return fmt.Errorf("collect commands: %w", err)
	}

	for _, cmd := range cmds {
		slog.Debug("Command",
			slog.String("name", cmd.Name()),
			slog.String("command", cmd.String()))
	}

	launcher := &launch.Launcher{
		StartupWindow: cfg.StartupWindow,
		StopTimeout:   cfg.StopTimeout,
	}

	batch, err := launcher.Launch(ctx, cmds)
	if err != nil {
		return err //nolint:wrapcheck
	}

	recordLaunch(cfg, backendName, batch)
	defer forgetLaunch(cfg)

	waitErr := batch.Wait(ctx)
	stopErr := batch.Stop(context.WithoutCancel(ctx))

	if ctx.Err() != nil {
		slog.Info("Instance stopped", slog.Int("instance", cfg.Instance))
		return stopErr //nolint:wrapcheck
	}

	return errors.Join(waitErr, stopErr) //nolint:wrapcheck
}

func closeGraph(graph *feature.Graph) {
	err := graph.Close()
	if err != nil {
		slog.Warn("Failed to release feature resources", slog.Any("error", err))
	}
}

func recordLaunch(cfg *config.InstanceConfig, backend string, batch *launch.Batch) {
	procs := batch.Processes()
	records := make([]state.Process, 0, len(procs))

	for _, proc := range procs {
		records = append(records, state.Process{
			Name:   proc.Name(),
			Binary: proc.Binary(),
			PID:    proc.PID(),
		})
	}

	err := withStore(cfg.StatePath(), func(store *state.Store) error {
		return store.Put(state.NewRecord(cfg.Instance, backend, records))
	})
	if err != nil {
		slog.Warn("Failed to record launch", slog.Any("error", err))
	}
}

func forgetLaunch(cfg *config.InstanceConfig) {
	err := withStore(cfg.StatePath(), func(store *state.Store) error {
		return store.Delete(cfg.Instance)
	})
	if err != nil {
		slog.Warn("Failed to remove launch record", slog.Any("error", err))
	}
}

func withStore(path string, fn func(store *state.Store) error) error {
	store, err := state.Open(path)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return errors.Join(fn(store), store.Close())
}

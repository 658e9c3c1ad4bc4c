// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/aibor/vdrun/internal/feature"
	"github.com/aibor/vdrun/internal/launch"
)

// Exit codes of [Run].
const (
	exitGeneralError = -1
	exitLaunchFailed = 1
)

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func handleRunError(err error) int {
	if err == nil {
		return 0
	}

	exitCode := exitGeneralError

	var runErr *feature.RunError
	if errors.As(err, &runErr) {
		slog.Debug("Feature setup failed",
			slog.String("feature", runErr.Node),
			slog.Any("completed", runErr.Completed),
			slog.Any("not_attempted", runErr.NotAttempted))
	}

	var launchErr *launch.LaunchError
	if errors.As(err, &launchErr) {
		exitCode = exitLaunchFailed

		slog.Debug("Launch failed",
			slog.String("command", launchErr.Command),
			slog.Any("terminated", launchErr.Terminated))
	}

	slog.Error(err.Error())

	return exitCode
}

// Run is the main entry point for the CLI command. The first argument is the
// program name.
func Run(ctx context.Context, args []string, cfg IO) int {
	setupLogging(cfg.Stderr, false)

	root := newRootCommand(cfg)
	if len(args) > 0 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}

	return handleRunError(root.ExecuteContext(ctx))
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package launch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aibor/vdrun/internal/command"
)

// DefaultStopTimeout is used if [Launcher.StopTimeout] is not set.
const DefaultStopTimeout = 5 * time.Second

// Launcher starts commands in order.
type Launcher struct {
	// StartupWindow is how long each process is watched after its start. A
	// process exiting with failure within the window fails the launch.
	StartupWindow time.Duration

	// StopTimeout is how long a process is given to exit after SIGTERM
	// before it is killed.
	StopTimeout time.Duration
}

// Launch starts the commands strictly in the given order.
//
// After each start, the parent copies of the resources owned by the command
// are closed. If a command fails to start or exits with failure within the
// startup window, all processes started before are stopped, the remaining
// commands are closed without being started and a [*LaunchError] is returned.
// A process exiting successfully within the window does not fail the launch.
func (l *Launcher) Launch(ctx context.Context, cmds []*command.Command) (*Batch, error) {
	batch := &Batch{
		processes: make([]*Process, 0, len(cmds)),
	}

	for idx, cmd := range cmds {
		err := l.launch(ctx, batch, cmd)
		if err != nil {
			_ = command.CloseAll(cmds[idx+1:])

			terminated, _ := batch.stop(context.WithoutCancel(ctx))

			return nil, &LaunchError{
				Command:    cmd.Name(),
				Index:      idx,
				Err:        err,
				Terminated: terminated,
			}
		}
	}

	return batch, nil
}

func (l *Launcher) launch(ctx context.Context, batch *Batch, cmd *command.Command) error {
	if err := ctx.Err(); err != nil {
		_ = cmd.Close()
		return err //nolint:wrapcheck
	}

	stopTimeout := l.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}

	proc, err := startProcess(cmd.Cmd(), cmd.Name(), stopTimeout)

	closeErr := cmd.Close()
	if closeErr != nil {
		slog.Warn("Failed to close parent copies of command resources",
			slog.String("name", cmd.Name()),
			slog.Any("error", closeErr))
	}

	if err != nil {
		return err
	}

	slog.Debug("Started process",
		slog.String("name", proc.Name()),
		slog.Int("pid", proc.PID()))

	batch.processes = append(batch.processes, proc)

	return l.watch(ctx, proc)
}

func (l *Launcher) watch(ctx context.Context, proc *Process) error {
	if l.StartupWindow <= 0 {
		return nil
	}

	timer := time.NewTimer(l.StartupWindow)
	defer timer.Stop()

	select {
	case <-proc.Done():
		if proc.err != nil {
			return fmt.Errorf("%w: %w", ErrEarlyExit, proc.err)
		}

		return nil
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	}
}

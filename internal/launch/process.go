// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

// Process is a started command.
type Process struct {
	name        string
	binary      string
	cmd         *exec.Cmd
	stopTimeout time.Duration

	done chan struct{}
	err  error
}

func startProcess(cmd *exec.Cmd, name string, stopTimeout time.Duration) (*Process, error) {
	err := cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	proc := &Process{
		name:        name,
		binary:      cmd.Path,
		cmd:         cmd,
		stopTimeout: stopTimeout,
		done:        make(chan struct{}),
	}

	go func() {
		proc.err = cmd.Wait()
		close(proc.done)

		slog.Debug("Process exited",
			slog.String("name", name),
			slog.Any("error", proc.err))
	}()

	return proc, nil
}

// Name returns the name of the command the process runs.
func (p *Process) Name() string {
	return p.name
}

// Binary returns the path of the executable.
func (p *Process) Binary() string {
	return p.binary
}

// PID returns the process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Exited returns if the process has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the process exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exited or the context is done. It returns
// the exit error of the process.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop sends SIGTERM to the process and waits for it to exit. If it does not
// exit within the stop timeout or the context is done before, it is killed.
//
// Stop returns once the process exited.
func (p *Process) Stop(ctx context.Context) error {
	if p.Exited() {
		return nil
	}

	err := p.cmd.Process.Signal(unix.SIGTERM)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("terminate %s: %w", p.name, err)
	}

	timer := time.NewTimer(p.stopTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	slog.Warn("Killing process", slog.String("name", p.name))

	err = p.cmd.Process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill %s: %w", p.name, err)
	}

	<-p.done

	return nil
}

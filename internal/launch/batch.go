// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package launch

import (
	"context"
	"errors"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Batch is the set of processes started by one [Launcher.Launch].
type Batch struct {
	processes []*Process
}

// Processes returns the processes in start order.
func (b *Batch) Processes() []*Process {
	return slices.Clone(b.processes)
}

// Wait blocks until all processes exited or the context is done. It returns
// the exit errors of all processes.
func (b *Batch) Wait(ctx context.Context) error {
	errs := make([]error, 0, len(b.processes))

	for _, proc := range b.processes {
		err := proc.Wait(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Stop stops all running processes concurrently and waits for them to exit.
func (b *Batch) Stop(ctx context.Context) error {
	_, err := b.stop(ctx)
	return err
}

// stop returns the names of the processes that were still running.
func (b *Batch) stop(ctx context.Context) ([]string, error) {
	var (
		group   errgroup.Group
		running []string
	)

	for _, proc := range b.processes {
		if proc.Exited() {
			continue
		}

		running = append(running, proc.Name())

		group.Go(func() error {
			return proc.Stop(ctx)
		})
	}

	return running, group.Wait() //nolint:wrapcheck
}

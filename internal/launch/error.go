// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package launch

import "fmt"

// LaunchError is returned if a command of a batch failed to start.
type LaunchError struct {
	// Command is the name of the failing command.
	Command string

	// Index is the position of the failing command in the batch.
	Index int
	Err   error

	// Terminated are the processes of the batch that were still running and
	// have been stopped because of the failure.
	Terminated []string
}

// Error implements the [error] interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch command %s (#%d): %v", e.Command, e.Index, e.Err)
}

// Is implements the [errors.Is] interface.
func (*LaunchError) Is(other error) bool {
	_, ok := other.(*LaunchError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

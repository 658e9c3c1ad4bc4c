// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe

import (
	"errors"
	"fmt"
)

// ErrOutputFailed is returned if writing to the output of a [Pipe] failed
// while the log was written completely.
var ErrOutputFailed = errors.New("output write failed")

// Error wraps any error occurring during pipe processing.
type Error struct {
	Name string
	Err  error
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	return fmt.Sprintf("pipe %s: %v", e.Name, e.Err.Error())
}

// Is implements the [errors.Is] interface.
func (*Error) Is(other error) bool {
	_, ok := other.(*Error)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *Error) Unwrap() error {
	return e.Err
}

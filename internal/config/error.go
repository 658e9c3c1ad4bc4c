// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import "errors"

// ErrUnknownFormat is returned if the config file extension is not supported.
var ErrUnknownFormat = errors.New("unknown config format")

// ValidationError indicates an invalid configuration value.
type ValidationError struct {
	Field string
	msg   string
}

// Error implements the [error] interface.
func (e *ValidationError) Error() string {
	return "invalid config " + e.Field + ": " + e.msg
}

// Is implements the [errors.Is] interface.
func (*ValidationError) Is(other error) bool {
	_, ok := other.(*ValidationError)
	return ok
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package controlenv

import "errors"

var (
	// ErrNotFound is returned if no service, method or type matches a name.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous is returned if more than one service or type matches a
	// name.
	ErrAmbiguous = errors.New("ambiguous")

	// ErrTooManyArguments is returned if a command got more arguments than
	// it accepts.
	ErrTooManyArguments = errors.New("too many arguments")

	// ErrMissingArguments is returned if a command got less arguments than
	// it requires.
	ErrMissingArguments = errors.New("missing arguments")

	// ErrUnsupportedCommand is returned for unknown commands.
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrStreamingMethod is returned if a streaming method is called.
	ErrStreamingMethod = errors.New("streaming methods are not supported")

	// ErrReflection is returned if a server answers a reflection request
	// with an error.
	ErrReflection = errors.New("reflection request failed")
)

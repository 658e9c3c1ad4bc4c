// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import "errors"

var (
	// ErrArgumentCollision is returned if two [Argument]s are considered equal.
	ErrArgumentCollision = errors.New("colliding args")

	// ErrGpuModeUnsupported is returned if a backend does not know the
	// requested GPU mode.
	ErrGpuModeUnsupported = errors.New("gpu mode not supported")

	// ErrSandboxAlreadySet is returned if the sandbox of a crosvm command is
	// configured more than once.
	ErrSandboxAlreadySet = errors.New("sandbox already set")

	// ErrNoKernel is returned if no kernel image is given.
	ErrNoKernel = errors.New("no kernel image")

	// ErrTooManyDisks is returned if more disks are given than there are
	// boot device slots for.
	ErrTooManyDisks = errors.New("too many disks")
)

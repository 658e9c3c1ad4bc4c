// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

// UnsupportedBackendError is returned if a backend is unknown or can not run
// on this host.
type UnsupportedBackendError struct {
	Name string
}

// Error implements the [error] interface.
func (e *UnsupportedBackendError) Error() string {
	return "unsupported vm manager: " + e.Name
}

// Is implements the [errors.Is] interface.
func (*UnsupportedBackendError) Is(other error) bool {
	_, ok := other.(*UnsupportedBackendError)
	return ok
}

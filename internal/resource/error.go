// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import "fmt"

// NetworkSetupError is returned if a network interface required by the
// instance is missing or can not be opened.
type NetworkSetupError struct {
	Interface string
	Err       error
}

// Error implements the [error] interface.
func (e *NetworkSetupError) Error() string {
	return fmt.Sprintf("network setup of %s: %v", e.Interface, e.Err)
}

// Is implements the [errors.Is] interface.
func (*NetworkSetupError) Is(other error) bool {
	_, ok := other.(*NetworkSetupError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *NetworkSetupError) Unwrap() error {
	return e.Err
}

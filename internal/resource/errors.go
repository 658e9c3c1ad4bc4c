// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import "errors"

var (
	// ErrSocketPathTooLong is returned if a socket path exceeds the length
	// limit of unix socket addresses.
	ErrSocketPathTooLong = errors.New("socket path too long")

	// ErrNotTapInterface is returned if an interface exists but is not a tap
	// interface.
	ErrNotTapInterface = errors.New("not a tap interface")

	// ErrTapClosed is returned if a closed tap is used.
	ErrTapClosed = errors.New("tap closed")

	// ErrInstanceOutOfRange is returned if an instance index is outside of
	// the range the address scheme supports.
	ErrInstanceOutOfRange = errors.New("instance index out of range")

	// ErrInvalidAddress is returned if an address is not a valid IPv4 or
	// MAC address.
	ErrInvalidAddress = errors.New("invalid address")
)

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package command provides the [Command] data object handed from features to
// the launcher, and the [Builder] accumulating it.
//
// A command owns the host resources it is given: open files, taps, pipe
// ends. Ownership moves from the allocator to the builder, from the builder
// to the command and from the command to the started process.
package command

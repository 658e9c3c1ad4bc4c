// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package resource hands out the host resources of an instance: paths in the
// instance directory, open tap interfaces and the cleanup of stale DHCP
// leases of the wifi network.
package resource

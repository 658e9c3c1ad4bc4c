// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package feature provides the dependency graph of setup features.
//
// A [Graph] filters its [Node]s by their enabled state, orders them by
// dependency, runs their setup one after another and collects the commands
// of the nodes that are also a [CommandSource].
package feature

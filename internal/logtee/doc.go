// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logtee provides the log tee: a relay process that reads the
// combined output of another process, persists it in a log file and echoes it
// line-prefixed to the console.
package logtee

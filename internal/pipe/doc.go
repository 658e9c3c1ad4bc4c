// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pipe provides the stream copying of process output into log files
// and the console of the launcher.
package pipe

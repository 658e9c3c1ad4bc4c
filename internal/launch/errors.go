// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package launch

import "errors"

// ErrEarlyExit is returned if a process exits with failure within its
// startup window.
var ErrEarlyExit = errors.New("exited within startup window")

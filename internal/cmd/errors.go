// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import "errors"

// ErrReadBuildInfo is returned if the build info of the binary is not
// available.
var ErrReadBuildInfo = errors.New("failed to read build info")

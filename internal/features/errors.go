// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package features

import "errors"

// ErrInvalidKernel is returned if the kernel image is not a regular file.
var ErrInvalidKernel = errors.New("invalid kernel image")

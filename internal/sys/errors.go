// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import "errors"

// ErrArchNotSupported is returned if the requested architecture is not
// supported for the requested operation.
var ErrArchNotSupported = errors.New("architecture not supported")

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package state

import "errors"

// ErrNotFound is returned if no record exists for an instance.
var ErrNotFound = errors.New("launch record not found")

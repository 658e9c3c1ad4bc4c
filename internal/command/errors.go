// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package command

import "errors"

var (
	// ErrAlreadyBuilt is returned if [Builder.Build] is called more than once.
	ErrAlreadyBuilt = errors.New("command already built")

	// ErrNoBinary is returned if a [Builder] has no binary set.
	ErrNoBinary = errors.New("no binary set")
)

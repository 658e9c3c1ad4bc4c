// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package features provides the setup features of a device instance and
// assembles them into a [feature.Graph].
package features

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config provides the [InstanceConfig] shared by all features of a
// device instance and loads it from TOML or YAML files.
package config

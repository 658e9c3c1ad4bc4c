// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package controlenv translates control commands into requests to the gRPC
// services of a running instance.
//
// Every entry of the instance's gRPC socket directory is a server. Services
// and methods are discovered with the server reflection service, so the
// package does not depend on any service definition.
package controlenv

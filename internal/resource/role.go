// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

// Sub directories of the instance directory.
const (
	LogDir           = "logs"
	InternalDir      = "internal"
	ControlSocketDir = "grpc_socket"
)

// Role describes what a path is allocated for. It determines the directory
// the path is placed in.
type Role struct {
	dir    string
	name   string
	socket bool
}

// ImageRole is a disk image or other file directly in the instance directory.
func ImageRole(name string) Role {
	return Role{name: name}
}

// LogRole is a log file in the log directory of the instance.
func LogRole(name string) Role {
	return Role{dir: LogDir, name: name}
}

// SocketRole is a unix socket in the internal directory of the instance.
func SocketRole(name string) Role {
	return Role{dir: InternalDir, name: name, socket: true}
}

// ControlSocketRole is a unix socket of a control service of the instance.
func ControlSocketRole(name string) Role {
	return Role{dir: ControlSocketDir, name: name, socket: true}
}

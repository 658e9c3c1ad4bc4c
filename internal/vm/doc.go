// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vm builds the hypervisor commands of an instance.
//
// A [Backend] translates the instance configuration and the allocated host
// resources into the flag vocabulary of its hypervisor. [Crosvm] uses the
// accumulating [CrosvmBuilder], [Qemu] uses a list of [Argument]s that is
// checked for colliding arguments.
package vm

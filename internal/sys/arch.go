// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"os"
	"runtime"
)

type Arch string

// Supported host architectures.
const (
	AMD64   Arch = "amd64"
	ARM64   Arch = "arm64"
	RISCV64 Arch = "riscv64"
)

// Native is the architecture of the host. Hypervisors run guests of the
// native architecture only, with KVM if available. Use [Arch.KVMAvailable]
// to check.
const Native Arch = Arch(runtime.GOARCH)

// KVMDevice is the device file checked for KVM support.
var KVMDevice = "/dev/kvm"

func (a Arch) String() string {
	return string(a)
}

func (a Arch) IsNative() bool {
	return Native == a
}

// KVMAvailable checks if KVM support is available for the given architecture.
func (a Arch) KVMAvailable() bool {
	if !a.IsNative() {
		return false
	}

	f, err := os.OpenFile(KVMDevice, os.O_WRONLY, 0)
	if err != nil {
		return false
	}

	_ = f.Close()

	return true
}

// QemuBinary returns the name of the qemu system emulator for the
// architecture.
func (a Arch) QemuBinary() (string, error) {
	switch a {
	case AMD64:
		return "qemu-system-x86_64", nil
	case ARM64:
		return "qemu-system-aarch64", nil
	case RISCV64:
		return "qemu-system-riscv64", nil
	default:
		return "", ErrArchNotSupported
	}
}

func (a *Arch) Set(s string) error {
	switch Arch(s) {
	case AMD64, ARM64, RISCV64:
		*a = Arch(s)
	default:
		return ErrArchNotSupported
	}

	return nil
}

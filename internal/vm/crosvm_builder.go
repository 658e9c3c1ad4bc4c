// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"strconv"

	"github.com/aibor/vdrun/internal/command"
	"github.com/aibor/vdrun/internal/resource"
)

// CrosvmBuilder accumulates a crosvm run command.
//
// The kernel is always the last argument, no matter when it is set.
type CrosvmBuilder struct {
	cmd        *command.Builder
	kernel     string
	hvcNum     int
	sandboxSet bool
}

// NewCrosvmBuilder creates a new [CrosvmBuilder] for the given binary.
func NewCrosvmBuilder(binary string) *CrosvmBuilder {
	b := &CrosvmBuilder{
		cmd: command.NewBuilder(binary),
	}
	b.cmd.AddParameter("run")

	return b
}

// SetBinary replaces the crosvm binary.
func (b *CrosvmBuilder) SetBinary(binary string) *CrosvmBuilder {
	b.cmd.SetBinary(binary)
	return b
}

// AddControlSocket adds the control socket crosvm listens on.
func (b *CrosvmBuilder) AddControlSocket(path string) *CrosvmBuilder {
	b.cmd.AddParameter("--socket=", path)
	return b
}

// AddTap passes the tap as network device to crosvm. The tap is owned by the
// command afterwards.
func (b *CrosvmBuilder) AddTap(tap *resource.Tap) int {
	fd := b.cmd.PassFile(tap.File())
	b.cmd.Own(tap)
	b.cmd.AddParameter("--net=tap-fd=", strconv.Itoa(fd))

	return fd
}

// AddReadWriteDisk adds a writable disk image.
func (b *CrosvmBuilder) AddReadWriteDisk(path string) *CrosvmBuilder {
	b.cmd.AddParameter("--rwdisk=", path)
	return b
}

// AddReadOnlyDisk adds a read only disk image.
func (b *CrosvmBuilder) AddReadOnlyDisk(path string) *CrosvmBuilder {
	b.cmd.AddParameter("--disk=", path)
	return b
}

// AddSerialConsoleReadOnly adds the first serial port with early console
// support writing into the given file.
func (b *CrosvmBuilder) AddSerialConsoleReadOnly(path string) *CrosvmBuilder {
	b.cmd.AddParameter(
		"--serial=hardware=serial,num=1,type=file,path=", path, ",earlycon=true",
	)

	return b
}

// AddHvcReadOnly adds the next virtio console writing into the given file.
func (b *CrosvmBuilder) AddHvcReadOnly(path string) *CrosvmBuilder {
	b.hvcNum++
	b.cmd.AddParameter(
		"--serial=hardware=virtio-console,num=", strconv.Itoa(b.hvcNum),
		",type=file,path=", path,
	)

	return b
}

// AddSandbox either enables the seccomp sandbox with the policies found in
// policyDir or disables the sandbox. It can be set only once.
func (b *CrosvmBuilder) AddSandbox(enabled bool, policyDir string) error {
	if b.sandboxSet {
		return ErrSandboxAlreadySet
	}

	b.sandboxSet = true

	if enabled {
		b.cmd.AddParameter("--seccomp-policy-dir=", policyDir)
	} else {
		b.cmd.AddParameter("--disable-sandbox")
	}

	return nil
}

// AddParameter adds a raw argument joined from the given parts.
func (b *CrosvmBuilder) AddParameter(parts ...string) *CrosvmBuilder {
	b.cmd.AddParameter(parts...)
	return b
}

// SetKernel sets the kernel image to boot.
func (b *CrosvmBuilder) SetKernel(path string) *CrosvmBuilder {
	b.kernel = path
	return b
}

// Cmd returns the underlying command builder. The kernel is appended only when
// the command is built with [CrosvmBuilder.Build] or [CrosvmBuilder.Finish].
func (b *CrosvmBuilder) Cmd() *command.Builder {
	return b.cmd
}

// Finish appends the kernel and returns the underlying command builder ready
// to be built.
func (b *CrosvmBuilder) Finish() (*command.Builder, error) {
	if b.kernel == "" {
		_ = b.cmd.Discard()
		return nil, ErrNoKernel
	}

	b.cmd.AddParameter(b.kernel)

	return b.cmd, nil
}

// Build appends the kernel and returns the command.
func (b *CrosvmBuilder) Build() (*command.Command, error) {
	builder, err := b.Finish()
	if err != nil {
		return nil, err
	}

	return builder.Build() //nolint:wrapcheck
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aibor/vdrun/internal/command"
	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/sys"
)

const crosvmProcessName = "crosvm"

// Crosvm runs the guest with crosvm.
type Crosvm struct {
	Binary   string
	Arch     sys.Arch
	LookPath LookPathFunc
}

var _ Backend = (*Crosvm)(nil)

// NewCrosvm creates a new [Crosvm] backend for the host architecture.
func NewCrosvm(binary string) *Crosvm {
	return &Crosvm{
		Binary: binary,
		Arch:   sys.Native,
	}
}

// Name implements [Backend].
func (*Crosvm) Name() string {
	return config.VMManagerCrosvm
}

// IsSupported implements [Backend]. Crosvm requires KVM on amd64 or arm64.
func (c *Crosvm) IsSupported() bool {
	switch c.Arch {
	case sys.AMD64, sys.ARM64:
	default:
		return false
	}

	return lookPath(c.LookPath, c.Binary) && c.Arch.KVMAvailable()
}

// ConfigureGpuMode implements [Backend].
func (*Crosvm) ConfigureGpuMode(mode string) ([]string, error) {
	switch mode {
	case config.GpuModeNone, "":
		return nil, nil
	case config.GpuModeGuestSwiftshader:
		return []string{"--gpu=backend=2D"}, nil
	case config.GpuModeDrmVirgl:
		return []string{"--gpu=backend=virglrenderer"}, nil
	case config.GpuModeGfxstream:
		return []string{"--gpu=backend=gfxstream"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrGpuModeUnsupported, mode)
	}
}

// ConfigureBootDevices implements [Backend].
func (c *Crosvm) ConfigureBootDevices(numDisks int) []string {
	if c.Arch == sys.ARM64 {
		// Block devices are on their own bridge.
		return []string{bootDevicesParam + "10000.pci"}
	}

	numDisks = min(numDisks, maxDisks)

	// An ISA bridge precedes the consoles and disks.
	return pciBootDevices(1+defaultNumHvcs+maxDisks-numDisks, numDisks)
}

// StartCommands implements [Backend].
func (c *Crosvm) StartCommands(
	cfg *config.InstanceConfig,
	res Resources,
	tee LogTeeCreator,
) ([]*command.Command, error) {
	err := res.checkDisks()
	if err != nil {
		_ = res.closeTaps()
		return nil, err
	}

	gpuArgs, err := c.ConfigureGpuMode(cfg.GPUMode)
	if err != nil {
		_ = res.closeTaps()
		return nil, err
	}

	builder := NewCrosvmBuilder(c.Binary)
	builder.Cmd().SetName(crosvmProcessName)

	for _, tap := range res.Taps {
		builder.AddTap(tap)
	}

	builder.AddControlSocket(res.ControlSocket)

	if cfg.MemoryMB > 0 {
		builder.AddParameter("--mem=", strconv.FormatUint(cfg.MemoryMB, 10))
	}

	if cfg.CPUs > 0 {
		builder.AddParameter("--cpus=", strconv.FormatUint(cfg.CPUs, 10))
	}

	builder.Cmd().AddParameters(gpuArgs...)

	err = builder.AddSandbox(cfg.EnableSandbox, cfg.SeccompPolicyDir)
	if err != nil {
		_ = builder.Cmd().Discard()
		return nil, err
	}

	for _, disk := range res.ReadWriteDisks {
		builder.AddReadWriteDisk(disk)
	}

	for _, disk := range res.ReadOnlyDisks {
		builder.AddReadOnlyDisk(disk)
	}

	params := append(c.ConfigureBootDevices(res.numDisks()), res.Params...)
	if len(params) > 0 {
		builder.AddParameter("--params=", strings.Join(params, " "))
	}

	if res.SerialLog != "" {
		builder.AddSerialConsoleReadOnly(res.SerialLog)
	}

	if res.ConsoleLog != "" {
		builder.AddHvcReadOnly(res.ConsoleLog)
	}

	cmdBuilder, err := builder.SetKernel(res.KernelPath).Finish()
	if err != nil {
		return nil, err
	}

	return BuildWithTee(cmdBuilder, tee, crosvmProcessName)
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aibor/vdrun/internal/command"
	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/sys"
)

const qemuProcessName = "qemu"

const (
	qemuSandboxOn  = "on,obsolete=deny,elevateprivileges=deny,spawn=deny,resourcecontrol=deny"
	qemuSandboxOff = "off"
)

// Qemu runs the guest with the qemu system emulator of the host
// architecture.
type Qemu struct {
	// Binary overrides the architecture's default qemu-system binary.
	Binary   string
	Arch     sys.Arch
	LookPath LookPathFunc
}

var _ Backend = (*Qemu)(nil)

// NewQemu creates a new [Qemu] backend for the host architecture.
func NewQemu(binary string) *Qemu {
	return &Qemu{
		Binary: binary,
		Arch:   sys.Native,
	}
}

// Name implements [Backend].
func (*Qemu) Name() string {
	return config.VMManagerQemu
}

func (q *Qemu) binary() (string, error) {
	if q.Binary != "" {
		return q.Binary, nil
	}

	return q.Arch.QemuBinary() //nolint:wrapcheck
}

// IsSupported implements [Backend].
func (q *Qemu) IsSupported() bool {
	binary, err := q.binary()
	if err != nil {
		return false
	}

	return lookPath(q.LookPath, binary)
}

// ConfigureGpuMode implements [Backend].
func (*Qemu) ConfigureGpuMode(mode string) ([]string, error) {
	switch mode {
	case config.GpuModeNone, "":
		return nil, nil
	case config.GpuModeGuestSwiftshader:
		return []string{"-device", "virtio-gpu-pci"}, nil
	case config.GpuModeDrmVirgl:
		return []string{
			"-device", "virtio-gpu-gl-pci",
			"-display", "egl-headless",
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrGpuModeUnsupported, mode)
	}
}

// ConfigureBootDevices implements [Backend].
func (q *Qemu) ConfigureBootDevices(numDisks int) []string {
	if q.Arch == sys.ARM64 || q.Arch == sys.RISCV64 {
		return []string{bootDevicesParam + "4010000000.pcie"}
	}

	numDisks = min(numDisks, maxDisks)

	// The host bridge and the ISA bridge precede the consoles and disks.
	return pciBootDevices(2+defaultNumHvcs+maxDisks-numDisks, numDisks)
}

func (q *Qemu) arguments(
	cfg *config.InstanceConfig,
	res Resources,
	tapFDs []int,
) Arguments {
	args := Arguments{
		Option("name", "guest=vdrun-"+strconv.Itoa(cfg.Instance)),
		Flag("nographic"),
		Flag("no-user-config"),
		Flag("nodefaults"),
	}

	if q.Arch.KVMAvailable() {
		args = append(args, Flag("enable-kvm"))
	}

	args = append(args,
		Option("m", strconv.FormatUint(max(cfg.MemoryMB, 1), 10)),
		Option("smp", strconv.FormatUint(max(cfg.CPUs, 1), 10)),
		Chardev("socket", "charmonitor", "path="+res.ControlSocket, "server=on", "wait=off"),
		Option("mon", "chardev=charmonitor", "id=monitor", "mode=control"),
	)

	if cfg.EnableSandbox {
		args = append(args, Option("sandbox", qemuSandboxOn))
	} else {
		args = append(args, Option("sandbox", qemuSandboxOff))
	}

	for idx, fd := range tapFDs {
		id := "hostnet" + strconv.Itoa(idx)
		args = append(args,
			TapNetdev(id, fd),
			Device("virtio-net-pci-non-transitional", "netdev="+id),
		)
	}

	disks := slices.Concat(res.ReadWriteDisks, res.ReadOnlyDisks)
	for idx, disk := range disks {
		id := "drive-virtio-disk" + strconv.Itoa(idx)
		args = append(args,
			RawDrive(id, disk, idx >= len(res.ReadWriteDisks)),
			Device("virtio-blk-pci-non-transitional", "drive="+id, "id=virtio-disk"+strconv.Itoa(idx)),
		)
	}

	if res.SerialLog != "" {
		args = append(args,
			Chardev("file", "serial0", "path="+res.SerialLog, "append=on"),
			Serial("serial0"),
		)
	}

	if res.ConsoleLog != "" {
		args = append(args,
			Device("virtio-serial-pci-non-transitional", "max_ports=1", "id=virtio-serial0"),
			Chardev("file", "hvc0", "path="+res.ConsoleLog, "append=on"),
			Device("virtconsole", "bus=virtio-serial0.0", "chardev=hvc0"),
		)
	}

	return args
}

// StartCommands implements [Backend].
func (q *Qemu) StartCommands(
	cfg *config.InstanceConfig,
	res Resources,
	tee LogTeeCreator,
) ([]*command.Command, error) {
	err := res.checkDisks()
	if err != nil {
		_ = res.closeTaps()
		return nil, err
	}

	binary, err := q.binary()
	if err != nil {
		_ = res.closeTaps()
		return nil, err
	}

	gpuArgs, err := q.ConfigureGpuMode(cfg.GPUMode)
	if err != nil {
		_ = res.closeTaps()
		return nil, err
	}

	if res.KernelPath == "" {
		_ = res.closeTaps()
		return nil, ErrNoKernel
	}

	builder := command.NewBuilder(binary).SetName(qemuProcessName)

	tapFDs := make([]int, 0, len(res.Taps))
	for _, tap := range res.Taps {
		tapFDs = append(tapFDs, builder.PassFile(tap.File()))
		builder.Own(tap)
	}

	argStrings, err := q.arguments(cfg, res, tapFDs).Strings()
	if err != nil {
		_ = builder.Discard()
		return nil, err
	}

	builder.AddParameters(argStrings...)
	builder.AddParameters(gpuArgs...)

	params := append(q.ConfigureBootDevices(res.numDisks()), res.Params...)
	if len(params) > 0 {
		builder.AddParameters("-append", strings.Join(params, " "))
	}

	builder.AddParameters("-kernel", res.KernelPath)

	return BuildWithTee(builder, tee, qemuProcessName)
}

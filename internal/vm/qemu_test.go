// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/sys"
	"github.com/aibor/vdrun/internal/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func argValue(args []string, name, prefix string) (int, string) {
	for idx := 0; idx+1 < len(args); idx++ {
		if args[idx] == name && strings.HasPrefix(args[idx+1], prefix) {
			return idx, args[idx+1]
		}
	}

	return -1, ""
}

func TestQemu_StartCommands(t *testing.T) {
	setKVMDevice(t, false)

	t.Run("arguments", func(t *testing.T) {
		tee := &fakeTee{}
		backend := &vm.Qemu{Arch: sys.AMD64}
		cfg := &config.InstanceConfig{Instance: 2, EnableSandbox: true, MemoryMB: 1024, CPUs: 2}

		cmds, err := backend.StartCommands(cfg, testResources(t), tee)
		require.NoError(t, err)
		require.Len(t, cmds, 2)

		assert.Equal(t, []string{"qemu"}, tee.names)
		assert.Equal(t, "qemu-system-x86_64", cmds[1].Binary())

		args := cmds[1].Args()

		assert.NotContains(t, args, "-enable-kvm")
		assert.Subset(t, args, []string{"-m", "1024", "-smp", "2", "-nodefaults"})

		_, sandbox := argValue(args, "-sandbox", "")
		assert.Equal(t, "on,obsolete=deny,elevateprivileges=deny,spawn=deny,resourcecontrol=deny", sandbox)

		_, monitor := argValue(args, "-chardev", "socket")
		assert.Contains(t, monitor, "path=/run/vd/internal/ctl.sock")

		_, netdev := argValue(args, "-netdev", "")
		assert.Equal(t, "tap,id=hostnet0,fd=3", netdev)

		rwIdx, rw := argValue(args, "-drive", "file=/run/vd/overlay.img")
		roIdx, ro := argValue(args, "-drive", "file=/run/vd/os_composite.img")
		assert.Less(t, rwIdx, roIdx, "rw drive before ro drive")
		assert.NotContains(t, rw, "readonly=on")
		assert.Contains(t, ro, "readonly=on")

		_, serial := argValue(args, "-chardev", "file,id=serial0")
		assert.Contains(t, serial, "path=/run/vd/logs/kernel.log")

		_, hvc := argValue(args, "-chardev", "file,id=hvc0")
		assert.Contains(t, hvc, "path=/run/vd/logs/console.log")

		_, appendParams := argValue(args, "-append", "")
		assert.Equal(t, "androidboot.boot_devices=pci0000:00/0000:00:09.0,pci0000:00/0000:00:0a.0 console=hvc0", appendParams)

		assert.Equal(t, []string{"-kernel", "/run/vd/kernel"}, args[len(args)-2:], "kernel last")

		for _, cmd := range cmds {
			require.NoError(t, cmd.Close())
		}
	})

	t.Run("sandbox off", func(t *testing.T) {
		backend := &vm.Qemu{Binary: "/opt/qemu", Arch: sys.AMD64}

		cmds, err := backend.StartCommands(&config.InstanceConfig{}, testResources(t), nil)
		require.NoError(t, err)
		require.Len(t, cmds, 1)

		assert.Equal(t, "/opt/qemu", cmds[0].Binary())

		args := cmds[0].Args()
		_, sandbox := argValue(args, "-sandbox", "")
		assert.Equal(t, "off", sandbox)
		assert.Equal(t, 1, countOf(args, "-sandbox"), "exactly one sandbox flag")
	})

	t.Run("gfxstream", func(t *testing.T) {
		backend := &vm.Qemu{Arch: sys.AMD64}
		res := testResources(t)

		_, err := backend.StartCommands(&config.InstanceConfig{GPUMode: config.GpuModeGfxstream}, res, nil)
		require.ErrorIs(t, err, vm.ErrGpuModeUnsupported)

		assert.False(t, res.Taps[0].IsOpen())
	})

	t.Run("too many disks", func(t *testing.T) {
		backend := &vm.Qemu{Arch: sys.AMD64}
		res := testResources(t)
		res.ReadWriteDisks = append(res.ReadWriteDisks, "/run/vd/a.img", "/run/vd/b.img")

		_, err := backend.StartCommands(&config.InstanceConfig{}, res, nil)
		require.ErrorIs(t, err, vm.ErrTooManyDisks)

		assert.False(t, res.Taps[0].IsOpen())
	})

	t.Run("no kernel", func(t *testing.T) {
		backend := &vm.Qemu{Arch: sys.AMD64}
		res := testResources(t)
		res.KernelPath = ""

		_, err := backend.StartCommands(&config.InstanceConfig{}, res, nil)
		require.ErrorIs(t, err, vm.ErrNoKernel)
	})
}

func countOf(args []string, arg string) int {
	var count int

	for idx := slices.Index(args, arg); idx != -1; {
		count++

		next := slices.Index(args[idx+1:], arg)
		if next == -1 {
			break
		}

		idx += next + 1
	}

	return count
}

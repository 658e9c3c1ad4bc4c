// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package features

import (
	"context"
	"fmt"
	"os"

	"github.com/aibor/vdrun/internal/command"
	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/resource"
	"github.com/aibor/vdrun/internal/vm"
)

const (
	vmOverlay    = "overlay.img"
	vmComposite  = "os_composite.img"
	vmKernelLog  = "kernel.log"
	vmConsoleLog = "console.log"
)

// VMManager runs the main VM of the instance with the configured backend.
type VMManager struct {
	cfg       *config.InstanceConfig
	alloc     Allocator
	backend   vm.Backend
	mobileTap *Tap
	tee       vm.LogTeeCreator

	res vm.Resources
}

// NewVMManager creates a new [VMManager] feature.
func NewVMManager(
	cfg *config.InstanceConfig,
	alloc Allocator,
	backend vm.Backend,
	mobileTap *Tap,
	tee vm.LogTeeCreator,
) *VMManager {
	return &VMManager{
		cfg:       cfg,
		alloc:     alloc,
		backend:   backend,
		mobileTap: mobileTap,
		tee:       tee,
	}
}

func (*VMManager) Name() string  { return VMManagerName }
func (*VMManager) Enabled() bool { return true }

func (m *VMManager) Dependencies() []string {
	return []string{InstanceDirsName, m.mobileTap.Name()}
}

func (m *VMManager) Setup(_ context.Context) error {
	info, err := os.Stat(m.cfg.KernelPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKernel, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: not a regular file: %s", ErrInvalidKernel, m.cfg.KernelPath)
	}

	res := vm.Resources{
		KernelPath:     m.cfg.KernelPath,
		Params:         m.cfg.ExtraKernelParams,
		ReadWriteDisks: make([]string, 1),
		ReadOnlyDisks:  make([]string, 1),
	}

	paths := []struct {
		role resource.Role
		dst  *string
	}{
		{resource.SocketRole(m.backend.Name() + "_control.sock"), &res.ControlSocket},
		{resource.LogRole(vmKernelLog), &res.SerialLog},
		{resource.LogRole(vmConsoleLog), &res.ConsoleLog},
		{resource.ImageRole(vmOverlay), &res.ReadWriteDisks[0]},
		{resource.ImageRole(vmComposite), &res.ReadOnlyDisks[0]},
	}

	for _, path := range paths {
		*path.dst, err = m.alloc.AllocatePath(path.role)
		if err != nil {
			return err //nolint:wrapcheck
		}
	}

	m.res = res

	return nil
}

func (m *VMManager) Commands() ([]*command.Command, error) {
	res := m.res

	if tap := m.mobileTap.Take(); tap != nil {
		res.Taps = append(res.Taps, tap)
	}

	cmds, err := m.backend.StartCommands(m.cfg, res, m.tee)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.backend.Name(), err)
	}

	return cmds, nil
}

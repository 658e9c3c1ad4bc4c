// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/aibor/vdrun/internal/command"
	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/resource"
)

// Hypervisor device layout defaults shared by all backends.
const (
	defaultNumHvcs = 6
	maxDisks       = 3
)

// LogTeeCreator creates log tee commands for other commands.
type LogTeeCreator interface {
	// CreateLogTee routes stdout and stderr of the given builder into a new
	// relay command and returns it.
	CreateLogTee(builder *command.Builder, processName string) (*command.Command, error)
}

// Resources are the host resources a hypervisor command is built with.
//
// [Backend.StartCommands] takes ownership of the taps, also if it fails.
type Resources struct {
	ControlSocket  string
	Taps           []*resource.Tap
	ReadWriteDisks []string
	ReadOnlyDisks  []string
	SerialLog      string
	ConsoleLog     string
	KernelPath     string
	Params         []string
}

func (r *Resources) numDisks() int {
	return len(r.ReadWriteDisks) + len(r.ReadOnlyDisks)
}

func (r *Resources) checkDisks() error {
	if r.numDisks() > maxDisks {
		return fmt.Errorf("%w: %d, at most %d", ErrTooManyDisks, r.numDisks(), maxDisks)
	}

	return nil
}

func (r *Resources) closeTaps() error {
	errs := make([]error, 0, len(r.Taps))

	for _, tap := range r.Taps {
		errs = append(errs, tap.Close())
	}

	return errors.Join(errs...)
}

// Backend turns the instance configuration into hypervisor commands.
type Backend interface {
	// Name returns the name of the backend as used in the configuration.
	Name() string

	// IsSupported returns if the backend can run on this host.
	IsSupported() bool

	// ConfigureGpuMode returns the arguments for the given GPU mode.
	ConfigureGpuMode(mode string) ([]string, error)

	// ConfigureBootDevices returns the kernel parameters announcing the
	// boot devices for the given number of disks. Disks beyond the
	// supported maximum are not announced.
	ConfigureBootDevices(numDisks int) []string

	// StartCommands returns the commands to run in order. If a log tee
	// creator is given, the tee comes immediately before the hypervisor.
	StartCommands(
		cfg *config.InstanceConfig,
		res Resources,
		tee LogTeeCreator,
	) ([]*command.Command, error)
}

// ForName returns the [Backend] with the given name.
func ForName(name string, cfg *config.InstanceConfig) (Backend, error) {
	switch name {
	case config.VMManagerCrosvm:
		return NewCrosvm(cfg.CrosvmBinary), nil
	case config.VMManagerQemu:
		return NewQemu(cfg.QemuBinary), nil
	default:
		return nil, &UnsupportedBackendError{Name: name}
	}
}

// LookPathFunc resolves binary names to executable paths.
type LookPathFunc func(file string) (string, error)

var _ LookPathFunc = exec.LookPath

func lookPath(fn LookPathFunc, binary string) bool {
	if fn == nil {
		fn = exec.LookPath
	}

	_, err := fn(binary)

	return err == nil
}

// BuildWithTee builds the command of the builder. If a tee creator is given,
// its log tee for the command comes first. On error, the builder is
// discarded.
func BuildWithTee(
	builder *command.Builder,
	tee LogTeeCreator,
	processName string,
) ([]*command.Command, error) {
	cmds := make([]*command.Command, 0, 2)

	if tee != nil {
		teeCmd, err := tee.CreateLogTee(builder, processName)
		if err != nil {
			_ = builder.Discard()
			return nil, err //nolint:wrapcheck
		}

		cmds = append(cmds, teeCmd)
	}

	cmd, err := builder.Build()
	if err != nil {
		_ = command.CloseAll(cmds)
		return nil, err //nolint:wrapcheck
	}

	return append(cmds, cmd), nil
}

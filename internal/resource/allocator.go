// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aibor/vdrun/internal/config"
	"github.com/vishvananda/netlink"
)

// maxSocketPathLen is the maximum length of a unix socket path, excluding
// the terminating null byte of sockaddr_un.sun_path.
const maxSocketPathLen = 107

// Allocator hands out host resources of a single instance: file system paths
// and tap devices.
//
// Paths are deterministic for an instance, so repeated allocation of the same
// role results in the same path.
type Allocator struct {
	cfg *config.InstanceConfig

	linkByName func(name string) (netlink.Link, error)
	openTap    func(name string) (*os.File, error)
}

// NewAllocator creates a new [Allocator] for the given instance.
func NewAllocator(cfg *config.InstanceConfig) *Allocator {
	return &Allocator{
		cfg:        cfg,
		linkByName: netlink.LinkByName,
		openTap:    openTapDevice,
	}
}

// Config returns the instance configuration the allocator works for.
func (a *Allocator) Config() *config.InstanceConfig {
	return a.cfg
}

// AllocatePath returns the path for the given role and makes sure its parent
// directory exists.
func (a *Allocator) AllocatePath(role Role) (string, error) {
	path := filepath.Join(a.cfg.InstanceDir, role.dir, role.name)

	if role.socket && len(path) > maxSocketPathLen {
		return "", fmt.Errorf("%w: %s", ErrSocketPathTooLong, path)
	}

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return "", fmt.Errorf("create parent directory: %w", err)
	}

	return path, nil
}

// AllocateTap opens the existing tap interface with the given name.
//
// The interface must have been created beforehand by the host network setup.
// The returned [Tap] is owned by the caller.
func (a *Allocator) AllocateTap(name string) (*Tap, error) {
	link, err := a.linkByName(name)
	if err != nil {
		return nil, &NetworkSetupError{Interface: name, Err: err}
	}

	if _, ok := link.(*netlink.Tuntap); !ok {
		return nil, &NetworkSetupError{
			Interface: name,
			Err:       fmt.Errorf("%w: type %s", ErrNotTapInterface, link.Type()),
		}
	}

	file, err := a.openTap(name)
	if err != nil {
		return nil, &NetworkSetupError{Interface: name, Err: err}
	}

	return NewTap(name, file, true), nil
}

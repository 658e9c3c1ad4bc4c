// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package features

import (
	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/feature"
	"github.com/aibor/vdrun/internal/resource"
	"github.com/aibor/vdrun/internal/vm"
)

// Feature names as used for toggles in [config.InstanceConfig.Features].
const (
	InstanceDirsName = "instance_dirs"
	MobileTapName    = "mobile_tap"
	WifiTapName      = "wifi_tap"
	OpenWrtName      = "openwrt"
	VMManagerName    = "vm_manager"
)

// Allocator hands out the host resources of the instance.
type Allocator interface {
	AllocatePath(role resource.Role) (string, error)
	AllocateTap(name string) (*resource.Tap, error)
	CleanupStaleLeases(tap *resource.Tap) bool
}

var _ Allocator = (*resource.Allocator)(nil)

// Assemble creates the feature graph of an instance with the given backend.
//
// The tee creator may be nil, in which case the output of the hypervisors is
// not relayed.
func Assemble(
	cfg *config.InstanceConfig,
	alloc Allocator,
	backend vm.Backend,
	tee vm.LogTeeCreator,
) (*feature.Graph, error) {
	if !backend.IsSupported() {
		return nil, &vm.UnsupportedBackendError{Name: backend.Name()}
	}

	dirs := NewInstanceDirs(cfg)
	mobileTap := NewMobileTap(cfg, alloc)
	wifiTap := NewWifiTap(cfg, alloc)
	openWrt := NewOpenWrt(cfg, alloc, backend.Name(), wifiTap, tee)
	vmManager := NewVMManager(cfg, alloc, backend, mobileTap, tee)

	graph := feature.NewGraph()

	err := graph.RegisterAll(dirs, mobileTap, wifiTap, openWrt, vmManager)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return graph, nil
}

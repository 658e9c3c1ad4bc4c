// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package features

import (
	"context"
	"log/slog"

	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/resource"
)

// Tap opens a tap interface of the instance for later use by a hypervisor
// feature.
//
// The tap is owned by the feature until it is handed over by [Tap.Take].
type Tap struct {
	name          string
	interfaceName string
	enabled       bool
	cleanupLeases bool
	alloc         Allocator

	tap *resource.Tap
}

// NewMobileTap creates the feature opening the tap of the mobile network.
func NewMobileTap(cfg *config.InstanceConfig, alloc Allocator) *Tap {
	return &Tap{
		name:          MobileTapName,
		interfaceName: cfg.MobileTapName(),
		enabled:       cfg.FeatureEnabled(MobileTapName),
		alloc:         alloc,
	}
}

// NewWifiTap creates the feature opening the tap of the wifi network. It is
// enabled only if the access point is started. Stale DHCP leases of the
// network are released once the tap is open.
func NewWifiTap(cfg *config.InstanceConfig, alloc Allocator) *Tap {
	return &Tap{
		name:          WifiTapName,
		interfaceName: cfg.WifiTapName(),
		enabled:       cfg.StartAP && cfg.FeatureEnabled(WifiTapName),
		cleanupLeases: true,
		alloc:         alloc,
	}
}

func (t *Tap) Name() string         { return t.name }
func (t *Tap) Enabled() bool        { return t.enabled }
func (*Tap) Dependencies() []string { return nil }

// InterfaceName returns the name of the tap interface.
func (t *Tap) InterfaceName() string {
	return t.interfaceName
}

func (t *Tap) Setup(_ context.Context) error {
	tap, err := t.alloc.AllocateTap(t.interfaceName)
	if err != nil {
		return err //nolint:wrapcheck
	}

	t.tap = tap

	if t.cleanupLeases && t.alloc.CleanupStaleLeases(tap) {
		slog.Debug("Cleaned up stale DHCP leases",
			slog.String("interface", t.interfaceName))
	}

	return nil
}

// Take hands the open tap over to the caller. It returns nil if the tap is
// not open or was taken before.
func (t *Tap) Take() *resource.Tap {
	tap := t.tap
	t.tap = nil

	return tap
}

// Close closes the tap if it was not taken.
func (t *Tap) Close() error {
	if t.tap == nil {
		return nil
	}

	return t.Take().Close()
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package features

import (
	"context"
	"fmt"

	"github.com/aibor/vdrun/internal/command"
	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/resource"
	"github.com/aibor/vdrun/internal/vm"
)

const (
	openWrtProcessName   = "openwrt"
	openWrtControlSocket = "ap_control.sock"
	openWrtOverlay       = "ap_overlay.img"
	openWrtComposite     = "persistent_composite.img"
	openWrtBootLog       = "crosvm_openwrt_boot.log"
	openWrtLog           = "crosvm_openwrt.log"
)

// OpenWrt runs the access point VM serving the wifi network of the instance.
// It always runs with crosvm.
type OpenWrt struct {
	cfg     *config.InstanceConfig
	alloc   Allocator
	backend string
	wifiTap *Tap
	tee     vm.LogTeeCreator

	controlSocket string
	overlay       string
	composite     string
	bootLog       string
	log           string
}

// NewOpenWrt creates a new [OpenWrt] feature. It is enabled only if the
// access point is started and the instance runs with crosvm.
func NewOpenWrt(
	cfg *config.InstanceConfig,
	alloc Allocator,
	backend string,
	wifiTap *Tap,
	tee vm.LogTeeCreator,
) *OpenWrt {
	return &OpenWrt{
		cfg:     cfg,
		alloc:   alloc,
		backend: backend,
		wifiTap: wifiTap,
		tee:     tee,
	}
}

func (*OpenWrt) Name() string { return OpenWrtName }

func (o *OpenWrt) Enabled() bool {
	return o.cfg.StartAP &&
		o.backend == config.VMManagerCrosvm &&
		o.cfg.FeatureEnabled(OpenWrtName)
}

func (o *OpenWrt) Dependencies() []string {
	return []string{InstanceDirsName, o.wifiTap.Name()}
}

func (o *OpenWrt) Setup(_ context.Context) error {
	paths := []struct {
		role resource.Role
		dst  *string
	}{
		{resource.SocketRole(openWrtControlSocket), &o.controlSocket},
		{resource.ImageRole(openWrtOverlay), &o.overlay},
		{resource.ImageRole(openWrtComposite), &o.composite},
		{resource.LogRole(openWrtBootLog), &o.bootLog},
		{resource.LogRole(openWrtLog), &o.log},
	}

	for _, path := range paths {
		var err error

		*path.dst, err = o.alloc.AllocatePath(path.role)
		if err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}

func (o *OpenWrt) Commands() ([]*command.Command, error) {
	apCmd := vm.NewCrosvmBuilder(o.cfg.CrosvmBinary)
	apCmd.Cmd().SetName(openWrtProcessName)
	apCmd.AddControlSocket(o.controlSocket)

	if o.cfg.VhostUserMac80211Hwsim != "" {
		apCmd.AddParameter("--vhost-user-mac80211-hwsim=", o.cfg.VhostUserMac80211Hwsim)
	}

	if tap := o.wifiTap.Take(); tap != nil {
		apCmd.AddTap(tap)
	}

	err := apCmd.AddSandbox(o.cfg.EnableSandbox, o.cfg.SeccompPolicyDir)
	if err != nil {
		_ = apCmd.Cmd().Discard()
		return nil, err //nolint:wrapcheck
	}

	apCmd.AddReadWriteDisk(o.overlay)
	apCmd.AddReadOnlyDisk(o.composite)
	apCmd.AddParameter("--params=root=", o.cfg.APImageDevPath)
	apCmd.AddSerialConsoleReadOnly(o.bootLog)
	apCmd.AddHvcReadOnly(o.log)

	builder, err := apCmd.SetKernel(o.cfg.APKernelImage).Finish()
	if err != nil {
		return nil, fmt.Errorf("access point kernel: %w", err)
	}

	return vm.BuildWithTee(builder, o.tee, openWrtProcessName) //nolint:wrapcheck
}

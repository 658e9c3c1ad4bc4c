// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Supported VM manager names.
const (
	VMManagerCrosvm = "crosvm"
	VMManagerQemu   = "qemu"
)

// GPU modes known to the backends.
const (
	GpuModeNone             = "none"
	GpuModeGuestSwiftshader = "guest_swiftshader"
	GpuModeDrmVirgl         = "drm_virgl"
	GpuModeGfxstream        = "gfxstream"
)

// MaxInstance is the highest instance index the per-instance address scheme
// can represent.
const MaxInstance = 64

// InstanceConfig is the materialized configuration of a single device
// instance.
//
// It is built once by [Load] and must be treated read-only afterwards. All
// features of an instance share the same value.
type InstanceConfig struct {
	// Instance is the 1-based index of the instance on this host.
	Instance int `toml:"instance" yaml:"instance"`

	// VMManager selects the hypervisor backend: crosvm or qemu.
	VMManager string `toml:"vm_manager" yaml:"vm_manager"`

	// InstanceDir is the root of all per-instance files.
	InstanceDir string `toml:"instance_dir" yaml:"instance_dir"`

	// LeasesDir is the directory the host DHCP server keeps its lease files
	// in.
	LeasesDir string `toml:"leases_dir" yaml:"leases_dir"`

	CrosvmBinary string `toml:"crosvm_binary" yaml:"crosvm_binary"`
	QemuBinary   string `toml:"qemu_binary" yaml:"qemu_binary"`

	// EnableSandbox runs crosvm with seccomp policies from
	// SeccompPolicyDir. Otherwise the sandbox is disabled.
	EnableSandbox    bool   `toml:"enable_sandbox" yaml:"enable_sandbox"`
	SeccompPolicyDir string `toml:"seccomp_policy_dir" yaml:"seccomp_policy_dir"`

	// StartAP starts the access point VM providing the wifi network.
	StartAP bool `toml:"start_ap" yaml:"start_ap"`

	GPUMode           string   `toml:"gpu_mode" yaml:"gpu_mode"`
	KernelPath        string   `toml:"kernel_path" yaml:"kernel_path"`
	MemoryMB          uint64   `toml:"memory_mb" yaml:"memory_mb"`
	CPUs              uint64   `toml:"cpus" yaml:"cpus"`
	ExtraKernelParams []string `toml:"extra_kernel_params" yaml:"extra_kernel_params"`

	APKernelImage          string `toml:"ap_kernel_image" yaml:"ap_kernel_image"`
	APImageDevPath         string `toml:"ap_image_dev_path" yaml:"ap_image_dev_path"`
	VhostUserMac80211Hwsim string `toml:"vhost_user_mac80211_hwsim" yaml:"vhost_user_mac80211_hwsim"`

	WifiTapPrefix   string `toml:"wifi_tap_prefix" yaml:"wifi_tap_prefix"`
	MobileTapPrefix string `toml:"mobile_tap_prefix" yaml:"mobile_tap_prefix"`

	// LogTeeBinary is the binary run as log tee relay. It must support the
	// "logtee" sub command. Defaults to the running executable.
	LogTeeBinary string `toml:"log_tee_binary" yaml:"log_tee_binary"`

	// StartupWindow is how long each started process is watched for an
	// immediate exit.
	StartupWindow time.Duration `toml:"startup_window" yaml:"startup_window"`

	// StopTimeout is how long a process is given to exit after SIGTERM
	// before it is killed.
	StopTimeout time.Duration `toml:"stop_timeout" yaml:"stop_timeout"`

	// StateDB is the path of the launch record database.
	StateDB string `toml:"state_db" yaml:"state_db"`

	// Features disables or enables features by name. Features not listed
	// are enabled.
	Features map[string]bool `toml:"features" yaml:"features"`
}

// ForCurrentInstance returns the prefix with the two-digit instance index
// appended, like "cvd-wtap-01".
func (c *InstanceConfig) ForCurrentInstance(prefix string) string {
	return fmt.Sprintf("%s%02d", prefix, c.Instance)
}

// ForCurrentInstanceNum returns the number base shifted by the instance
// index, so instance 1 gets base itself.
func (c *InstanceConfig) ForCurrentInstanceNum(base int) int {
	return base + c.Instance - 1
}

// WifiTapName returns the name of the tap interface of the wifi network.
func (c *InstanceConfig) WifiTapName() string {
	return c.ForCurrentInstance(c.WifiTapPrefix)
}

// MobileTapName returns the name of the tap interface of the mobile network.
func (c *InstanceConfig) MobileTapName() string {
	return c.ForCurrentInstance(c.MobileTapPrefix)
}

// FeatureEnabled returns false only if the feature is explicitly disabled.
func (c *InstanceConfig) FeatureEnabled(name string) bool {
	enabled, exists := c.Features[name]
	return !exists || enabled
}

// StatePath returns the path of the launch record database.
func (c *InstanceConfig) StatePath() string {
	if c.StateDB != "" {
		return c.StateDB
	}

	return filepath.Join(filepath.Dir(c.InstanceDir), "vdrun_state.db")
}

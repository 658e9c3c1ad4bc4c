// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	defaultLeasesDir       = "/var/run"
	defaultCrosvmBinary    = "crosvm"
	defaultWifiTapPrefix   = "cvd-wtap-"
	defaultMobileTapPrefix = "cvd-mtap-"
	defaultAPImageDevPath  = "/dev/vda2"
	defaultMemoryMB        = 2048
	defaultCPUs            = 2
	defaultStartupWindow   = 500 * time.Millisecond
	defaultStopTimeout     = 5 * time.Second
)

// Load reads the configuration file at the given path, applies defaults and
// validates the result.
//
// The format is chosen by the file extension: ".toml" or ".yaml"/".yml".
func Load(path string) (*InstanceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg InstanceConfig

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeTOML(data, &cfg)
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		err = decoder.Decode(&cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, ext)
	}

	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	err = applyDefaults(&cfg)
	if err != nil {
		return nil, err
	}

	err = Validate(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// decodeTOML decodes data into cfg. Keys without a matching field are
// rejected, like the YAML decoder does.
func decodeTOML(data []byte, cfg *InstanceConfig) error {
	meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	if err != nil {
		return err //nolint:wrapcheck
	}

	undecoded := meta.Undecoded()
	if len(undecoded) > 0 {
		return &ValidationError{Field: undecoded[0].String(), msg: "unknown field"}
	}

	return nil
}

func applyDefaults(cfg *InstanceConfig) error {
	if cfg.Instance == 0 {
		cfg.Instance = 1
	}

	if cfg.VMManager == "" {
		cfg.VMManager = VMManagerCrosvm
	}

	if cfg.InstanceDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("default instance dir: %w", err)
		}

		cfg.InstanceDir = filepath.Join(
			home,
			fmt.Sprintf("cuttlefish_runtime.%d", cfg.Instance),
		)
	}

	defaultString := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}

	defaultString(&cfg.LeasesDir, defaultLeasesDir)
	defaultString(&cfg.CrosvmBinary, defaultCrosvmBinary)
	defaultString(&cfg.GPUMode, GpuModeNone)
	defaultString(&cfg.APImageDevPath, defaultAPImageDevPath)
	defaultString(&cfg.WifiTapPrefix, defaultWifiTapPrefix)
	defaultString(&cfg.MobileTapPrefix, defaultMobileTapPrefix)

	if cfg.LogTeeBinary == "" {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("default log tee binary: %w", err)
		}

		cfg.LogTeeBinary = self
	}

	if cfg.MemoryMB == 0 {
		cfg.MemoryMB = defaultMemoryMB
	}

	if cfg.CPUs == 0 {
		cfg.CPUs = defaultCPUs
	}

	if cfg.StartupWindow == 0 {
		cfg.StartupWindow = defaultStartupWindow
	}

	if cfg.StopTimeout == 0 {
		cfg.StopTimeout = defaultStopTimeout
	}

	return nil
}

// Validate checks the configuration for known inconsistencies.
func Validate(cfg *InstanceConfig) error {
	if cfg.Instance < 1 || cfg.Instance > MaxInstance {
		return &ValidationError{
			Field: "instance",
			msg:   fmt.Sprintf("must be in range 1..%d", MaxInstance),
		}
	}

	switch cfg.VMManager {
	case VMManagerCrosvm, VMManagerQemu:
	default:
		return &ValidationError{
			Field: "vm_manager",
			msg:   "unknown vm manager " + cfg.VMManager,
		}
	}

	if !filepath.IsAbs(cfg.InstanceDir) {
		return &ValidationError{Field: "instance_dir", msg: "must be absolute"}
	}

	if cfg.EnableSandbox && cfg.SeccompPolicyDir == "" {
		return &ValidationError{
			Field: "seccomp_policy_dir",
			msg:   "required if sandbox is enabled",
		}
	}

	if cfg.KernelPath == "" {
		return &ValidationError{Field: "kernel_path", msg: "required"}
	}

	if cfg.StartAP && cfg.APKernelImage == "" {
		return &ValidationError{
			Field: "ap_kernel_image",
			msg:   "required if access point is started",
		}
	}

	return nil
}

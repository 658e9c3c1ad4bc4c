// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package features

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/resource"
)

// InstanceDirs creates the directory tree of the instance.
type InstanceDirs struct {
	cfg *config.InstanceConfig
}

// NewInstanceDirs creates a new [InstanceDirs] feature.
func NewInstanceDirs(cfg *config.InstanceConfig) *InstanceDirs {
	return &InstanceDirs{cfg: cfg}
}

func (*InstanceDirs) Name() string           { return InstanceDirsName }
func (*InstanceDirs) Enabled() bool          { return true }
func (*InstanceDirs) Dependencies() []string { return nil }

func (d *InstanceDirs) Setup(_ context.Context) error {
	dirs := []string{
		d.cfg.InstanceDir,
		filepath.Join(d.cfg.InstanceDir, resource.LogDir),
		filepath.Join(d.cfg.InstanceDir, resource.InternalDir),
		filepath.Join(d.cfg.InstanceDir, resource.ControlSocketDir),
	}

	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0o755)
		if err != nil {
			return fmt.Errorf("create instance directory: %w", err)
		}
	}

	return nil
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aibor/vdrun/internal/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	exitCode := cmd.Run(context.Background(), append([]string{"vdrun"}, args...), cmd.IO{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})

	return exitCode, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	exitCode, stdout, _ := run(t, "", "--version")

	assert.Equal(t, 0, exitCode)
	assert.True(t, strings.HasPrefix(stdout, "Version: "), stdout)
}

func TestRun_LogTee(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "openwrt.log")

	exitCode, stdout, _ := run(t, "booting\nready\n",
		"logtee", "--process-name", "openwrt", "--log-file", logFile)
	require.Equal(t, 0, exitCode)

	assert.Equal(t, "[openwrt] booting\n[openwrt] ready\n", stdout)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "booting\nready\n", string(content))
}

func TestRun_LogTee_MissingFlag(t *testing.T) {
	exitCode, _, stderr := run(t, "", "logtee", "--process-name", "openwrt")

	assert.Equal(t, -1, exitCode)
	assert.Contains(t, stderr, "log-file")
}

func TestRun_Control(t *testing.T) {
	t.Run("no servers", func(t *testing.T) {
		exitCode, stdout, _ := run(t, "", "control", "--socket-dir", t.TempDir(), "ls")
		require.Equal(t, 0, exitCode)

		assert.JSONEq(t, `{"services":[]}`, stdout)
	})

	t.Run("unsupported command", func(t *testing.T) {
		exitCode, _, stderr := run(t, "", "control", "--socket-dir", t.TempDir(), "rm")

		assert.Equal(t, -1, exitCode)
		assert.Contains(t, stderr, "rm")
	})

	t.Run("missing socket dir", func(t *testing.T) {
		exitCode, _, _ := run(t, "", "control", "ls")

		assert.Equal(t, -1, exitCode)
	})
}

func TestRun_Status(t *testing.T) {
	stateDB := filepath.Join(t.TempDir(), "state.db")

	exitCode, stdout, _ := run(t, "", "status", "--state-db", stateDB)
	require.Equal(t, 0, exitCode)

	assert.JSONEq(t, "[]", stdout)
}

func TestRun_Launch_InvalidConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "missing file",
			file: "missing.toml",
		},
		{
			name:    "unknown format",
			file:    "instance.ini",
			content: "instance = 1\n",
		},
		{
			name:    "unsupported backend",
			file:    "backend.toml",
			content: "vm_manager = \"gem5\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if tt.content != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			}

			exitCode, _, _ := run(t, "", "launch", "--config", path)
			assert.Equal(t, -1, exitCode)
		})
	}
}

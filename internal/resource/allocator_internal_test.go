// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aibor/vdrun/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
)

func TestAllocator_AllocatePath(t *testing.T) {
	dir := t.TempDir()
	alloc := NewAllocator(&config.InstanceConfig{InstanceDir: dir})

	tests := []struct {
		name     string
		role     Role
		expected string
	}{
		{
			name:     "image",
			role:     ImageRole("overlay.img"),
			expected: filepath.Join(dir, "overlay.img"),
		},
		{
			name:     "log",
			role:     LogRole("kernel.log"),
			expected: filepath.Join(dir, "logs", "kernel.log"),
		},
		{
			name:     "socket",
			role:     SocketRole("crosvm_control.sock"),
			expected: filepath.Join(dir, "internal", "crosvm_control.sock"),
		},
		{
			name:     "control socket",
			role:     ControlSocketRole("Health"),
			expected: filepath.Join(dir, "grpc_socket", "Health"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := alloc.AllocatePath(tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, path)
			assert.DirExists(t, filepath.Dir(path))

			again, err := alloc.AllocatePath(tt.role)
			require.NoError(t, err)
			assert.Equal(t, path, again, "deterministic")
		})
	}

	t.Run("socket path too long", func(t *testing.T) {
		_, err := alloc.AllocatePath(SocketRole(strings.Repeat("s", maxSocketPathLen)))
		require.ErrorIs(t, err, ErrSocketPathTooLong)
	})

	t.Run("long image path", func(t *testing.T) {
		_, err := alloc.AllocatePath(ImageRole(strings.Repeat("i", maxSocketPathLen)))
		require.NoError(t, err)
	})
}

func TestAllocator_AllocateTap(t *testing.T) {
	pipeFile := func(t *testing.T) *os.File {
		t.Helper()

		reader, writer, err := os.Pipe()
		require.NoError(t, err)

		t.Cleanup(func() { _ = reader.Close() })

		return writer
	}

	tests := []struct {
		name        string
		link        netlink.Link
		linkErr     error
		openErr     error
		expectedErr error
	}{
		{
			name: "tap",
			link: &netlink.Tuntap{Mode: netlink.TUNTAP_MODE_TAP},
		},
		{
			name:        "missing interface",
			linkErr:     assert.AnError,
			expectedErr: &NetworkSetupError{},
		},
		{
			name:        "not a tap",
			link:        &netlink.Dummy{},
			expectedErr: ErrNotTapInterface,
		},
		{
			name:        "open fails",
			link:        &netlink.Tuntap{Mode: netlink.TUNTAP_MODE_TAP},
			openErr:     assert.AnError,
			expectedErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc := NewAllocator(&config.InstanceConfig{})
			alloc.linkByName = func(name string) (netlink.Link, error) {
				assert.Equal(t, "cvd-mtap-01", name)
				return tt.link, tt.linkErr
			}
			alloc.openTap = func(_ string) (*os.File, error) {
				if tt.openErr != nil {
					return nil, tt.openErr
				}

				return pipeFile(t), nil
			}

			tap, err := alloc.AllocateTap("cvd-mtap-01")
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				require.ErrorIs(t, err, &NetworkSetupError{})

				var setupErr *NetworkSetupError
				require.ErrorAs(t, err, &setupErr)
				assert.Equal(t, "cvd-mtap-01", setupErr.Interface)

				return
			}

			require.NoError(t, err)
			t.Cleanup(func() { _ = tap.Close() })

			assert.Equal(t, "cvd-mtap-01", tap.Name())
			assert.True(t, tap.IsOpen())
			assert.True(t, tap.VnetHdr())

			require.NoError(t, tap.Close())
			assert.False(t, tap.IsOpen())
			require.NoError(t, tap.Close(), "second close")
		})
	}
}

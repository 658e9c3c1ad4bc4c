// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

const tunDevice = "/dev/net/tun"

// Tap is an open handle of a tap interface.
type Tap struct {
	name    string
	file    *os.File
	vnetHdr bool

	mu     sync.Mutex
	closed bool
}

// NewTap wraps an open tap device file. If vnetHdr is set, every frame
// written must start with a virtio net header.
func NewTap(name string, file *os.File, vnetHdr bool) *Tap {
	return &Tap{
		name:    name,
		file:    file,
		vnetHdr: vnetHdr,
	}
}

// Name returns the interface name.
func (t *Tap) Name() string {
	return t.name
}

// File returns the open device file.
func (t *Tap) File() *os.File {
	return t.file
}

// VnetHdr returns if frames are prefixed with a virtio net header.
func (t *Tap) VnetHdr() bool {
	return t.vnetHdr
}

// IsOpen returns true if the tap has a device file that is not closed yet.
func (t *Tap) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.file != nil && !t.closed
}

// WriteFrame writes a single ethernet frame to the tap.
func (t *Tap) WriteFrame(frame []byte) error {
	if !t.IsOpen() {
		return ErrTapClosed
	}

	_, err := t.file.Write(frame)
	if err != nil {
		return fmt.Errorf("write frame to %s: %w", t.name, err)
	}

	return nil
}

// Close closes the device file. It is safe to call multiple times.
func (t *Tap) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil || t.closed {
		return nil
	}

	t.closed = true

	return t.file.Close() //nolint:wrapcheck
}

func openTapDevice(name string) (*os.File, error) {
	fd, err := unix.Open(tunDevice, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", tunDevice, err)
	}

	ifReq, err := unix.NewIfreq(name)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("new request: %w", err)
	}

	ifReq.SetUint16(unix.IFF_TAP | unix.IFF_NO_PI | unix.IFF_VNET_HDR)

	err = unix.IoctlIfreq(fd, unix.TUNSETIFF, ifReq)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("ioctl TUNSETIFF: %w", err)
	}

	return os.NewFile(uintptr(fd), tunDevice), nil
}

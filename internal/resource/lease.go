// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/aibor/vdrun/internal/config"
)

// Lease file names of the host DHCP server.
const (
	sharedLeaseFile      = "cuttlefish-dnsmasq-cvd-wbr.leases"
	instanceLeasePrefix  = "cuttlefish-dnsmasq-cvd-wbr-"
	instanceLeaseSuffix  = ".leases"
	leaseFieldCount      = 5
	dhcpServerSubnetBase = "192.168.96.0"
)

// Lease is a single IPv4 lease record of a dnsmasq lease file.
type Lease struct {
	Expiry   string
	MAC      net.HardwareAddr
	IP       net.IP
	Hostname string
	ClientID string
}

// String returns the lease in lease file line format.
func (l Lease) String() string {
	return strings.Join([]string{
		l.Expiry,
		l.MAC.String(),
		l.IP.String(),
		l.Hostname,
		l.ClientID,
	}, " ")
}

// ParseLease parses a single lease file line. It returns false for lines that
// are not IPv4 lease records, like the duid line or IPv6 records.
func ParseLease(line string) (Lease, bool) {
	fields := strings.Fields(line)
	if len(fields) != leaseFieldCount {
		return Lease{}, false
	}

	mac, err := net.ParseMAC(fields[1])
	if err != nil || len(mac) != 6 {
		return Lease{}, false
	}

	ip := net.ParseIP(fields[2]).To4()
	if ip == nil {
		return Lease{}, false
	}

	return Lease{
		Expiry:   fields[0],
		MAC:      mac,
		IP:       ip,
		Hostname: fields[3],
		ClientID: fields[4],
	}, true
}

// ReadLeaseFile returns all lines of a lease file. A missing file results in
// no lines and no error.
func ReadLeaseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("open lease file: %w", err)
	}
	defer file.Close()

	return readLines(file)
}

func readLines(reader io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("scan lease file: %w", err)
	}

	return lines, nil
}

// ReleaseStaleLeases sends a DHCPRELEASE for every IPv4 lease in the given
// lease file through the tap and removes the released leases from the file.
//
// Lines that are not IPv4 leases are kept as they are. Leases that could not
// be released are kept as well and their errors are returned. Running it
// again on the resulting file is a no-op.
func ReleaseStaleLeases(path string, tap *Tap, serverIP net.IP) error {
	lines, err := ReadLeaseFile(path)
	if err != nil {
		return err
	}

	var (
		kept     = make([]string, 0, len(lines))
		released int
		errs     []error
	)

	for _, line := range lines {
		lease, ok := ParseLease(line)
		if !ok {
			kept = append(kept, line)
			continue
		}

		frame, err := DHCPReleaseFrame(lease, serverIP, tap.VnetHdr())
		if err == nil {
			err = tap.WriteFrame(frame)
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", lease.IP, err))
			kept = append(kept, line)

			continue
		}

		slog.Debug("Released DHCP lease",
			slog.String("ip", lease.IP.String()),
			slog.String("mac", lease.MAC.String()),
			slog.String("interface", tap.Name()),
		)

		released++
	}

	if released > 0 {
		err := writeFileAtomic(path, formatLines(kept), 0o644)
		if err != nil {
			errs = append(errs, fmt.Errorf("rewrite lease file: %w", err))
		}
	}

	return errors.Join(errs...)
}

func formatLines(lines []string) []byte {
	var builder strings.Builder

	for _, line := range lines {
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	return []byte(builder.String())
}

// writeFileAtomic writes into a temporary file in the same directory and
// renames it to the target path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// InstanceLeaseFile returns the path of the lease file of the wifi network of
// the given instance.
func InstanceLeaseFile(leasesDir string, instance int) string {
	name := fmt.Sprintf("%s%02d%s", instanceLeasePrefix, instance, instanceLeaseSuffix)
	return filepath.Join(leasesDir, name)
}

// DHCPServerIP returns the address of the DHCP server of the wifi network of
// the given instance. Each instance has a /30 network in 192.168.96.0/24.
func DHCPServerIP(instance int) (net.IP, error) {
	if instance < 1 || instance > config.MaxInstance {
		return nil, fmt.Errorf("%w: %d", ErrInstanceOutOfRange, instance)
	}

	ip := net.ParseIP(dhcpServerSubnetBase).To4()
	ip[3] = byte(4*instance - 3)

	return ip, nil
}

// CleanupStaleLeases releases stale leases of the instance's wifi network
// through the given tap.
//
// It only runs if the host does not use the shared bridge lease file, since
// that setup has a wider address space, and if the tap is open. A lease file
// that cannot be stat'ed counts as absent. Failures are
// logged and do not prevent the startup. Returns whether a cleanup was
// attempted.
func (a *Allocator) CleanupStaleLeases(tap *Tap) bool {
	_, err := os.Stat(filepath.Join(a.cfg.LeasesDir, sharedLeaseFile))
	if err == nil {
		return false
	}

	if tap == nil || !tap.IsOpen() {
		return false
	}

	leaseFile := InstanceLeaseFile(a.cfg.LeasesDir, a.cfg.Instance)

	serverIP, err := DHCPServerIP(a.cfg.Instance)
	if err == nil {
		err = ReleaseStaleLeases(leaseFile, tap, serverIP)
	}

	if err != nil {
		slog.Error("Failed to release wifi DHCP leases. Connecting to the wifi network may not work.",
			slog.String("lease_file", leaseFile),
			slog.Any("error", err),
		)
	}

	return true
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package resource_test

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/vdrun/internal/config"
	"github.com/aibor/vdrun/internal/resource"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	duidLine   = "duid 00:01:00:01:2c:1f:3a:7e:52:54:00:12:34:56"
	leaseLine1 = "1700000000 02:00:00:00:00:01 192.168.96.2 android 01:02:00:00:00:00:01"
	leaseLine2 = "1700000050 02:00:00:00:00:02 192.168.96.2 * *"
	ipv6Line   = "1700000100 1234567 fd00::10 android6 00:01:00:01:2c:1f:3a:7e"
)

// releaseFrameLen returns the length of a release frame without virtio net
// header.
func releaseFrameLen(t *testing.T) int {
	t.Helper()

	lease, ok := resource.ParseLease(leaseLine1)
	require.True(t, ok)

	frame, err := resource.DHCPReleaseFrame(lease, net.IPv4(192, 168, 96, 1), false)
	require.NoError(t, err)

	return len(frame)
}

type releaseFrame struct {
	eth  *layers.Ethernet
	ip   *layers.IPv4
	udp  *layers.UDP
	dhcp *dhcpv4.DHCPv4
}

func decodeReleaseFrame(t *testing.T, frame []byte) releaseFrame {
	t.Helper()

	packet := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)

	var (
		decoded releaseFrame
		ok      bool
	)

	decoded.eth, ok = packet.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	require.True(t, ok, "ethernet layer")
	decoded.ip, ok = packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	require.True(t, ok, "ipv4 layer")
	decoded.udp, ok = packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
	require.True(t, ok, "udp layer")

	var err error

	decoded.dhcp, err = dhcpv4.FromBytes(decoded.udp.Payload)
	require.NoError(t, err)

	return decoded
}

func newPipeTap(t *testing.T, vnetHdr bool) (*resource.Tap, *os.File) {
	t.Helper()

	reader, writer, err := os.Pipe()
	require.NoError(t, err)

	tap := resource.NewTap("cvd-wtap-01", writer, vnetHdr)

	t.Cleanup(func() {
		_ = tap.Close()
		_ = reader.Close()
	})

	return tap, reader
}

func writeLeaseFile(t *testing.T, dir string, lines ...string) string {
	t.Helper()

	path := resource.InstanceLeaseFile(dir, 1)

	var content string
	for _, line := range lines {
		content += line + "\n"
	}

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestParseLease(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected bool
	}{
		{name: "ipv4 lease", line: leaseLine1, expected: true},
		{name: "wildcard fields", line: leaseLine2, expected: true},
		{name: "duid", line: duidLine},
		{name: "ipv6 lease", line: ipv6Line},
		{name: "empty", line: ""},
		{name: "bad mac", line: "1 zz:00:00:00:00:01 192.168.96.2 a b"},
		{name: "too few fields", line: "1 02:00:00:00:00:01 192.168.96.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lease, ok := resource.ParseLease(tt.line)
			assert.Equal(t, tt.expected, ok)

			if ok {
				assert.Equal(t, tt.line, lease.String())
			}
		})
	}
}

func TestDHCPServerIP(t *testing.T) {
	tests := []struct {
		instance    int
		expected    string
		expectedErr error
	}{
		{instance: 1, expected: "192.168.96.1"},
		{instance: 2, expected: "192.168.96.5"},
		{instance: 5, expected: "192.168.96.17"},
		{instance: 64, expected: "192.168.96.253"},
		{instance: 0, expectedErr: resource.ErrInstanceOutOfRange},
		{instance: 65, expectedErr: resource.ErrInstanceOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			ip, err := resource.DHCPServerIP(tt.instance)
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedErr == nil {
				assert.Equal(t, tt.expected, ip.String())
			}
		})
	}
}

func TestInstanceLeaseFile(t *testing.T) {
	assert.Equal(t,
		"/var/run/cuttlefish-dnsmasq-cvd-wbr-07.leases",
		resource.InstanceLeaseFile("/var/run", 7),
	)
}

func TestReleaseStaleLeases(t *testing.T) {
	serverIP := net.IPv4(192, 168, 96, 1)

	t.Run("missing file", func(t *testing.T) {
		tap, _ := newPipeTap(t, false)
		path := filepath.Join(t.TempDir(), "missing.leases")

		require.NoError(t, resource.ReleaseStaleLeases(path, tap, serverIP))
		assert.NoFileExists(t, path)
	})

	t.Run("no leases", func(t *testing.T) {
		tap, _ := newPipeTap(t, false)
		path := writeLeaseFile(t, t.TempDir(), duidLine)

		require.NoError(t, resource.ReleaseStaleLeases(path, tap, serverIP))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, duidLine+"\n", string(content))
	})

	t.Run("release", func(t *testing.T) {
		tap, reader := newPipeTap(t, false)
		path := writeLeaseFile(t, t.TempDir(), duidLine, leaseLine1, ipv6Line, leaseLine2)

		require.NoError(t, resource.ReleaseStaleLeases(path, tap, serverIP))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, duidLine+"\n"+ipv6Line+"\n", string(content))

		for _, mac := range []string{"02:00:00:00:00:01", "02:00:00:00:00:02"} {
			frame := make([]byte, releaseFrameLen(t))
			_, err := io.ReadFull(reader, frame)
			require.NoError(t, err)

			assert.Equal(t, mac, net.HardwareAddr(frame[6:12]).String())
		}

		// Running again is a no-op, nothing is sent.
		require.NoError(t, resource.ReleaseStaleLeases(path, tap, serverIP))

		again, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, again)

		require.NoError(t, tap.Close())

		rest, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Empty(t, rest)
	})

	t.Run("closed tap keeps leases", func(t *testing.T) {
		tap, _ := newPipeTap(t, false)
		require.NoError(t, tap.Close())

		path := writeLeaseFile(t, t.TempDir(), leaseLine1)

		err := resource.ReleaseStaleLeases(path, tap, serverIP)
		require.ErrorIs(t, err, resource.ErrTapClosed)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, leaseLine1+"\n", string(content))
	})
}

func TestDHCPReleaseFrame(t *testing.T) {
	lease, ok := resource.ParseLease(leaseLine1)
	require.True(t, ok)

	serverIP := net.IPv4(192, 168, 96, 1)

	t.Run("layout", func(t *testing.T) {
		frame, err := resource.DHCPReleaseFrame(lease, serverIP, false)
		require.NoError(t, err)

		decoded := decodeReleaseFrame(t, frame)

		assert.Equal(t, "ff:ff:ff:ff:ff:ff", decoded.eth.DstMAC.String(), "eth dst")
		assert.Equal(t, "02:00:00:00:00:01", decoded.eth.SrcMAC.String(), "eth src")
		assert.Equal(t, layers.EthernetTypeIPv4, decoded.eth.EthernetType, "ether type")

		assert.Equal(t, layers.IPProtocolUDP, decoded.ip.Protocol, "ip proto")
		assert.Equal(t, "192.168.96.2", decoded.ip.SrcIP.String(), "ip src")
		assert.Equal(t, "192.168.96.1", decoded.ip.DstIP.String(), "ip dst")
		assert.Equal(t, len(frame)-14, int(decoded.ip.Length), "ip length")
		assert.NotZero(t, decoded.ip.Checksum, "ip checksum")

		assert.Equal(t, layers.UDPPort(68), decoded.udp.SrcPort, "udp src port")
		assert.Equal(t, layers.UDPPort(67), decoded.udp.DstPort, "udp dst port")
		assert.Equal(t, len(frame)-34, int(decoded.udp.Length), "udp length")
		assert.NotZero(t, decoded.udp.Checksum, "udp checksum")

		msg := decoded.dhcp
		assert.Equal(t, dhcpv4.OpcodeBootRequest, msg.OpCode, "op")
		assert.Equal(t, dhcpv4.MessageTypeRelease, msg.MessageType(), "message type")
		assert.Equal(t, "02:00:00:00:00:01", msg.ClientHWAddr.String(), "chaddr")
		assert.Equal(t, "192.168.96.2", msg.ClientIPAddr.String(), "ciaddr")
		assert.Equal(t, "192.168.96.1", msg.ServerIdentifier().String(), "server id")
		assert.NotEqual(t, dhcpv4.TransactionID{192, 168, 96, 2}, msg.TransactionID, "xid")
	})

	t.Run("vnet header", func(t *testing.T) {
		frame, err := resource.DHCPReleaseFrame(lease, serverIP, true)
		require.NoError(t, err)
		require.Len(t, frame, resource.VnetHdrLen+releaseFrameLen(t))

		assert.Equal(t, make([]byte, resource.VnetHdrLen), frame[:resource.VnetHdrLen])

		decoded := decodeReleaseFrame(t, frame[resource.VnetHdrLen:])
		assert.Equal(t, dhcpv4.MessageTypeRelease, decoded.dhcp.MessageType())
	})

	t.Run("invalid server", func(t *testing.T) {
		_, err := resource.DHCPReleaseFrame(lease, net.ParseIP("fd00::1"), false)
		require.ErrorIs(t, err, resource.ErrInvalidAddress)
	})
}

func TestAllocator_CleanupStaleLeases(t *testing.T) {
	setup := func(t *testing.T) (*resource.Allocator, string) {
		t.Helper()

		dir := t.TempDir()
		cfg := &config.InstanceConfig{
			Instance:    1,
			InstanceDir: filepath.Join(dir, "instance"),
			LeasesDir:   dir,
		}

		return resource.NewAllocator(cfg), dir
	}

	t.Run("releases", func(t *testing.T) {
		alloc, dir := setup(t)
		tap, reader := newPipeTap(t, false)
		path := writeLeaseFile(t, dir, leaseLine1)

		assert.True(t, alloc.CleanupStaleLeases(tap))

		frame := make([]byte, releaseFrameLen(t))
		_, err := io.ReadFull(reader, frame)
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Empty(t, content)
	})

	t.Run("shared lease file exists", func(t *testing.T) {
		alloc, dir := setup(t)
		tap, _ := newPipeTap(t, false)
		path := writeLeaseFile(t, dir, leaseLine1)

		shared := filepath.Join(dir, "cuttlefish-dnsmasq-cvd-wbr.leases")
		require.NoError(t, os.WriteFile(shared, nil, 0o644))

		assert.False(t, alloc.CleanupStaleLeases(tap))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, leaseLine1+"\n", string(content))
	})

	t.Run("shared lease file not accessible", func(t *testing.T) {
		dir := t.TempDir()
		leasesDir := filepath.Join(dir, "leases")
		require.NoError(t, os.WriteFile(leasesDir, nil, 0o644))

		alloc := resource.NewAllocator(&config.InstanceConfig{
			Instance:    1,
			InstanceDir: filepath.Join(dir, "instance"),
			LeasesDir:   leasesDir,
		})
		tap, _ := newPipeTap(t, false)

		assert.True(t, alloc.CleanupStaleLeases(tap))
	})

	t.Run("tap closed", func(t *testing.T) {
		alloc, _ := setup(t)
		tap, _ := newPipeTap(t, false)
		require.NoError(t, tap.Close())

		assert.False(t, alloc.CleanupStaleLeases(tap))
	})

	t.Run("failure is not fatal", func(t *testing.T) {
		alloc, dir := setup(t)
		tap, reader := newPipeTap(t, false)
		require.NoError(t, reader.Close())

		writeLeaseFile(t, dir, leaseLine1)

		assert.True(t, alloc.CleanupStaleLeases(tap))
	})
}

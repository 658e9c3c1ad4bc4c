// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/insomniacslk/dhcp/dhcpv4"
)

// VnetHdrLen is the length of the virtio net header taps opened with
// IFF_VNET_HDR expect in front of every frame.
const VnetHdrLen = 10

const (
	dhcpClientPort = 68
	dhcpServerPort = 67
	ipTTL          = 64
)

// DHCPReleaseFrame builds an ethernet frame containing a DHCPRELEASE message
// for the given lease sent by the leasing client to the given server.
//
// If vnetHdr is set, the frame is prefixed with an empty virtio net header.
func DHCPReleaseFrame(lease Lease, serverIP net.IP, vnetHdr bool) ([]byte, error) {
	clientIP := lease.IP.To4()
	server := serverIP.To4()

	if clientIP == nil || server == nil || len(lease.MAC) != 6 {
		return nil, ErrInvalidAddress
	}

	msg, err := dhcpv4.New(
		dhcpv4.WithMessageType(dhcpv4.MessageTypeRelease),
		dhcpv4.WithHwAddr(lease.MAC),
		dhcpv4.WithClientIP(clientIP),
		dhcpv4.WithOption(dhcpv4.OptServerIdentifier(server)),
	)
	if err != nil {
		return nil, fmt.Errorf("dhcp release message: %w", err)
	}

	// The server's hardware address is unknown, so broadcast.
	eth := &layers.Ethernet{
		SrcMAC:       lease.MAC,
		DstMAC:       layers.EthernetBroadcast,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      ipTTL,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    clientIP,
		DstIP:    server,
	}
	udp := &layers.UDP{
		SrcPort: dhcpClientPort,
		DstPort: dhcpServerPort,
	}

	err = udp.SetNetworkLayerForChecksum(ip)
	if err != nil {
		return nil, fmt.Errorf("udp checksum layer: %w", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}

	err = gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(msg.ToBytes()))
	if err != nil {
		return nil, fmt.Errorf("serialize release frame: %w", err)
	}

	if !vnetHdr {
		return buf.Bytes(), nil
	}

	return append(make([]byte, VnetHdrLen), buf.Bytes()...), nil
}

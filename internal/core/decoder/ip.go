// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"firestige.xyz/dissect/internal/core"
)

const (
	IPv4HeaderMinLen = 20
	IPv4HeaderMaxLen = 60
)

// DecodeIPv4 decodes an IPv4 header.
// Returns the header, its options and the remaining bytes after the header.
func DecodeIPv4(data []byte) (core.IPv4Header, []byte, []byte, error) {
	if len(data) < IPv4HeaderMinLen {
		return core.IPv4Header{}, nil, nil, fmt.Errorf("%w: ipv4 header needs %d bytes, have %d",
			core.ErrBufferUnderrun, IPv4HeaderMinLen, len(data))
	}

	ip := core.IPv4Header{
		Version: data[0] >> 4,
		IHL:     data[0] & 0x0F, // in 32-bit words
	}
	if ip.Version != 4 {
		return ip, nil, nil, fmt.Errorf("%w: ip version %d", core.ErrUnsupportedProto, ip.Version)
	}

	headerLen := ip.HeaderLen()
	if headerLen < IPv4HeaderMinLen {
		return ip, nil, nil, fmt.Errorf("%w: ipv4 header length %d", core.ErrInvalidLength, headerLen)
	}
	if len(data) < headerLen {
		return ip, nil, nil, fmt.Errorf("%w: ipv4 header declares %d bytes, have %d",
			core.ErrBufferUnderrun, headerLen, len(data))
	}

	ip.TOS = data[1]
	ip.TotalLen = binary.BigEndian.Uint16(data[2:4])
	ip.ID = binary.BigEndian.Uint16(data[4:6])
	ip.FragOff = binary.BigEndian.Uint16(data[6:8])
	ip.TTL = data[8]
	ip.Protocol = data[9]
	ip.Checksum = binary.BigEndian.Uint16(data[10:12])
	ip.SrcIP = netip.AddrFrom4([4]byte(data[12:16]))
	ip.DstIP = netip.AddrFrom4([4]byte(data[16:20]))

	options := data[IPv4HeaderMinLen:headerLen]
	return ip, options, data[headerLen:], nil
}

// PutIPv4 writes ip and its options into b and returns the bytes written.
// The checksum field is written as found in ip. b must hold the full header.
func PutIPv4(b []byte, ip *core.IPv4Header, options []byte) int {
	n := IPv4HeaderMinLen + len(options)
	_ = b[n-1]

	b[0] = 4<<4 | ip.IHL&0x0F
	b[1] = ip.TOS
	binary.BigEndian.PutUint16(b[2:4], ip.TotalLen)
	binary.BigEndian.PutUint16(b[4:6], ip.ID)
	binary.BigEndian.PutUint16(b[6:8], ip.FragOff)
	b[8] = ip.TTL
	b[9] = ip.Protocol
	binary.BigEndian.PutUint16(b[10:12], ip.Checksum)
	src, dst := ip.SrcIP.As4(), ip.DstIP.As4()
	copy(b[12:16], src[:])
	copy(b[16:20], dst[:])
	copy(b[IPv4HeaderMinLen:n], options)
	return n
}

// IPv4HeaderChecksum computes the checksum of an encoded IPv4 header,
// treating its checksum field as zero.
func IPv4HeaderChecksum(hdr []byte) uint16 {
	if len(hdr) < IPv4HeaderMinLen {
		return 0
	}
	saved := [2]byte{hdr[10], hdr[11]}
	hdr[10], hdr[11] = 0, 0
	sum := Checksum(hdr)
	hdr[10], hdr[11] = saved[0], saved[1]
	return sum
}

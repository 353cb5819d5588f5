// Package core defines core types with zero external dependencies.
package core

import "net/netip"

// Direction tells which side of a point-to-point link sent a frame.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	DirectionToHost            // received by the capturing host
	DirectionFromHost          // sent by the capturing host
)

// String returns the direction tag used in configuration and CLI input.
func (d Direction) String() string {
	switch d {
	case DirectionToHost:
		return "to-host"
	case DirectionFromHost:
		return "from-host"
	default:
		return "unknown"
	}
}

// ParseDirection maps a direction tag back to a Direction.
// Anything unrecognised yields DirectionUnknown.
func ParseDirection(s string) Direction {
	switch s {
	case "to-host", "in", "recv":
		return DirectionToHost
	case "from-host", "out", "sent":
		return DirectionFromHost
	default:
		return DirectionUnknown
	}
}

// IPv4Header is the fixed 20-byte IPv4 header. Options are kept separately.
type IPv4Header struct {
	Version  uint8
	IHL      uint8 // header length in 32-bit words, options included
	TOS      uint8
	TotalLen uint16
	ID       uint16
	FragOff  uint16 // flags (3 bits) + fragment offset (13 bits)
	TTL      uint8
	Protocol uint8 // TCP=6, UDP=17
	Checksum uint16
	SrcIP    netip.Addr
	DstIP    netip.Addr
}

// HeaderLen returns the IPv4 header length in bytes.
func (h *IPv4Header) HeaderLen() int { return int(h.IHL) * 4 }

// TCP flag bits as they appear in byte 13 of the TCP header.
const (
	TCPFlagFIN uint8 = 0x01
	TCPFlagSYN uint8 = 0x02
	TCPFlagRST uint8 = 0x04
	TCPFlagPSH uint8 = 0x08
	TCPFlagACK uint8 = 0x10
	TCPFlagURG uint8 = 0x20
)

// TCPHeader is the fixed 20-byte TCP header. Options are kept separately.
type TCPHeader struct {
	SrcPort    uint16
	DstPort    uint16
	Seq        uint32
	Ack        uint32
	DataOffset uint8 // header length in 32-bit words, options included
	Flags      uint8
	Window     uint16
	Checksum   uint16
	Urgent     uint16
}

// HeaderLen returns the TCP header length in bytes.
func (h *TCPHeader) HeaderLen() int { return int(h.DataOffset) * 4 }

// PPPHeader is the PPP header in front of a link-layer payload.
type PPPHeader struct {
	AddressControl bool   // 0xFF 0x03 present
	Protocol       uint16 // e.g. 0x0021 IP, 0x002d VJ compressed, 0x002f VJ uncompressed
}

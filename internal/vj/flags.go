// Package vj implements Van Jacobson TCP/IP header compression (RFC 1144):
// a per-direction decompressor with its connection slot table, the matching
// compressor, and a session that pairs two directions with a revisit cache.
package vj

import "firestige.xyz/dissect/internal/core/decoder"

// Change mask bits of a compressed header.
const (
	NewU    uint8 = 0x01 // urgent pointer present
	NewW    uint8 = 0x02 // window delta
	NewA    uint8 = 0x04 // ack delta
	NewS    uint8 = 0x08 // sequence delta
	TCPPush uint8 = 0x10 // PSH flag set
	NewI    uint8 = 0x20 // IP id delta other than 1
	NewC    uint8 = 0x40 // explicit connection id

	// Combinations that cannot occur as plain deltas carry implied changes.
	SpecialI     = NewS | NewW | NewU         // echoed interactive traffic
	SpecialD     = NewS | NewA | NewW | NewU // unidirectional data
	SpecialsMask = NewS | NewA | NewW | NewU
)

// MaxSlots is the size of a full slot table.
const MaxSlots = 256

// Kind is the framing of a packet on a VJ link.
type Kind uint8

const (
	KindIP Kind = iota
	KindUncompressed
	KindCompressed
)

func (k Kind) String() string {
	switch k {
	case KindIP:
		return "ip"
	case KindUncompressed:
		return "uncompressed"
	case KindCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// PPPProtocol returns the PPP protocol number carrying frames of kind k.
func (k Kind) PPPProtocol() uint16 {
	switch k {
	case KindUncompressed:
		return decoder.PPPProtocolVJUncomp
	case KindCompressed:
		return decoder.PPPProtocolVJComp
	default:
		return decoder.PPPProtocolIP
	}
}

// KindFromPPP maps a PPP protocol number to a frame kind.
func KindFromPPP(proto uint16) (Kind, bool) {
	switch proto {
	case decoder.PPPProtocolIP:
		return KindIP, true
	case decoder.PPPProtocolVJUncomp:
		return KindUncompressed, true
	case decoder.PPPProtocolVJComp:
		return KindCompressed, true
	default:
		return 0, false
	}
}

// ParseKind maps a kind name (ip, uncomp, comp or the full names) to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "ip":
		return KindIP, true
	case "uncomp", "uncompressed":
		return KindUncompressed, true
	case "comp", "compressed":
		return KindCompressed, true
	default:
		return 0, false
	}
}

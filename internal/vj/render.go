package vj

import (
	"fmt"
	"strings"

	"firestige.xyz/dissect/internal/core"
)

// ChangeMaskString renders a change mask as letters, C I P S A W U, with
// '-' for clear bits and the special combinations named.
func ChangeMaskString(changes uint8) string {
	const letters = "CIPSAWU"
	var sb strings.Builder
	for i := 0; i < len(letters); i++ {
		if changes&(0x40>>i) != 0 {
			sb.WriteByte(letters[i])
		} else {
			sb.WriteByte('-')
		}
	}
	switch changes & SpecialsMask {
	case SpecialI:
		sb.WriteString(" (echoed interactive)")
	case SpecialD:
		sb.WriteString(" (unidirectional data)")
	}
	return sb.String()
}

// Info returns the one-line summary of p.
func (p *Packet) Info() string {
	switch p.Kind {
	case KindCompressed:
		return fmt.Sprintf("VJ compressed TCP/IP slot=%d changes=%s seq=%d ack=%d", p.Slot, ChangeMaskString(p.Changes), p.TCP.Seq, p.TCP.Ack)
	case KindUncompressed:
		return fmt.Sprintf("VJ uncompressed TCP/IP slot=%d", p.Slot)
	default:
		return "IP"
	}
}

// RenderPacket builds the display tree for a decoded frame. raw is the frame
// as received.
func RenderPacket(p *Packet, raw []byte) *core.Node {
	root := core.NewNode(p.Info(), core.KindGroup, nil, 0, len(raw))
	switch p.Kind {
	case KindCompressed:
		root.Add(core.NewNode("Change mask", core.KindText, fmt.Sprintf("0x%02x %s", p.Changes, ChangeMaskString(p.Changes)), 0, 1))
		off := 1
		if p.Changes&NewC != 0 {
			root.Add(core.NewNode("Connection number", core.KindUint, p.Slot, off, 1))
			off++
		}
		root.Add(core.NewNode("TCP checksum", core.KindUint, fmt.Sprintf("0x%04x", p.TCP.Checksum), off, 2))
		if p.CompressedLen > off+2 {
			root.Add(core.NewNode("Deltas", core.KindBytes, raw[off+2:p.CompressedLen], off+2, p.CompressedLen-off-2))
		}
		root.Add(core.NewNode("Payload length", core.KindUint, len(raw)-p.CompressedLen, p.CompressedLen, len(raw)-p.CompressedLen))
	case KindUncompressed:
		root.Add(core.NewNode("Connection number", core.KindUint, p.Slot, 9, 1))
	}
	root.Add(handoffTree(Handoff(p)))
	return root
}

// RenderFailure shows an undecodable frame as raw bytes with the reason.
func RenderFailure(kind Kind, raw []byte, err error) *core.Node {
	label := "VJ " + kind.String() + " TCP/IP"
	root := core.NewNode(label, core.KindGroup, nil, 0, len(raw))
	root.Add(core.RawNode("Data", raw, 0, err.Error()))
	return root
}

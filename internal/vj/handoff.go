package vj

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/dissect/internal/core"
)

// Handoff decodes the packet's IP datagram with gopacket, as the next
// dissector in line would.
func Handoff(p *Packet) gopacket.Packet {
	return gopacket.NewPacket(p.Data, layers.LayerTypeIPv4, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
}

// handoffTree renders the gopacket layers of pkt.
func handoffTree(pkt gopacket.Packet) *core.Node {
	root := core.NewNode("Decompressed packet", core.KindGroup, nil, 0, len(pkt.Data()))
	off := 0
	for _, l := range pkt.Layers() {
		n := core.NewNode(l.LayerType().String(), core.KindGroup, nil, off, len(l.LayerContents()))
		switch l := l.(type) {
		case *layers.IPv4:
			n.Add(core.NewNode("Source", core.KindAddress, l.SrcIP.String(), off+12, 4))
			n.Add(core.NewNode("Destination", core.KindAddress, l.DstIP.String(), off+16, 4))
			n.Add(core.NewNode("Total Length", core.KindUint, l.Length, off+2, 2))
			n.Add(core.NewNode("Identification", core.KindUint, fmt.Sprintf("0x%04x", l.Id), off+4, 2))
			n.Add(core.NewNode("Time to Live", core.KindUint, l.TTL, off+8, 1))
			n.Add(core.NewNode("Header Checksum", core.KindUint, fmt.Sprintf("0x%04x", l.Checksum), off+10, 2))
		case *layers.TCP:
			n.Add(core.NewNode("Source Port", core.KindUint, uint16(l.SrcPort), off, 2))
			n.Add(core.NewNode("Destination Port", core.KindUint, uint16(l.DstPort), off+2, 2))
			n.Add(core.NewNode("Sequence Number", core.KindUint, l.Seq, off+4, 4))
			n.Add(core.NewNode("Acknowledgment Number", core.KindUint, l.Ack, off+8, 4))
			n.Add(core.NewNode("Flags", core.KindText, tcpFlags(l), off+13, 1))
			n.Add(core.NewNode("Window", core.KindUint, l.Window, off+14, 2))
			n.Add(core.NewNode("Checksum", core.KindUint, fmt.Sprintf("0x%04x", l.Checksum), off+16, 2))
			if l.URG {
				n.Add(core.NewNode("Urgent Pointer", core.KindUint, l.Urgent, off+18, 2))
			}
		case gopacket.ErrorLayer:
			n.Note("%v", l.Error())
		}
		root.Add(n)
		off += len(l.LayerContents())
	}
	return root
}

func tcpFlags(l *layers.TCP) string {
	flags := ""
	for _, f := range []struct {
		set  bool
		name string
	}{{l.FIN, "FIN"}, {l.SYN, "SYN"}, {l.RST, "RST"}, {l.PSH, "PSH"}, {l.ACK, "ACK"}, {l.URG, "URG"}} {
		if f.set {
			if flags != "" {
				flags += ","
			}
			flags += f.name
		}
	}
	return flags
}

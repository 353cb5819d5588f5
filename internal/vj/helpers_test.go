package vj

import (
	"bytes"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
)

type segment struct {
	srcPort, dstPort uint16
	seq, ack         uint32
	window           uint16
	id               uint16
	syn, psh, urg    bool
	urgent           uint16
	payload          []byte
}

// tcpPacket serializes an IPv4/TCP packet with valid checksums.
func tcpPacket(t *testing.T, s segment) []byte {
	t.Helper()
	if s.srcPort == 0 {
		s.srcPort, s.dstPort = 1025, 23
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Id:       s.id,
		Flags:    layers.IPv4DontFragment,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(10, 0, 0, 2),
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(s.srcPort),
		DstPort: layers.TCPPort(s.dstPort),
		Seq:     s.seq,
		Ack:     s.ack,
		Window:  s.window,
		ACK:     !s.syn,
		SYN:     s.syn,
		PSH:     s.psh,
		URG:     s.urg,
		Urgent:  s.urgent,
	}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ip, tcp, gopacket.Payload(s.payload)))
	return bytes.Clone(buf.Bytes())
}

// uncompressed replaces the protocol byte with the slot id.
func uncompressed(pkt []byte, slot uint8) []byte {
	out := bytes.Clone(pkt)
	out[9] = slot
	return out
}

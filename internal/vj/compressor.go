package vj

import (
	"bytes"
	"fmt"
	"net/netip"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/core/decoder"
)

type connKey struct {
	src, dst         netip.Addr
	srcPort, dstPort uint16
}

type compSlot struct {
	conn ConnectionState
}

// Compressor is the sending side of a VJ link. It is not safe for
// concurrent use.
type Compressor struct {
	slots    []compSlot
	conns    *simplelru.LRU[connKey, int] // connection → slot id
	lastSlot int
	// compressSlotID omits the connection id when it repeats.
	compressSlotID bool
}

// NewCompressor creates a compressor using slot ids 0..maxSlot.
func NewCompressor(maxSlot int, compressSlotID bool) *Compressor {
	maxSlot = max(0, min(maxSlot, MaxSlots-1))
	// size is at least 1, the only NewLRU error
	conns, _ := simplelru.NewLRU[connKey, int](maxSlot+1, nil)
	return &Compressor{
		slots:          make([]compSlot, maxSlot+1),
		conns:          conns,
		lastSlot:       -1,
		compressSlotID: compressSlotID,
	}
}

// Compress frames an IP packet for the link. Packets that are not plain
// established TCP go out as KindIP; new or irregular TCP packets go out
// uncompressed with the slot id in the protocol byte; the rest are reduced
// to a compressed header followed by the TCP payload.
func (c *Compressor) Compress(pkt []byte) (Kind, []byte, error) {
	ip, ipOpts, rest, err := decoder.DecodeIPv4(pkt)
	if err != nil {
		return KindIP, nil, fmt.Errorf("%w: %w", core.ErrNotCompressible, err)
	}
	if ip.Protocol != decoder.ProtocolTCP || ip.FragOff&0x3fff != 0 || int(ip.TotalLen) != len(pkt) {
		return KindIP, pkt, nil
	}
	tcp, tcpOpts, payload, err := decoder.DecodeTCP(rest)
	if err != nil {
		return KindIP, pkt, nil
	}
	if tcp.Flags&(core.TCPFlagSYN|core.TCPFlagFIN|core.TCPFlagRST|core.TCPFlagACK) != core.TCPFlagACK {
		return KindIP, pkt, nil
	}

	key := connKey{src: ip.SrcIP, dst: ip.DstIP, srcPort: tcp.SrcPort, dstPort: tcp.DstPort}
	id, found := c.lookup(key)
	s := &c.slots[id]
	if !found {
		return c.uncompressed(s, id, pkt, ip, tcp, ipOpts, tcpOpts)
	}

	old := &s.conn
	if !old.sameStream(ip, tcp, ipOpts, tcpOpts) {
		return c.uncompressed(s, id, pkt, ip, tcp, ipOpts, tcpOpts)
	}

	var changes uint8
	var deltas []byte

	if tcp.Flags&core.TCPFlagURG != 0 {
		deltas = appendDeltaZ(deltas, tcp.Urgent)
		changes |= NewU
	} else if tcp.Urgent != old.TCP.Urgent {
		return c.uncompressed(s, id, pkt, ip, tcp, ipOpts, tcpOpts)
	}
	if dw := tcp.Window - old.TCP.Window; dw != 0 {
		deltas = appendDelta(deltas, dw)
		changes |= NewW
	}
	da := tcp.Ack - old.TCP.Ack
	if da != 0 {
		if da > 0xffff {
			return c.uncompressed(s, id, pkt, ip, tcp, ipOpts, tcpOpts)
		}
		deltas = appendDelta(deltas, uint16(da))
		changes |= NewA
	}
	ds := tcp.Seq - old.TCP.Seq
	if ds != 0 {
		if ds > 0xffff {
			return c.uncompressed(s, id, pkt, ip, tcp, ipOpts, tcpOpts)
		}
		deltas = appendDelta(deltas, uint16(ds))
		changes |= NewS
	}

	oldPayload := uint32(old.IP.TotalLen) - uint32(old.HeaderLen())
	switch changes {
	case 0:
		// Data after a pure ack is the normal interactive case. Anything
		// else with no change is a retransmit or window probe.
		if ip.TotalLen == old.IP.TotalLen || oldPayload != 0 {
			return c.uncompressed(s, id, pkt, ip, tcp, ipOpts, tcpOpts)
		}
	case SpecialI, SpecialD:
		return c.uncompressed(s, id, pkt, ip, tcp, ipOpts, tcpOpts)
	case NewS | NewA:
		if ds == da && ds == oldPayload {
			changes, deltas = SpecialI, nil
		}
	case NewS:
		if ds == oldPayload {
			changes, deltas = SpecialD, nil
		}
	}

	if di := ip.ID - old.IP.ID; di != 1 {
		deltas = appendDeltaZ(deltas, di)
		changes |= NewI
	}
	if tcp.Flags&core.TCPFlagPSH != 0 {
		changes |= TCPPush
	}

	s.conn.set(ip, tcp, ipOpts, tcpOpts)

	out := make([]byte, 0, 4+len(deltas)+len(payload))
	if c.compressSlotID && id == c.lastSlot {
		out = append(out, changes)
	} else {
		out = append(out, changes|NewC, byte(id))
	}
	c.lastSlot = id
	out = append(out, byte(tcp.Checksum>>8), byte(tcp.Checksum))
	out = append(out, deltas...)
	out = append(out, payload...)
	return KindCompressed, out, nil
}

// uncompressed stores the headers in slot id and returns pkt with the slot id
// in place of the protocol byte.
func (c *Compressor) uncompressed(s *compSlot, id int, pkt []byte, ip core.IPv4Header, tcp core.TCPHeader, ipOpts, tcpOpts []byte) (Kind, []byte, error) {
	s.conn.set(ip, tcp, ipOpts, tcpOpts)
	c.lastSlot = id
	out := bytes.Clone(pkt)
	out[9] = byte(id)
	return KindUncompressed, out, nil
}

// lookup returns the slot for key, marking it most recently used. A missing
// key takes an unused slot or the one of the least recently used connection.
func (c *Compressor) lookup(key connKey) (int, bool) {
	if id, ok := c.conns.Get(key); ok {
		return id, true
	}
	id := c.conns.Len()
	if id == len(c.slots) {
		_, id, _ = c.conns.RemoveOldest()
	}
	c.conns.Add(key, id)
	c.slots[id] = compSlot{}
	return id, false
}

// Reset forgets every connection.
func (c *Compressor) Reset() {
	clear(c.slots)
	c.conns.Purge()
	c.lastSlot = -1
}

package vj

import (
	"bytes"
	"fmt"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/core/decoder"
	"firestige.xyz/dissect/internal/log"
	"firestige.xyz/dissect/internal/metrics"
)

// Packet is a decompressed IP/TCP packet.
type Packet struct {
	Kind    Kind
	Slot    int   // -1 for plain IP
	Changes uint8 // change mask of a compressed header
	IP      core.IPv4Header
	TCP     core.TCPHeader
	// Data is the full IP packet, synthesized for compressed input.
	Data []byte
	// CompressedLen is the size of the compressed header that was expanded.
	CompressedLen int
}

// Decompressor reconstructs packets for one direction of one link. It is not
// safe for concurrent use.
type Decompressor struct {
	maxSlot  int
	slots    []slot
	lastSlot int // -1 until a slot has been addressed
	tossed   bool
	logger   log.Logger
}

// NewDecompressor creates a decompressor accepting slot ids 0..maxSlot.
// maxSlot is clamped to the 8-bit slot range.
func NewDecompressor(maxSlot int) *Decompressor {
	maxSlot = max(0, min(maxSlot, MaxSlots-1))
	return &Decompressor{
		maxSlot:  maxSlot,
		slots:    make([]slot, maxSlot+1),
		lastSlot: -1,
		logger:   log.GetLogger().WithField("component", "vj"),
	}
}

// MaxSlot returns the highest accepted slot id.
func (d *Decompressor) MaxSlot() int { return d.maxSlot }

// Tossed reports whether the direction is discarding deltas until resync.
func (d *Decompressor) Tossed() bool { return d.tossed }

// SlotState returns the state of slot id; ids outside the table report
// Uninitialized.
func (d *Decompressor) SlotState(id int) SlotState {
	if id < 0 || id > d.maxSlot {
		return Uninitialized
	}
	return d.slots[id].state
}

// Connection returns a copy of the cached state of a synchronized slot.
func (d *Decompressor) Connection(id int) (ConnectionState, bool) {
	if d.SlotState(id) != Synchronized {
		return ConnectionState{}, false
	}
	c := d.slots[id].conn
	c.IPOptions = bytes.Clone(c.IPOptions)
	c.TCPOptions = bytes.Clone(c.TCPOptions)
	return c, true
}

// Reset invalidates every slot, as after a link restart.
func (d *Decompressor) Reset() {
	clear(d.slots)
	d.lastSlot = -1
	d.tossed = false
}

// toss marks the direction, and slot id when it holds state, as untrusted.
func (d *Decompressor) toss(id int, reason string, err error) error {
	d.tossed = true
	if id >= 0 && id <= d.maxSlot && d.slots[id].state == Synchronized {
		d.slots[id].state = Tossed
	}
	metrics.Inc(metrics.VJTossTotal, reason)
	d.logger.WithSlot(id).WithError(err).Debug("tossing until resync")
	return err
}

// DecompressFull validates an uncompressed frame, whose IP protocol byte
// carries the slot id, and returns it with the protocol restored to TCP.
// On the first pass the headers are stored in the slot. Revisits (firstPass
// false) never change state.
func (d *Decompressor) DecompressFull(data []byte, firstPass bool) (*Packet, error) {
	fail := func(id int, reason string, err error) (*Packet, error) {
		if firstPass {
			return nil, d.toss(id, reason, err)
		}
		return nil, err
	}

	if len(data) < decoder.IPv4HeaderMinLen {
		return fail(-1, "underrun", fmt.Errorf("%w: uncompressed frame of %d bytes", core.ErrBufferUnderrun, len(data)))
	}
	id := int(data[9])
	if id > d.maxSlot {
		return fail(-1, "slot_range", fmt.Errorf("%w: slot %d, max %d", core.ErrSlotOutOfRange, id, d.maxSlot))
	}

	ip, ipOpts, rest, err := decoder.DecodeIPv4(data)
	if err != nil {
		return fail(id, "bad_header", err)
	}
	tcp, tcpOpts, _, err := decoder.DecodeTCP(rest)
	if err != nil {
		return fail(id, "bad_header", err)
	}
	if hlen := ip.HeaderLen() + tcp.HeaderLen(); int(ip.TotalLen) < hlen || int(ip.TotalLen) > len(data) {
		return fail(id, "bad_length", fmt.Errorf("%w: total length %d, headers %d, frame %d",
			core.ErrInvalidLength, ip.TotalLen, hlen, len(data)))
	}

	out := bytes.Clone(data)
	out[9] = decoder.ProtocolTCP
	if sum := decoder.Checksum(out[:ip.HeaderLen()]); sum != 0 {
		return fail(id, "checksum", fmt.Errorf("%w: ip header of slot %d", core.ErrChecksumMismatch, id))
	}
	ip.Protocol = decoder.ProtocolTCP

	if firstPass {
		s := &d.slots[id]
		s.conn.set(ip, tcp, ipOpts, tcpOpts)
		s.state = Synchronized
		d.tossed = false
		d.lastSlot = id
	}
	return &Packet{Kind: KindUncompressed, Slot: id, IP: ip, TCP: tcp, Data: out}, nil
}

// DecompressDelta expands a compressed header against its slot and returns
// the synthesized packet. Any failure tosses the direction and produces no
// packet; state is only updated when the whole header decodes.
func (d *Decompressor) DecompressDelta(data []byte) (*Packet, error) {
	c := newCursor(data)
	underrun := func(id int, err error) (*Packet, error) {
		return nil, d.toss(id, "underrun", fmt.Errorf("compressed header: %w", err))
	}

	changes, err := c.u8()
	if err != nil {
		return underrun(d.lastSlot, err)
	}

	id := d.lastSlot
	if changes&NewC != 0 {
		b, err := c.u8()
		if err != nil {
			return underrun(-1, err)
		}
		id = int(b)
		if id > d.maxSlot {
			return nil, d.toss(-1, "slot_range", fmt.Errorf("%w: slot %d, max %d", core.ErrSlotOutOfRange, id, d.maxSlot))
		}
		d.tossed = false
		d.lastSlot = id
	} else if d.tossed {
		return nil, fmt.Errorf("%w: compressed frame without connection id", core.ErrTossed)
	}

	if id < 0 {
		return nil, d.toss(id, "uninitialized", fmt.Errorf("%w: no connection addressed yet", core.ErrSlotUninitialized))
	}
	s := &d.slots[id]
	switch s.state {
	case Uninitialized:
		return nil, d.toss(id, "uninitialized", fmt.Errorf("%w: slot %d", core.ErrSlotUninitialized, id))
	case Tossed:
		return nil, d.toss(id, "tossed", fmt.Errorf("%w: slot %d", core.ErrTossed, id))
	}

	conn := s.conn
	if conn.TCP.Checksum, err = c.u16(); err != nil {
		return underrun(id, err)
	}
	if changes&TCPPush != 0 {
		conn.TCP.Flags |= core.TCPFlagPSH
	} else {
		conn.TCP.Flags &^= core.TCPFlagPSH
	}

	hlen := conn.HeaderLen()
	switch changes & SpecialsMask {
	case SpecialI:
		n := uint32(conn.IP.TotalLen) - uint32(hlen)
		conn.TCP.Ack += n
		conn.TCP.Seq += n
	case SpecialD:
		conn.TCP.Seq += uint32(conn.IP.TotalLen) - uint32(hlen)
	default:
		if changes&NewU != 0 {
			if conn.TCP.Urgent, err = c.delta(); err != nil {
				return underrun(id, err)
			}
			conn.TCP.Flags |= core.TCPFlagURG
		} else {
			conn.TCP.Flags &^= core.TCPFlagURG
		}
		if changes&NewW != 0 {
			n, err := c.delta()
			if err != nil {
				return underrun(id, err)
			}
			conn.TCP.Window += n
		}
		if changes&NewA != 0 {
			n, err := c.delta()
			if err != nil {
				return underrun(id, err)
			}
			conn.TCP.Ack += uint32(n)
		}
		if changes&NewS != 0 {
			n, err := c.delta()
			if err != nil {
				return underrun(id, err)
			}
			conn.TCP.Seq += uint32(n)
		}
	}

	if changes&NewI != 0 {
		n, err := c.delta()
		if err != nil {
			return underrun(id, err)
		}
		conn.IP.ID += n
	} else {
		conn.IP.ID++
	}

	payload := c.rest()
	total := hlen + len(payload)
	if total > 0xFFFF {
		return nil, d.toss(id, "bad_length", fmt.Errorf("%w: synthesized packet of %d bytes", core.ErrInvalidLength, total))
	}
	conn.IP.TotalLen = uint16(total)

	out := make([]byte, total)
	n := decoder.PutIPv4(out, &conn.IP, conn.IPOptions)
	conn.IP.Checksum = decoder.IPv4HeaderChecksum(out[:n])
	out[10], out[11] = byte(conn.IP.Checksum>>8), byte(conn.IP.Checksum)
	n += decoder.PutTCP(out[n:], &conn.TCP, conn.TCPOptions)
	copy(out[n:], payload)

	s.conn = conn
	return &Packet{
		Kind:          KindCompressed,
		Slot:          id,
		Changes:       changes,
		IP:            conn.IP,
		TCP:           conn.TCP,
		Data:          out,
		CompressedLen: c.off,
	}, nil
}

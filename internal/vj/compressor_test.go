package vj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/internal/core"
)

func TestCompressRoundTrip(t *testing.T) {
	ten := []byte("0123456789")
	steps := []struct {
		seg  segment
		kind Kind
	}{
		{segment{seq: 1000, ack: 2000, window: 1000, id: 1, psh: true, payload: ten}, KindUncompressed},
		{segment{seq: 1010, ack: 2000, window: 1000, id: 2, payload: ten}, KindCompressed},             // special D
		{segment{seq: 1020, ack: 2010, window: 1000, id: 3, payload: []byte("abcde")}, KindCompressed}, // special I
		{segment{seq: 1025, ack: 2010, window: 900, id: 10}, KindCompressed},                          // window decrease, id jump
		{segment{seq: 1025, ack: 2010, window: 900, id: 11, payload: make([]byte, 20)}, KindCompressed},
		{segment{seq: 1045, ack: 2500, window: 900, id: 12, urg: true, urgent: 3, payload: []byte("urg!")}, KindCompressed},
		{segment{seq: 1049, ack: 2500, window: 900, id: 13, payload: []byte("abcd")}, KindUncompressed}, // urgent pointer dropped
		{segment{srcPort: 2000, dstPort: 80, seq: 1, ack: 1, window: 100, id: 500}, KindUncompressed},  // new connection
		{segment{seq: 1053, ack: 2500, window: 900, id: 14, payload: []byte("back")}, KindCompressed},  // explicit connection id
		{segment{seq: 1057, ack: 2500, window: 900, id: 15, syn: true}, KindIP},
		{segment{seq: 200000, ack: 2500, window: 900, id: 16}, KindUncompressed}, // sequence jump
		{segment{seq: 200000, ack: 2500, window: 900, id: 17}, KindUncompressed}, // retransmit
	}

	c := NewCompressor(15, true)
	d := NewDecompressor(15)
	for i, step := range steps {
		pkt := tcpPacket(t, step.seg)
		kind, frame, err := c.Compress(pkt)
		require.NoError(t, err, "step %d", i)
		require.Equal(t, step.kind, kind, "step %d", i)

		var p *Packet
		switch kind {
		case KindIP:
			assert.Equal(t, pkt, frame)
			continue
		case KindUncompressed:
			p, err = d.DecompressFull(frame, true)
		case KindCompressed:
			assert.Less(t, len(frame), len(pkt), "step %d", i)
			p, err = d.DecompressDelta(frame)
		}
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, pkt, p.Data, "step %d", i)
	}
}

func TestCompressSpecialEncodings(t *testing.T) {
	c := NewCompressor(15, true)
	ten := []byte("0123456789")
	_, _, err := c.Compress(tcpPacket(t, segment{seq: 1000, ack: 2000, window: 10, id: 1, payload: ten}))
	require.NoError(t, err)

	kind, frame, err := c.Compress(tcpPacket(t, segment{seq: 1010, ack: 2000, window: 10, id: 2, payload: ten}))
	require.NoError(t, err)
	require.Equal(t, KindCompressed, kind)
	assert.Equal(t, SpecialD, frame[0])
	assert.Len(t, frame, 3+len(ten), "no connection id, no deltas")

	kind, frame, err = c.Compress(tcpPacket(t, segment{seq: 1020, ack: 2010, window: 10, id: 3}))
	require.NoError(t, err)
	require.Equal(t, KindCompressed, kind)
	assert.Equal(t, SpecialI, frame[0])
}

func TestCompressExplicitSlotID(t *testing.T) {
	c := NewCompressor(15, false)
	_, _, err := c.Compress(tcpPacket(t, segment{seq: 1, ack: 1, id: 1}))
	require.NoError(t, err)

	kind, frame, err := c.Compress(tcpPacket(t, segment{seq: 2, ack: 1, id: 2}))
	require.NoError(t, err)
	require.Equal(t, KindCompressed, kind)
	assert.Equal(t, NewC|NewS, frame[0])
	assert.Equal(t, byte(0), frame[1])
}

func TestCompressSlotEviction(t *testing.T) {
	c := NewCompressor(1, true)
	d := NewDecompressor(1)
	for i, port := range []uint16{1000, 1001, 1002, 1000} {
		pkt := tcpPacket(t, segment{srcPort: port, dstPort: 80, seq: 1, ack: 1, id: 1})
		kind, frame, err := c.Compress(pkt)
		require.NoError(t, err)
		require.Equal(t, KindUncompressed, kind, "step %d", i)
		p, err := d.DecompressFull(frame, true)
		require.NoError(t, err)
		assert.LessOrEqual(t, p.Slot, 1)
	}
}

func TestCompressEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCompressor(1, true)
	conn := func(port uint16, seq uint32, id uint16) []byte {
		return tcpPacket(t, segment{srcPort: port, dstPort: 80, seq: seq, ack: 1, id: id})
	}
	slotOf := func(kind Kind, frame []byte) int {
		require.Equal(t, KindUncompressed, kind)
		return int(frame[9])
	}

	kind, frame, err := c.Compress(conn(1000, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, slotOf(kind, frame))
	kind, frame, err = c.Compress(conn(1001, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, slotOf(kind, frame))

	kind, _, err = c.Compress(conn(1000, 2, 2))
	require.NoError(t, err)
	require.Equal(t, KindCompressed, kind, "port 1000 is now the most recent")

	kind, frame, err = c.Compress(conn(1002, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, slotOf(kind, frame), "port 1001 is evicted")

	c.Reset()
	kind, frame, err = c.Compress(conn(1002, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, slotOf(kind, frame))
}

func TestCompressRejectsGarbage(t *testing.T) {
	c := NewCompressor(15, true)
	_, _, err := c.Compress([]byte{0x45, 0})
	assert.ErrorIs(t, err, core.ErrNotCompressible)

	udp := tcpPacket(t, segment{seq: 1, ack: 1})
	udp[9] = 17
	kind, frame, err := c.Compress(udp)
	require.NoError(t, err)
	assert.Equal(t, KindIP, kind)
	assert.Equal(t, udp, frame)
}

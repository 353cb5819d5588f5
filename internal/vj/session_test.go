package vj

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/internal/core"
)

func TestSessionDirectionsAreIndependent(t *testing.T) {
	s, err := NewSession(15, 64)
	require.NoError(t, err)

	pkt := tcpPacket(t, segment{seq: 1000, ack: 2000, id: 1})
	_, err = s.Decode(core.Frame{Number: 1}, core.DirectionToHost, KindUncompressed, uncompressed(pkt, 0))
	require.NoError(t, err)

	_, err = s.Decode(core.Frame{Number: 2}, core.DirectionFromHost, KindCompressed, []byte{NewC | NewS, 0, 0, 0, 1})
	assert.ErrorIs(t, err, core.ErrSlotUninitialized)
	assert.True(t, s.Direction(core.DirectionFromHost).Tossed())
	assert.False(t, s.Direction(core.DirectionToHost).Tossed())

	p, err := s.Decode(core.Frame{Number: 3}, core.DirectionToHost, KindCompressed, []byte{NewS, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, uint32(1001), p.TCP.Seq)
}

func TestSessionUnknownDirection(t *testing.T) {
	s, err := NewSession(15, 64)
	require.NoError(t, err)

	pkt := tcpPacket(t, segment{seq: 1, ack: 1})
	_, err = s.Decode(core.Frame{Number: 1}, core.DirectionUnknown, KindUncompressed, uncompressed(pkt, 0))
	assert.ErrorIs(t, err, core.ErrUnknownDirection)
	assert.Nil(t, s.Direction(core.DirectionUnknown))

	p, err := s.Decode(core.Frame{Number: 2}, core.DirectionUnknown, KindIP, pkt)
	require.NoError(t, err, "plain IP needs no state")
	assert.Equal(t, pkt, p.Data)
}

func TestSessionRevisitDoesNotMutate(t *testing.T) {
	s, err := NewSession(15, 64)
	require.NoError(t, err)

	pkt := tcpPacket(t, segment{seq: 1000, ack: 2000, id: 1})
	_, err = s.Decode(core.Frame{Number: 1}, core.DirectionToHost, KindUncompressed, uncompressed(pkt, 0))
	require.NoError(t, err)

	delta := []byte{NewS, 0, 0, 5}
	first, err := s.Decode(core.Frame{Number: 2}, core.DirectionToHost, KindCompressed, delta)
	require.NoError(t, err)
	assert.Equal(t, uint32(1005), first.TCP.Seq)

	again, err := s.Decode(core.Frame{Number: 2, Visited: true}, core.DirectionToHost, KindCompressed, delta)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first.Data, again.Data))

	conn, ok := s.Direction(core.DirectionToHost).Connection(0)
	require.True(t, ok)
	assert.Equal(t, uint32(1005), conn.TCP.Seq, "revisit must not apply the delta twice")
}

func TestSessionEvictedRevisit(t *testing.T) {
	s, err := NewSession(15, 1)
	require.NoError(t, err)

	pkt := tcpPacket(t, segment{seq: 1000, ack: 2000, id: 1})
	_, err = s.Decode(core.Frame{Number: 1}, core.DirectionToHost, KindUncompressed, uncompressed(pkt, 0))
	require.NoError(t, err)
	_, err = s.Decode(core.Frame{Number: 2}, core.DirectionToHost, KindCompressed, []byte{NewS, 0, 0, 5})
	require.NoError(t, err)
	_, err = s.Decode(core.Frame{Number: 3}, core.DirectionToHost, KindCompressed, []byte{NewS, 0, 0, 5})
	require.NoError(t, err)

	_, err = s.Decode(core.Frame{Number: 2, Visited: true}, core.DirectionToHost, KindCompressed, []byte{NewS, 0, 0, 5})
	assert.ErrorIs(t, err, core.ErrTossed)

	p, err := s.Decode(core.Frame{Number: 1, Visited: true}, core.DirectionToHost, KindUncompressed, uncompressed(pkt, 0))
	require.NoError(t, err, "full frames validate without state")
	assert.Equal(t, pkt, p.Data)

	conn, _ := s.Direction(core.DirectionToHost).Connection(0)
	assert.Equal(t, uint32(1010), conn.TCP.Seq)
}

func TestSessionReset(t *testing.T) {
	s, err := NewSession(15, 8)
	require.NoError(t, err)

	pkt := tcpPacket(t, segment{seq: 1, ack: 1})
	_, err = s.Decode(core.Frame{Number: 1}, core.DirectionToHost, KindUncompressed, uncompressed(pkt, 0))
	require.NoError(t, err)

	s.Reset()
	assert.Equal(t, Uninitialized, s.Direction(core.DirectionToHost).SlotState(0))
	_, err = s.Decode(core.Frame{Number: 2}, core.DirectionToHost, KindCompressed, []byte{NewS, 0, 0, 1})
	assert.ErrorIs(t, err, core.ErrSlotUninitialized)
}

func TestNewSessionRejectsBadCache(t *testing.T) {
	_, err := NewSession(15, 0)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	d := NewDecompressor(15)
	synced(t, d, 0, segment{seq: 1000, ack: 2000, id: 1})
	raw := append([]byte{NewC | NewS | NewA, 0, 0x12, 0x34, 3, 5}, "data"...)
	p, err := d.DecompressDelta(raw)
	require.NoError(t, err)

	root := RenderPacket(p, raw)
	assert.Contains(t, root.Label, "slot=0")
	require.NotNil(t, root.Find("Connection number"))
	assert.Equal(t, []byte{3, 5}, root.Find("Deltas").Value)
	assert.Equal(t, 4, root.Find("Payload length").Value)
	require.NotNil(t, root.Find("IPv4"))
	require.NotNil(t, root.Find("TCP"))
	assert.Equal(t, uint32(1005), root.Find("Sequence Number").Value)

	fail := RenderFailure(KindCompressed, raw, core.ErrTossed)
	require.NotNil(t, fail.Find("Data"))
	assert.Equal(t, []string{core.ErrTossed.Error()}, fail.Find("Data").Notes)
}

func TestChangeMaskString(t *testing.T) {
	assert.Equal(t, "---SAWU (unidirectional data)", ChangeMaskString(SpecialD))
	assert.Equal(t, "C--S---", ChangeMaskString(NewC|NewS))
	assert.Equal(t, "---S-WU (echoed interactive)", ChangeMaskString(SpecialI))
}

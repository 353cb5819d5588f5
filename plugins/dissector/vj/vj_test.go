package vj

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/core/decoder"
	"firestige.xyz/dissect/internal/vj"
)

func ipTCP(t *testing.T, seq, ack uint32) []byte {
	t.Helper()
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Id:       1,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(192, 168, 1, 1),
		DstIP:    net.IPv4(192, 168, 1, 2),
	}
	tcp := &layers.TCP{SrcPort: 4000, DstPort: 80, Seq: seq, Ack: ack, Window: 512, ACK: true}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ip, tcp))
	return bytes.Clone(buf.Bytes())
}

func started(t *testing.T, cfg map[string]any) *Dissector {
	t.Helper()
	d := New().(*Dissector)
	require.NoError(t, d.Init(cfg))
	require.NoError(t, d.Start(context.Background()))
	return d
}

func frame(n uint64, dir core.Direction, proto uint16, data []byte) *core.Packet {
	return &core.Packet{Frame: core.Frame{Number: n}, Direction: dir, PPPProtocol: proto, Data: data}
}

func TestInit(t *testing.T) {
	d := New().(*Dissector)
	require.NoError(t, d.Init(map[string]any{"max_slot": "15", "frame_cache": 8}))
	assert.Equal(t, 15, d.Session().Direction(core.DirectionToHost).MaxSlot())

	for name, cfg := range map[string]map[string]any{
		"slot too large": {"max_slot": 256},
		"negative slot":  {"max_slot": -1},
		"zero cache":     {"frame_cache": 0},
		"unknown key":    {"slots": 3},
	} {
		t.Run(name, func(t *testing.T) {
			err := New().Init(cfg)
			assert.ErrorIs(t, err, core.ErrPluginInitFailed)
		})
	}

	assert.Error(t, New().Start(context.Background()), "start before init")
}

func TestCanHandle(t *testing.T) {
	d := started(t, nil)
	assert.True(t, d.CanHandle(&core.Packet{PPPProtocol: decoder.PPPProtocolIP}))
	assert.True(t, d.CanHandle(&core.Packet{PPPProtocol: decoder.PPPProtocolVJComp}))
	assert.True(t, d.CanHandle(&core.Packet{PPPProtocol: decoder.PPPProtocolVJUncomp}))
	assert.False(t, d.CanHandle(&core.Packet{PPPProtocol: 0x0057}))
	assert.False(t, d.CanHandle(&core.Packet{Port: decoder.PPPProtocolIP}), "transport ports are not ppp ids")
}

func TestDissectLink(t *testing.T) {
	d := started(t, nil)
	pkt := ipTCP(t, 1000, 2000)

	full := bytes.Clone(pkt)
	full[9] = 3
	res, err := d.Dissect(frame(1, core.DirectionToHost, decoder.PPPProtocolVJUncomp, full))
	require.NoError(t, err)
	assert.Equal(t, "VJ uncompressed TCP/IP slot=3", res.Info)
	assert.Equal(t, core.Labels{core.LabelVJKind: "uncompressed", core.LabelVJSlot: "3"}, res.Labels)
	assert.Equal(t, pkt, res.Handoff)
	assert.Equal(t, byte(3), full[9], "input buffer is not modified")

	comp := []byte{vj.NewS | vj.NewA, 0xbe, 0xef, 3, 5}
	res, err = d.Dissect(frame(2, core.DirectionToHost, decoder.PPPProtocolVJComp, comp))
	require.NoError(t, err)
	assert.Equal(t, "compressed", res.Labels[core.LabelVJKind])
	assert.Equal(t, "3", res.Labels[core.LabelVJSlot])
	require.NotNil(t, res.Tree.Find("TCP"))
	seq := res.Tree.Find("Sequence Number")
	require.NotNil(t, seq)
	assert.Equal(t, uint32(1005), seq.Value)

	handoff := gopacket.NewPacket(res.Handoff, layers.LayerTypeIPv4, gopacket.Default)
	tcp, ok := handoff.Layer(layers.LayerTypeTCP).(*layers.TCP)
	require.True(t, ok)
	assert.Equal(t, uint32(2003), tcp.Ack)
	assert.Equal(t, uint16(0xbeef), tcp.Checksum)

	res, err = d.Dissect(frame(3, core.DirectionToHost, decoder.PPPProtocolIP, pkt))
	require.NoError(t, err)
	assert.Equal(t, "ip", res.Labels[core.LabelVJKind])
	_, hasSlot := res.Labels[core.LabelVJSlot]
	assert.False(t, hasSlot)
}

func TestDissectFailureShowsRawBytes(t *testing.T) {
	d := started(t, nil)

	comp := []byte{vj.NewC, 200, 0, 0}
	res, err := d.Dissect(frame(1, core.DirectionFromHost, decoder.PPPProtocolVJComp, comp))
	assert.ErrorIs(t, err, core.ErrSlotUninitialized)
	require.NotNil(t, res)
	assert.Nil(t, res.Handoff)
	assert.NotEmpty(t, res.Labels[core.LabelVJError])
	raw := res.Tree.Find("Data")
	require.NotNil(t, raw)
	assert.Equal(t, comp, raw.Value)
	assert.NotEmpty(t, raw.Notes)
	assert.True(t, d.Session().Direction(core.DirectionFromHost).Tossed())

	res, err = d.Dissect(frame(2, core.DirectionUnknown, decoder.PPPProtocolVJComp, comp))
	assert.ErrorIs(t, err, core.ErrUnknownDirection)
	require.NotNil(t, res)
	assert.NotNil(t, res.Tree.Find("Data"))

	_, err = d.Dissect(frame(3, core.DirectionToHost, 0x0057, comp))
	assert.ErrorIs(t, err, core.ErrUnsupportedProto)
}

func TestStopResetsState(t *testing.T) {
	d := started(t, nil)
	full := ipTCP(t, 1, 1)
	full[9] = 0
	_, err := d.Dissect(frame(1, core.DirectionToHost, decoder.PPPProtocolVJUncomp, full))
	require.NoError(t, err)
	require.Equal(t, vj.Synchronized, d.Session().Direction(core.DirectionToHost).SlotState(0))

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, vj.Uninitialized, d.Session().Direction(core.DirectionToHost).SlotState(0))
}

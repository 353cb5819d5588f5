// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/dissect/internal/core"
)

const (
	TCPHeaderMinLen = 20
	TCPHeaderMaxLen = 60
)

// DecodeTCP decodes a TCP header.
// Returns the header, its options and the segment payload.
func DecodeTCP(data []byte) (core.TCPHeader, []byte, []byte, error) {
	if len(data) < TCPHeaderMinLen {
		return core.TCPHeader{}, nil, nil, fmt.Errorf("%w: tcp header needs %d bytes, have %d",
			core.ErrBufferUnderrun, TCPHeaderMinLen, len(data))
	}

	tcp := core.TCPHeader{
		SrcPort: binary.BigEndian.Uint16(data[0:2]),
		DstPort: binary.BigEndian.Uint16(data[2:4]),
		Seq:     binary.BigEndian.Uint32(data[4:8]),
		Ack:     binary.BigEndian.Uint32(data[8:12]),
		// Data Offset (4 bits at offset 12, upper 4 bits)
		DataOffset: data[12] >> 4,
		// Byte 13: | CWR | ECE | URG | ACK | PSH | RST | SYN | FIN |
		Flags:    data[13],
		Window:   binary.BigEndian.Uint16(data[14:16]),
		Checksum: binary.BigEndian.Uint16(data[16:18]),
		Urgent:   binary.BigEndian.Uint16(data[18:20]),
	}

	headerLen := tcp.HeaderLen()
	if headerLen < TCPHeaderMinLen {
		return tcp, nil, nil, fmt.Errorf("%w: tcp data offset %d", core.ErrInvalidLength, tcp.DataOffset)
	}
	if len(data) < headerLen {
		return tcp, nil, nil, fmt.Errorf("%w: tcp header declares %d bytes, have %d",
			core.ErrBufferUnderrun, headerLen, len(data))
	}

	options := data[TCPHeaderMinLen:headerLen]
	return tcp, options, data[headerLen:], nil
}

// PutTCP writes tcp and its options into b and returns the bytes written.
func PutTCP(b []byte, tcp *core.TCPHeader, options []byte) int {
	n := TCPHeaderMinLen + len(options)
	_ = b[n-1]

	binary.BigEndian.PutUint16(b[0:2], tcp.SrcPort)
	binary.BigEndian.PutUint16(b[2:4], tcp.DstPort)
	binary.BigEndian.PutUint32(b[4:8], tcp.Seq)
	binary.BigEndian.PutUint32(b[8:12], tcp.Ack)
	b[12] = tcp.DataOffset << 4
	b[13] = tcp.Flags
	binary.BigEndian.PutUint16(b[14:16], tcp.Window)
	binary.BigEndian.PutUint16(b[16:18], tcp.Checksum)
	binary.BigEndian.PutUint16(b[18:20], tcp.Urgent)
	copy(b[TCPHeaderMinLen:n], options)
	return n
}

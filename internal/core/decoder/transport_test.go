package decoder

import (
	"errors"
	"testing"

	"firestige.xyz/dissect/internal/core"
)

func TestDecodeTCP(t *testing.T) {
	// Minimal TCP header (20 bytes)
	data := []byte{
		0x13, 0x88, // Src Port: 5000
		0x13, 0x89, // Dst Port: 5001
		0x00, 0x00, 0x00, 0x01, // Seq Num: 1
		0x00, 0x00, 0x00, 0x02, // Ack Num: 2
		0x50,       // Data Offset: 5 (20 bytes)
		0x18,       // Flags: ACK + PSH
		0x20, 0x00, // Window Size
		0xab, 0xcd, // Checksum
		0x00, 0x07, // Urgent Pointer
		0x01, 0x02, 0x03, 0x04, // Payload
	}

	tcp, options, payload, err := DecodeTCP(data)
	if err != nil {
		t.Fatalf("DecodeTCP failed: %v", err)
	}

	if tcp.SrcPort != 5000 {
		t.Errorf("Expected SrcPort 5000, got %d", tcp.SrcPort)
	}
	if tcp.DstPort != 5001 {
		t.Errorf("Expected DstPort 5001, got %d", tcp.DstPort)
	}
	if tcp.Seq != 1 {
		t.Errorf("Expected Seq 1, got %d", tcp.Seq)
	}
	if tcp.Ack != 2 {
		t.Errorf("Expected Ack 2, got %d", tcp.Ack)
	}
	if tcp.Flags != core.TCPFlagACK|core.TCPFlagPSH {
		t.Errorf("Expected flags ACK|PSH, got 0x%02x", tcp.Flags)
	}
	if tcp.Window != 0x2000 {
		t.Errorf("Expected Window 0x2000, got 0x%04x", tcp.Window)
	}
	if tcp.Checksum != 0xabcd {
		t.Errorf("Expected Checksum 0xabcd, got 0x%04x", tcp.Checksum)
	}
	if tcp.Urgent != 7 {
		t.Errorf("Expected Urgent 7, got %d", tcp.Urgent)
	}
	if len(options) != 0 {
		t.Errorf("Expected no options, got %d", len(options))
	}
	if len(payload) != 4 {
		t.Errorf("Expected payload length 4, got %d", len(payload))
	}
}

func TestDecodeTCPWithOptionsRoundTrip(t *testing.T) {
	in := core.TCPHeader{
		SrcPort:    23,
		DstPort:    1025,
		Seq:        0xfffffff0,
		Ack:        42,
		DataOffset: 6,
		Flags:      core.TCPFlagACK,
		Window:     4096,
		Checksum:   0x1234,
	}
	opts := []byte{0x02, 0x04, 0x05, 0xb4} // MSS 1460

	b := make([]byte, 24)
	PutTCP(b, &in, opts)

	out, gotOpts, payload, err := DecodeTCP(b)
	if err != nil {
		t.Fatalf("DecodeTCP failed: %v", err)
	}
	if out != in {
		t.Errorf("Round trip mismatch:\n got  %+v\n want %+v", out, in)
	}
	if string(gotOpts) != string(opts) {
		t.Errorf("Options mismatch: %x", gotOpts)
	}
	if len(payload) != 0 {
		t.Errorf("Expected empty payload, got %d", len(payload))
	}
}

func TestDecodeTCPErrors(t *testing.T) {
	short := make([]byte, 10)
	if _, _, _, err := DecodeTCP(short); !errors.Is(err, core.ErrBufferUnderrun) {
		t.Errorf("Expected ErrBufferUnderrun, got %v", err)
	}

	badOffset := make([]byte, 20)
	badOffset[12] = 0x40 // data offset 4
	if _, _, _, err := DecodeTCP(badOffset); !errors.Is(err, core.ErrInvalidLength) {
		t.Errorf("Expected ErrInvalidLength, got %v", err)
	}

	truncated := make([]byte, 20)
	truncated[12] = 0x80 // data offset 8 = 32 bytes
	if _, _, _, err := DecodeTCP(truncated); !errors.Is(err, core.ErrBufferUnderrun) {
		t.Errorf("Expected ErrBufferUnderrun, got %v", err)
	}
}

package diameter

import (
	"fmt"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/core/buffer"
)

// MessageHeaderLen is the fixed size of the Diameter message header.
const MessageHeaderLen = 20

// Message header command flags.
const (
	MsgFlagRequest    uint8 = 0x80
	MsgFlagProxiable  uint8 = 0x40
	MsgFlagError      uint8 = 0x20
	MsgFlagRetransmit uint8 = 0x10
	MsgFlagsReserved  uint8 = 0x0F
)

const supportedVersion = 1

// Header is the fixed part of a Diameter message.
type Header struct {
	Version       uint8
	Length        int
	Flags         uint8
	CommandCode   uint32
	ApplicationID uint32
	HopByHop      uint32
	EndToEnd      uint32
}

// Message is a decoded Diameter message.
type Message struct {
	Header
	CommandName     string
	ApplicationName string
	AVPs            []*Attribute
	Warnings        []error
	// Err is the fatal error that stopped the top-level walk, if any.
	Err error
}

// IsRequest reports whether the R flag is set.
func (m *Message) IsRequest() bool { return m.Flags&MsgFlagRequest != 0 }

// FlagString renders the R, P, E and T flags, using '-' for clear bits.
func (m *Message) FlagString() string {
	return flagLetters(m.Flags, "RPET")
}

// Info returns the one-line message summary.
func (m *Message) Info() string {
	kind := "Answer"
	if m.IsRequest() {
		kind = "Request"
	}
	return fmt.Sprintf("cmd=%s %s(%d) flags=%s appl=%s(%d) h2h=%x e2e=%x",
		m.CommandName, kind, m.CommandCode, m.FlagString(),
		m.ApplicationName, m.ApplicationID, m.HopByHop, m.EndToEnd)
}

// DecodeHeader reads the 20-byte message header at the start of v.
func DecodeHeader(v buffer.View) (Header, error) {
	var h Header
	if v.Len() < MessageHeaderLen {
		return h, fmt.Errorf("%w: diameter header needs %d bytes, have %d",
			core.ErrBufferUnderrun, MessageHeaderLen, v.Len())
	}
	// Length was checked above; the reads below cannot fail.
	h.Version, _ = v.U8(0)
	length, _ := v.U24(1)
	h.Length = int(length)
	h.Flags, _ = v.U8(4)
	h.CommandCode, _ = v.U24(5)
	h.ApplicationID, _ = v.U32(8)
	h.HopByHop, _ = v.U32(12)
	h.EndToEnd, _ = v.U32(16)

	if h.Version != supportedVersion {
		return h, fmt.Errorf("%w: diameter version %d", core.ErrUnsupportedProto, h.Version)
	}
	if h.Length < MessageHeaderLen {
		return h, fmt.Errorf("%w: diameter message length %d", core.ErrInvalidLength, h.Length)
	}
	return h, nil
}

// DecodeMessage decodes a whole message. A message whose header is unusable
// returns a nil Message. Once the header is decoded a Message is always
// returned; a fatal error in the AVP walk is stored in Message.Err and also
// returned, with the attributes decoded before it kept.
func (d *Decoder) DecodeMessage(v buffer.View) (*Message, error) {
	h, err := DecodeHeader(v)
	if err != nil {
		return nil, err
	}

	m := &Message{
		Header:          h,
		CommandName:     d.dict.Command(h.CommandCode),
		ApplicationName: "Unknown",
	}
	if app, ok := d.dict.Application(h.ApplicationID); ok {
		m.ApplicationName = app.Name
	}
	if h.Flags&MsgFlagsReserved != 0 {
		m.Warnings = append(m.Warnings, fmt.Errorf("%w: message flags 0x%02x", core.ErrReservedBits, h.Flags))
	}

	end := h.Length
	if end > v.Len() {
		m.Warnings = append(m.Warnings, fmt.Errorf("%w: message declares %d bytes, have %d",
			core.ErrBufferUnderrun, h.Length, v.Len()))
		end = v.Len()
	}

	m.AVPs, m.Err = d.DecodeSequence(v, MessageHeaderLen, end)
	return m, m.Err
}

package vj

import "firestige.xyz/dissect/internal/core/buffer"

// cursor reads a compressed header front to back.
type cursor struct {
	v   buffer.View
	off int
}

func newCursor(data []byte) *cursor {
	return &cursor{v: buffer.New(data)}
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.v.U8(c.off)
	if err != nil {
		return 0, err
	}
	c.off++
	return b, nil
}

func (c *cursor) u16() (uint16, error) {
	n, err := c.v.U16(c.off)
	if err != nil {
		return 0, err
	}
	c.off += 2
	return n, nil
}

// delta reads a variable-width value: one non-zero byte, or a zero byte
// followed by a big-endian uint16.
func (c *cursor) delta() (uint16, error) {
	b, err := c.u8()
	if err != nil {
		return 0, err
	}
	if b != 0 {
		return uint16(b), nil
	}
	return c.u16()
}

// rest returns the unread bytes.
func (c *cursor) rest() []byte {
	b, _ := c.v.Slice(c.off, c.v.Remaining(c.off))
	return b
}

// appendDelta encodes n as a non-zero delta (RFC 1144 ENCODE).
func appendDelta(b []byte, n uint16) []byte {
	if n >= 256 {
		return append(b, 0, byte(n>>8), byte(n))
	}
	return append(b, byte(n))
}

// appendDeltaZ encodes n where zero is a valid value (RFC 1144 ENCODEZ).
func appendDeltaZ(b []byte, n uint16) []byte {
	if n == 0 || n >= 256 {
		return append(b, 0, byte(n>>8), byte(n))
	}
	return append(b, byte(n))
}

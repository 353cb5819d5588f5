// Package buffer implements a bounds-checked read-only view over a byte slice.
//
// Every accessor validates the requested range against the view before
// touching memory, so length fields read off the wire can be used directly as
// offsets without risking a panic.
package buffer

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/dissect/internal/core"
)

// View is a window onto a byte slice owned by the caller.
type View struct {
	data []byte
	base int // absolute offset of data[0] in the root buffer
}

// New creates a root view over data.
func New(data []byte) View {
	return View{data: data}
}

// Len returns the number of bytes in the view.
func (v View) Len() int { return len(v.data) }

// Base returns the absolute offset of the view's first byte.
func (v View) Base() int { return v.base }

// Bytes returns the underlying slice. Callers must not modify it.
func (v View) Bytes() []byte { return v.data }

// Remaining returns the number of bytes from off to the end of the view,
// or 0 when off is outside it.
func (v View) Remaining(off int) int {
	if off < 0 || off >= len(v.data) {
		return 0
	}
	return len(v.data) - off
}

func (v View) check(off, n int) error {
	if off < 0 || n < 0 || off > len(v.data) || n > len(v.data)-off {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			core.ErrBufferUnderrun, n, v.base+off, len(v.data))
	}
	return nil
}

// U8 reads one byte.
func (v View) U8(off int) (uint8, error) {
	if err := v.check(off, 1); err != nil {
		return 0, err
	}
	return v.data[off], nil
}

// U16 reads a big-endian uint16.
func (v View) U16(off int) (uint16, error) {
	if err := v.check(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(v.data[off:]), nil
}

// U16LE reads a little-endian uint16.
func (v View) U16LE(off int) (uint16, error) {
	if err := v.check(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v.data[off:]), nil
}

// U24 reads a big-endian 24-bit value.
func (v View) U24(off int) (uint32, error) {
	if err := v.check(off, 3); err != nil {
		return 0, err
	}
	b := v.data[off:]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// U24LE reads a little-endian 24-bit value.
func (v View) U24LE(off int) (uint32, error) {
	if err := v.check(off, 3); err != nil {
		return 0, err
	}
	b := v.data[off:]
	return uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0]), nil
}

// U32 reads a big-endian uint32.
func (v View) U32(off int) (uint32, error) {
	if err := v.check(off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(v.data[off:]), nil
}

// U32LE reads a little-endian uint32.
func (v View) U32LE(off int) (uint32, error) {
	if err := v.check(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v.data[off:]), nil
}

// U64 reads a big-endian uint64.
func (v View) U64(off int) (uint64, error) {
	if err := v.check(off, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v.data[off:]), nil
}

// U64LE reads a little-endian uint64.
func (v View) U64LE(off int) (uint64, error) {
	if err := v.check(off, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v.data[off:]), nil
}

// Slice returns n bytes starting at off. The result aliases the view.
func (v View) Slice(off, n int) ([]byte, error) {
	if err := v.check(off, n); err != nil {
		return nil, err
	}
	return v.data[off : off+n : off+n], nil
}

// Subset returns a child view of n bytes at off, keeping absolute offsets.
func (v View) Subset(off, n int) (View, error) {
	if err := v.check(off, n); err != nil {
		return View{}, err
	}
	return View{data: v.data[off : off+n : off+n], base: v.base + off}, nil
}

// SubsetRemaining returns a child view from off to the end of the view.
func (v View) SubsetRemaining(off int) (View, error) {
	if err := v.check(off, 0); err != nil {
		return View{}, err
	}
	return v.Subset(off, len(v.data)-off)
}

package buffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/internal/core"
)

func TestViewReads(t *testing.T) {
	v := New([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09})

	u8, err := v.U8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), u8)

	u16, err := v.U16(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	u16le, err := v.U16LE(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), u16le)

	u24, err := v.U24(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x020304), u24)

	u24le, err := v.U24LE(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x040302), u24le)

	u32, err := v.U32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), u32)

	u32le, err := v.U32LE(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), u32le)

	u64, err := v.U64(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0203040506070809), u64)

	u64le, err := v.U64LE(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0807060504030201), u64le)
}

func TestViewUnderrun(t *testing.T) {
	v := New([]byte{0x01, 0x02, 0x03})

	tests := []struct {
		name string
		read func() error
	}{
		{"U32 past end", func() error { _, err := v.U32(0); return err }},
		{"U16 at last byte", func() error { _, err := v.U16(2); return err }},
		{"negative offset", func() error { _, err := v.U8(-1); return err }},
		{"slice too long", func() error { _, err := v.Slice(1, 5); return err }},
		{"negative length", func() error { _, err := v.Slice(0, -1); return err }},
		{"subset past end", func() error { _, err := v.Subset(4, 0); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrBufferUnderrun))
		})
	}
}

func TestSubsetKeepsAbsoluteOffsets(t *testing.T) {
	v := New([]byte{0, 1, 2, 3, 4, 5, 6, 7})

	sub, err := v.Subset(2, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Base())
	assert.Equal(t, 4, sub.Len())

	inner, err := sub.Subset(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.Base())
	assert.Equal(t, []byte{3, 4}, inner.Bytes())

	rest, err := v.SubsetRemaining(6)
	require.NoError(t, err)
	assert.Equal(t, []byte{6, 7}, rest.Bytes())

	empty, err := v.SubsetRemaining(8)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestRemaining(t *testing.T) {
	v := New(make([]byte, 10))
	assert.Equal(t, 10, v.Remaining(0))
	assert.Equal(t, 1, v.Remaining(9))
	assert.Equal(t, 0, v.Remaining(10))
	assert.Equal(t, 0, v.Remaining(-3))
}

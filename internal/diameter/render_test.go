package diameter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/core/buffer"
)

func TestRenderMessage(t *testing.T) {
	d := testDecoder(t)
	data := creditControlRequest()
	m, err := d.DecodeMessage(buffer.New(data))
	require.NoError(t, err)

	root := RenderMessage(m, data)
	assert.Equal(t, "Diameter Protocol", root.Label)
	require.NotNil(t, root.Find("Session-Id"))
	assert.Equal(t, "host;1;2", root.Find("Session-Id").Value)
	assert.Nil(t, root.Find("Undecoded AVPs"))

	var buf bytes.Buffer
	require.NoError(t, core.Fprint(&buf, root))
	assert.Contains(t, buf.String(), "AVP: CC-Request-Type(416) l=12 f=-M- val=INITIAL_REQUEST (1)")
}

func TestRenderMessageKeepsUndecodedBytes(t *testing.T) {
	d := testDecoder(t)
	tail := []byte{0, 0, 1, 7, 0, 0, 0, 99}
	data := message(0, 272, 4, concat(avp(268, 0, 0, u32(2001)), tail))
	m, err := d.DecodeMessage(buffer.New(data))
	require.Error(t, err)

	raw := RenderMessage(m, data).Find("Undecoded AVPs")
	require.NotNil(t, raw)
	assert.Equal(t, tail, raw.Value)
	assert.Equal(t, 32, raw.Offset)
	require.Len(t, raw.Notes, 1)
	assert.Contains(t, raw.Notes[0], "buffer underrun")
}

func TestRenderGroupedWithError(t *testing.T) {
	d := testDecoder(t)
	data := avp(260, 0, 0, concat(avp(266, 0, 0, u32(10415)), []byte{0, 0, 1, 10, 0, 0, 0, 40}))
	a, _, err := d.DecodeOne(buffer.New(data), 0)
	require.NoError(t, err)

	n := RenderAttribute(a)
	group := n.Find("Vendor-Specific-Application-Id")
	require.NotNil(t, group)
	require.Len(t, group.Children, 2)
	raw := group.Find("Undecoded AVPs")
	require.NotNil(t, raw)
	assert.Equal(t, 20, raw.Offset)
}

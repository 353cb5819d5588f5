// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/dissect/internal/core"
)

// DecodePPP decodes the PPP header in front of a link payload (RFC 1661).
// Address/control (0xFF 0x03) is optional, and the protocol field may be
// compressed to one byte (odd first byte).
func DecodePPP(data []byte) (core.PPPHeader, []byte, error) {
	var ppp core.PPPHeader
	offset := 0

	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0x03 {
		ppp.AddressControl = true
		offset = 2
	}

	if len(data) < offset+1 {
		return ppp, nil, fmt.Errorf("%w: ppp protocol field missing", core.ErrBufferUnderrun)
	}

	if data[offset]&0x01 == 1 {
		// Protocol field compression
		ppp.Protocol = uint16(data[offset])
		offset++
	} else {
		if len(data) < offset+2 {
			return ppp, nil, fmt.Errorf("%w: ppp protocol field truncated", core.ErrBufferUnderrun)
		}
		ppp.Protocol = binary.BigEndian.Uint16(data[offset : offset+2])
		offset += 2
	}

	return ppp, data[offset:], nil
}

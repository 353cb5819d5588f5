package diameter

import (
	"fmt"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/core/buffer"
	"firestige.xyz/dissect/internal/metrics"
)

// maxNesting bounds grouped recursion. Deeper groups are kept as raw octets.
const maxNesting = 32

// Decoder walks AVP sequences against a Dictionary. It holds no mutable
// state, so one Decoder may serve concurrent callers.
type Decoder struct {
	dict *Dictionary
}

func NewDecoder(dict *Dictionary) *Decoder {
	return &Decoder{dict: dict}
}

// Dictionary returns the dictionary the decoder resolves against.
func (d *Decoder) Dictionary() *Dictionary {
	return d.dict
}

// DecodeOne decodes the AVP starting at off. On success consumed equals the
// declared length. Structural errors (underrun, length shorter than the
// header) are fatal and return a nil attribute; everything else is reported
// through Attribute.Warnings.
func (d *Decoder) DecodeOne(v buffer.View, off int) (*Attribute, int, error) {
	return d.decodeOne(v, off, 0)
}

// DecodeSequence decodes consecutive AVPs in [start, end), each aligned to
// 4 bytes relative to start. Trailing padding may be cut short by end. On a
// fatal error the attributes decoded so far are returned with the error.
func (d *Decoder) DecodeSequence(v buffer.View, start, end int) ([]*Attribute, error) {
	return d.decodeSequence(v, start, end, 0)
}

func (d *Decoder) decodeSequence(v buffer.View, start, end, depth int) ([]*Attribute, error) {
	if start < 0 || end > v.Len() || start > end {
		return nil, fmt.Errorf("%w: sequence [%d,%d) outside %d-byte buffer",
			core.ErrBufferUnderrun, v.Base()+start, v.Base()+end, v.Len())
	}
	seq, err := v.Subset(0, end)
	if err != nil {
		return nil, err
	}

	var attrs []*Attribute
	for off := start; off < end; {
		a, n, err := d.decodeOne(seq, off, depth)
		if err != nil {
			return attrs, err
		}
		attrs = append(attrs, a)
		off += n + pad(n)
	}
	return attrs, nil
}

func (d *Decoder) decodeOne(v buffer.View, off, depth int) (*Attribute, int, error) {
	code, err := v.U32(off)
	if err != nil {
		return nil, 0, d.fatal("underrun", fmt.Errorf("avp code: %w", err))
	}
	flags, err := v.U8(off + 4)
	if err != nil {
		return nil, 0, d.fatal("underrun", fmt.Errorf("avp flags: %w", err))
	}
	length, err := v.U24(off + 5)
	if err != nil {
		return nil, 0, d.fatal("underrun", fmt.Errorf("avp length: %w", err))
	}

	a := &Attribute{
		Code:      code,
		Flags:     flags,
		Length:    int(length),
		HeaderLen: HeaderLen,
		Offset:    v.Base() + off,
	}
	if flags&FlagVendor != 0 {
		a.HeaderLen = VendorHeaderLen
		if a.VendorID, err = v.U32(off + 8); err != nil {
			return nil, 0, d.fatal("underrun", fmt.Errorf("avp vendor id: %w", err))
		}
	}

	if a.Length < a.HeaderLen {
		return nil, 0, d.fatal("bad_length", fmt.Errorf("%w: avp %d at offset %d declares length %d, header is %d",
			core.ErrInvalidLength, code, a.Offset, a.Length, a.HeaderLen))
	}
	if a.Length > v.Len()-off {
		return nil, 0, d.fatal("underrun", fmt.Errorf("%w: avp %d at offset %d declares length %d, %d bytes remain",
			core.ErrBufferUnderrun, code, a.Offset, a.Length, v.Len()-off))
	}

	a.Vendor, a.Descriptor, a.Warnings = d.dict.Resolve(code, a.VendorID)
	if flags&FlagsReserved != 0 {
		a.Warnings = append(a.Warnings, fmt.Errorf("%w: avp %d flags 0x%02x", core.ErrReservedBits, code, flags))
		metrics.Inc(metrics.DiameterMalformedTotal, "reserved_bits")
	}
	metrics.Inc(metrics.DiameterAVPsTotal, a.Type().String())

	// Both checks above make this slice in range.
	a.Payload, _ = v.Slice(off+a.HeaderLen, a.Length-a.HeaderLen)
	if len(a.Payload) == 0 {
		return a, a.Length, nil
	}

	if a.Type() == Grouped && depth < maxNesting {
		sub, _ := v.Subset(off+a.HeaderLen, len(a.Payload))
		a.Children, a.Err = d.decodeSequence(sub, 0, sub.Len(), depth+1)
		return a, a.Length, nil
	}
	if a.Type() == Grouped {
		a.Warnings = append(a.Warnings, fmt.Errorf("%w: grouped nesting deeper than %d", core.ErrInvalidLength, maxNesting))
		a.Value, a.Summary = a.Payload, hexSummary(a.Payload)
		return a, a.Length, nil
	}

	d.decodeValue(a)
	return a, a.Length, nil
}

// fatal counts a structural error and returns it unchanged.
func (d *Decoder) fatal(reason string, err error) error {
	metrics.Inc(metrics.DiameterMalformedTotal, reason)
	return err
}

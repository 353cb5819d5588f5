package diameter

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"firestige.xyz/dissect/internal/core"
)

// ntpEraOffset is the number of seconds between 1900-01-01 and 1970-01-01.
const ntpEraOffset = 2208988800

// Address families (IANA address family numbers).
const (
	addressFamilyIPv4 = 1
	addressFamilyIPv6 = 2
)

// decodeValue fills Value and Summary for a scalar attribute.
func (d *Decoder) decodeValue(a *Attribute) {
	t := a.Type()
	if w := t.Width(); w != 0 && len(a.Payload) != w {
		a.Warnings = append(a.Warnings, fmt.Errorf("%w: %s needs %d bytes, have %d",
			core.ErrBadValueLength, t, w, len(a.Payload)))
		a.Value, a.Summary = a.Payload, hexSummary(a.Payload)
		return
	}

	p := a.Payload
	switch t {
	case UTF8:
		// Strings end at the first NUL; senders that pad inside the
		// declared length still show the text only.
		s := string(p)
		if i := strings.IndexByte(s, 0); i >= 0 {
			s = s[:i]
		}
		a.Value = s
		if utf8.ValidString(s) {
			a.Summary = s
		} else {
			a.Summary = strconv.Quote(s)
		}
	case Int32:
		n := int32(binary.BigEndian.Uint32(p))
		a.Value = n
		a.Summary = d.label(a.Descriptor, uint32(n), strconv.FormatInt(int64(n), 10))
	case UInt32:
		n := binary.BigEndian.Uint32(p)
		a.Value = n
		a.Summary = d.label(a.Descriptor, n, strconv.FormatUint(uint64(n), 10))
	case Int64:
		n := int64(binary.BigEndian.Uint64(p))
		a.Value = n
		a.Summary = strconv.FormatInt(n, 10)
	case UInt64:
		n := binary.BigEndian.Uint64(p)
		a.Value = n
		a.Summary = strconv.FormatUint(n, 10)
	case Float32:
		f := math.Float32frombits(binary.BigEndian.Uint32(p))
		a.Value = f
		a.Summary = strconv.FormatFloat(float64(f), 'g', -1, 32)
	case Float64:
		f := math.Float64frombits(binary.BigEndian.Uint64(p))
		a.Value = f
		a.Summary = strconv.FormatFloat(f, 'g', -1, 64)
	case Time:
		ts := NTPTime(binary.BigEndian.Uint32(p))
		a.Value = ts
		a.Summary = ts.Format(time.RFC3339)
	case Address:
		addr, ok := decodeAddress(p)
		if !ok {
			a.Value, a.Summary = p, hexSummary(p)
			return
		}
		a.Value = addr
		a.Summary = addr.String()
	default:
		a.Value, a.Summary = p, hexSummary(p)
	}
}

// label renders n with its enumerated name. Attributes typed AppId or
// VendorId resolve through the dictionary's application and vendor tables.
func (d *Decoder) label(desc *Descriptor, n uint32, plain string) string {
	if name, ok := desc.Labels[n]; ok {
		return fmt.Sprintf("%s (%d)", name, n)
	}
	switch {
	case strings.EqualFold(desc.TypeName, "AppId"):
		if app, ok := d.dict.Application(n); ok {
			return fmt.Sprintf("%s (%d)", app.Name, n)
		}
	case strings.EqualFold(desc.TypeName, "VendorId"):
		if v, ok := d.dict.vendors[n]; ok {
			return fmt.Sprintf("%s (%d)", v.Name, n)
		}
	}
	return plain
}

// NTPTime converts NTP seconds to UTC. Values with the top bit clear are in
// era 1, which starts in 2036.
func NTPTime(secs uint32) time.Time {
	s := int64(secs)
	if secs&0x80000000 == 0 {
		s += 1 << 32
	}
	return time.Unix(s-ntpEraOffset, 0).UTC()
}

// decodeAddress parses a 2-byte address family followed by the address.
func decodeAddress(p []byte) (netip.Addr, bool) {
	if len(p) < 2 {
		return netip.Addr{}, false
	}
	family := binary.BigEndian.Uint16(p)
	addr := p[2:]
	switch {
	case family == addressFamilyIPv4 && len(addr) == 4:
		return netip.AddrFrom4([4]byte(addr)), true
	case family == addressFamilyIPv6 && len(addr) == 16:
		return netip.AddrFrom16([16]byte(addr)), true
	}
	return netip.Addr{}, false
}

func hexSummary(p []byte) string {
	return hex.EncodeToString(p)
}

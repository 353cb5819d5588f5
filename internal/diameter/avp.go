package diameter

import (
	"errors"
	"fmt"
	"strings"

	"firestige.xyz/dissect/internal/core"
)

// AVP header flags.
const (
	FlagVendor    uint8 = 0x80
	FlagMandatory uint8 = 0x40
	FlagProtected uint8 = 0x20
	FlagsReserved uint8 = 0x1F
)

// AVP header sizes.
const (
	HeaderLen       = 8
	VendorHeaderLen = 12
)

// Attribute is one decoded AVP. Payload aliases the caller's buffer and is
// only valid for the duration of the decode call's owner.
type Attribute struct {
	Code      uint32
	VendorID  uint32
	Flags     uint8
	Length    int // declared length, header included
	HeaderLen int
	Offset    int // absolute offset of the header
	Payload   []byte

	Descriptor *Descriptor
	Vendor     *Vendor

	Value   any
	Summary string

	Children []*Attribute
	Warnings []error
	// Err is a fatal error from inside a grouped payload. The attribute itself
	// is well formed.
	Err error
}

// Name returns the attribute name from the dictionary.
func (a *Attribute) Name() string {
	if a.Descriptor == nil {
		return UnknownAttribute.Name
	}
	return a.Descriptor.Name
}

// Type returns the attribute's base type.
func (a *Attribute) Type() BaseType {
	if a.Descriptor == nil {
		return Octets
	}
	return a.Descriptor.Type
}

// FlagString renders the V, M and P flags, using '-' for clear bits.
func (a *Attribute) FlagString() string {
	return flagLetters(a.Flags, "VMP")
}

func flagLetters(flags uint8, letters string) string {
	var sb strings.Builder
	for i := 0; i < len(letters); i++ {
		if flags&(0x80>>i) != 0 {
			sb.WriteByte(letters[i])
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// Line returns the one-line summary shown for the attribute.
func (a *Attribute) Line() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "AVP: %s(%d) l=%d f=%s", a.Name(), a.Code, a.Length, a.FlagString())
	if a.Flags&FlagVendor != 0 {
		name := UnknownVendor.Name
		if a.Vendor != nil {
			name = a.Vendor.Name
		}
		fmt.Fprintf(&sb, " vnd=%s", name)
	}
	if a.Summary != "" {
		fmt.Fprintf(&sb, " val=%s", a.Summary)
	}
	return sb.String()
}

// Malformed reports whether the attribute or any child is structurally damaged.
// Unknown codes and vendors do not count.
func (a *Attribute) Malformed() bool {
	if a.Err != nil {
		return true
	}
	for _, w := range a.Warnings {
		if errors.Is(w, core.ErrReservedBits) || errors.Is(w, core.ErrBadValueLength) {
			return true
		}
	}
	for _, c := range a.Children {
		if c.Malformed() {
			return true
		}
	}
	return false
}

// pad returns the alignment padding following a record of n bytes.
func pad(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}

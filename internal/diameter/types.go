// Package diameter decodes Diameter messages and their attribute-value pairs
// (RFC 6733) against a vendor-aware dictionary.
package diameter

import "strings"

// BaseType is the wire representation of an attribute value.
type BaseType uint8

const (
	Octets BaseType = iota
	UTF8
	Grouped
	Int32
	UInt32
	Time
	Int64
	UInt64
	Float32
	Float64
	Address
)

var baseTypeNames = [...]string{
	Octets:  "OctetString",
	UTF8:    "UTF8String",
	Grouped: "Grouped",
	Int32:   "Integer32",
	UInt32:  "Unsigned32",
	Time:    "Time",
	Int64:   "Integer64",
	UInt64:  "Unsigned64",
	Float32: "Float32",
	Float64: "Float64",
	Address: "Address",
}

func (t BaseType) String() string {
	if int(t) < len(baseTypeNames) {
		return baseTypeNames[t]
	}
	return "Unknown"
}

// Width returns the fixed payload width in bytes, or 0 for variable-width types.
func (t BaseType) Width() int {
	switch t {
	case Int32, UInt32, Time, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	default:
		return 0
	}
}

// builtinTypes maps lower-cased built-in type names to base types.
var builtinTypes = func() map[string]BaseType {
	m := make(map[string]BaseType, len(baseTypeNames))
	for t, name := range baseTypeNames {
		m[strings.ToLower(name)] = BaseType(t)
	}
	return m
}()

// LookupBaseType resolves a built-in type name, ignoring case.
func LookupBaseType(name string) (BaseType, bool) {
	t, ok := builtinTypes[strings.ToLower(name)]
	return t, ok
}

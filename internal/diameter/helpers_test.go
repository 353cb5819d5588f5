package diameter

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDefinitions() *Definitions {
	return &Definitions{
		Vendors:      []VendorDef{{ID: 10415, Name: "3GPP"}},
		Applications: []ApplicationDef{{ID: 4, Name: "Diameter Credit Control"}},
		Commands:     []CommandDef{{Code: 272, Name: "Credit-Control"}, {Code: 316, Name: "Update-Location", Vendor: "3GPP"}},
		Types: []TypeDef{
			{Name: "Enumerated", Parent: "Integer32"},
			{Name: "DiameterIdentity", Parent: "UTF8String"},
			{Name: "AppId", Parent: "Unsigned32"},
			{Name: "VendorId", Parent: "Unsigned32"},
		},
		Attributes: []AttributeDef{
			{Code: 1, Name: "User-Name", Type: "UTF8String"},
			{Code: 55, Name: "Event-Timestamp", Type: "Time"},
			{Code: 257, Name: "Host-IP-Address", Type: "Address"},
			{Code: 258, Name: "Auth-Application-Id", Type: "AppId"},
			{Code: 260, Name: "Vendor-Specific-Application-Id", Type: "Grouped"},
			{Code: 263, Name: "Session-Id", Type: "UTF8String"},
			{Code: 264, Name: "Origin-Host", Type: "DiameterIdentity"},
			{Code: 266, Name: "Vendor-Id", Type: "VendorId"},
			{Code: 268, Name: "Result-Code", Type: "Unsigned32"},
			{Code: 287, Name: "Accounting-Sub-Session-Id", Type: "Unsigned64"},
			{Code: 416, Name: "CC-Request-Type", Type: "Enumerated", Enums: []EnumDef{{Code: 1, Name: "INITIAL_REQUEST"}}},
			{Code: 1032, Name: "RAT-Type", Vendor: "3GPP", Type: "Enumerated"},
		},
	}
}

func testDecoder(t *testing.T) *Decoder {
	t.Helper()
	dict, warnings := Build(testDefinitions())
	require.Empty(t, warnings)
	return NewDecoder(dict)
}

// avp encodes one attribute without trailing padding.
func avp(code uint32, flags uint8, vendor uint32, payload []byte) []byte {
	hdr := HeaderLen
	if flags&FlagVendor != 0 {
		hdr = VendorHeaderLen
	}
	b := make([]byte, hdr, hdr+len(payload))
	binary.BigEndian.PutUint32(b[0:4], code)
	length := uint32(hdr + len(payload))
	b[4] = flags
	b[5], b[6], b[7] = byte(length>>16), byte(length>>8), byte(length)
	if hdr == VendorHeaderLen {
		binary.BigEndian.PutUint32(b[8:12], vendor)
	}
	return append(b, payload...)
}

// padded appends alignment padding.
func padded(b []byte) []byte {
	return append(b, make([]byte, pad(len(b)))...)
}

func u32(n uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, n)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Package decoder implements the IPv4, TCP and PPP header codecs shared by the
// dissectors. Decoders are hand-written over encoding/binary and never panic
// on short input; encoders write into caller-provided buffers.
package decoder

const (
	// Protocol numbers
	ProtocolTCP = 6
	ProtocolUDP = 17

	// PPP protocol field values
	PPPProtocolIP       = 0x0021
	PPPProtocolVJComp   = 0x002d // Van Jacobson compressed TCP/IP
	PPPProtocolVJUncomp = 0x002f // Van Jacobson uncompressed TCP/IP
)

// Checksum computes the Internet checksum (RFC 1071) over data.
// Verifying a header that already carries its checksum yields 0.
func Checksum(data []byte) uint16 {
	var sum uint32
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if n%2 == 1 {
		sum += uint32(data[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}

package vj

import (
	"bytes"

	"firestige.xyz/dissect/internal/core"
)

// SlotState is the synchronization state of one connection slot.
type SlotState uint8

const (
	Uninitialized SlotState = iota
	Synchronized
	Tossed
)

func (s SlotState) String() string {
	switch s {
	case Synchronized:
		return "synchronized"
	case Tossed:
		return "tossed"
	default:
		return "uninitialized"
	}
}

// ConnectionState is the last full header seen for a slot.
type ConnectionState struct {
	IP         core.IPv4Header
	TCP        core.TCPHeader
	IPOptions  []byte
	TCPOptions []byte
}

// HeaderLen returns the combined IP and TCP header length.
func (c *ConnectionState) HeaderLen() int {
	return c.IP.HeaderLen() + c.TCP.HeaderLen()
}

// set snapshots headers, copying the options out of the caller's buffer.
func (c *ConnectionState) set(ip core.IPv4Header, tcp core.TCPHeader, ipOpts, tcpOpts []byte) {
	c.IP = ip
	c.TCP = tcp
	c.IPOptions = append(c.IPOptions[:0], ipOpts...)
	c.TCPOptions = append(c.TCPOptions[:0], tcpOpts...)
}

// sameStream reports whether ip and tcp can be expressed as deltas against c:
// the fields RFC 1144 never transmits must be unchanged.
func (c *ConnectionState) sameStream(ip core.IPv4Header, tcp core.TCPHeader, ipOpts, tcpOpts []byte) bool {
	return c.IP.IHL == ip.IHL &&
		c.IP.TOS == ip.TOS &&
		c.IP.FragOff == ip.FragOff &&
		c.IP.TTL == ip.TTL &&
		c.TCP.DataOffset == tcp.DataOffset &&
		c.TCP.Flags&^deltaFlags == tcp.Flags&^deltaFlags &&
		bytes.Equal(c.IPOptions, ipOpts) &&
		bytes.Equal(c.TCPOptions, tcpOpts)
}

// deltaFlags are the TCP flags a compressed header can express.
const deltaFlags = core.TCPFlagPSH | core.TCPFlagURG

type slot struct {
	state SlotState
	conn  ConnectionState
}

// Package core defines core data structures with zero external dependencies.
package core

// Frame identifies a captured record across dissection passes.
type Frame struct {
	Number  uint64
	Visited bool // true when the host re-dissects an already seen frame
}

// Packet is what the host hands a dissector: a buffer it owns plus context.
type Packet struct {
	Frame     Frame
	Direction Direction
	// PPPProtocol is the PPP protocol id of a link payload, zero otherwise.
	PPPProtocol uint16
	// Port is the transport port of an application payload, zero otherwise.
	Port uint16
	Data []byte
}

// Result is what a dissector returns to the host.
type Result struct {
	Protocol string
	Info     string // one-line summary
	Tree     *Node
	Labels   Labels
	// Handoff is a synthesized buffer the caller should feed to the next
	// dissector (e.g. decompressed IP for an IP decoder). Nil if none.
	Handoff []byte
}

package plugin

import "firestige.xyz/dissect/internal/core"

// Dissector decodes one protocol from a host-owned buffer.
//
// The returned tree may alias pkt.Data, but a dissector keeps no reference to
// it once Dissect returns. Implementations are not required to be
// goroutine-safe; the host serializes calls per instance.
type Dissector interface {
	Plugin
	CanHandle(pkt *core.Packet) bool
	Dissect(pkt *core.Packet) (*core.Result, error)
}

// DissectorFactory creates a fresh, uninitialized Dissector.
type DissectorFactory func() Dissector

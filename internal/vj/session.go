package vj

import (
	"fmt"

	"github.com/hashicorp/golang-lru/arc/v2"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/metrics"
)

type outcome struct {
	pkt *Packet
	err error
}

// Session decodes both directions of one VJ link. Results are cached by
// frame number so a revisited frame returns its first-pass result without
// touching the slot tables. Not safe for concurrent use.
type Session struct {
	toHost   *Decompressor
	fromHost *Decompressor
	frames   *arc.ARCCache[uint64, outcome]
}

// NewSession creates a session with slot ids 0..maxSlot in each direction and
// a revisit cache of cacheSize frames.
func NewSession(maxSlot, cacheSize int) (*Session, error) {
	frames, err := arc.NewARC[uint64, outcome](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating frame cache: %w", err)
	}
	return &Session{
		toHost:   NewDecompressor(maxSlot),
		fromHost: NewDecompressor(maxSlot),
		frames:   frames,
	}, nil
}

// Direction returns the decompressor for dir, or nil for DirectionUnknown.
func (s *Session) Direction(dir core.Direction) *Decompressor {
	switch dir {
	case core.DirectionToHost:
		return s.toHost
	case core.DirectionFromHost:
		return s.fromHost
	default:
		return nil
	}
}

// Decode handles one frame of the given kind. Plain IP frames pass through.
// Frames with an unknown direction are rejected with core.ErrUnknownDirection
// before any state is consulted.
func (s *Session) Decode(frame core.Frame, dir core.Direction, kind Kind, data []byte) (*Packet, error) {
	if kind == KindIP {
		return &Packet{Kind: KindIP, Slot: -1, Data: data}, nil
	}
	d := s.Direction(dir)
	if d == nil {
		metrics.Inc(metrics.VJPacketsTotal, kind.String(), "unknown_direction")
		return nil, fmt.Errorf("%w: frame %d", core.ErrUnknownDirection, frame.Number)
	}

	if o, ok := s.frames.Get(frame.Number); ok {
		return o.pkt, o.err
	}

	var o outcome
	switch {
	case kind == KindUncompressed:
		o.pkt, o.err = d.DecompressFull(data, !frame.Visited)
	case frame.Visited:
		// The slot has moved on since this frame was first seen.
		o.err = fmt.Errorf("%w: frame %d is no longer in the revisit cache", core.ErrTossed, frame.Number)
	default:
		o.pkt, o.err = d.DecompressDelta(data)
	}

	result := "ok"
	if o.err != nil {
		result = "error"
	}
	metrics.Inc(metrics.VJPacketsTotal, kind.String(), result)

	if !frame.Visited {
		s.frames.Add(frame.Number, o)
	}
	return o.pkt, o.err
}

// Reset clears both directions and the revisit cache.
func (s *Session) Reset() {
	s.toHost.Reset()
	s.fromHost.Reset()
	s.frames.Purge()
}

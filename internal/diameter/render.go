package diameter

import (
	"fmt"

	"firestige.xyz/dissect/internal/core"
)

// RenderMessage builds the display tree for m. data is the buffer m was
// decoded from; bytes the walk could not decode are shown raw with a note.
func RenderMessage(m *Message, data []byte) *core.Node {
	root := core.NewNode("Diameter Protocol", core.KindGroup, nil, 0, len(data))
	root.Add(core.NewNode("Version", core.KindUint, m.Version, 0, 1))
	root.Add(core.NewNode("Length", core.KindUint, m.Length, 1, 3))
	root.Add(core.NewNode("Flags", core.KindText, fmt.Sprintf("0x%02x (%s)", m.Flags, m.FlagString()), 4, 1))
	root.Add(core.NewNode("Command Code", core.KindText, fmt.Sprintf("%d %s", m.CommandCode, m.CommandName), 5, 3))
	root.Add(core.NewNode("ApplicationId", core.KindText, fmt.Sprintf("%s (%d)", m.ApplicationName, m.ApplicationID), 8, 4))
	root.Add(core.NewNode("Hop-by-Hop Identifier", core.KindUint, fmt.Sprintf("0x%08x", m.HopByHop), 12, 4))
	root.Add(core.NewNode("End-to-End Identifier", core.KindUint, fmt.Sprintf("0x%08x", m.EndToEnd), 16, 4))
	for _, w := range m.Warnings {
		root.Note("%v", w)
	}

	for _, a := range m.AVPs {
		root.Add(RenderAttribute(a))
	}
	if m.Err != nil {
		end := min(m.Length, len(data))
		if at := nextOffset(m.AVPs, MessageHeaderLen); at < end {
			root.Add(core.RawNode("Undecoded AVPs", data[at:end], at, m.Err.Error()))
		}
	}
	return root
}

// RenderAttribute builds the display subtree for one attribute.
func RenderAttribute(a *Attribute) *core.Node {
	n := core.NewNode(a.Line(), kindOf(a.Type()), nil, a.Offset, a.Length)
	n.Add(core.NewNode("AVP Code", core.KindUint, a.Code, a.Offset, 4))
	n.Add(core.NewNode("AVP Flags", core.KindText, fmt.Sprintf("0x%02x (%s)", a.Flags, a.FlagString()), a.Offset+4, 1))
	n.Add(core.NewNode("AVP Length", core.KindUint, a.Length, a.Offset+5, 3))
	if a.Flags&FlagVendor != 0 {
		n.Add(core.NewNode("AVP Vendor Id", core.KindText, fmt.Sprintf("%s (%d)", a.Vendor.Name, a.VendorID), a.Offset+8, 4))
	}
	for _, w := range a.Warnings {
		n.Note("%v", w)
	}

	valueOff := a.Offset + a.HeaderLen
	if len(a.Children) > 0 || a.Err != nil {
		g := n.Add(core.NewNode(a.Name(), core.KindGroup, nil, valueOff, len(a.Payload)))
		for _, c := range a.Children {
			g.Add(RenderAttribute(c))
		}
		if a.Err != nil {
			at := nextOffset(a.Children, valueOff) - valueOff
			if at < len(a.Payload) {
				g.Add(core.RawNode("Undecoded AVPs", a.Payload[at:], valueOff+at, a.Err.Error()))
			} else {
				g.Note("%v", a.Err)
			}
		}
		return n
	}
	if a.Summary != "" {
		n.Add(core.NewNode(a.Name(), kindOf(a.Type()), a.Summary, valueOff, len(a.Payload)))
	}
	return n
}

// nextOffset returns the absolute offset following the last attribute, or
// start when there are none.
func nextOffset(attrs []*Attribute, start int) int {
	if len(attrs) == 0 {
		return start
	}
	last := attrs[len(attrs)-1]
	return last.Offset + last.Length + pad(last.Length)
}

func kindOf(t BaseType) core.NodeKind {
	switch t {
	case UTF8:
		return core.KindText
	case Int32, Int64:
		return core.KindInt
	case UInt32, UInt64:
		return core.KindUint
	case Float32, Float64:
		return core.KindFloat
	case Time:
		return core.KindTime
	case Address:
		return core.KindAddress
	case Grouped:
		return core.KindGroup
	default:
		return core.KindBytes
	}
}

package core

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// NodeKind describes how a Node's value should be displayed.
type NodeKind uint8

const (
	KindNone NodeKind = iota
	KindText
	KindUint
	KindInt
	KindFloat
	KindBytes
	KindTime
	KindAddress
	KindGroup
)

// Node is one entry of the hierarchical display tree handed back to the host.
type Node struct {
	Label    string
	Kind     NodeKind
	Value    any
	Offset   int // absolute offset in the root buffer
	Length   int
	Children []*Node
	Notes    []string // expert notes: malformation, fallbacks, ...
}

// NewNode creates a leaf node.
func NewNode(label string, kind NodeKind, value any, offset, length int) *Node {
	return &Node{Label: label, Kind: kind, Value: value, Offset: offset, Length: length}
}

// Add appends child and returns it, so calls can be chained.
func (n *Node) Add(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Note attaches an expert note to the node.
func (n *Node) Note(format string, args ...any) *Node {
	n.Notes = append(n.Notes, fmt.Sprintf(format, args...))
	return n
}

// RawNode renders undecodable bytes as a hex view with an explanatory note.
func RawNode(label string, data []byte, offset int, reason string) *Node {
	n := NewNode(label, KindBytes, data, offset, len(data))
	if reason != "" {
		n.Note("%s", reason)
	}
	return n
}

// Find returns the first node in depth-first order whose label equals label.
func (n *Node) Find(label string) *Node {
	if n == nil {
		return nil
	}
	if n.Label == label {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(label); found != nil {
			return found
		}
	}
	return nil
}

// ValueString formats the node value for display.
func (n *Node) ValueString() string {
	switch v := n.Value.(type) {
	case nil:
		return ""
	case []byte:
		return hex.EncodeToString(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Fprint writes the tree rooted at n as indented text.
func Fprint(w io.Writer, n *Node) error {
	return fprint(w, n, 0)
}

func fprint(w io.Writer, n *Node, depth int) error {
	if n == nil {
		return nil
	}
	indent := strings.Repeat("    ", depth)
	line := indent + n.Label
	if v := n.ValueString(); v != "" {
		line += ": " + v
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	for _, note := range n.Notes {
		if _, err := fmt.Fprintf(w, "%s    [%s]\n", indent, note); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := fprint(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

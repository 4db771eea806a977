package document

import (
	"bytes"
	"fmt"
	"time"
)

// Kind discriminates the node variants of a canonical document tree.
type Kind int

const (
	DictKind Kind = iota
	ArrayKind
	StringKind
	IntKind
	FloatKind
	BoolKind
	DataKind
	DateKind
)

func (k Kind) String() string {
	s, ok := map[Kind]string{
		DictKind:   "Dict",
		ArrayKind:  "Array",
		StringKind: "String",
		IntKind:    "Int",
		FloatKind:  "Float",
		BoolKind:   "Bool",
		DataKind:   "Data",
		DateKind:   "Date",
	}[k]
	if ok {
		return s
	}
	return "<unknown kind>"
}

// IsLeaf reports whether k is a scalar kind.
func (k Kind) IsLeaf() bool {
	switch k {
	case DictKind, ArrayKind:
		return false
	default:
		return true
	}
}

// Node is one node of a canonical document tree. Dict nodes preserve
// key insertion order; that order is what both serializers emit.
type Node struct {
	Kind Kind

	// Scalar payloads, one populated per leaf kind.
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Data  []byte
	Date  time.Time

	// Keys holds the dict key order. children is the key lookup map.
	Keys     []string
	children map[string]*Node

	// Items holds array elements in order.
	Items []*Node
}

// NewDict returns an empty Dict node.
func NewDict() *Node {
	return &Node{Kind: DictKind, children: make(map[string]*Node)}
}

// NewArray returns an empty Array node.
func NewArray() *Node {
	return &Node{Kind: ArrayKind}
}

// String returns a String scalar node.
func String(s string) *Node {
	return &Node{Kind: StringKind, Str: s}
}

// Int returns an Int scalar node.
func Int(i int64) *Node {
	return &Node{Kind: IntKind, Int: i}
}

// Float returns a Float scalar node.
func Float(f float64) *Node {
	return &Node{Kind: FloatKind, Float: f}
}

// Bool returns a Bool scalar node.
func Bool(b bool) *Node {
	return &Node{Kind: BoolKind, Bool: b}
}

// Data returns a Data scalar node holding raw bytes.
func Data(d []byte) *Node {
	return &Node{Kind: DataKind, Data: d}
}

// Date returns a Date scalar node.
func Date(t time.Time) *Node {
	return &Node{Kind: DateKind, Date: t}
}

// Set associates key with child. A new key is appended to the key
// order; setting an existing key replaces its value in place.
func (n *Node) Set(key string, child *Node) {
	if n.Kind != DictKind {
		panic(fmt.Sprintf("Set on %s node", n.Kind))
	}
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	if _, exists := n.children[key]; !exists {
		n.Keys = append(n.Keys, key)
	}
	n.children[key] = child
}

// Get returns the child for key, if present.
func (n *Node) Get(key string) (*Node, bool) {
	child, ok := n.children[key]
	return child, ok
}

// Delete removes key from the dict, preserving the order of the rest.
func (n *Node) Delete(key string) {
	if _, ok := n.children[key]; !ok {
		return
	}
	delete(n.children, key)
	for i, k := range n.Keys {
		if k == key {
			n.Keys = append(n.Keys[:i], n.Keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of dict entries or array elements.
func (n *Node) Len() int {
	switch n.Kind {
	case DictKind:
		return len(n.Keys)
	case ArrayKind:
		return len(n.Items)
	default:
		return 0
	}
}

// Append adds an element to an Array node.
func (n *Node) Append(child *Node) {
	if n.Kind != ArrayKind {
		panic(fmt.Sprintf("Append on %s node", n.Kind))
	}
	n.Items = append(n.Items, child)
}

// Equal reports structural equality: same kinds, same scalar values,
// same array order, and same dict keys in the same order.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Kind != other.Kind {
		return false
	}
	switch n.Kind {
	case StringKind:
		return n.Str == other.Str
	case IntKind:
		return n.Int == other.Int
	case FloatKind:
		return n.Float == other.Float
	case BoolKind:
		return n.Bool == other.Bool
	case DataKind:
		return bytes.Equal(n.Data, other.Data)
	case DateKind:
		return n.Date.Equal(other.Date)
	case ArrayKind:
		if len(n.Items) != len(other.Items) {
			return false
		}
		for i, item := range n.Items {
			if !item.Equal(other.Items[i]) {
				return false
			}
		}
		return true
	case DictKind:
		if len(n.Keys) != len(other.Keys) {
			return false
		}
		for i, key := range n.Keys {
			if key != other.Keys[i] {
				return false
			}
			if !n.children[key].Equal(other.children[key]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

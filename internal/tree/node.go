// Package tree converts GML text into an ordered key/value tree and answers
// repeatable-key queries against it.
//
// The tree mirrors the shape produced by common XML-to-dictionary
// converters. An element becomes a member of its parent object, keyed by
// the element name exactly as written (prefix included, e.g.
// "gml:offsetVector"). Attributes are stored as "@name" members. Character
// data is stored directly as a scalar, or as a "#text" member when the
// element also has attributes or children. Repeated sibling elements with
// the same name share one member whose value is a list.
//
// Member order always follows document order. Nothing in the package
// depends on map iteration, so queries return the same occurrences in the
// same order on every run.
package tree

import "fmt"

// Kind identifies the variant stored in a Node.
type Kind int

const (
	// KindNull is an element without text, attributes or children.
	KindNull Kind = iota
	// KindScalar is a text value.
	KindScalar
	// KindObject is an ordered set of keyed members.
	KindObject
	// KindList is an ordered sequence of nodes.
	KindList
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TextKey is the member key holding an element's character data when the
// element also carries attributes or children.
const TextKey = "#text"

// AttrPrefix is prepended to attribute names to form member keys.
const AttrPrefix = "@"

// Member is one key/value pair of an object node.
type Member struct {
	Key   string
	Value *Node
}

// Node is a tree value. Only the fields matching Kind are meaningful.
// Trees are built once by Parse and treated as read-only afterwards.
type Node struct {
	Kind Kind

	// Text holds the scalar value.
	Text string

	// Members holds object members in document order.
	Members []Member

	// Items holds list elements in order.
	Items []*Node

	// Siblings marks a list built from repeated sibling elements, as
	// opposed to a list supplied by the caller.
	Siblings bool
}

// Null returns a new null node.
func Null() *Node {
	return &Node{Kind: KindNull}
}

// Scalar returns a new scalar node holding s.
func Scalar(s string) *Node {
	return &Node{Kind: KindScalar, Text: s}
}

// Object returns a new object node with the given members.
func Object(members ...Member) *Node {
	return &Node{Kind: KindObject, Members: members}
}

// List returns a new list node with the given items.
func List(items ...*Node) *Node {
	return &Node{Kind: KindList, Items: items}
}

// Get returns the value of the first member named key. It reports false
// for non-object nodes and missing keys.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != KindObject {
		return nil, false
	}
	for _, m := range n.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the member keys of an object in document order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	keys := make([]string, len(n.Members))
	for i, m := range n.Members {
		keys[i] = m.Key
	}
	return keys
}

// TextValue returns the character data carried by n: the scalar itself, or
// the "#text" member of an object. It reports false for every other shape.
func (n *Node) TextValue() (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case KindScalar:
		return n.Text, true
	case KindObject:
		if t, ok := n.Get(TextKey); ok && t.Kind == KindScalar {
			return t.Text, true
		}
	}
	return "", false
}

// add appends a member, folding repeated keys into a sibling list.
func (n *Node) add(key string, value *Node) {
	for i := range n.Members {
		if n.Members[i].Key != key {
			continue
		}
		existing := n.Members[i].Value
		if existing.Kind == KindList && existing.Siblings {
			existing.Items = append(existing.Items, value)
			return
		}
		group := List(existing, value)
		group.Siblings = true
		n.Members[i].Value = group
		return
	}
	n.Members = append(n.Members, Member{Key: key, Value: value})
}

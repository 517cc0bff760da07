package kbin

import (
	"maps"
	"slices"
	"strings"
)

// ReservedPrefix marks attribute keys that carry type metadata in the
// XML form. Such keys never enter a node's attribute map.
const ReservedPrefix = "__"

// Slot holds every child sharing one name, in document order. A slot
// with one node is an ordinary child; more nodes make a repeated child.
type Slot struct {
	Name  string
	Nodes []*Node
}

// Node is one element of a call or response tree.
type Node struct {
	Name  string
	Value Value

	attrs map[string]string
	slots []*Slot
}

// NewNode creates a void node.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// NewItem creates a node holding v.
func NewItem(name string, v Value) *Node {
	return &Node{Name: name, Value: v}
}

// Attr returns the attribute value for key, or "" when unset.
func (n *Node) Attr(key string) string {
	return n.attrs[key]
}

// LookupAttr returns the attribute value for key and whether it is set.
func (n *Node) LookupAttr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// SetAttr sets an attribute and returns n. Keys with ReservedPrefix are
// ignored; typed content is set with SetValue.
func (n *Node) SetAttr(key, value string) *Node {
	if strings.HasPrefix(key, ReservedPrefix) {
		return n
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
	return n
}

// DeleteAttr removes an attribute.
func (n *Node) DeleteAttr(key string) {
	delete(n.attrs, key)
}

// Attrs returns a copy of the attribute map.
func (n *Node) Attrs() map[string]string {
	return maps.Clone(n.attrs)
}

// AttrKeys returns the attribute keys in wire order.
func (n *Node) AttrKeys() []string {
	var keys []string
	for k := range n.attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetValue replaces the content and returns n.
func (n *Node) SetValue(v Value) *Node {
	n.Value = v
	return n
}

// Type returns the content type.
func (n *Node) Type() Type {
	return n.Value.Type()
}

func (n *Node) slot(name string) *Slot {
	if k := len(n.slots); k > 0 && n.slots[k-1].Name == name {
		return n.slots[k-1]
	}
	for _, s := range n.slots {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Add appends children to the slots matching their names and returns n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		s := n.slot(c.Name)
		if s == nil {
			s = &Slot{Name: c.Name}
			n.slots = append(n.slots, s)
		}
		s.Nodes = append(s.Nodes, c)
	}
	return n
}

// AddChild appends a new void child and returns it.
func (n *Node) AddChild(name string) *Node {
	c := NewNode(name)
	n.Add(c)
	return c
}

// AddItem appends a new child holding v and returns it.
func (n *Node) AddItem(name string, v Value) *Node {
	c := NewItem(name, v)
	n.Add(c)
	return c
}

// Child returns the first child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if s := n.slot(name); s != nil && len(s.Nodes) > 0 {
		return s.Nodes[0]
	}
	return nil
}

// Children returns every child with the given name.
func (n *Node) Children(name string) []*Node {
	if s := n.slot(name); s != nil {
		return s.Nodes
	}
	return nil
}

// Slots returns the child slots in order. The slice must not be
// modified.
func (n *Node) Slots() []*Slot {
	return n.slots
}

// Remove deletes every child with the given name.
func (n *Node) Remove(name string) {
	n.slots = slices.DeleteFunc(n.slots, func(s *Slot) bool { return s.Name == name })
}

// HasChildren reports whether n has any child.
func (n *Node) HasChildren() bool {
	return len(n.slots) > 0
}

// Equal reports whether two trees have the same names, content,
// attributes and children. Attribute order is irrelevant.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.Name == o.Name &&
		n.Value.Equal(o.Value) &&
		maps.Equal(n.attrs, o.attrs) &&
		n.equalSlots(o)
}

func (n *Node) equalSlots(o *Node) bool {
	if len(n.slots) != len(o.slots) {
		return false
	}
	for i, s := range n.slots {
		t := o.slots[i]
		if s.Name != t.Name || len(s.Nodes) != len(t.Nodes) {
			return false
		}
		for j := range s.Nodes {
			if !s.Nodes[j].Equal(t.Nodes[j]) {
				return false
			}
		}
	}
	return true
}

// String renders the tree as indented XML without a declaration.
func (n *Node) String() string {
	out, err := MarshalXML(n, XMLOptions{Indent: "  "})
	if err != nil {
		return "<!-- " + err.Error() + " -->"
	}
	return string(out)
}

package kbin

import (
	"strconv"
	"strings"
)

// Reader gives typed, defaulted access to a tree by dotted path. A path
// is a sequence of child names; a numeric segment selects one of several
// same-named children, and a name alone selects the first. The empty
// path is the node itself.
type Reader struct {
	node *Node
}

// NewReader wraps n. A nil node yields a reader on which every lookup
// misses.
func NewReader(n *Node) *Reader {
	return &Reader{node: n}
}

// Node returns the wrapped node.
func (r *Reader) Node() *Node {
	if r == nil {
		return nil
	}
	return r.node
}

func (r *Reader) resolve(path string) []*Node {
	if r == nil || r.node == nil {
		return nil
	}
	nodes := []*Node{r.node}
	if path == "" {
		return nodes
	}
	for _, seg := range strings.Split(path, ".") {
		if i, err := strconv.Atoi(seg); err == nil {
			if i < 0 || i >= len(nodes) {
				return nil
			}
			nodes = nodes[i : i+1]
			continue
		}
		if nodes = nodes[0].Children(seg); len(nodes) == 0 {
			return nil
		}
	}
	return nodes
}

func (r *Reader) lookup(path string) *Node {
	if nodes := r.resolve(path); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

// Element returns a reader for the node at path, or nil.
func (r *Reader) Element(path string) *Reader {
	if n := r.lookup(path); n != nil {
		return &Reader{node: n}
	}
	return nil
}

// Elements returns readers for every node the path ends on.
func (r *Reader) Elements(path string) []*Reader {
	nodes := r.resolve(path)
	out := make([]*Reader, len(nodes))
	for i, n := range nodes {
		out[i] = &Reader{node: n}
	}
	return out
}

// Attr returns the attributes of the node at path, never nil.
func (r *Reader) Attr(path string) map[string]string {
	if n := r.lookup(path); n != nil && n.attrs != nil {
		return n.Attrs()
	}
	return map[string]string{}
}

// Content returns the content of the node at path.
func (r *Reader) Content(path string) Value {
	if n := r.lookup(path); n != nil {
		return n.Value
	}
	return Void()
}

// Str returns string content, or def for missing or non-string nodes.
func (r *Reader) Str(path, def string) string {
	v := r.Content(path)
	if v.Type() != TypeStr {
		return def
	}
	return v.Str()
}

// Number returns the first component of numeric content, or string
// content parsed as a number. Anything else yields def.
func (r *Reader) Number(path string, def float64) float64 {
	v := r.Content(path)
	switch {
	case v.Type() == TypeStr:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64); err == nil {
			return f
		}
	case v.Type().Numeric() && len(v.nums) > 0:
		return v.Floats()[0]
	}
	return def
}

// Bool reports whether Number(path) is positive.
func (r *Reader) Bool(path string) bool {
	return r.Number(path, 0) > 0
}

// BigInt returns the first component as a 64-bit integer, or string
// content parsed as one. Anything else yields def.
func (r *Reader) BigInt(path string, def int64) int64 {
	v := r.Content(path)
	switch {
	case v.Type() == TypeStr:
		if i, err := strconv.ParseInt(strings.TrimSpace(v.Str()), 10, 64); err == nil {
			return i
		}
	case v.Type().Numeric() && len(v.nums) > 0:
		return v.Ints()[0]
	}
	return def
}

// Numbers returns every component of non-64-bit numeric content, or def.
func (r *Reader) Numbers(path string, def []float64) []float64 {
	v := r.Content(path)
	if !v.Type().Numeric() || v.Type().Is64() {
		return def
	}
	return v.Floats()
}

// BigInts returns every component of 64-bit integer content, or def.
func (r *Reader) BigInts(path string, def []int64) []int64 {
	v := r.Content(path)
	if !v.Type().Is64() {
		return def
	}
	return v.Ints()
}

// Buffer returns binary content, or def.
func (r *Reader) Buffer(path string, def []byte) []byte {
	v := r.Content(path)
	if v.Type() != TypeBin {
		return def
	}
	return v.Bin()
}

package kbin

import (
	"fmt"
	"slices"
	"strconv"
)

// Object view keys. Every other key of an object is a child name.
const (
	ObjectAttrKey    = "@attr"
	ObjectContentKey = "@content"
	// ObjectOrderKey lists child names in document order. It is written
	// only when a node has more than one child name.
	ObjectOrderKey = "@order"
)

// ToObject converts a tree to nested maps holding only strings, maps and
// slices, in the shape {root: {"@attr": {...}, "@content": "...",
// child: {...} | [...]}}. Typed content carries __type and __count
// attributes as in XML.
func ToObject(root *Node) map[string]any {
	if root == nil {
		return nil
	}
	return map[string]any{root.Name: nodeObject(root)}
}

func nodeObject(n *Node) map[string]any {
	obj := make(map[string]any, len(n.slots)+3)

	attrs := make(map[string]any, len(n.attrs)+2)
	if !n.Value.IsVoid() {
		attrs[typeAttr] = n.Value.Type().String()
		if n.Value.IsArray() {
			attrs[countAttr] = strconv.Itoa(n.Value.Count())
		}
	}
	for _, k := range n.AttrKeys() {
		attrs[k] = n.attrs[k]
	}
	if len(attrs) > 0 {
		obj[ObjectAttrKey] = attrs
	}
	if text := n.Value.Text(); text != "" {
		obj[ObjectContentKey] = text
	}

	if len(n.slots) > 1 {
		order := make([]any, len(n.slots))
		for i, s := range n.slots {
			order[i] = s.Name
		}
		obj[ObjectOrderKey] = order
	}
	for _, s := range n.slots {
		if len(s.Nodes) == 1 {
			obj[s.Name] = nodeObject(s.Nodes[0])
			continue
		}
		list := make([]any, len(s.Nodes))
		for i, c := range s.Nodes {
			list[i] = nodeObject(c)
		}
		obj[s.Name] = list
	}
	return obj
}

// FromObject rebuilds a tree from its object view. Maps keyed by any
// string-like type are accepted, so the output of generic JSON,
// MessagePack and CBOR decoders can be passed directly.
func FromObject(obj any) (*Node, error) {
	m, ok := asMap(obj)
	if !ok || len(m) != 1 {
		return nil, newError(PhaseDecode, KindInvalidValue, nil, "object view needs exactly one root key")
	}
	for name, body := range m {
		return objectNode(name, body, []string{name})
	}
	return nil, nil
}

func objectNode(name string, body any, path []string) (*Node, error) {
	n := NewNode(name)
	if s, ok := body.(string); ok {
		n.Value = Str(s)
		return n, nil
	}
	if body == nil {
		return n, nil
	}
	m, ok := asMap(body)
	if !ok {
		return nil, newError(PhaseDecode, KindInvalidValue, path, "node body is %T", body)
	}

	var (
		typ, count       string
		hasType, isArray bool
	)
	if raw, ok := m[ObjectAttrKey]; ok {
		attrs, ok := asMap(raw)
		if !ok {
			return nil, newError(PhaseDecode, KindInvalidValue, path, "%s is %T", ObjectAttrKey, raw)
		}
		for k, v := range attrs {
			s := fmt.Sprint(v)
			switch k {
			case typeAttr:
				typ, hasType = s, true
			case countAttr:
				count, isArray = s, true
			default:
				n.SetAttr(k, s)
			}
		}
	}

	var text string
	if raw, ok := m[ObjectContentKey]; ok {
		text = fmt.Sprint(raw)
	}
	v, err := contentFromText(PhaseDecode, path, typ, hasType, count, isArray, text)
	if err != nil {
		return nil, err
	}
	n.Value = v

	for _, childName := range childOrder(m) {
		childPath := append(path[:len(path):len(path)], childName)
		switch cv := m[childName].(type) {
		case []any:
			for _, entry := range cv {
				c, err := objectNode(childName, entry, childPath)
				if err != nil {
					return nil, err
				}
				n.Add(c)
			}
		default:
			c, err := objectNode(childName, cv, childPath)
			if err != nil {
				return nil, err
			}
			n.Add(c)
		}
	}
	return n, nil
}

// childOrder returns the child keys of m, in @order sequence when present
// and sorted otherwise.
func childOrder(m map[string]any) []string {
	var keys []string
	if raw, ok := m[ObjectOrderKey].([]any); ok {
		for _, k := range raw {
			if s, ok := k.(string); ok {
				if _, present := m[s]; present {
					keys = append(keys, s)
				}
			}
		}
	}
	var rest []string
	for k := range m {
		switch k {
		case ObjectAttrKey, ObjectContentKey, ObjectOrderKey:
			continue
		}
		if !slices.Contains(keys, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

// ObjectOf returns the object view of v when v is a *Node or Node.
func ObjectOf(v any) (map[string]any, bool) {
	switch tv := v.(type) {
	case *Node:
		return ToObject(tv), true
	case Node:
		return ToObject(&tv), true
	}
	return nil, false
}

// IsTreeTarget reports whether v is a **Node or *Node decode destination.
func IsTreeTarget(v any) bool {
	switch v.(type) {
	case **Node, *Node:
		return true
	}
	return false
}

// AssignObject rebuilds a tree from obj and stores it in v, which must be
// a **Node or *Node.
func AssignObject(v any, obj any) error {
	root, err := FromObject(obj)
	if err != nil {
		return err
	}
	switch tv := v.(type) {
	case **Node:
		*tv = root
	case *Node:
		*tv = *root
	default:
		return newError(PhaseDecode, KindUnsupported, nil, "cannot decode into %T", v)
	}
	return nil
}

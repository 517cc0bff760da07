package kbin

import (
	"encoding/binary"
	"math"

	"github.com/RobertWHurst/kbin/buffer"
	"github.com/RobertWHurst/kbin/sixbit"
)

const (
	signature     = 0xA0
	sigCompressed = 0x42
	sigLiteral    = 0x45
	headerSize    = 8

	// literalNameFlag is OR-ed into the length byte of literal names.
	literalNameFlag = 0x40
	maxLiteralName  = 64

	wireNodeEnd    = byte(TypeNodeEnd) | arrayFlag
	wireSectionEnd = byte(TypeSectionEnd) | arrayFlag
)

// EncodeOptions controls KBin output.
type EncodeOptions struct {
	// Encoding is the code page for strings and literal names. The zero
	// value selects Shift_JIS.
	Encoding Encoding
	// LiteralNames writes names as code page bytes instead of six-bit
	// packed.
	LiteralNames bool
}

type encoder struct {
	encoding Encoding
	literal  bool
	nodes    *buffer.Writer
	data     *buffer.Writer
	path     []string
}

// Encode serializes the tree rooted at root as KBin.
func Encode(root *Node, opts EncodeOptions) ([]byte, error) {
	if root == nil {
		return nil, newError(PhaseEncode, KindInvalidValue, nil, "nil root node")
	}
	if opts.Encoding == 0 {
		opts.Encoding = EncodingShiftJIS
	}
	if !opts.Encoding.Valid() {
		return nil, newError(PhaseEncode, KindUnsupported, nil, "unsupported encoding 0x%02x", byte(opts.Encoding))
	}

	e := &encoder{
		encoding: opts.Encoding,
		literal:  opts.LiteralNames,
		nodes:    buffer.NewWriter(64),
		data:     buffer.NewWriter(64),
	}
	if err := e.writeNode(root); err != nil {
		return nil, err
	}
	if err := e.nodes.WriteByte(wireSectionEnd); err != nil {
		return nil, err
	}
	e.nodes.Realign()

	nodeLen := e.nodes.Len()
	e.nodes.WriteU32(uint32(e.data.Len()))

	out := make([]byte, headerSize, headerSize+e.nodes.Len()+e.data.Len())
	out[0] = signature
	out[1] = sigCompressed
	if e.literal {
		out[1] = sigLiteral
	}
	out[2] = e.encoding.ID()
	out[3] = 0xFF ^ e.encoding.ID()
	binary.BigEndian.PutUint32(out[4:], uint32(nodeLen))
	out = append(out, e.nodes.Bytes()...)
	out = append(out, e.data.Bytes()...)
	return out, nil
}

func (e *encoder) fail(kind ErrorKind, format string, args ...any) error {
	return newError(PhaseEncode, kind, e.path, format, args...)
}

func (e *encoder) wrap(kind ErrorKind, cause error, detail string) error {
	err := newError(PhaseEncode, kind, e.path, "%s", detail)
	err.Cause = cause
	return err
}

func (e *encoder) writeNode(n *Node) error {
	e.path = append(e.path, n.Name)
	defer func() { e.path = e.path[:len(e.path)-1] }()

	typeByte, err := e.typeByte(n.Value)
	if err != nil {
		return err
	}
	if err := e.nodes.WriteByte(typeByte); err != nil {
		return err
	}
	if err := e.writeName(n.Name); err != nil {
		return err
	}
	if err := e.writeContent(n.Value); err != nil {
		return err
	}

	for _, key := range n.AttrKeys() {
		raw, err := e.encoding.Encode(n.attrs[key] + "\x00")
		if err != nil {
			return e.wrap(KindInvalidValue, err, "attribute "+key+" not representable in "+e.encoding.String())
		}
		e.data.WriteStream(raw)
		if err := e.nodes.WriteByte(byte(TypeAttr)); err != nil {
			return err
		}
		if err := e.writeName(key); err != nil {
			return err
		}
	}

	for _, s := range n.slots {
		for _, c := range s.Nodes {
			if err := e.writeNode(c); err != nil {
				return err
			}
		}
	}

	return e.nodes.WriteByte(wireNodeEnd)
}

func (e *encoder) typeByte(v Value) (byte, error) {
	switch v.Shape() {
	case ShapeVoid:
		return byte(TypeVoid), nil
	case ShapeArray:
		if !v.typ.Numeric() {
			return 0, e.fail(KindMissingTypeTag, "array content needs a numeric type, got %s", v.typ)
		}
		return byte(v.typ) | arrayFlag, nil
	}
	switch {
	case v.typ == TypeStr, v.typ == TypeBin, v.typ.Numeric():
		return byte(v.typ), nil
	}
	return 0, e.fail(KindMissingTypeTag, "%s is not a content type", v.typ)
}

func (e *encoder) writeName(name string) error {
	if !e.literal {
		packed, err := sixbit.Pack(name)
		if err != nil {
			return e.wrap(KindInvalidName, err, "cannot pack "+name)
		}
		e.nodes.WriteBytes(packed)
		return nil
	}
	raw, err := e.encoding.Encode(name)
	if err != nil {
		return e.wrap(KindInvalidName, err, "cannot encode "+name)
	}
	if len(raw) == 0 || len(raw) > maxLiteralName {
		return e.fail(KindInvalidName, "literal name %q must be 1 to %d bytes", name, maxLiteralName)
	}
	if err := e.nodes.WriteByte(byte(len(raw)-1) | literalNameFlag); err != nil {
		return err
	}
	e.nodes.WriteBytes(raw)
	return nil
}

func (e *encoder) writeContent(v Value) error {
	switch v.Shape() {
	case ShapeVoid:
		return nil
	case ShapeArray:
		raw, err := e.components(v)
		if err != nil {
			return err
		}
		if len(raw)%v.typ.Count() != 0 {
			return e.fail(KindInvalidValue, "%d components is not a whole number of %s elements", len(raw), v.typ)
		}
		e.data.WriteArray(v.typ.Width(), raw)
		return nil
	}

	switch v.typ {
	case TypeStr:
		raw, err := e.encoding.Encode(v.str + "\x00")
		if err != nil {
			return e.wrap(KindInvalidValue, err, "string not representable in "+e.encoding.String())
		}
		e.data.WriteStream(raw)
		return nil
	case TypeBin:
		e.data.WriteStream(v.bin)
		return nil
	}

	raw, err := e.components(v)
	if err != nil {
		return err
	}
	if len(raw) != v.typ.Count() {
		return e.fail(KindInvalidValue, "%s needs %d components, got %d", v.typ, v.typ.Count(), len(raw))
	}
	e.data.WritePacked(v.typ.Width(), raw)
	return nil
}

// components converts content to wire words, rejecting integers that do
// not fit the type's width.
func (e *encoder) components(v Value) ([]uint64, error) {
	t := v.typ
	out := make([]uint64, len(v.nums))
	for i, n := range v.nums {
		if !fits(t, n) {
			return nil, e.fail(KindInvalidValue, "%s overflows %s", formatNumber(t, n), t)
		}
		switch {
		case t.Float() && t.Width() == 4:
			out[i] = uint64(math.Float32bits(float32(n.Float())))
		case t.Bool():
			if n.Bool() {
				out[i] = 1
			}
		default:
			out[i] = uint64(n)
		}
	}
	return out, nil
}

package kbin

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/RobertWHurst/kbin/buffer"
	"github.com/RobertWHurst/kbin/sixbit"
)

// DecodeOptions controls KBin input.
type DecodeOptions struct {
	// Strict makes an unknown type byte or truncated content an error.
	// Either way the tree decoded up to that point is returned.
	Strict bool
}

// Header is the fixed 8-byte KBin frame header.
type Header struct {
	Encoding        Encoding
	CompressedNames bool
	// NodeLength is the size of the node section, excluding the header.
	NodeLength int
}

// IsKBin reports whether data starts with a KBin signature.
func IsKBin(data []byte) bool {
	return len(data) >= 2 && data[0] == signature && (data[1] == sigCompressed || data[1] == sigLiteral)
}

// ParseHeader validates and reads the frame header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, decodeError(KindMalformedHeader, 0, nil, "need %d header bytes, got %d", headerSize, len(data))
	}
	if !IsKBin(data) {
		return Header{}, decodeError(KindMalformedHeader, 0, nil, "bad signature %02x %02x", data[0], data[1])
	}
	enc, ok := encodingFromID(data[2])
	if !ok {
		return Header{}, decodeError(KindMalformedHeader, 2, nil, "unknown encoding id 0x%02x", data[2])
	}
	if data[3] != 0xFF^data[2] {
		return Header{}, decodeError(KindMalformedHeader, 3, nil, "encoding checksum 0x%02x does not match id 0x%02x", data[3], data[2])
	}
	nodeLen := int(binary.BigEndian.Uint32(data[4:8]))
	if nodeLen > len(data)-headerSize {
		return Header{}, decodeError(KindMalformedHeader, 4, nil, "node section of %d bytes exceeds payload", nodeLen)
	}
	return Header{
		Encoding:        enc,
		CompressedNames: data[1] == sigCompressed,
		NodeLength:      nodeLen,
	}, nil
}

// Decode parses a KBin payload leniently: an unknown type byte or
// truncated content ends the walk and the tree read so far is returned.
func Decode(data []byte) (*Node, error) {
	root, _, err := decode(data, DecodeOptions{})
	return root, err
}

// DecodeWith parses a KBin payload with the given options.
func DecodeWith(data []byte, opts DecodeOptions) (*Node, error) {
	root, _, err := decode(data, opts)
	return root, err
}

type decoder struct {
	header    Header
	nodes     *buffer.Reader
	data      *buffer.Reader
	dataStart int
}

func decode(input []byte, opts DecodeOptions) (*Node, Header, error) {
	h, err := ParseHeader(input)
	if err != nil {
		return nil, h, err
	}

	nodeEnd := headerSize + h.NodeLength
	dataEnd := len(input)
	if nodeEnd+4 <= len(input) {
		dataEnd = nodeEnd + 4 + int(binary.BigEndian.Uint32(input[nodeEnd:]))
	}
	d := &decoder{
		header:    h,
		nodes:     buffer.NewReader(input, headerSize, nodeEnd),
		data:      buffer.NewReader(input, nodeEnd, dataEnd),
		dataStart: nodeEnd,
	}
	// Data offsets are taken past the section length so that slot
	// alignment matches the writer's.
	_, _ = d.data.ReadU32()

	root, stop := d.walk()
	if stop != nil {
		if opts.Strict {
			return root, h, stop
		}
		Logger().Warn("kbin decode stopped early",
			zap.Int("offset", stop.Offset),
			zap.String("kind", string(stop.Kind)),
			zap.Error(stop))
	}
	if root == nil {
		if stop != nil {
			return nil, h, stop
		}
		return nil, h, decodeError(KindTruncated, headerSize, nil, "no root node")
	}
	return root, h, nil
}

// walk reads the node section. The returned error, if any, says why the
// walk stopped before a section end.
func (d *decoder) walk() (*Node, *Error) {
	var (
		root  *Node
		cur   *Node
		stack []*Node
	)

	for d.nodes.HasData() {
		at := headerSize + d.nodes.Offset()
		b, rerr := d.nodes.ReadByte()
		if rerr != nil {
			return root, decodeError(KindTruncated, at, rerr, "node section")
		}
		if b == 0 {
			continue
		}

		isArray := b&arrayFlag != 0
		t := Type(b &^ arrayFlag)

		switch t {
		case TypeNodeEnd:
			if len(stack) > 0 {
				cur = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
			continue
		case TypeSectionEnd:
			return root, nil
		}
		if t != TypeAttr && !t.Valid() {
			return root, decodeError(KindUnknownType, at, nil, "unknown type byte 0x%02x", b)
		}

		name, err := d.readName()
		if err != nil {
			return root, err
		}

		if t == TypeAttr {
			value, err := d.readString()
			if err != nil {
				return root, err
			}
			if cur != nil {
				cur.SetAttr(name, value)
			}
			continue
		}

		node := NewNode(name)
		switch {
		case cur != nil:
			cur.Add(node)
		case root == nil:
			root = node
		default:
			return root, decodeError(KindUnknownType, at, nil, "second root node %s", name)
		}
		stack = append(stack, cur)
		cur = node

		if t == TypeVoid {
			continue
		}
		if node.Value, err = d.readContent(t, isArray); err != nil {
			return root, err
		}
	}
	return root, nil
}

func (d *decoder) readName() (string, *Error) {
	at := headerSize + d.nodes.Offset()
	if d.header.CompressedNames {
		name, err := sixbit.Unpack(d.nodes)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, buffer.ErrShortBuffer) {
				return "", decodeError(KindTruncated, at, err, "name")
			}
			return "", decodeError(KindInvalidName, at, err, "name")
		}
		return name, nil
	}

	lb, err := d.nodes.ReadByte()
	if err != nil {
		return "", decodeError(KindTruncated, at, err, "name length")
	}
	raw, err := d.nodes.ReadBytes(int(lb&^literalNameFlag) + 1)
	if err != nil {
		return "", decodeError(KindTruncated, at, err, "name")
	}
	name, err := d.header.Encoding.Decode(raw)
	if err != nil {
		return "", decodeError(KindInvalidName, at, err, "name")
	}
	return name, nil
}

func (d *decoder) readString() (string, *Error) {
	at := d.dataStart + d.data.Offset()
	raw, err := d.data.ReadStream()
	if err != nil {
		return "", decodeError(KindTruncated, at, err, "string")
	}
	s, err := d.header.Encoding.Decode(raw)
	if err != nil {
		return "", decodeError(KindInvalidValue, at, err, "string")
	}
	return strings.TrimSuffix(s, "\x00"), nil
}

func (d *decoder) readContent(t Type, isArray bool) (Value, *Error) {
	switch t {
	case TypeStr:
		s, err := d.readString()
		if err != nil {
			return Value{}, err
		}
		return Str(s), nil
	case TypeBin:
		at := d.dataStart + d.data.Offset()
		raw, err := d.data.ReadStream()
		if err != nil {
			return Value{}, decodeError(KindTruncated, at, err, "binary")
		}
		return Bin(append([]byte{}, raw...)), nil
	}

	at := d.dataStart + d.data.Offset()
	var (
		raw []uint64
		err error
	)
	if isArray {
		raw, err = d.data.ReadArray(t.Width())
	} else {
		raw, err = d.data.ReadPacked(t.Width(), t.Count())
	}
	if err != nil {
		return Value{}, decodeError(KindTruncated, at, err, "%s content", t)
	}
	// A trailing partial element cannot be represented.
	raw = raw[:len(raw)-len(raw)%t.Count()]

	v := Value{typ: t, shape: ShapeScalar, nums: fromWire(t, raw)}
	switch {
	case isArray:
		v.shape = ShapeArray
	case t.Count() > 1:
		v.shape = ShapeVector
	}
	return v, nil
}

func fromWire(t Type, raw []uint64) []Number {
	width := t.Width()
	out := make([]Number, len(raw))
	for i, w := range raw {
		switch {
		case t.Float() && width == 4:
			out[i] = Float(float64(math.Float32frombits(uint32(w))))
		case t.Float():
			out[i] = Number(w)
		case t.Bool():
			out[i] = Flag(w != 0)
		case t.Signed():
			shift := uint(64 - width*8)
			out[i] = Int(int64(w<<shift) >> shift)
		default:
			out[i] = Uint(w)
		}
	}
	return out
}

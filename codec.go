package kbin

import (
	"fmt"

	"go.uber.org/zap"
)

// Format is the outer form of a payload.
type Format uint8

const (
	FormatXML Format = iota
	FormatKBin
)

func (f Format) String() string {
	if f == FormatKBin {
		return "kbin"
	}
	return "xml"
}

// Sniff reports whether a payload is KBin or XML text.
func Sniff(data []byte) Format {
	if IsKBin(data) {
		return FormatKBin
	}
	return FormatXML
}

// Document is a decoded payload together with the framing it arrived in,
// so that a response can be written the same way.
type Document struct {
	Root            *Node
	Format          Format
	Encoding        Encoding
	CompressedNames bool
}

// Reply returns a document carrying root in the same framing as d.
func (d *Document) Reply(root *Node) *Document {
	return &Document{
		Root:            root,
		Format:          d.Format,
		Encoding:        d.Encoding,
		CompressedNames: d.CompressedNames,
	}
}

// Unmarshal decodes a KBin or XML payload, leniently for KBin.
func Unmarshal(payload []byte) (*Document, error) {
	return UnmarshalWith(payload, DecodeOptions{})
}

// UnmarshalWith decodes a KBin or XML payload with the given options.
func UnmarshalWith(payload []byte, opts DecodeOptions) (*Document, error) {
	format := Sniff(payload)
	Logger().Debug("kbin payload sniffed", zap.Stringer("format", format), zap.Int("size", len(payload)))

	if format == FormatKBin {
		root, h, err := decode(payload, opts)
		if err != nil {
			return nil, err
		}
		return &Document{Root: root, Format: FormatKBin, Encoding: h.Encoding, CompressedNames: h.CompressedNames}, nil
	}

	root, err := UnmarshalXML(payload)
	if err != nil {
		return nil, err
	}
	return &Document{Root: root, Format: FormatXML, Encoding: DetectXMLEncoding(payload)}, nil
}

// Marshal encodes a document in its recorded framing.
func Marshal(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, newError(PhaseEncode, KindInvalidValue, nil, "nil document")
	}
	if doc.Format == FormatKBin {
		return Encode(doc.Root, EncodeOptions{Encoding: doc.Encoding, LiteralNames: !doc.CompressedNames})
	}
	return MarshalXML(doc.Root, XMLOptions{Encoding: doc.Encoding, Header: true, Indent: "  "})
}

// Codec implements Encoder for trees. It writes KBin and reads either
// KBin or XML.
type Codec struct {
	Encoding     Encoding
	LiteralNames bool
	Strict       bool
}

var _ Encoder = &Codec{}

// NewCodec creates a codec writing Shift_JIS KBin with six-bit names.
func NewCodec() *Codec {
	return &Codec{Encoding: EncodingShiftJIS}
}

// Encode serializes a *Node, Node or *Document. Documents keep their own
// framing.
func (c *Codec) Encode(v any) ([]byte, error) {
	switch tv := v.(type) {
	case *Document:
		return Marshal(tv)
	case *Node:
		return Encode(tv, EncodeOptions{Encoding: c.Encoding, LiteralNames: c.LiteralNames})
	case Node:
		return Encode(&tv, EncodeOptions{Encoding: c.Encoding, LiteralNames: c.LiteralNames})
	}
	return nil, fmt.Errorf("kbin: cannot encode %T", v)
}

// Decode parses data into a *Node, **Node or *Document.
func (c *Codec) Decode(data []byte, v any) error {
	doc, err := UnmarshalWith(data, DecodeOptions{Strict: c.Strict})
	if err != nil {
		return err
	}
	switch tv := v.(type) {
	case *Document:
		*tv = *doc
	case **Node:
		*tv = doc.Root
	case *Node:
		*tv = *doc.Root
	default:
		return fmt.Errorf("kbin: cannot decode into %T", v)
	}
	return nil
}

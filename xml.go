package kbin

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	typeAttr  = ReservedPrefix + "type"
	countAttr = ReservedPrefix + "count"

	// xmlSniffLen is how much of a document is searched for a declaration.
	xmlSniffLen = 128
)

// XMLOptions controls XML output.
type XMLOptions struct {
	// Encoding is the output code page. The zero value selects UTF-8.
	Encoding Encoding
	// Header prepends an XML declaration naming the code page.
	Header bool
	// Indent is repeated once per depth level. An empty indent renders
	// the whole document on one line.
	Indent string
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&apos;",
	"<", "&lt;",
	">", "&gt;",
)

var xmlDeclEncoding = regexp.MustCompile(`<\?xml.*encoding=['"]([^'"]*)['"].*?\?>`)

// MarshalXML renders the tree as XML text in the requested code page.
func MarshalXML(root *Node, opts XMLOptions) ([]byte, error) {
	if root == nil {
		return nil, newError(PhaseXML, KindInvalidValue, nil, "nil root node")
	}
	if opts.Encoding == 0 {
		opts.Encoding = EncodingUTF8
	}

	var sb strings.Builder
	if opts.Header {
		sb.WriteString("<?xml version='1.0' encoding='")
		sb.WriteString(opts.Encoding.XMLName())
		sb.WriteString("'?>\n")
	}
	writeXMLNode(&sb, root, opts.Indent, 0)

	out, err := opts.Encoding.Encode(sb.String())
	if err != nil {
		xerr := newError(PhaseXML, KindInvalidValue, nil, "document not representable in %s", opts.Encoding)
		xerr.Cause = err
		return nil, xerr
	}
	return out, nil
}

func writeXMLNode(sb *strings.Builder, n *Node, indent string, depth int) {
	newline := func() {
		if indent != "" {
			sb.WriteByte('\n')
		}
	}
	pad := strings.Repeat(indent, depth)

	sb.WriteString(pad)
	sb.WriteByte('<')
	sb.WriteString(n.Name)
	if !n.Value.IsVoid() {
		writeXMLAttr(sb, typeAttr, n.Value.Type().String())
		if n.Value.IsArray() {
			writeXMLAttr(sb, countAttr, strconv.Itoa(n.Value.Count()))
		}
	}
	for _, k := range n.AttrKeys() {
		writeXMLAttr(sb, k, n.attrs[k])
	}

	text := n.Value.Text()
	if text == "" && !n.HasChildren() {
		sb.WriteString("/>")
		newline()
		return
	}

	sb.WriteByte('>')
	sb.WriteString(xmlEscaper.Replace(text))
	if n.HasChildren() {
		newline()
		for _, s := range n.slots {
			for _, c := range s.Nodes {
				writeXMLNode(sb, c, indent, depth+1)
			}
		}
		sb.WriteString(pad)
	}
	sb.WriteString("</")
	sb.WriteString(n.Name)
	sb.WriteByte('>')
	newline()
}

func writeXMLAttr(sb *strings.Builder, key, value string) {
	sb.WriteByte(' ')
	sb.WriteString(key)
	sb.WriteString(`="`)
	sb.WriteString(xmlEscaper.Replace(value))
	sb.WriteByte('"')
}

// DetectXMLEncoding reads the code page named in the XML declaration.
// Documents without a declaration, or naming an unknown code page, are
// UTF-8.
func DetectXMLEncoding(data []byte) Encoding {
	head := data[:min(len(data), xmlSniffLen)]
	m := xmlDeclEncoding.FindSubmatch(head)
	if m == nil {
		return EncodingUTF8
	}
	if enc, ok := ParseEncoding(string(m[1])); ok {
		return enc
	}
	return EncodingUTF8
}

type xmlFrame struct {
	node    *Node
	typ     string
	count   string
	hasType bool
	isArray bool
	text    strings.Builder
}

// UnmarshalXML parses an XML document into a tree. The code page is taken
// from the declaration. Elements with a __type attribute get typed
// content; untyped elements with text become strings and the rest are
// void.
func UnmarshalXML(data []byte) (*Node, error) {
	enc := DetectXMLEncoding(data)
	text, err := enc.Decode(data)
	if err != nil {
		xerr := newError(PhaseXML, KindXMLSyntax, nil, "cannot decode %s text", enc)
		xerr.Cause = err
		return nil, xerr
	}

	dec := xml.NewDecoder(strings.NewReader(text))
	// The text is UTF-8 already, whatever the declaration says.
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var (
		root  *Node
		stack []*xmlFrame
		path  []string
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			xerr := newError(PhaseXML, KindXMLSyntax, path, "malformed document")
			xerr.Cause = err
			return nil, xerr
		}

		switch t := tok.(type) {
		case xml.StartElement:
			f := &xmlFrame{node: NewNode(xmlName(t.Name))}
			for _, a := range t.Attr {
				switch key := xmlName(a.Name); key {
				case typeAttr:
					f.typ, f.hasType = a.Value, true
				case countAttr:
					f.count, f.isArray = a.Value, true
				default:
					f.node.SetAttr(key, a.Value)
				}
			}
			switch {
			case len(stack) > 0:
				stack[len(stack)-1].node.Add(f.node)
			case root == nil:
				root = f.node
			default:
				return nil, newError(PhaseXML, KindXMLSyntax, nil, "second root element %s", f.node.Name)
			}
			stack = append(stack, f)
			path = append(path, f.node.Name)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			f := stack[len(stack)-1]
			if err := f.finish(path); err != nil {
				return nil, err
			}
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
		}
	}

	if root == nil {
		return nil, newError(PhaseXML, KindXMLSyntax, nil, "no root element")
	}
	return root, nil
}

func (f *xmlFrame) finish(path []string) error {
	v, err := contentFromText(PhaseXML, path, f.typ, f.hasType, f.count, f.isArray, strings.TrimSpace(f.text.String()))
	if err != nil {
		return err
	}
	f.node.Value = v
	return nil
}

func xmlName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// MarshalIndentXML is MarshalXML with a UTF-8 declaration and two-space
// indentation, the form used for logs and the command line.
func MarshalIndentXML(root *Node) ([]byte, error) {
	return MarshalXML(root, XMLOptions{Encoding: EncodingUTF8, Header: true, Indent: "  "})
}

package kbin

import (
	"errors"
	"strings"
	"testing"
)

func TestMarshalXMLCompact(t *testing.T) {
	root := NewNode("root").Add(
		NewItem("v", Str(`x <y> "z" & 'w'`)).SetAttr("k", "a&b"),
		NewNode("e"),
		NewItem("n", Array(TypeU8, Uints(1, 2)...)),
	)

	out, err := MarshalXML(root, XMLOptions{})
	if err != nil {
		t.Fatalf("MarshalXML() failed: %v", err)
	}

	expected := `<root><v __type="str" k="a&amp;b">x &lt;y&gt; &quot;z&quot; &amp; &apos;w&apos;</v><e/><n __type="u8" __count="2">1 2</n></root>`
	if string(out) != expected {
		t.Errorf("Expected %s, got %s", expected, string(out))
	}
}

func TestMarshalIndentXML(t *testing.T) {
	root := NewNode("response").Add(NewNode("cardmng").SetAttr("status", "0"))

	out, err := MarshalIndentXML(root)
	if err != nil {
		t.Fatalf("MarshalIndentXML() failed: %v", err)
	}

	expected := "<?xml version='1.0' encoding='UTF-8'?>\n<response>\n  <cardmng status=\"0\"/>\n</response>\n"
	if string(out) != expected {
		t.Errorf("Expected %q, got %q", expected, string(out))
	}
}

func TestXMLRoundTrip(t *testing.T) {
	for _, enc := range []Encoding{EncodingShiftJIS, EncodingEUCJP, EncodingUTF8} {
		t.Run(enc.String(), func(t *testing.T) {
			tree := sampleTree("テスト曲")

			out, err := MarshalXML(tree, XMLOptions{Encoding: enc, Header: true, Indent: "\t"})
			if err != nil {
				t.Fatalf("MarshalXML() failed: %v", err)
			}
			if got := DetectXMLEncoding(out); got != enc {
				t.Errorf("Expected detected encoding %s, got %s", enc, got)
			}

			decoded, err := UnmarshalXML(out)
			if err != nil {
				t.Fatalf("UnmarshalXML() failed: %v", err)
			}
			if !decoded.Equal(tree) {
				t.Errorf("Expected %s, got %s", tree, decoded)
			}
		})
	}
}

func TestMarshalXMLUnrepresentable(t *testing.T) {
	_, err := MarshalXML(NewItem("a", Str("é")), XMLOptions{Encoding: EncodingASCII})
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Expected ErrInvalidValue, got %v", err)
	}
}

func TestUnmarshalXMLContent(t *testing.T) {
	doc := `<?xml version="1.0"?>
<call model="KFC:J:A:A:2019020600">
  <cardmng method="inquire">
    <refid>  ABCDEF  </refid>
    <cnt __type="u16">  12 </cnt>
    <pos __type="3s32">-1 0 1</pos>
    <list __type="s8" __count="3">1 -2 3</list>
    <raw __type="binary">0aff</raw>
    <flag __type="bool">true</flag>
    <nothing/>
    <ns:tag/>
  </cardmng>
</call>`

	root, err := UnmarshalXML([]byte(doc))
	if err != nil {
		t.Fatalf("UnmarshalXML() failed: %v", err)
	}

	body := root.Child("cardmng")
	if body == nil || body.Attr("method") != "inquire" {
		t.Fatalf("Expected cardmng with method inquire, got %s", root)
	}

	tests := []struct {
		name string
		want Value
	}{
		{"refid", Str("ABCDEF")},
		{"cnt", Scalar(TypeU16, Uint(12))},
		{"pos", Vector(Type3S32, Ints(-1, 0, 1)...)},
		{"list", Array(TypeS8, Ints(1, -2, 3)...)},
		{"raw", Bin([]byte{0x0a, 0xff})},
		{"flag", Bool(true)},
		{"nothing", Void()},
		{"ns:tag", Void()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := body.Child(tt.name)
			if n == nil {
				t.Fatalf("Expected child %s", tt.name)
			}
			if !n.Value.Equal(tt.want) {
				t.Errorf("Expected %s content %q, got %q", tt.want.Type(), tt.want.Text(), n.Value.Text())
			}
		})
	}
}

func TestUnmarshalXMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"malformed", `<a><b></a>`, ErrXMLSyntax},
		{"empty", ``, ErrXMLSyntax},
		{"second root", `<a/><b/>`, ErrXMLSyntax},
		{"count mismatch", `<a __type="u8" __count="3">1 2</a>`, ErrInvalidValue},
		{"bad number", `<a __type="u8">300</a>`, ErrInvalidValue},
		{"signed overflow", `<a __type="s8">200</a>`, ErrInvalidValue},
		{"array overflow", `<a __type="u16" __count="2">1 70000</a>`, ErrInvalidValue},
		{"vector arity", `<a __type="2u8">1</a>`, ErrInvalidValue},
		{"empty numeric", `<a __type="s32"></a>`, ErrInvalidValue},
		{"unknown type", `<a __type="u128">1</a>`, ErrMissingTypeTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalXML([]byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUnmarshalXMLErrorPath(t *testing.T) {
	_, err := UnmarshalXML([]byte(`<call><game><score __type="u8">x</score></game></call>`))

	var kerr *Error
	if !errors.As(err, &kerr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if strings.Join(kerr.Path, ".") != "call.game.score" {
		t.Errorf("Expected path call.game.score, got %v", kerr.Path)
	}
	if kerr.Phase != PhaseXML {
		t.Errorf("Expected xml phase, got %s", kerr.Phase)
	}
}

func TestDetectXMLEncoding(t *testing.T) {
	tests := []struct {
		doc  string
		want Encoding
	}{
		{`<?xml version="1.0" encoding="Shift_JIS"?><a/>`, EncodingShiftJIS},
		{`<?xml version='1.0' encoding='euc-jp'?><a/>`, EncodingEUCJP},
		{`<?xml version="1.0" encoding="ISO-8859-1"?><a/>`, EncodingISO88591},
		{`<?xml version="1.0" encoding="koi8-r"?><a/>`, EncodingUTF8},
		{`<?xml version="1.0"?><a/>`, EncodingUTF8},
		{`<a/>`, EncodingUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			if got := DetectXMLEncoding([]byte(tt.doc)); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

package kbin

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is a text code page, identified by the id byte it carries in
// the KBin header.
type Encoding uint8

// Supported code pages. 0x00 is also read as Shift_JIS.
const (
	EncodingShiftJIS Encoding = 0x80
	EncodingASCII    Encoding = 0x20
	EncodingISO88591 Encoding = 0x40
	EncodingEUCJP    Encoding = 0x60
	EncodingUTF8     Encoding = 0xA0
)

// Encodings lists every supported code page.
var Encodings = []Encoding{EncodingShiftJIS, EncodingASCII, EncodingISO88591, EncodingEUCJP, EncodingUTF8}

var encodingLabels = map[string]Encoding{
	"shift_jis":  EncodingShiftJIS,
	"shift-jis":  EncodingShiftJIS,
	"shiftjis":   EncodingShiftJIS,
	"sjis":       EncodingShiftJIS,
	"ascii":      EncodingASCII,
	"us-ascii":   EncodingASCII,
	"iso-8859-1": EncodingISO88591,
	"iso8859-1":  EncodingISO88591,
	"latin1":     EncodingISO88591,
	"euc-jp":     EncodingEUCJP,
	"euc_jp":     EncodingEUCJP,
	"eucjp":      EncodingEUCJP,
	"utf-8":      EncodingUTF8,
	"utf_8":      EncodingUTF8,
	"utf8":       EncodingUTF8,
}

// ParseEncoding resolves a code page label as found in an XML
// declaration or on the command line.
func ParseEncoding(label string) (Encoding, bool) {
	e, ok := encodingLabels[strings.ToLower(strings.TrimSpace(label))]
	return e, ok
}

// encodingFromID maps a header id byte to its code page.
func encodingFromID(id byte) (Encoding, bool) {
	switch id {
	case 0x00, 0x80:
		return EncodingShiftJIS, true
	case 0x20, 0x40, 0x60, 0xA0:
		return Encoding(id), true
	}
	return 0, false
}

// ID returns the header id byte.
func (e Encoding) ID() byte {
	return byte(e)
}

// Valid reports whether e is a supported code page.
func (e Encoding) Valid() bool {
	_, ok := encodingFromID(byte(e))
	return ok && e != 0
}

// String returns the lower-case label.
func (e Encoding) String() string {
	switch e {
	case EncodingShiftJIS:
		return "shift_jis"
	case EncodingASCII:
		return "ascii"
	case EncodingISO88591:
		return "iso-8859-1"
	case EncodingEUCJP:
		return "euc-jp"
	case EncodingUTF8:
		return "utf-8"
	}
	return fmt.Sprintf("encoding(0x%02x)", byte(e))
}

// XMLName returns the name written in an XML declaration.
func (e Encoding) XMLName() string {
	switch e {
	case EncodingShiftJIS:
		return "Shift_JIS"
	case EncodingASCII:
		return "ASCII"
	case EncodingISO88591:
		return "ISO-8859-1"
	case EncodingEUCJP:
		return "EUC-JP"
	}
	return "UTF-8"
}

func (e Encoding) codec() encoding.Encoding {
	switch e {
	case EncodingShiftJIS:
		return japanese.ShiftJIS
	case EncodingEUCJP:
		return japanese.EUCJP
	case EncodingISO88591:
		return charmap.ISO8859_1
	}
	return unicode.UTF8
}

// Encode converts s to the code page. Characters the code page cannot
// represent are an error.
func (e Encoding) Encode(s string) ([]byte, error) {
	if e == EncodingASCII {
		for i := 0; i < len(s); i++ {
			if s[i] >= utf8.RuneSelf {
				return nil, fmt.Errorf("non-ASCII character in %q", s)
			}
		}
		return []byte(s), nil
	}
	if e == EncodingUTF8 || !e.Valid() {
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("invalid UTF-8 in %q", s)
		}
		return []byte(s), nil
	}
	return e.codec().NewEncoder().Bytes([]byte(s))
}

// Decode converts code page bytes to a string. Undecodable bytes become
// U+FFFD.
func (e Encoding) Decode(b []byte) (string, error) {
	if e == EncodingASCII {
		var sb strings.Builder
		sb.Grow(len(b))
		for _, c := range b {
			if c >= utf8.RuneSelf {
				sb.WriteRune(utf8.RuneError)
			} else {
				sb.WriteByte(c)
			}
		}
		return sb.String(), nil
	}
	if e == EncodingUTF8 || !e.Valid() {
		return strings.ToValidUTF8(string(b), "�"), nil
	}
	out, err := e.codec().NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

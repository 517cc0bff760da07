package kbin

import (
	"encoding/hex"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
)

// Text returns the content in its XML text form: strings verbatim,
// binary as lower-case hex, ip4 components dotted, and every other
// numeric component in decimal, space separated.
func (v Value) Text() string {
	if v.shape == ShapeVoid {
		return ""
	}
	switch v.typ {
	case TypeStr:
		return v.str
	case TypeBin:
		return hex.EncodeToString(v.bin)
	}

	parts := make([]string, len(v.nums))
	for i, n := range v.nums {
		parts[i] = formatNumber(v.typ, n)
	}
	return strings.Join(parts, " ")
}

func formatNumber(t Type, n Number) string {
	switch {
	case t == TypeIP4:
		return uintToIP(uint32(n)).String()
	case t.Float():
		bits := 64
		if t.Width() == 4 {
			bits = 32
		}
		return strconv.FormatFloat(n.Float(), 'f', -1, bits)
	case t.Bool():
		if n.Bool() {
			return "1"
		}
		return "0"
	case t.Signed():
		return strconv.FormatInt(n.Int(), 10)
	}
	return strconv.FormatUint(n.Uint(), 10)
}

// ParseValue builds content of type t from its text form. Arrays take
// any whole number of elements; other numeric content must supply
// exactly t.Count() components.
func ParseValue(t Type, array bool, text string) (Value, error) {
	switch t {
	case TypeVoid:
		return Void(), nil
	case TypeStr:
		return Str(text), nil
	case TypeBin:
		b, err := hex.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return Value{}, err
		}
		return Bin(b), nil
	}
	if !t.Numeric() {
		return Value{}, fmt.Errorf("%s cannot hold content", t)
	}

	fields := strings.Fields(text)
	nums := make([]Number, len(fields))
	for i, f := range fields {
		n, err := parseNumber(t, f)
		if err != nil {
			return Value{}, err
		}
		if !fits(t, n) {
			return Value{}, fmt.Errorf("%s overflows %s", f, t)
		}
		nums[i] = n
	}

	switch {
	case array:
		if len(nums)%t.Count() != 0 {
			return Value{}, fmt.Errorf("%d components is not a whole number of %s elements", len(nums), t)
		}
		return Array(t, nums...), nil
	case len(nums) != t.Count():
		return Value{}, fmt.Errorf("%s needs %d components, got %d", t, t.Count(), len(nums))
	case t.Count() == 1:
		return Scalar(t, nums[0]), nil
	}
	return Vector(t, nums...), nil
}

func parseNumber(t Type, s string) (Number, error) {
	switch {
	case t == TypeIP4:
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return 0, err
		}
		if !addr.Is4() {
			return 0, fmt.Errorf("%s is not an IPv4 address", s)
		}
		return Uint(uint64(ipToUint(addr))), nil
	case t.Float():
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return Float(f), nil
	case t.Bool():
		switch strings.ToLower(s) {
		case "true":
			return Flag(true), nil
		case "false":
			return Flag(false), nil
		}
		switch f, err := strconv.ParseFloat(s, 64); {
		case err == nil && f == 0:
			return Flag(false), nil
		case err == nil && f == 1:
			return Flag(true), nil
		}
		return 0, fmt.Errorf("%q is not a bool", s)
	case t.Signed():
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("%q is not an integer", s)
		}
		return Int(int64(f)), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Uint(u), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
		return 0, fmt.Errorf("%q is not an unsigned integer", s)
	}
	return Uint(uint64(f)), nil
}

// fits reports whether n is representable in one component of t. Float
// and bool components always fit.
func fits(t Type, n Number) bool {
	bits := uint(t.Width() * 8)
	switch {
	case bits == 0 || bits >= 64 || t.Float() || t.Bool():
		return true
	case t.Signed():
		x := n.Int()
		return x >= -(1<<(bits-1)) && x <= 1<<(bits-1)-1
	}
	return n.Uint() < 1<<bits
}

// contentFromText resolves the reserved __type and __count attributes and
// the text of an element into content. Untyped text is a string and
// untyped empty elements are void.
func contentFromText(phase Phase, path []string, typ string, hasType bool, count string, isArray bool, text string) (Value, error) {
	if !hasType {
		if text != "" {
			return Str(text), nil
		}
		return Void(), nil
	}

	t, ok := ParseType(typ)
	if !ok || t == TypeVoid && text != "" {
		return Value{}, newError(phase, KindMissingTypeTag, path, "unknown type %q", typ)
	}
	array := isArray && t.Numeric()
	if !array && t.Numeric() && text == "" {
		return Value{}, newError(phase, KindInvalidValue, path, "%s element has no content", t)
	}
	v, err := ParseValue(t, array, text)
	if err != nil {
		xerr := newError(phase, KindInvalidValue, path, "bad %s content", t)
		xerr.Cause = err
		return Value{}, xerr
	}
	if array {
		if n, err := strconv.Atoi(strings.TrimSpace(count)); err != nil || n != v.Count() {
			return Value{}, newError(phase, KindInvalidValue, path, "__count %q does not match %d elements", count, v.Count())
		}
	}
	return v, nil
}

package kbin

import (
	"bytes"
	"math"
	"net/netip"
	"time"
)

// Number is one numeric component held as raw bits. Integers are sign-
// or zero-extended to 64 bits, floats are stored as float64 bits, and
// booleans as 0 or 1.
type Number uint64

// Int wraps a signed integer component.
func Int(v int64) Number { return Number(uint64(v)) }

// Uint wraps an unsigned integer component.
func Uint(v uint64) Number { return Number(v) }

// Float wraps a floating point component.
func Float(v float64) Number { return Number(math.Float64bits(v)) }

// Flag wraps a boolean component.
func Flag(v bool) Number {
	if v {
		return 1
	}
	return 0
}

// Int returns the component as a signed integer.
func (n Number) Int() int64 { return int64(n) }

// Uint returns the component as an unsigned integer.
func (n Number) Uint() uint64 { return uint64(n) }

// Float returns the component as a float.
func (n Number) Float() float64 { return math.Float64frombits(uint64(n)) }

// Bool returns the component as a boolean.
func (n Number) Bool() bool { return n != 0 }

// Ints converts signed integers to components.
func Ints(vs ...int64) []Number {
	out := make([]Number, len(vs))
	for i, v := range vs {
		out[i] = Int(v)
	}
	return out
}

// Uints converts unsigned integers to components.
func Uints(vs ...uint64) []Number {
	out := make([]Number, len(vs))
	for i, v := range vs {
		out[i] = Uint(v)
	}
	return out
}

// Floats converts floats to components.
func Floats(vs ...float64) []Number {
	out := make([]Number, len(vs))
	for i, v := range vs {
		out[i] = Float(v)
	}
	return out
}

// Flags converts booleans to components.
func Flags(vs ...bool) []Number {
	out := make([]Number, len(vs))
	for i, v := range vs {
		out[i] = Flag(v)
	}
	return out
}

// Shape is the structural form of a node's content.
type Shape uint8

const (
	// ShapeVoid is a node without content.
	ShapeVoid Shape = iota
	// ShapeScalar is one value: a single number, a string or a blob.
	ShapeScalar
	// ShapeVector is one fixed-size group of 2 to 16 components.
	ShapeVector
	// ShapeArray is a variable-length run of elements.
	ShapeArray
)

func (s Shape) String() string {
	switch s {
	case ShapeVoid:
		return "void"
	case ShapeScalar:
		return "scalar"
	case ShapeVector:
		return "vector"
	case ShapeArray:
		return "array"
	}
	return "unknown"
}

// Value is the typed content of a node. The zero Value is void.
type Value struct {
	typ   Type
	shape Shape
	str   string
	bin   []byte
	nums  []Number
}

// Void returns empty content.
func Void() Value {
	return Value{}
}

// Str returns string content.
func Str(s string) Value {
	return Value{typ: TypeStr, shape: ShapeScalar, str: s}
}

// Bin returns binary content.
func Bin(b []byte) Value {
	return Value{typ: TypeBin, shape: ShapeScalar, bin: b}
}

// Scalar returns a single-component numeric value of type t.
func Scalar(t Type, n Number) Value {
	return Value{typ: t, shape: ShapeScalar, nums: normalize(t, []Number{n})}
}

// Vector returns one element of a multi-component type such as 3s32.
// For single-component types the result is a scalar.
func Vector(t Type, components ...Number) Value {
	if t.Count() == 1 {
		return Value{typ: t, shape: ShapeScalar, nums: normalize(t, components)}
	}
	return Value{typ: t, shape: ShapeVector, nums: normalize(t, components)}
}

// Array returns a variable-length run of elements of type t. For vector
// types the components of consecutive elements are concatenated.
func Array(t Type, components ...Number) Value {
	return Value{typ: t, shape: ShapeArray, nums: normalize(t, components)}
}

// Bool returns a bool scalar.
func Bool(v bool) Value {
	return Scalar(TypeBool, Flag(v))
}

// IP4 returns an ip4 scalar. Non-IPv4 addresses yield 0.0.0.0.
func IP4(addr netip.Addr) Value {
	return Scalar(TypeIP4, Uint(uint64(ipToUint(addr))))
}

// Time returns a time scalar holding Unix seconds.
func Time(t time.Time) Value {
	return Scalar(TypeTime, Uint(uint64(uint32(t.Unix()))))
}

// normalize rounds float32 components so that content compares equal
// after a trip through the wire.
func normalize(t Type, ns []Number) []Number {
	if !t.Float() || t.Width() != 4 {
		return ns
	}
	out := make([]Number, len(ns))
	for i, n := range ns {
		out[i] = Float(float64(float32(n.Float())))
	}
	return out
}

// Type returns the content type; void content reports TypeVoid.
func (v Value) Type() Type {
	if v.shape == ShapeVoid {
		return TypeVoid
	}
	return v.typ
}

// Shape returns the structural form of the content.
func (v Value) Shape() Shape {
	return v.shape
}

// IsVoid reports whether the value carries no content.
func (v Value) IsVoid() bool {
	return v.shape == ShapeVoid
}

// IsArray reports whether the value is a variable-length array.
func (v Value) IsArray() bool {
	return v.shape == ShapeArray
}

// Str returns string content, or "" for other types.
func (v Value) Str() string {
	return v.str
}

// Bin returns binary content, or nil for other types.
func (v Value) Bin() []byte {
	return v.bin
}

// Numbers returns the numeric components. The slice must not be
// modified.
func (v Value) Numbers() []Number {
	return v.nums
}

// Count returns the number of elements: the component count divided by
// the per-element component count for arrays, 1 for any other content
// and 0 for void.
func (v Value) Count() int {
	switch v.shape {
	case ShapeVoid:
		return 0
	case ShapeArray:
		if c := v.typ.Count(); c > 0 {
			return len(v.nums) / c
		}
		return 0
	}
	return 1
}

// Ints returns the components as signed integers.
func (v Value) Ints() []int64 {
	out := make([]int64, len(v.nums))
	for i, n := range v.nums {
		if v.typ.Float() {
			out[i] = int64(n.Float())
		} else {
			out[i] = n.Int()
		}
	}
	return out
}

// Uints returns the components as unsigned integers.
func (v Value) Uints() []uint64 {
	out := make([]uint64, len(v.nums))
	for i, n := range v.nums {
		if v.typ.Float() {
			out[i] = uint64(n.Float())
		} else {
			out[i] = n.Uint()
		}
	}
	return out
}

// Floats returns the components as floats.
func (v Value) Floats() []float64 {
	out := make([]float64, len(v.nums))
	for i, n := range v.nums {
		switch {
		case v.typ.Float():
			out[i] = n.Float()
		case v.typ.Signed():
			out[i] = float64(n.Int())
		default:
			out[i] = float64(n.Uint())
		}
	}
	return out
}

// Bools returns the components as booleans.
func (v Value) Bools() []bool {
	out := make([]bool, len(v.nums))
	for i, n := range v.nums {
		out[i] = n.Bool()
	}
	return out
}

// Addr returns the first component of an ip4 value as an address.
func (v Value) Addr() (netip.Addr, bool) {
	if v.typ != TypeIP4 || len(v.nums) == 0 {
		return netip.Addr{}, false
	}
	return uintToIP(uint32(v.nums[0])), true
}

// Equal reports whether both values have the same type, shape and
// content.
func (v Value) Equal(o Value) bool {
	if v.shape != o.shape {
		return false
	}
	if v.shape == ShapeVoid {
		return true
	}
	if v.typ != o.typ || v.str != o.str || !bytes.Equal(v.bin, o.bin) || len(v.nums) != len(o.nums) {
		return false
	}
	for i := range v.nums {
		if v.nums[i] != o.nums[i] {
			return false
		}
	}
	return true
}

func ipToUint(addr netip.Addr) uint32 {
	if !addr.Is4() {
		return 0
	}
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func uintToIP(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

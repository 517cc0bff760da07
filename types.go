package kbin

import (
	"strconv"
	"strings"
)

// Type is a KBin wire type identifier.
type Type uint8

// Wire type identifiers. The numbering is fixed by the protocol.
const (
	TypeInvalid Type = 0
	TypeVoid    Type = 1
	TypeS8      Type = 2
	TypeU8      Type = 3
	TypeS16     Type = 4
	TypeU16     Type = 5
	TypeS32     Type = 6
	TypeU32     Type = 7
	TypeS64     Type = 8
	TypeU64     Type = 9
	TypeBin     Type = 10
	TypeStr     Type = 11
	TypeIP4     Type = 12
	TypeTime    Type = 13
	TypeFloat   Type = 14
	TypeDouble  Type = 15
	Type2S8     Type = 16
	Type2U8     Type = 17
	Type2S16    Type = 18
	Type2U16    Type = 19
	Type2S32    Type = 20
	Type2U32    Type = 21
	Type2S64    Type = 22
	Type2U64    Type = 23
	Type2F      Type = 24
	Type2D      Type = 25
	Type3S8     Type = 26
	Type3U8     Type = 27
	Type3S16    Type = 28
	Type3U16    Type = 29
	Type3S32    Type = 30
	Type3U32    Type = 31
	Type3S64    Type = 32
	Type3U64    Type = 33
	Type3F      Type = 34
	Type3D      Type = 35
	Type4S8     Type = 36
	Type4U8     Type = 37
	Type4S16    Type = 38
	Type4U16    Type = 39
	Type4S32    Type = 40
	Type4U32    Type = 41
	Type4S64    Type = 42
	Type4U64    Type = 43
	Type4F      Type = 44
	Type4D      Type = 45
	TypeAttr    Type = 46
	TypeArray   Type = 47
	TypeVS8     Type = 48
	TypeVU8     Type = 49
	TypeVS16    Type = 50
	TypeVU16    Type = 51
	TypeBool    Type = 52
	Type2B      Type = 53
	Type3B      Type = 54
	Type4B      Type = 55
	TypeVB      Type = 56

	TypeNodeEnd    Type = 190
	TypeSectionEnd Type = 191
)

// arrayFlag marks an array node in the type byte.
const arrayFlag = 0x40

type class uint8

const (
	classNone class = iota
	classVoid
	classSigned
	classUnsigned
	classFloat
	classBool
	classIP4
	classTime
	classBin
	classStr
)

type typeInfo struct {
	name  string
	class class
	width int
	count int
}

var typeTable = [...]typeInfo{
	TypeInvalid: {name: "invalid"},
	TypeVoid:    {name: "void", class: classVoid},
	TypeS8:      {"s8", classSigned, 1, 1},
	TypeU8:      {"u8", classUnsigned, 1, 1},
	TypeS16:     {"s16", classSigned, 2, 1},
	TypeU16:     {"u16", classUnsigned, 2, 1},
	TypeS32:     {"s32", classSigned, 4, 1},
	TypeU32:     {"u32", classUnsigned, 4, 1},
	TypeS64:     {"s64", classSigned, 8, 1},
	TypeU64:     {"u64", classUnsigned, 8, 1},
	TypeBin:     {name: "bin", class: classBin},
	TypeStr:     {name: "str", class: classStr},
	TypeIP4:     {"ip4", classIP4, 4, 1},
	TypeTime:    {"time", classTime, 4, 1},
	TypeFloat:   {"float", classFloat, 4, 1},
	TypeDouble:  {"double", classFloat, 8, 1},
	Type2S8:     {"2s8", classSigned, 1, 2},
	Type2U8:     {"2u8", classUnsigned, 1, 2},
	Type2S16:    {"2s16", classSigned, 2, 2},
	Type2U16:    {"2u16", classUnsigned, 2, 2},
	Type2S32:    {"2s32", classSigned, 4, 2},
	Type2U32:    {"2u32", classUnsigned, 4, 2},
	Type2S64:    {"2s64", classSigned, 8, 2},
	Type2U64:    {"2u64", classUnsigned, 8, 2},
	Type2F:      {"2f", classFloat, 4, 2},
	Type2D:      {"2d", classFloat, 8, 2},
	Type3S8:     {"3s8", classSigned, 1, 3},
	Type3U8:     {"3u8", classUnsigned, 1, 3},
	Type3S16:    {"3s16", classSigned, 2, 3},
	Type3U16:    {"3u16", classUnsigned, 2, 3},
	Type3S32:    {"3s32", classSigned, 4, 3},
	Type3U32:    {"3u32", classUnsigned, 4, 3},
	Type3S64:    {"3s64", classSigned, 8, 3},
	Type3U64:    {"3u64", classUnsigned, 8, 3},
	Type3F:      {"3f", classFloat, 4, 3},
	Type3D:      {"3d", classFloat, 8, 3},
	Type4S8:     {"4s8", classSigned, 1, 4},
	Type4U8:     {"4u8", classUnsigned, 1, 4},
	Type4S16:    {"4s16", classSigned, 2, 4},
	Type4U16:    {"4u16", classUnsigned, 2, 4},
	Type4S32:    {"4s32", classSigned, 4, 4},
	Type4U32:    {"4u32", classUnsigned, 4, 4},
	Type4S64:    {"4s64", classSigned, 8, 4},
	Type4U64:    {"4u64", classUnsigned, 8, 4},
	Type4F:      {"4f", classFloat, 4, 4},
	Type4D:      {"4d", classFloat, 8, 4},
	TypeAttr:    {name: "attr"},
	TypeArray:   {name: "array"},
	TypeVS8:     {"vs8", classSigned, 1, 16},
	TypeVU8:     {"vu8", classUnsigned, 1, 16},
	TypeVS16:    {"vs16", classSigned, 2, 8},
	TypeVU16:    {"vu16", classUnsigned, 2, 8},
	TypeBool:    {"bool", classBool, 1, 1},
	Type2B:      {"2b", classBool, 1, 2},
	Type3B:      {"3b", classBool, 1, 3},
	Type4B:      {"4b", classBool, 1, 4},
	TypeVB:      {"vb", classBool, 1, 16},
}

var typeNames map[string]Type

func init() {
	typeNames = make(map[string]Type, len(typeTable)+16)
	for i, info := range typeTable {
		if info.class != classNone {
			typeNames[info.name] = Type(i)
		}
	}
	for alias, t := range map[string]Type{
		"binary": TypeBin,
		"string": TypeStr,
		"f":      TypeFloat,
		"d":      TypeDouble,
		"b":      TypeBool,
		"vs32":   Type4S32,
		"vu32":   Type4U32,
		"vf":     Type4F,
		"vs64":   Type2S64,
		"vu64":   Type2U64,
	} {
		typeNames[alias] = t
	}
}

// ParseType resolves a type name as written in a __type attribute.
// Aliases such as "string" and "vf" map to their canonical types.
func ParseType(name string) (Type, bool) {
	t, ok := typeNames[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

func (t Type) info() typeInfo {
	if int(t) < len(typeTable) {
		return typeTable[t]
	}
	return typeInfo{}
}

// String returns the canonical type name.
func (t Type) String() string {
	switch t {
	case TypeNodeEnd:
		return "nodeEnd"
	case TypeSectionEnd:
		return "sectionEnd"
	}
	if info := t.info(); info.name != "" {
		return info.name
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports whether t can be carried as node content, including void.
func (t Type) Valid() bool {
	return t.info().class != classNone
}

// Numeric reports whether t holds fixed-width numeric components.
func (t Type) Numeric() bool {
	return t.info().width > 0
}

// Is64 reports whether t has 64-bit integer components.
func (t Type) Is64() bool {
	info := t.info()
	return info.width == 8 && (info.class == classSigned || info.class == classUnsigned)
}

// Width returns the byte width of one component, or 0 for non-numeric
// types.
func (t Type) Width() int {
	return t.info().width
}

// Count returns the number of components in one element: 1 for scalars,
// 2 to 16 for vector types, 0 for non-numeric types.
func (t Type) Count() int {
	return t.info().count
}

// Signed reports whether t's components are two's-complement integers.
func (t Type) Signed() bool {
	return t.info().class == classSigned
}

// Float reports whether t's components are IEEE 754 floats.
func (t Type) Float() bool {
	return t.info().class == classFloat
}

// Bool reports whether t's components are booleans.
func (t Type) Bool() bool {
	return t.info().class == classBool
}

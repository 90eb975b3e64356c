package datatype

import (
	"fmt"
	"strings"
)

// Type is the run-time tag of an array element type.
type Type uint8

const (
	// Unsupported is reported when a requested type is outside the closed set.
	Unsupported Type = iota
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float32
	Float64
	Bool
	String

	numTypes
)

// Count is the number of supported tags (Unsupported excluded).
const Count = int(numTypes) - 1

// Numeric lists the element types arithmetic steps operate on.
type Numeric interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// Element lists every Go type a DataArray can be instantiated with.
type Element interface {
	Numeric | bool | string
}

var names = [numTypes]string{
	Unsupported: "unsupported",
	Int8:        "int8",
	UInt8:       "uint8",
	Int16:       "int16",
	UInt16:      "uint16",
	Int32:       "int32",
	UInt32:      "uint32",
	Int64:       "int64",
	UInt64:      "uint64",
	Float32:     "float32",
	Float64:     "float64",
	Bool:        "bool",
	String:      "string",
}

var sizes = [numTypes]int{
	Int8: 1, UInt8: 1,
	Int16: 2, UInt16: 2,
	Int32: 4, UInt32: 4, Float32: 4,
	Int64: 8, UInt64: 8, Float64: 8,
	Bool: 1,
}

// aliases accepts the C-style spellings used by older pipeline files.
var aliases = map[string]Type{
	"int8_t":   Int8,
	"uint8_t":  UInt8,
	"int16_t":  Int16,
	"uint16_t": UInt16,
	"int32_t":  Int32,
	"uint32_t": UInt32,
	"int64_t":  Int64,
	"uint64_t": UInt64,
	"float":    Float32,
	"double":   Float64,
}

// String returns the canonical lower-case name of the tag.
func (t Type) String() string {
	if t >= numTypes {
		return fmt.Sprintf("unsupported(%d)", uint8(t))
	}
	return names[t]
}

// Valid reports whether t is a member of the closed set.
func (t Type) Valid() bool {
	return t > Unsupported && t < numTypes
}

// Size is the in-memory width of one element in bytes. Strings have no fixed
// width and report 0.
func (t Type) Size() int {
	if !t.Valid() {
		return 0
	}
	return sizes[t]
}

// IsNumeric reports whether the tag is one of the integer or float types.
func (t Type) IsNumeric() bool {
	return t.Valid() && t != Bool && t != String
}

// IsFloat reports whether the tag is Float32 or Float64.
func (t Type) IsFloat() bool {
	return t == Float32 || t == Float64
}

// IsSigned reports whether the tag is a signed integer or float type.
func (t Type) IsSigned() bool {
	switch t {
	case Int8, Int16, Int32, Int64, Float32, Float64:
		return true
	}
	return false
}

// Parse maps a type name to its tag. Matching is case-insensitive and also
// accepts C-style aliases such as "uint8_t" or "double". Unknown names return
// Unsupported and an error.
func Parse(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i := Int8; i < numTypes; i++ {
		if names[i] == n {
			return i, nil
		}
	}
	if t, ok := aliases[n]; ok {
		return t, nil
	}
	return Unsupported, fmt.Errorf("unknown element type %q", name)
}

// All returns every supported tag in declaration order.
func All() []Type {
	out := make([]Type, 0, Count)
	for i := Int8; i < numTypes; i++ {
		out = append(out, i)
	}
	return out
}

// Names returns the canonical names of every supported tag.
func Names() []string {
	out := make([]string, 0, Count)
	for _, t := range All() {
		out = append(out, t.String())
	}
	return out
}

// Of returns the tag matching the Go type parameter T.
func Of[T Element]() Type {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case uint8:
		return UInt8
	case int16:
		return Int16
	case uint16:
		return UInt16
	case int32:
		return Int32
	case uint32:
		return UInt32
	case int64:
		return Int64
	case uint64:
		return UInt64
	case float32:
		return Float32
	case float64:
		return Float64
	case bool:
		return Bool
	case string:
		return String
	}
	return Unsupported
}

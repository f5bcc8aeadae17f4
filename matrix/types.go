package matrix

import (
	"fmt"
	"unsafe"
)

// ScalarType identifies the element type of a matrix.
type ScalarType uint8

const (
	Invalid ScalarType = iota
	Int32
	Int64
	Float32
	Float64
	Bool
)

// Size returns the element size in bytes.
func (t ScalarType) Size() int {
	switch t {
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	case Bool:
		return 1
	default:
		return 0
	}
}

// Valid reports whether t is a known element type.
func (t ScalarType) Valid() bool {
	return t >= Int32 && t <= Bool
}

func (t ScalarType) String() string {
	switch t {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("ScalarType(%d)", uint8(t))
	}
}

// Layout is the storage order of a dense matrix.
type Layout uint8

const (
	LayoutRow Layout = iota
	LayoutCol
)

func (l Layout) String() string {
	if l == LayoutCol {
		return "col"
	}
	return "row"
}

// Number is the set of element types arithmetic operators accept.
type Number interface {
	int32 | int64 | float32 | float64
}

// Element is the set of supported element types.
type Element interface {
	Number | bool
}

// TypeOf returns the ScalarType of T.
func TypeOf[T Element]() ScalarType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return Int32
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	case bool:
		return Bool
	}
	return Invalid
}

// Scalar holds one element of any supported type. It is the result slot of
// Aggregate.
type Scalar struct {
	typ ScalarType
	raw uint64
}

// ScalarOf wraps v.
func ScalarOf[T Element](v T) Scalar {
	s := Scalar{typ: TypeOf[T]()}
	putElem(s.bytes(), v)
	return s
}

// Type returns the element type held by s, or Invalid for the zero Scalar.
func (s Scalar) Type() ScalarType {
	return s.typ
}

// Float64 converts the held value to float64. Bools convert to 0 or 1.
func (s Scalar) Float64() float64 {
	b := s.bytes()
	switch s.typ {
	case Int32:
		return float64(getElem[int32](b))
	case Int64:
		return float64(getElem[int64](b))
	case Float32:
		return float64(getElem[float32](b))
	case Float64:
		return getElem[float64](b)
	case Bool:
		if getElem[bool](b) {
			return 1
		}
	}
	return 0
}

func (s Scalar) String() string {
	return fmt.Sprintf("%v(%g)", s.typ, s.Float64())
}

// ScalarValue extracts the value of s as T. ok is false if s does not hold a T.
func ScalarValue[T Element](s Scalar) (T, bool) {
	if s.typ != TypeOf[T]() {
		var zero T
		return zero, false
	}
	return getElem[T](s.bytes()), true
}

func (s *Scalar) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&s.raw)), 8) //nolint:gosec // element view
}

func (s *Scalar) set(typ ScalarType, b []byte) {
	s.typ = typ
	s.raw = 0
	copy(s.bytes(), b[:typ.Size()])
}

func getElem[T any](b []byte) T {
	return *(*T)(unsafe.Pointer(&b[0])) //nolint:gosec // aligned element
}

func putElem[T any](b []byte, v T) {
	*(*T)(unsafe.Pointer(&b[0])) = v //nolint:gosec // aligned element
}

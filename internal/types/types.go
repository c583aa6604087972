// Package types realizes the host type system the parser compiles against:
// type-code classification, nullable handling, the implicit widening
// relation, the allowed-type registry, enum registration, and the member
// tables for the predefined types.
package types

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Char is a distinct character type. Go's rune is an alias of int32, so a
// defined type is needed for reflection to tell characters from integers.
type Char rune

// Math is the static host type carrying mathematical utility methods.
type Math struct{}

// Convert is the static host type carrying numeric conversion methods.
type Convert struct{}

// Sequence is the declaring type for query-aggregate calls (Where, Any,
// Select, ...) in the emitted IR.
type Sequence struct{}

// Grouping is the element type produced by GroupBy: a key paired with the
// group's elements.
type Grouping struct {
	Key   any
	Group any
}

// Predefined host types.
var (
	ObjectType   = reflect.TypeOf((*any)(nil)).Elem()
	BoolType     = reflect.TypeOf(false)
	CharType     = reflect.TypeOf(Char(0))
	StringType   = reflect.TypeOf("")
	SByteType    = reflect.TypeOf(int8(0))
	ByteType     = reflect.TypeOf(uint8(0))
	Int16Type    = reflect.TypeOf(int16(0))
	UInt16Type   = reflect.TypeOf(uint16(0))
	Int32Type    = reflect.TypeOf(int32(0))
	UInt32Type   = reflect.TypeOf(uint32(0))
	Int64Type    = reflect.TypeOf(int64(0))
	UInt64Type   = reflect.TypeOf(uint64(0))
	SingleType   = reflect.TypeOf(float32(0))
	DoubleType   = reflect.TypeOf(float64(0))
	DecimalType  = reflect.TypeOf(decimal.Decimal{})
	DateTimeType = reflect.TypeOf(time.Time{})
	TimeSpanType = reflect.TypeOf(time.Duration(0))
	GuidType     = reflect.TypeOf(uuid.UUID{})
	MathType     = reflect.TypeOf(Math{})
	ConvertType  = reflect.TypeOf(Convert{})
	SequenceType = reflect.TypeOf(Sequence{})
	GroupingType = reflect.TypeOf(Grouping{})
)

// Code classifies a type the way the promotion and widening rules need:
// one bucket per primitive, everything else Object.
type Code int

// Type codes.
const (
	CodeObject Code = iota
	CodeBoolean
	CodeChar
	CodeSByte
	CodeByte
	CodeInt16
	CodeUInt16
	CodeInt32
	CodeUInt32
	CodeInt64
	CodeUInt64
	CodeSingle
	CodeDouble
	CodeDecimal
	CodeDateTime
	CodeString
)

// CodeOf classifies t. Named integer types (including enums) classify by
// their underlying kind; the enum-specific overrides live in the widening
// relation, which knows the registry.
func CodeOf(t reflect.Type) Code {
	switch t {
	case CharType:
		return CodeChar
	case DecimalType:
		return CodeDecimal
	case DateTimeType:
		return CodeDateTime
	case TimeSpanType, GuidType:
		// Structured value types without a primitive code.
		return CodeObject
	}
	switch t.Kind() {
	case reflect.Bool:
		return CodeBoolean
	case reflect.Int8:
		return CodeSByte
	case reflect.Uint8:
		return CodeByte
	case reflect.Int16:
		return CodeInt16
	case reflect.Uint16:
		return CodeUInt16
	case reflect.Int32:
		return CodeInt32
	case reflect.Uint32:
		return CodeUInt32
	case reflect.Int64, reflect.Int:
		return CodeInt64
	case reflect.Uint64, reflect.Uint:
		return CodeUInt64
	case reflect.Float32:
		return CodeSingle
	case reflect.Float64:
		return CodeDouble
	case reflect.String:
		return CodeString
	default:
		return CodeObject
	}
}

// IsValueType reports whether t is a value type (can be lifted to
// nullable). Strings are reference types here, following the language the
// expressions are written in, not Go's value semantics.
func IsValueType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Struct, reflect.Array:
		return true
	default:
		return false
	}
}

// IsNullable reports whether t is the nullable lifting of a value type.
func IsNullable(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr && IsValueType(t.Elem())
}

// NonNullable unwraps one level of nullable lifting, or returns t.
func NonNullable(t reflect.Type) reflect.Type {
	if IsNullable(t) {
		return t.Elem()
	}
	return t
}

// Nullable lifts a value type to its nullable form. Reference types and
// already-nullable types are returned unchanged with ok=false.
func Nullable(t reflect.Type) (reflect.Type, bool) {
	if !IsValueType(t) {
		return t, false
	}
	return reflect.PointerTo(t), true
}

// IsReferenceType reports whether t can hold a null reference.
func IsReferenceType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Slice, reflect.Map, reflect.String,
		reflect.Func, reflect.Chan:
		return true
	case reflect.Ptr:
		return !IsValueType(t.Elem())
	default:
		return false
	}
}

// widening maps each source code to the set of target codes the implicit
// conversion relation admits. Identity is handled separately.
var widening = map[Code][]Code{
	CodeSByte:  {CodeSByte, CodeInt16, CodeInt32, CodeInt64, CodeSingle, CodeDouble, CodeDecimal},
	CodeByte:   {CodeByte, CodeInt16, CodeUInt16, CodeInt32, CodeUInt32, CodeInt64, CodeUInt64, CodeSingle, CodeDouble, CodeDecimal},
	CodeInt16:  {CodeInt16, CodeInt32, CodeInt64, CodeSingle, CodeDouble, CodeDecimal},
	CodeUInt16: {CodeUInt16, CodeInt32, CodeUInt32, CodeInt64, CodeUInt64, CodeSingle, CodeDouble, CodeDecimal},
	CodeInt32:  {CodeInt32, CodeInt64, CodeSingle, CodeDouble, CodeDecimal},
	CodeUInt32: {CodeUInt32, CodeInt64, CodeUInt64, CodeSingle, CodeDouble, CodeDecimal},
	CodeInt64:  {CodeInt64, CodeSingle, CodeDouble, CodeDecimal},
	CodeUInt64: {CodeUInt64, CodeSingle, CodeDouble, CodeDecimal},
	CodeSingle: {CodeSingle, CodeDouble},
}

func widens(sc, tc Code) bool {
	for _, c := range widening[sc] {
		if c == tc {
			return true
		}
	}
	return false
}

// SignedIntegral reports whether t's non-nullable form is a signed
// integral type.
func SignedIntegral(t reflect.Type) bool {
	switch CodeOf(NonNullable(t)) {
	case CodeSByte, CodeInt16, CodeInt32, CodeInt64:
		return true
	}
	return false
}

// UnsignedIntegral reports whether t's non-nullable form is an unsigned
// integral type.
func UnsignedIntegral(t reflect.Type) bool {
	switch CodeOf(NonNullable(t)) {
	case CodeByte, CodeUInt16, CodeUInt32, CodeUInt64:
		return true
	}
	return false
}

package types

import (
	"reflect"

	"github.com/querytools/go-dynq/pkg/ident"
)

// EnumMember is a single named value of a registered enum type.
type EnumMember struct {
	Name  string
	Value int64
}

type enumInfo struct {
	typ     reflect.Type
	members *ident.Map[EnumMember]
}

// Registry is the set of host types a parse may reference by name, plus
// the enum tables and builtin member tables. A Registry is immutable once
// handed to a parser; build it up front.
type Registry struct {
	names     *ident.Map[reflect.Type] // short name → type
	fullNames *ident.Map[reflect.Type] // qualified name → type
	allowed   map[reflect.Type]bool
	enums     map[reflect.Type]*enumInfo
	members   map[reflect.Type]*typeMembers
}

// predefined lists the always-allowed types with their language names.
var predefined = []struct {
	name string
	typ  reflect.Type
}{
	{"Object", ObjectType},
	{"Boolean", BoolType},
	{"Char", CharType},
	{"String", StringType},
	{"SByte", SByteType},
	{"Byte", ByteType},
	{"Int16", Int16Type},
	{"UInt16", UInt16Type},
	{"Int32", Int32Type},
	{"UInt32", UInt32Type},
	{"Int64", Int64Type},
	{"UInt64", UInt64Type},
	{"Single", SingleType},
	{"Double", DoubleType},
	{"Decimal", DecimalType},
	{"DateTime", DateTimeType},
	{"TimeSpan", TimeSpanType},
	{"Guid", GuidType},
	{"Math", MathType},
	{"Convert", ConvertType},
}

// NewRegistry creates a registry holding the predefined types and their
// builtin members.
func NewRegistry() *Registry {
	r := &Registry{
		names:     ident.NewMapWithCapacity[reflect.Type](len(predefined)),
		fullNames: ident.NewMapWithCapacity[reflect.Type](len(predefined)),
		allowed:   make(map[reflect.Type]bool, len(predefined)),
		enums:     make(map[reflect.Type]*enumInfo),
		members:   make(map[reflect.Type]*typeMembers),
	}
	for _, p := range predefined {
		r.names.Set(p.name, p.typ)
		r.fullNames.Set("System."+p.name, p.typ)
		r.allowed[p.typ] = true
	}
	registerBuiltinMembers(r)
	return r
}

// Add makes t referenceable by its Go type name and legal as a method
// target and constructor receiver.
func (r *Registry) Add(t reflect.Type) {
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	r.AddNamed(name, t)
}

// AddNamed registers t under an explicit short name.
func (r *Registry) AddNamed(name string, t reflect.Type) {
	r.names.Set(name, t)
	r.allowed[t] = true
}

// RegisterEnum registers t as an enum with the given member values and
// allows it by name. The member names are matched case-insensitively.
func (r *Registry) RegisterEnum(t reflect.Type, members map[string]int64) {
	info := &enumInfo{typ: t, members: ident.NewMapWithCapacity[EnumMember](len(members))}
	for name, value := range members {
		info.members.Set(name, EnumMember{Name: name, Value: value})
	}
	r.enums[t] = info
	r.Add(t)
}

// IsEnum reports whether t's non-nullable form is a registered enum.
func (r *Registry) IsEnum(t reflect.Type) bool {
	_, ok := r.enums[NonNullable(t)]
	return ok
}

// EnumMember looks up a member of an enum type by case-insensitive name.
func (r *Registry) EnumMember(t reflect.Type, name string) (EnumMember, bool) {
	info, ok := r.enums[NonNullable(t)]
	if !ok {
		return EnumMember{}, false
	}
	return info.members.Get(name)
}

// EnumMemberNames returns the declared member names of an enum type.
func (r *Registry) EnumMemberNames(t reflect.Type) []string {
	info, ok := r.enums[NonNullable(t)]
	if !ok {
		return nil
	}
	return info.members.Keys()
}

// Lookup resolves a short type name.
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	return r.names.Get(name)
}

// LookupQualified resolves a possibly dotted type name: qualified names
// first, then short names.
func (r *Registry) LookupQualified(name string) (reflect.Type, bool) {
	if t, ok := r.fullNames.Get(name); ok {
		return t, true
	}
	return r.names.Get(name)
}

// IsAllowed reports whether t may be used as a method-invocation target.
func (r *Registry) IsAllowed(t reflect.Type) bool {
	return r.allowed[t]
}

// TypeNames returns the short names of all registered types.
func (r *Registry) TypeNames() []string {
	return r.names.Keys()
}

// NumericKind classifies t's non-nullable form: 0 non-numeric (including
// enums), 1 floating-like (Char/Single/Double/Decimal), 2 signed integral,
// 3 unsigned integral.
func (r *Registry) NumericKind(t reflect.Type) int {
	nn := NonNullable(t)
	if r.IsEnum(nn) {
		return 0
	}
	switch CodeOf(nn) {
	case CodeChar, CodeSingle, CodeDouble, CodeDecimal:
		return 1
	case CodeSByte, CodeInt16, CodeInt32, CodeInt64:
		return 2
	case CodeByte, CodeUInt16, CodeUInt32, CodeUInt64:
		return 3
	default:
		return 0
	}
}

// IsNumeric reports whether t's non-nullable form is numeric.
func (r *Registry) IsNumeric(t reflect.Type) bool {
	return r.NumericKind(t) != 0
}

// IsCompatibleWith reports whether source implicitly converts to target:
// identity, reference assignability, nullable lifting, and the numeric
// widening relation. Enums only match themselves.
func (r *Registry) IsCompatibleWith(source, target reflect.Type) bool {
	if source == target {
		return true
	}
	if !IsValueType(target) && !IsNullable(target) {
		return source.AssignableTo(target)
	}
	s := NonNullable(source)
	t := NonNullable(target)
	if s != source && t == target {
		return false
	}
	sc := CodeOf(s)
	if r.IsEnum(s) {
		sc = CodeObject
	}
	tc := CodeOf(t)
	if r.IsEnum(t) {
		tc = CodeObject
	}
	if sc != CodeObject && tc != CodeObject && widens(sc, tc) {
		return true
	}
	return s == t
}

package types

import (
	"reflect"

	"github.com/querytools/go-dynq/pkg/ident"
)

// Property describes a readable member: a builtin property of a predefined
// type, or a struct field.
type Property struct {
	Name   string
	Type   reflect.Type
	Static bool
}

// Method describes an invocable member. A nil Result marks a method that
// produces no value; the parser rejects calls to it. Builtin methods are
// the registry-declared members of the predefined types; the rest are
// reflected Go methods, which are only invocable on allowed types.
type Method struct {
	Name    string
	Params  []reflect.Type
	Result  reflect.Type
	Static  bool
	Builtin bool
}

// Constructor describes a declared constructor of a predefined type.
type Constructor struct {
	Params []reflect.Type
}

type typeMembers struct {
	props    *ident.Map[Property]
	methods  *ident.Map[[]Method]
	ctors    []Constructor
	indexers []Method
}

func (r *Registry) membersOf(t reflect.Type) *typeMembers {
	m, ok := r.members[t]
	if !ok {
		m = &typeMembers{
			props:   ident.NewMap[Property](),
			methods: ident.NewMap[[]Method](),
		}
		r.members[t] = m
	}
	return m
}

func (r *Registry) addProp(t reflect.Type, name string, pt reflect.Type) {
	r.membersOf(t).props.Set(name, Property{Name: name, Type: pt})
}

func (r *Registry) addStaticProp(t reflect.Type, name string, pt reflect.Type) {
	r.membersOf(t).props.Set(name, Property{Name: name, Type: pt, Static: true})
}

func (r *Registry) addMethod(t reflect.Type, name string, result reflect.Type, params ...reflect.Type) {
	m := r.membersOf(t)
	list, _ := m.methods.Get(name)
	m.methods.Set(name, append(list, Method{Name: name, Params: params, Result: result, Builtin: true}))
}

func (r *Registry) addStaticMethod(t reflect.Type, name string, result reflect.Type, params ...reflect.Type) {
	m := r.membersOf(t)
	list, _ := m.methods.Get(name)
	m.methods.Set(name, append(list, Method{Name: name, Params: params, Result: result, Static: true, Builtin: true}))
}

func (r *Registry) addCtor(t reflect.Type, params ...reflect.Type) {
	m := r.membersOf(t)
	m.ctors = append(m.ctors, Constructor{Params: params})
}

func (r *Registry) addIndexer(t reflect.Type, result reflect.Type, params ...reflect.Type) {
	m := r.membersOf(t)
	m.indexers = append(m.indexers, Method{Name: "Item", Params: params, Result: result})
}

// FindProperty resolves a property or field on t by case-insensitive name.
// Builtin members are consulted first, then struct fields (including
// promoted fields of embedded structs).
func (r *Registry) FindProperty(t reflect.Type, name string, static bool) (Property, bool) {
	if m, ok := r.members[t]; ok {
		if p, ok := m.props.Get(name); ok && p.Static == static {
			return p, true
		}
	}
	if static {
		return Property{}, false
	}
	st := t
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		if f, ok := st.FieldByNameFunc(func(n string) bool { return ident.Equal(n, name) }); ok && f.IsExported() {
			return Property{Name: f.Name, Type: f.Type}, true
		}
	}
	return Property{}, false
}

// FindMethods returns the candidate methods named name on t: builtin
// members plus t's exported Go methods with at most one result. Every
// type answers a zero-argument ToString.
func (r *Registry) FindMethods(t reflect.Type, name string, static bool) []Method {
	var out []Method
	if m, ok := r.members[t]; ok {
		if list, ok := m.methods.Get(name); ok {
			for _, meth := range list {
				if meth.Static == static {
					out = append(out, meth)
				}
			}
		}
	}
	if !static {
		out = append(out, goMethods(t, name)...)
		if len(out) == 0 && ident.Equal(name, "ToString") {
			out = append(out, Method{Name: "ToString", Result: StringType, Builtin: true})
		}
	}
	return out
}

// goMethods surfaces t's exported Go methods under case-insensitive
// matching. Pointer-receiver methods of struct types are included.
func goMethods(t reflect.Type, name string) []Method {
	var out []Method
	seen := map[string]bool{}
	collect := func(mt reflect.Type, skipRecv int) {
		for i := 0; i < mt.NumMethod(); i++ {
			m := mt.Method(i)
			if !m.IsExported() || !ident.Equal(m.Name, name) || seen[m.Name] {
				continue
			}
			ft := m.Type
			if ft.NumOut() > 1 || ft.IsVariadic() {
				continue
			}
			params := make([]reflect.Type, 0, ft.NumIn()-skipRecv)
			for j := skipRecv; j < ft.NumIn(); j++ {
				params = append(params, ft.In(j))
			}
			var result reflect.Type
			if ft.NumOut() == 1 {
				result = ft.Out(0)
			}
			seen[m.Name] = true
			out = append(out, Method{Name: m.Name, Params: params, Result: result})
		}
	}
	if t.Kind() == reflect.Interface {
		collect(t, 0)
		return out
	}
	collect(t, 1)
	if t.Kind() == reflect.Struct {
		collect(reflect.PointerTo(t), 1)
	}
	return out
}

// FindConstructors returns the declared constructors of t.
func (r *Registry) FindConstructors(t reflect.Type) []Constructor {
	if m, ok := r.members[t]; ok {
		return m.ctors
	}
	return nil
}

// FindIndexers returns the default-member indexers of t.
func (r *Registry) FindIndexers(t reflect.Type) []Method {
	if m, ok := r.members[t]; ok {
		return m.indexers
	}
	return nil
}

// registerBuiltinMembers declares the members of the predefined types. The
// predefined types are Go primitives and library types with no C#-family
// members of their own, so the registry owns their member surface.
func registerBuiltinMembers(r *Registry) {
	// String
	r.addProp(StringType, "Length", Int32Type)
	r.addMethod(StringType, "StartsWith", BoolType, StringType)
	r.addMethod(StringType, "EndsWith", BoolType, StringType)
	r.addMethod(StringType, "Contains", BoolType, StringType)
	r.addMethod(StringType, "IndexOf", Int32Type, StringType)
	r.addMethod(StringType, "IndexOf", Int32Type, CharType)
	r.addMethod(StringType, "Substring", StringType, Int32Type)
	r.addMethod(StringType, "Substring", StringType, Int32Type, Int32Type)
	r.addMethod(StringType, "ToUpper", StringType)
	r.addMethod(StringType, "ToLower", StringType)
	r.addMethod(StringType, "Trim", StringType)
	r.addMethod(StringType, "Replace", StringType, StringType, StringType)
	r.addMethod(StringType, "CompareTo", Int32Type, StringType)
	r.addStaticMethod(StringType, "Compare", Int32Type, StringType, StringType)
	r.addStaticMethod(StringType, "Concat", StringType, ObjectType, ObjectType)
	r.addStaticMethod(StringType, "IsNullOrEmpty", BoolType, StringType)
	r.addIndexer(StringType, CharType, Int32Type)

	// DateTime
	for _, name := range []string{"Year", "Month", "Day", "Hour", "Minute", "Second", "Millisecond", "DayOfWeek", "DayOfYear"} {
		r.addProp(DateTimeType, name, Int32Type)
	}
	r.addProp(DateTimeType, "Date", DateTimeType)
	r.addProp(DateTimeType, "TimeOfDay", TimeSpanType)
	r.addStaticProp(DateTimeType, "Now", DateTimeType)
	r.addStaticProp(DateTimeType, "UtcNow", DateTimeType)
	r.addStaticProp(DateTimeType, "Today", DateTimeType)
	r.addMethod(DateTimeType, "AddDays", DateTimeType, DoubleType)
	r.addMethod(DateTimeType, "AddHours", DateTimeType, DoubleType)
	r.addMethod(DateTimeType, "AddMinutes", DateTimeType, DoubleType)
	r.addMethod(DateTimeType, "AddSeconds", DateTimeType, DoubleType)
	r.addMethod(DateTimeType, "AddMonths", DateTimeType, Int32Type)
	r.addMethod(DateTimeType, "AddYears", DateTimeType, Int32Type)
	r.addMethod(DateTimeType, "CompareTo", Int32Type, DateTimeType)
	r.addCtor(DateTimeType, Int32Type, Int32Type, Int32Type)
	r.addCtor(DateTimeType, Int32Type, Int32Type, Int32Type, Int32Type, Int32Type, Int32Type)

	// TimeSpan
	for _, name := range []string{"Days", "Hours", "Minutes", "Seconds", "Milliseconds"} {
		r.addProp(TimeSpanType, name, Int32Type)
	}
	for _, name := range []string{"TotalDays", "TotalHours", "TotalMinutes", "TotalSeconds", "TotalMilliseconds"} {
		r.addProp(TimeSpanType, name, DoubleType)
	}
	r.addCtor(TimeSpanType, Int32Type, Int32Type, Int32Type)
	r.addCtor(TimeSpanType, Int32Type, Int32Type, Int32Type, Int32Type)

	// Guid
	r.addStaticMethod(GuidType, "NewGuid", GuidType)
	r.addStaticMethod(GuidType, "Parse", GuidType, StringType)
	r.addCtor(GuidType, StringType)

	// Math
	r.addStaticProp(MathType, "PI", DoubleType)
	r.addStaticProp(MathType, "E", DoubleType)
	for _, t := range []reflect.Type{Int32Type, Int64Type, DoubleType, DecimalType} {
		r.addStaticMethod(MathType, "Abs", t, t)
		r.addStaticMethod(MathType, "Min", t, t, t)
		r.addStaticMethod(MathType, "Max", t, t, t)
	}
	r.addStaticMethod(MathType, "Pow", DoubleType, DoubleType, DoubleType)
	r.addStaticMethod(MathType, "Sqrt", DoubleType, DoubleType)
	r.addStaticMethod(MathType, "Floor", DoubleType, DoubleType)
	r.addStaticMethod(MathType, "Ceiling", DoubleType, DoubleType)
	r.addStaticMethod(MathType, "Round", DoubleType, DoubleType)
	r.addStaticMethod(MathType, "Round", DoubleType, DoubleType, Int32Type)

	// Convert
	for name, t := range map[string]reflect.Type{
		"ToSByte":    SByteType,
		"ToByte":     ByteType,
		"ToInt16":    Int16Type,
		"ToUInt16":   UInt16Type,
		"ToInt32":    Int32Type,
		"ToUInt32":   UInt32Type,
		"ToInt64":    Int64Type,
		"ToUInt64":   UInt64Type,
		"ToSingle":   SingleType,
		"ToDouble":   DoubleType,
		"ToDecimal":  DecimalType,
		"ToBoolean":  BoolType,
		"ToChar":     CharType,
		"ToString":   StringType,
		"ToDateTime": DateTimeType,
	} {
		r.addStaticMethod(ConvertType, name, t, ObjectType)
	}
}

package expr

import (
	"reflect"
	"strings"
	"testing"
)

var (
	stringType = reflect.TypeOf("")
	int32Type  = reflect.TypeOf(int32(0))
)

func TestConstantString(t *testing.T) {
	tests := []struct {
		name     string
		node     Expression
		expected string
	}{
		{"int", NewConstant(int32(4), int32Type), "4"},
		{"string", NewConstant("food", stringType), `"food"`},
		{"null", NewNull(stringType), "null"},
		{"bool", NewConstant(true, boolType), "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBinaryString(t *testing.T) {
	x := NewParameter("x", stringType)
	length := NewMember(x, stringType, "Length", int32Type)
	four := NewConstant(int32(4), int32Type)
	eq := NewBinary(Equal, length, four, boolType)

	if got := eq.String(); got != "(x.Length == 4)" {
		t.Errorf("String() = %q, want %q", got, "(x.Length == 4)")
	}
	if eq.Type() != boolType {
		t.Errorf("Type() = %v, want bool", eq.Type())
	}
}

func TestAnonymousParameterPrintsAsIt(t *testing.T) {
	p := NewParameter("", int32Type)
	if p.String() != "it" {
		t.Errorf("String() = %q, want it", p.String())
	}
}

func TestLambdaType(t *testing.T) {
	p := NewParameter("", stringType)
	body := NewMember(p, stringType, "Length", int32Type)
	lambda := NewLambda(body, p)

	ft := lambda.Type()
	if ft.Kind() != reflect.Func {
		t.Fatalf("lambda type kind = %v, want func", ft.Kind())
	}
	if ft.NumIn() != 1 || ft.In(0) != stringType {
		t.Errorf("lambda in = %v, want (string)", ft)
	}
	if ft.NumOut() != 1 || ft.Out(0) != int32Type {
		t.Errorf("lambda out = %v, want int32", ft)
	}
	if got := lambda.String(); got != "it => it.Length" {
		t.Errorf("String() = %q", got)
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		typ      reflect.Type
		expected string
	}{
		{int32Type, "int32"},
		{reflect.PointerTo(int32Type), "int32?"},
		{stringType, "string"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.typ); got != tt.expected {
			t.Errorf("TypeName(%v) = %q, want %q", tt.typ, got, tt.expected)
		}
	}
}

func TestConditionalString(t *testing.T) {
	c := NewConditional(
		NewConstant(true, boolType),
		NewConstant(int32(1), int32Type),
		NewConstant(int32(2), int32Type))
	if got := c.String(); got != "iif(true, 1, 2)" {
		t.Errorf("String() = %q", got)
	}
	if c.Type() != int32Type {
		t.Errorf("Type() = %v, want int32", c.Type())
	}
}

func TestTypeOperatorsString(t *testing.T) {
	obj := NewParameter("resource", reflect.TypeOf((*any)(nil)).Elem())
	is := NewTypeIs(obj, stringType)
	if is.Type() != boolType {
		t.Errorf("TypeIs type = %v, want bool", is.Type())
	}
	if got := is.String(); got != "(resource is string)" {
		t.Errorf("TypeIs String() = %q", got)
	}
	as := NewTypeAs(obj, stringType)
	if as.Type() != stringType {
		t.Errorf("TypeAs type = %v, want string", as.Type())
	}
}

func TestDump(t *testing.T) {
	x := NewParameter("x", stringType)
	eq := NewBinary(Equal,
		NewMember(x, stringType, "Length", int32Type),
		NewConstant(int32(4), int32Type),
		boolType)

	dump := Dump(eq)
	for _, want := range []string{
		"Binary == : bool",
		"  Member Length : int32",
		"    Parameter x : string",
		"  Constant 4 : int32",
	} {
		if !strings.Contains(dump, want) {
			t.Errorf("Dump missing %q:\n%s", want, dump)
		}
	}
}

func TestCallString(t *testing.T) {
	recv := NewParameter("s", stringType)
	call := NewCall(recv, stringType, "StartsWith", nil,
		[]Expression{NewConstant("f", stringType)}, boolType)
	if got := call.String(); got != `s.StartsWith("f")` {
		t.Errorf("String() = %q", got)
	}
}

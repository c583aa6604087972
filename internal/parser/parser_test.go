package parser

import (
	"reflect"
	"testing"

	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/expr"
)

func testParser(t *testing.T, text string, params []*expr.Parameter, values ...any) *Parser {
	t.Helper()
	p, err := New(types.NewRegistry(), text, params, values)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", text, err)
	}
	return p
}

func mustParse(t *testing.T, text string, params []*expr.Parameter, values ...any) expr.Expression {
	t.Helper()
	p := testParser(t, text, params, values...)
	e, err := p.Parse(nil)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", text, err)
	}
	return e
}

func itParam(t reflect.Type) []*expr.Parameter {
	return []*expr.Parameter{expr.NewParameter("", t)}
}

func constant(t *testing.T, e expr.Expression) *expr.Constant {
	t.Helper()
	c, ok := e.(*expr.Constant)
	if !ok {
		t.Fatalf("expression is %T, want *expr.Constant", e)
	}
	return c
}

func TestIntegerLiteralTyping(t *testing.T) {
	tests := []struct {
		input    string
		typ      reflect.Type
		value    any
	}{
		{"0", types.Int32Type, int32(0)},
		{"123", types.Int32Type, int32(123)},
		{"2147483647", types.Int32Type, int32(2147483647)},
		{"2147483648", types.UInt32Type, uint32(2147483648)},
		{"4294967296", types.Int64Type, int64(4294967296)},
		{"9223372036854775808", types.UInt64Type, uint64(9223372036854775808)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := constant(t, mustParse(t, tt.input, nil))
			if c.Type() != tt.typ {
				t.Errorf("type = %v, want %v", c.Type(), tt.typ)
			}
			if !reflect.DeepEqual(c.Value, tt.value) {
				t.Errorf("value = %v (%T), want %v (%T)", c.Value, c.Value, tt.value, tt.value)
			}
		})
	}
}

func TestNegativeIntegerLiteralFolding(t *testing.T) {
	c := constant(t, mustParse(t, "-2147483648", nil))
	if c.Type() != types.Int32Type {
		t.Fatalf("type = %v, want int32", c.Type())
	}
	if c.Value != int32(-2147483648) {
		t.Errorf("value = %v", c.Value)
	}

	c = constant(t, mustParse(t, "-9223372036854775808", nil))
	if c.Type() != types.Int64Type {
		t.Fatalf("type = %v, want int64", c.Type())
	}
	if c.Value != int64(-9223372036854775808) {
		t.Errorf("value = %v", c.Value)
	}
}

func TestRealLiteralTyping(t *testing.T) {
	c := constant(t, mustParse(t, "2.5", nil))
	if c.Type() != types.DoubleType || c.Value != 2.5 {
		t.Errorf("2.5 = %v : %v", c.Value, c.Type())
	}

	c = constant(t, mustParse(t, "2.5f", nil))
	if c.Type() != types.SingleType || c.Value != float32(2.5) {
		t.Errorf("2.5f = %v : %v", c.Value, c.Type())
	}

	c = constant(t, mustParse(t, "10f", nil))
	if c.Type() != types.SingleType || c.Value != float32(10) {
		t.Errorf("10f = %v : %v", c.Value, c.Type())
	}

	c = constant(t, mustParse(t, "1e3", nil))
	if c.Type() != types.DoubleType || c.Value != 1000.0 {
		t.Errorf("1e3 = %v : %v", c.Value, c.Type())
	}
}

func TestStringAndCharLiterals(t *testing.T) {
	c := constant(t, mustParse(t, `"hello"`, nil))
	if c.Type() != types.StringType || c.Value != "hello" {
		t.Errorf("got %v : %v", c.Value, c.Type())
	}

	c = constant(t, mustParse(t, `'a'`, nil))
	if c.Type() != types.CharType || c.Value != types.Char('a') {
		t.Errorf("got %v : %v", c.Value, c.Type())
	}

	// Doubled delimiters collapse; multi-character single-quoted literals
	// stay strings.
	c = constant(t, mustParse(t, `'it''s'`, nil))
	if c.Type() != types.StringType || c.Value != "it's" {
		t.Errorf("got %v : %v", c.Value, c.Type())
	}

	c = constant(t, mustParse(t, `""""`, nil))
	if c.Value != `"` {
		t.Errorf("got %v", c.Value)
	}
}

func TestKeywordLiterals(t *testing.T) {
	c := constant(t, mustParse(t, "true", nil))
	if c.Type() != types.BoolType || c.Value != true {
		t.Errorf("true = %v : %v", c.Value, c.Type())
	}

	c = constant(t, mustParse(t, "FALSE", nil))
	if c.Value != false {
		t.Errorf("FALSE = %v", c.Value)
	}

	c = constant(t, mustParse(t, "null", nil))
	if !c.IsNull() || c.Type() != types.ObjectType {
		t.Errorf("null = %v : %v", c.Value, c.Type())
	}
}

func TestNamedParameterReference(t *testing.T) {
	x := expr.NewParameter("x", types.StringType)
	e := mustParse(t, "X", []*expr.Parameter{x})
	if e != expr.Expression(x) {
		t.Fatalf("case-insensitive parameter lookup returned %v", e)
	}
}

func TestPositionalValues(t *testing.T) {
	e := mustParse(t, "@0 + @1", nil, int32(1), int32(2))
	b, ok := e.(*expr.Binary)
	if !ok || b.Op != expr.Add {
		t.Fatalf("expected Add node, got %v", e)
	}
	if b.Type() != types.Int32Type {
		t.Errorf("type = %v, want int32", b.Type())
	}
}

func TestExternals(t *testing.T) {
	e := mustParse(t, "minAge > 18", nil, map[string]any{"minAge": int32(21)})
	b, ok := e.(*expr.Binary)
	if !ok || b.Op != expr.Greater {
		t.Fatalf("expected Greater node, got %v", e)
	}
	if constant(t, b.Left).Value != int32(21) {
		t.Errorf("left = %v", b.Left)
	}
}

func TestLambdaValueInvocation(t *testing.T) {
	p := expr.NewParameter("", types.Int32Type)
	double := expr.NewLambda(
		expr.NewBinary(expr.Multiply, p, expr.NewConstant(int32(2), types.Int32Type), types.Int32Type), p)

	e := mustParse(t, "@0(21)", nil, double)
	iv, ok := e.(*expr.Invoke)
	if !ok {
		t.Fatalf("expected Invoke, got %T", e)
	}
	if iv.Type() != types.Int32Type || len(iv.Args) != 1 {
		t.Errorf("invoke = %v : %v", iv, iv.Type())
	}
}

func TestImplicitItMemberAccess(t *testing.T) {
	e := mustParse(t, "Length", itParam(types.StringType))
	m, ok := e.(*expr.Member)
	if !ok || m.Name != "Length" {
		t.Fatalf("expected Length member, got %v", e)
	}
	if _, ok := m.Target.(*expr.Parameter); !ok {
		t.Errorf("target should be the implicit parameter, got %T", m.Target)
	}
}

func TestItReference(t *testing.T) {
	e := mustParse(t, "it", itParam(types.Int32Type))
	if _, ok := e.(*expr.Parameter); !ok {
		t.Fatalf("it should resolve to the parameter, got %T", e)
	}

	// it_0 is equivalent to it.
	e = mustParse(t, "it_0 + 1", itParam(types.Int32Type))
	if _, ok := e.(*expr.Binary); !ok {
		t.Fatalf("it_0 should parse, got %T", e)
	}
}

func TestTernary(t *testing.T) {
	e := mustParse(t, `true ? "a" : null`, nil)
	c, ok := e.(*expr.Conditional)
	if !ok {
		t.Fatalf("expected Conditional, got %T", e)
	}
	if c.Type() != types.StringType {
		t.Errorf("type = %v, want string", c.Type())
	}
	ifFalse := constant(t, c.IfFalse)
	if !ifFalse.IsNull() || ifFalse.Type() != types.StringType {
		t.Errorf("IfFalse should be a string-typed null, got %v : %v", ifFalse, ifFalse.Type())
	}
}

func TestIifSugar(t *testing.T) {
	e := mustParse(t, "iif(1 < 2, 10, 20)", nil)
	c, ok := e.(*expr.Conditional)
	if !ok {
		t.Fatalf("expected Conditional, got %T", e)
	}
	if c.Type() != types.Int32Type {
		t.Errorf("type = %v", c.Type())
	}
}

func TestNewRecord(t *testing.T) {
	resource := expr.NewParameter("resource", types.StringType)
	e := mustParse(t, "new(resource.Length alias Len)", []*expr.Parameter{resource})
	mi, ok := e.(*expr.MemberInit)
	if !ok {
		t.Fatalf("expected MemberInit, got %T", e)
	}
	if len(mi.Bindings) != 1 || mi.Bindings[0].Name != "Len" {
		t.Fatalf("bindings = %+v", mi.Bindings)
	}
	rt := mi.Type()
	if rt.Kind() != reflect.Struct || rt.NumField() != 1 {
		t.Fatalf("record type = %v", rt)
	}
	if rt.Field(0).Name != "Len" || rt.Field(0).Type != types.Int32Type {
		t.Errorf("field = %+v", rt.Field(0))
	}

	// Without an alias, the member name becomes the property name.
	e2 := mustParse(t, "new(resource.Length, resource alias Value)", []*expr.Parameter{resource})
	mi2 := e2.(*expr.MemberInit)
	if mi2.Bindings[0].Name != "Length" || mi2.Bindings[1].Name != "Value" {
		t.Errorf("bindings = %+v", mi2.Bindings)
	}
}

func TestTypeConversionCall(t *testing.T) {
	e := mustParse(t, "Int64(5)", nil)
	conv, ok := e.(*expr.Convert)
	if !ok {
		t.Fatalf("expected Convert, got %T", e)
	}
	if conv.Type() != types.Int64Type || !conv.Checked {
		t.Errorf("conversion = %v : %v checked=%v", conv, conv.Type(), conv.Checked)
	}
}

func TestCharConversionFromString(t *testing.T) {
	e := mustParse(t, `Char("x")`, nil)
	c := constant(t, e)
	if c.Type() != types.CharType || c.Value != types.Char('x') {
		t.Errorf("got %v : %v", c.Value, c.Type())
	}

	p := testParser(t, `Char("xy")`, nil)
	_, err := p.Parse(nil)
	if err == nil {
		t.Fatal("expected InvalidCharacterLiteral error")
	}
}

func TestConstructorCall(t *testing.T) {
	e := mustParse(t, "DateTime(2024, 1, 15)", nil)
	n, ok := e.(*expr.New)
	if !ok {
		t.Fatalf("expected New, got %T", e)
	}
	if n.Type() != types.DateTimeType || len(n.Args) != 3 {
		t.Errorf("constructor = %v", n)
	}
}

func TestStaticMemberAccess(t *testing.T) {
	e := mustParse(t, "Math.Pow(2.0, 8.0)", nil)
	call, ok := e.(*expr.Call)
	if !ok || call.Method != "Pow" {
		t.Fatalf("expected Math.Pow call, got %v", e)
	}
	if call.Target != nil || call.On != types.MathType || call.Type() != types.DoubleType {
		t.Errorf("call = %+v", call)
	}

	e = mustParse(t, "DateTime.Now", nil)
	m, ok := e.(*expr.Member)
	if !ok || m.Target != nil || m.Type() != types.DateTimeType {
		t.Fatalf("expected static DateTime.Now member, got %v", e)
	}
}

func TestBuiltinMethodCall(t *testing.T) {
	e := mustParse(t, `it.StartsWith("f")`, itParam(types.StringType))
	call, ok := e.(*expr.Call)
	if !ok || call.Method != "StartsWith" || call.Type() != types.BoolType {
		t.Fatalf("got %v", e)
	}

	// Overload selection by arity.
	e = mustParse(t, "it.Substring(1, 2)", itParam(types.StringType))
	call = e.(*expr.Call)
	if call.Type() != types.StringType || len(call.Args) != 2 {
		t.Errorf("Substring call = %v", call)
	}
}

func TestMethodAccessibility(t *testing.T) {
	wt := reflect.TypeOf(accessTarget{})
	param := []*expr.Parameter{expr.NewParameter("w", wt)}

	// Methods on types outside the allowed set are rejected.
	p := testParser(t, "w.Score()", param)
	if _, err := p.Parse(nil); err == nil {
		t.Fatal("expected MethodsAreInaccessible error")
	}

	// Allowing the type makes its methods callable.
	reg := types.NewRegistry()
	reg.Add(wt)
	p2, err := New(reg, "w.Score()", param, nil)
	if err != nil {
		t.Fatal(err)
	}
	e, err := p2.Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if call, ok := e.(*expr.Call); !ok || call.Type() != types.Int32Type {
		t.Errorf("got %v", e)
	}

	// Void methods never produce a value.
	p3, err := New(reg, "w.Reset()", param, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p3.Parse(nil); err == nil {
		t.Fatal("expected MethodIsVoid error")
	}
}

type accessTarget struct{}

func (accessTarget) Score() int32 { return 0 }
func (accessTarget) Reset()       {}

func TestIndexers(t *testing.T) {
	e := mustParse(t, "it[0]", itParam(reflect.SliceOf(types.StringType)))
	ix, ok := e.(*expr.Index)
	if !ok || ix.Type() != types.StringType {
		t.Fatalf("slice index = %v", e)
	}

	// The string indexer yields Char.
	e = mustParse(t, "it[1]", itParam(types.StringType))
	ix = e.(*expr.Index)
	if ix.Type() != types.CharType {
		t.Errorf("string index type = %v, want Char", ix.Type())
	}

	// Map keys promote to the key type.
	e = mustParse(t, `it["k"]`, itParam(reflect.MapOf(types.StringType, types.Int32Type)))
	ix = e.(*expr.Index)
	if ix.Type() != types.Int32Type {
		t.Errorf("map index type = %v, want int32", ix.Type())
	}
}

func TestIsAndAsOperators(t *testing.T) {
	resource := []*expr.Parameter{expr.NewParameter("resource", types.ObjectType)}

	e := mustParse(t, "resource is System.String", resource)
	is, ok := e.(*expr.TypeIs)
	if !ok || is.Target != types.StringType || is.Type() != types.BoolType {
		t.Fatalf("is = %v", e)
	}

	e = mustParse(t, "(resource as System.String).Length", resource)
	m, ok := e.(*expr.Member)
	if !ok || m.Name != "Length" {
		t.Fatalf("expected Length over as-expression, got %v", e)
	}
	if _, ok := m.Target.(*expr.TypeAs); !ok {
		t.Errorf("member target = %T, want *expr.TypeAs", m.Target)
	}

	// Short names resolve too.
	e = mustParse(t, "resource is String", resource)
	if _, ok := e.(*expr.TypeIs); !ok {
		t.Fatalf("short name is = %v", e)
	}
}

func TestNullableTypeSuffix(t *testing.T) {
	e := mustParse(t, "Int32?(null)", nil)
	conv, ok := e.(*expr.Convert)
	if !ok || conv.Type() != reflect.PointerTo(types.Int32Type) {
		t.Fatalf("got %T : %v", e, e.Type())
	}
	if c, ok := conv.Operand.(*expr.Constant); !ok || !c.IsNull() {
		t.Errorf("operand = %v, want the null literal", conv.Operand)
	}
}

type parserColor int

func TestEnumMemberAccess(t *testing.T) {
	reg := types.NewRegistry()
	colorType := reflect.TypeOf(parserColor(0))
	reg.RegisterEnum(colorType, map[string]int64{"Red": 0, "Green": 1, "Blue": 2})

	p, err := New(reg, "parserColor.Green", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	e, err := p.Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	c := constant(t, e)
	if c.Type() != colorType || c.Value != int64(1) {
		t.Errorf("enum constant = %v : %v", c.Value, c.Type())
	}
}

func TestDeterminism(t *testing.T) {
	text := `it.Length > 2 && it.StartsWith("f") || it == "x"`
	first := mustParse(t, text, itParam(types.StringType))
	second := mustParse(t, text, itParam(types.StringType))
	if expr.Dump(first) != expr.Dump(second) {
		t.Error("parsing the same text twice produced different trees")
	}
	if first.String() != second.String() {
		t.Error("renderings differ across parses")
	}
}

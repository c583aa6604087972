package parser

import (
	"reflect"
	"testing"

	"github.com/querytools/go-dynq/internal/errors"
	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/expr"
)

// expectError parses text and asserts the failure message and offset.
func expectError(t *testing.T, text string, params []*expr.Parameter, message string, pos int) {
	t.Helper()
	p, err := New(types.NewRegistry(), text, params, nil)
	if err == nil {
		_, err = p.Parse(nil)
	}
	if err == nil {
		t.Fatalf("Parse(%q) succeeded, want error %q", text, message)
	}
	pe, ok := err.(*errors.ParseError)
	if !ok {
		t.Fatalf("error type = %T, want *errors.ParseError", err)
	}
	if pe.Message != message {
		t.Errorf("message = %q, want %q", pe.Message, message)
	}
	if pe.Pos != pos {
		t.Errorf("pos = %d, want %d", pe.Pos, pos)
	}
}

func TestSyntaxErrors(t *testing.T) {
	strIt := itParam(types.StringType)

	expectError(t, "(1 + 2", nil, "')' or operator expected", 6)
	expectError(t, "1 +", nil, "Expression expected", 3)
	expectError(t, "1 2", nil, "Syntax error", 2)
	expectError(t, "true ? 1", nil, "':' expected", 8)
	expectError(t, "iif(true, 1)", nil, "The 'iif' function requires three arguments", 0)
	expectError(t, "it.Substring(1,)", strIt, "Expression expected", 15)
	expectError(t, "it[0", strIt, "']' or ',' expected", 4)
	expectError(t, "new(1 + 2)", nil, "Expression is missing an 'alias' clause", 4)
	expectError(t, "new(it.Length alias )", strIt, "Identifier expected", 20)
	expectError(t, "Int32.", nil, "Identifier expected", 6)
	expectError(t, "Int32", nil, "'.' or '(' expected", 5)
}

func TestNameResolutionErrors(t *testing.T) {
	expectError(t, "foo", nil, "Unknown identifier 'foo'", 0)
	expectError(t, "it", nil, "No 'it' is in scope", 0)
	expectError(t, "it_1", itParam(types.Int32Type), "No 'it' is in scope", 0)
	expectError(t, "it.Foo", itParam(types.StringType),
		"No property or field 'Foo' exists in type 'string'", 3)
	expectError(t, "it.Foo(1)", itParam(types.StringType),
		"No applicable method 'Foo' exists in type 'string'", 3)
}

func TestDuplicateParameterNames(t *testing.T) {
	params := []*expr.Parameter{
		expr.NewParameter("x", types.Int32Type),
		expr.NewParameter("X", types.StringType),
	}
	_, err := New(types.NewRegistry(), "x", params, nil)
	if err == nil {
		t.Fatal("expected DuplicateIdentifier error")
	}
	pe := err.(*errors.ParseError)
	if pe.Message != "The identifier 'X' was defined more than once" {
		t.Errorf("message = %q", pe.Message)
	}
}

func TestTypingErrors(t *testing.T) {
	expectError(t, "1 ? 2 : 3", nil, "The first expression must be of type 'Boolean'", 0)
	expectError(t, "1 == 'a'", nil,
		"Operator '==' incompatible with operand types 'int32' and 'Char'", 2)
	expectError(t, "true + 1", nil,
		"Operator '+' incompatible with operand types 'bool' and 'int32'", 5)
	expectError(t, "-true", nil, "Operator '-' incompatible with operand type 'bool'", 0)
	expectError(t, "String?", nil, "Type 'string' has no nullable form", 0)
	expectError(t, `it["x"]`, itParam(reflect.SliceOf(types.StringType)),
		"Array index must be an integer expression", 2)
	expectError(t, "it[1, 2]", itParam(reflect.SliceOf(types.StringType)),
		"Indexing of multi-dimensional arrays is not supported", 2)
}

func TestConditionalPromotionErrors(t *testing.T) {
	p16 := []*expr.Parameter{expr.NewParameter("p16", types.Int16Type)}

	// The int literal re-lexes to int16 and int16 widens to int32, so
	// both sides convert to the other.
	expectError(t, "true ? 5 : p16", p16,
		"Both of the types 'int32' and 'int16' convert to the other", 0)

	expectError(t, "true ? 1 : 'a'", nil,
		"Neither of the types 'int32' and 'Char' converts to the other", 0)
}

func TestResultTypeMismatch(t *testing.T) {
	p := testParser(t, "1 == 2", nil)
	_, err := p.Parse(types.StringType)
	if err == nil {
		t.Fatal("expected ExpressionTypeMismatch")
	}
	pe := err.(*errors.ParseError)
	if pe.Message != "Expression of type 'string' expected" {
		t.Errorf("message = %q", pe.Message)
	}
}

func TestLexicalErrorsSurfaceFromNew(t *testing.T) {
	_, err := New(types.NewRegistry(), `"abc`, nil, nil)
	if err == nil {
		t.Fatal("expected UnterminatedStringLiteral from the initial token")
	}
	pe := err.(*errors.ParseError)
	if pe.Message != "Unterminated string literal" || pe.Pos != 4 {
		t.Errorf("error = %q at %d", pe.Message, pe.Pos)
	}
}

func TestIntegerLiteralOverflow(t *testing.T) {
	expectError(t, "99999999999999999999", nil,
		"Invalid integer literal '99999999999999999999'", 0)
}

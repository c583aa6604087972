package lexer

import (
	"testing"

	"github.com/querytools/go-dynq/internal/errors"
)

// lexAll tokenizes text and returns the tokens up to and including END.
func lexAll(t *testing.T, text string) []Token {
	t.Helper()
	l := New(text)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected lex error for %q: %v", text, err)
		}
		tokens = append(tokens, tok)
		if tok.Type == END {
			return tokens
		}
	}
}

func TestPunctuators(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"!", EXCLAM},
		{"%", PERCENT},
		{"&", AMP},
		{"(", LPAREN},
		{")", RPAREN},
		{"*", ASTERISK},
		{"+", PLUS},
		{",", COMMA},
		{"-", MINUS},
		{".", DOT},
		{"/", SLASH},
		{":", COLON},
		{"<", LESS},
		{"=", EQUAL},
		{">", GREATER},
		{"?", QUESTION},
		{"[", LBRACK},
		{"]", RBRACK},
		{"|", BAR},
		{"!=", EXCLAM_EQUAL},
		{"&&", AMP_AMP},
		{"<=", LESS_EQUAL},
		{"<>", LESS_GREATER},
		{"==", EQUAL_EQUAL},
		{">=", GREATER_EQUAL},
		{"||", BAR_BAR},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexAll(t, tt.input)
			if len(tokens) != 2 {
				t.Fatalf("expected 2 tokens, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("token type = %s, want %s", tokens[0].Type, tt.expected)
			}
			if tokens[0].Text != tt.input {
				t.Errorf("token text = %q, want %q", tokens[0].Text, tt.input)
			}
		})
	}
}

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"it", IDENT},
		{"it_2", IDENT},
		{"Length", IDENT},
		{"@0", IDENT},
		{"_private", IDENT},
		{"x9", IDENT},
		{"as", AS_TYPE},
		{"AS", AS_TYPE},
		{"is", IS_TYPE},
		{"Is", IS_TYPE},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexAll(t, tt.input)
			if tokens[0].Type != tt.expected {
				t.Errorf("token type = %s, want %s", tokens[0].Type, tt.expected)
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
		text     string
	}{
		{"0", INT, "0"},
		{"123", INT, "123"},
		{"1.5", REAL, "1.5"},
		{"2e10", REAL, "2e10"},
		{"2E+10", REAL, "2E+10"},
		{"2e-3", REAL, "2e-3"},
		{"1.25e2", REAL, "1.25e2"},
		{"10f", REAL, "10f"},
		{"1.5F", REAL, "1.5F"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexAll(t, tt.input)
			if tokens[0].Type != tt.expected {
				t.Errorf("token type = %s, want %s", tokens[0].Type, tt.expected)
			}
			if tokens[0].Text != tt.text {
				t.Errorf("token text = %q, want %q", tokens[0].Text, tt.text)
			}
		})
	}
}

// A dot not followed by a digit is a member access, not a fraction.
func TestIntegerDotMember(t *testing.T) {
	tokens := lexAll(t, "1.ToString")
	if tokens[0].Type != INT || tokens[0].Text != "1" {
		t.Fatalf("first token = %s %q, want INT \"1\"", tokens[0].Type, tokens[0].Text)
	}
	if tokens[1].Type != DOT {
		t.Fatalf("second token = %s, want DOT", tokens[1].Type)
	}
	if tokens[2].Type != IDENT || tokens[2].Text != "ToString" {
		t.Fatalf("third token = %s %q, want IDENT ToString", tokens[2].Type, tokens[2].Text)
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		text  string
	}{
		{"double quoted", `"hello"`, `"hello"`},
		{"single quoted", `'a'`, `'a'`},
		{"doubled double quote", `"say ""hi"""`, `"say ""hi"""`},
		{"doubled single quote", `'it''s'`, `'it''s'`},
		{"empty", `""`, `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := lexAll(t, tt.input)
			if tokens[0].Type != STRING {
				t.Fatalf("token type = %s, want STRING", tokens[0].Type)
			}
			if tokens[0].Text != tt.text {
				t.Errorf("token text = %q, want %q", tokens[0].Text, tt.text)
			}
		})
	}
}

func TestPositions(t *testing.T) {
	tokens := lexAll(t, "it.Length == 4")
	expected := []struct {
		tt  TokenType
		pos int
	}{
		{IDENT, 0},
		{DOT, 2},
		{IDENT, 3},
		{EQUAL_EQUAL, 10},
		{INT, 13},
		{END, 14},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, want := range expected {
		if tokens[i].Type != want.tt || tokens[i].Pos != want.pos {
			t.Errorf("token %d = %s at %d, want %s at %d",
				i, tokens[i].Type, tokens[i].Pos, want.tt, want.pos)
		}
	}
}

// Positions count runes, not bytes.
func TestUnicodePositions(t *testing.T) {
	tokens := lexAll(t, `"héllo" == x`)
	if tokens[1].Type != EQUAL_EQUAL || tokens[1].Pos != 8 {
		t.Errorf("operator at %d, want 8", tokens[1].Pos)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		pos     int
	}{
		{"unterminated double", `"abc`, "Unterminated string literal", 4},
		{"unterminated single", `'abc`, "Unterminated string literal", 4},
		{"unterminated after escape", `"ab""`, "Unterminated string literal", 5},
		{"invalid character", "1 ~ 2", "Syntax error '~'", 2},
		{"missing exponent digit", "1.5e", "Digit expected", 4},
		{"missing digit after sign", "2e+", "Digit expected", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)
			var err error
			for err == nil {
				var tok Token
				tok, err = l.Next()
				if err == nil && tok.Type == END {
					t.Fatalf("expected error for %q, lexed to END", tt.input)
				}
			}
			pe, ok := err.(*errors.ParseError)
			if !ok {
				t.Fatalf("error type = %T, want *errors.ParseError", err)
			}
			if pe.Message != tt.message {
				t.Errorf("message = %q, want %q", pe.Message, tt.message)
			}
			if pe.Pos != tt.pos {
				t.Errorf("pos = %d, want %d", pe.Pos, tt.pos)
			}
		})
	}
}

func TestWhitespaceSkipping(t *testing.T) {
	tokens := lexAll(t, "  \t 1 \n + 2  ")
	kinds := []TokenType{INT, PLUS, INT, END}
	if len(tokens) != len(kinds) {
		t.Fatalf("expected %d tokens, got %d", len(kinds), len(tokens))
	}
	for i, want := range kinds {
		if tokens[i].Type != want {
			t.Errorf("token %d = %s, want %s", i, tokens[i].Type, want)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	tokens := lexAll(t, "")
	if len(tokens) != 1 || tokens[0].Type != END || tokens[0].Pos != 0 {
		t.Fatalf("empty input should lex to END at 0, got %v", tokens)
	}
}

// Package lexer turns an expression string into a token stream.
//
// Positions are 0-based rune offsets into the source expression. Multi-byte
// UTF-8 sequences count as one position, which keeps error carets stable
// regardless of encoding width.
package lexer

import (
	"unicode"

	"github.com/querytools/go-dynq/internal/errors"
	"github.com/querytools/go-dynq/pkg/ident"
)

// Lexer is a single-pass scanner over an expression.
type Lexer struct {
	text []rune
	pos  int
	ch   rune
}

const eof rune = -1

// New creates a Lexer for the given expression.
func New(text string) *Lexer {
	l := &Lexer{text: []rune(text), pos: -1}
	l.nextChar()
	return l
}

// Source returns the expression being tokenized.
func (l *Lexer) Source() string {
	return string(l.text)
}

func (l *Lexer) nextChar() {
	if l.pos < len(l.text) {
		l.pos++
	}
	if l.pos < len(l.text) {
		l.ch = l.text[l.pos]
	} else {
		l.ch = eof
	}
}

func (l *Lexer) peekChar() rune {
	if l.pos+1 < len(l.text) {
		return l.text[l.pos+1]
	}
	return eof
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '@' || ch == '_'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// Next scans and returns the next token.
func (l *Lexer) Next() (Token, error) {
	for l.ch != eof && unicode.IsSpace(l.ch) {
		l.nextChar()
	}

	start := l.pos
	var tt TokenType

	switch {
	case l.ch == '!':
		l.nextChar()
		if l.ch == '=' {
			l.nextChar()
			tt = EXCLAM_EQUAL
		} else {
			tt = EXCLAM
		}
	case l.ch == '%':
		l.nextChar()
		tt = PERCENT
	case l.ch == '&':
		l.nextChar()
		if l.ch == '&' {
			l.nextChar()
			tt = AMP_AMP
		} else {
			tt = AMP
		}
	case l.ch == '(':
		l.nextChar()
		tt = LPAREN
	case l.ch == ')':
		l.nextChar()
		tt = RPAREN
	case l.ch == '*':
		l.nextChar()
		tt = ASTERISK
	case l.ch == '+':
		l.nextChar()
		tt = PLUS
	case l.ch == ',':
		l.nextChar()
		tt = COMMA
	case l.ch == '-':
		l.nextChar()
		tt = MINUS
	case l.ch == '.':
		l.nextChar()
		tt = DOT
	case l.ch == '/':
		l.nextChar()
		tt = SLASH
	case l.ch == ':':
		l.nextChar()
		tt = COLON
	case l.ch == '<':
		l.nextChar()
		switch l.ch {
		case '=':
			l.nextChar()
			tt = LESS_EQUAL
		case '>':
			l.nextChar()
			tt = LESS_GREATER
		default:
			tt = LESS
		}
	case l.ch == '=':
		l.nextChar()
		if l.ch == '=' {
			l.nextChar()
			tt = EQUAL_EQUAL
		} else {
			tt = EQUAL
		}
	case l.ch == '>':
		l.nextChar()
		if l.ch == '=' {
			l.nextChar()
			tt = GREATER_EQUAL
		} else {
			tt = GREATER
		}
	case l.ch == '?':
		l.nextChar()
		tt = QUESTION
	case l.ch == '[':
		l.nextChar()
		tt = LBRACK
	case l.ch == ']':
		l.nextChar()
		tt = RBRACK
	case l.ch == '|':
		l.nextChar()
		if l.ch == '|' {
			l.nextChar()
			tt = BAR_BAR
		} else {
			tt = BAR
		}
	case l.ch == '"' || l.ch == '\'':
		if err := l.scanString(); err != nil {
			return Token{}, err
		}
		tt = STRING
	case isIdentStart(l.ch):
		l.nextChar()
		for isIdentPart(l.ch) {
			l.nextChar()
		}
		tt = IDENT
	case unicode.IsDigit(l.ch):
		var err error
		tt, err = l.scanNumber()
		if err != nil {
			return Token{}, err
		}
	case l.ch == eof:
		tt = END
	default:
		return Token{}, errors.New(l.pos, "Syntax error '%c'", l.ch)
	}

	tok := Token{Type: tt, Text: string(l.text[start:l.pos]), Pos: start}
	if tok.Type == IDENT {
		switch {
		case ident.Equal(tok.Text, "as"):
			tok.Type = AS_TYPE
		case ident.Equal(tok.Text, "is"):
			tok.Type = IS_TYPE
		}
	}
	return tok, nil
}

// scanString consumes a quoted literal. An embedded delimiter is escaped by
// doubling it; the doubled pair is collapsed later, when the parser
// unquotes the token text.
func (l *Lexer) scanString() error {
	quote := l.ch
	for {
		l.nextChar()
		for l.ch != eof && l.ch != quote {
			l.nextChar()
		}
		if l.ch == eof {
			return errors.New(l.pos, "Unterminated string literal")
		}
		l.nextChar()
		if l.ch != quote {
			return nil
		}
	}
}

// scanNumber consumes an integer literal, decaying to a real literal on a
// fraction, an exponent, or a trailing F suffix.
func (l *Lexer) scanNumber() (TokenType, error) {
	tt := INT
	for unicode.IsDigit(l.ch) {
		l.nextChar()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		tt = REAL
		l.nextChar()
		for unicode.IsDigit(l.ch) {
			l.nextChar()
		}
	}
	if l.ch == 'E' || l.ch == 'e' {
		tt = REAL
		l.nextChar()
		if l.ch == '+' || l.ch == '-' {
			l.nextChar()
		}
		if !unicode.IsDigit(l.ch) {
			return tt, errors.New(l.pos, "Digit expected")
		}
		for unicode.IsDigit(l.ch) {
			l.nextChar()
		}
	}
	if l.ch == 'F' || l.ch == 'f' {
		tt = REAL
		l.nextChar()
	}
	return tt, nil
}

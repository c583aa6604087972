// Package parser implements the expression-language parser: a
// recursive-descent precedence ladder that emits typed IR nodes, running
// the promotion engine and overload resolver at every operator and call
// site.
//
// A Parser instance owns all mutable parse state (cursor, lookahead token,
// iteration-scope stack, literal side-table); a parse is a pure function
// of its inputs and instances are never shared across goroutines.
package parser

import (
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/querytools/go-dynq/internal/lexer"
	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/dynclass"
	"github.com/querytools/go-dynq/pkg/expr"
	"github.com/querytools/go-dynq/pkg/ident"
)

// sentinel marks the keyword-table entries that trigger special parse
// forms rather than resolving to a type or literal.
type sentinel int

const (
	sentinelIt sentinel = iota + 1
	sentinelIif
	sentinelNew
)

var itRefPattern = regexp.MustCompile(`(?i)^it_([0-9]+)$`)

// Parser holds the state of a single parse.
type Parser struct {
	lex   *lexer.Lexer
	token lexer.Token
	reg   *types.Registry

	keywords  *ident.Map[any] // type names, sentinels, literal keywords
	symbols   *ident.Map[any] // named parameters and @k substitutions
	externals *ident.Map[any]

	// literals maps constant nodes back to their source text so the
	// promotion engine can re-lex them into a narrower target type.
	literals map[*expr.Constant]string

	itStack []*expr.Parameter

	nullLiteral *expr.Constant
}

// New creates a parser over text. Named parameters become symbols; a
// single anonymous parameter becomes the implicit iteration scope. values
// installs the positional @0, @1, ... substitutions, with a trailing
// string-keyed map becoming the externals table.
func New(reg *types.Registry, text string, parameters []*expr.Parameter, values []any) (*Parser, error) {
	p := &Parser{
		lex:         lexer.New(text),
		reg:         reg,
		keywords:    ident.NewMap[any](),
		symbols:     ident.NewMap[any](),
		literals:    make(map[*expr.Constant]string),
		nullLiteral: expr.NewNull(types.ObjectType),
	}

	p.keywords.Set("true", expr.Expression(expr.NewConstant(true, types.BoolType)))
	p.keywords.Set("false", expr.Expression(expr.NewConstant(false, types.BoolType)))
	p.keywords.Set("null", expr.Expression(p.nullLiteral))
	p.keywords.Set("it", sentinelIt)
	p.keywords.Set("iif", sentinelIif)
	p.keywords.Set("new", sentinelNew)
	for _, name := range reg.TypeNames() {
		if t, ok := reg.Lookup(name); ok {
			p.keywords.Set(name, t)
		}
	}

	for _, param := range parameters {
		if param.Name == "" {
			continue
		}
		if !p.symbols.SetIfAbsent(param.Name, any(param)) {
			return nil, parseError(0, errDuplicateIdentifier, param.Name)
		}
	}
	if len(parameters) == 1 && parameters[0].Name == "" {
		p.itStack = append(p.itStack, parameters[0])
	}

	for i, value := range values {
		if i == len(values)-1 {
			if ext, ok := value.(map[string]any); ok {
				p.externals = ident.NewMapWithCapacity[any](len(ext))
				for k, v := range ext {
					p.externals.Set(k, v)
				}
				continue
			}
		}
		p.symbols.Set("@"+strconv.Itoa(i), value)
	}

	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse parses a complete expression. When resultType is non-nil the
// parsed expression is promoted to it exactly.
func (p *Parser) Parse(resultType reflect.Type) (expr.Expression, error) {
	exprPos := p.token.Pos
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if resultType != nil {
		promoted := p.promoteExpression(e, resultType, true)
		if promoted == nil {
			return nil, parseError(exprPos, errExpressionTypeMismatch, expr.TypeName(resultType))
		}
		e = promoted
	}
	if err := p.validateToken(lexer.END, errSyntaxError); err != nil {
		return nil, err
	}
	return e, nil
}

// ============================================================================
// Cursor helpers
// ============================================================================

func (p *Parser) nextToken() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.token = tok
	return nil
}

func (p *Parser) tokenIdentifierIs(name string) bool {
	return p.token.Is(lexer.IDENT) && ident.Equal(p.token.Text, name)
}

func (p *Parser) validateToken(tt lexer.TokenType, message string) error {
	if !p.token.Is(tt) {
		return parseError(p.token.Pos, "%s", message)
	}
	return nil
}

func (p *Parser) getIdentifier() (string, error) {
	if !p.token.Is(lexer.IDENT) {
		return "", parseError(p.token.Pos, errIdentifierExpected)
	}
	return p.token.Text, nil
}

func (p *Parser) createLiteral(value any, text string, t reflect.Type) *expr.Constant {
	c := expr.NewConstant(value, t)
	p.literals[c] = text
	return c
}

func (p *Parser) registerLiteral(c *expr.Constant, text string) expr.Expression {
	p.literals[c] = text
	return c
}

// ============================================================================
// Precedence ladder
// ============================================================================

// parseExpression parses the ternary level: or ('?' expr ':' expr)?
func (p *Parser) parseExpression() (expr.Expression, error) {
	errPos := p.token.Pos
	e, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.token.Is(lexer.QUESTION) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		expr1, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.validateToken(lexer.COLON, errColonExpected); err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		expr2, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return p.generateConditional(e, expr1, expr2, errPos)
	}
	return e, nil
}

// parseLogicalOr parses: and (('||' | 'or') and)*
func (p *Parser) parseLogicalOr() (expr.Expression, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.token.Is(lexer.BAR_BAR) || p.tokenIdentifierIs("or") {
		op := p.token
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		l, r, rt, err := p.checkAndPromoteOperands(logicalSignatures, op.Text, left, right, op.Pos)
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(expr.OrElse, l, r, rt)
	}
	return left, nil
}

// parseLogicalAnd parses: rel (('&&' | 'and') rel)*
func (p *Parser) parseLogicalAnd() (expr.Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.token.Is(lexer.AMP_AMP) || p.tokenIdentifierIs("and") {
		op := p.token
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		l, r, rt, err := p.checkAndPromoteOperands(logicalSignatures, op.Text, left, right, op.Pos)
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(expr.AndAlso, l, r, rt)
	}
	return left, nil
}

func isComparisonToken(tt lexer.TokenType) bool {
	switch tt {
	case lexer.EQUAL, lexer.EQUAL_EQUAL, lexer.EXCLAM_EQUAL, lexer.LESS_GREATER,
		lexer.LESS, lexer.LESS_EQUAL, lexer.GREATER, lexer.GREATER_EQUAL,
		lexer.AS_TYPE, lexer.IS_TYPE:
		return true
	}
	return false
}

func isEqualityToken(tt lexer.TokenType) bool {
	switch tt {
	case lexer.EQUAL, lexer.EQUAL_EQUAL, lexer.EXCLAM_EQUAL, lexer.LESS_GREATER:
		return true
	}
	return false
}

// parseComparison parses the relational/equality/type-test level.
func (p *Parser) parseComparison() (expr.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for isComparisonToken(p.token.Type) {
		op := p.token
		if err := p.nextToken(); err != nil {
			return nil, err
		}

		if op.Is(lexer.IS_TYPE) || op.Is(lexer.AS_TYPE) {
			target, err := p.parseKnownType()
			if err != nil {
				return nil, err
			}
			if op.Is(lexer.IS_TYPE) {
				left = expr.NewTypeIs(left, target)
			} else {
				left = expr.NewTypeAs(left, target)
			}
			continue
		}

		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}

		isEquality := isEqualityToken(op.Type)
		lt, rt := left.Type(), right.Type()
		switch {
		case isEquality && !isValueOrNullable(lt) && !isValueOrNullable(rt):
			if lt != rt {
				switch {
				case rt.AssignableTo(lt):
					right = expr.NewConvert(right, lt)
				case lt.AssignableTo(rt):
					left = expr.NewConvert(left, rt)
				default:
					return nil, parseError(op.Pos, errIncompatibleOperands,
						op.Text, expr.TypeName(lt), expr.TypeName(rt))
				}
			}
		case p.reg.IsEnum(lt) || p.reg.IsEnum(rt):
			if lt != rt {
				if e := p.promoteExpression(right, lt, true); e != nil {
					right = e
				} else if e := p.promoteExpression(left, rt, true); e != nil {
					left = e
				} else {
					return nil, parseError(op.Pos, errIncompatibleOperands,
						op.Text, expr.TypeName(lt), expr.TypeName(rt))
				}
			}
		default:
			sigs := relationalSignatures
			if isEquality {
				sigs = equalitySignatures
			}
			l, r, _, err := p.checkAndPromoteOperands(sigs, op.Text, left, right, op.Pos)
			if err != nil {
				return nil, err
			}
			left, right = l, r
		}

		left = p.generateComparison(op, left, right)
	}
	return left, nil
}

func isValueOrNullable(t reflect.Type) bool {
	return types.IsValueType(t) || types.IsNullable(t)
}

// generateComparison emits the comparison node. String ordering compiles
// into Compare(left, right) <op> 0.
func (p *Parser) generateComparison(op lexer.Token, left, right expr.Expression) expr.Expression {
	var bop expr.BinaryOp
	switch op.Type {
	case lexer.EQUAL, lexer.EQUAL_EQUAL:
		bop = expr.Equal
	case lexer.EXCLAM_EQUAL, lexer.LESS_GREATER:
		bop = expr.NotEqual
	case lexer.LESS:
		bop = expr.Less
	case lexer.LESS_EQUAL:
		bop = expr.LessEqual
	case lexer.GREATER:
		bop = expr.Greater
	default:
		bop = expr.GreaterEqual
	}
	if bop >= expr.Less && left.Type() == types.StringType {
		compare := expr.NewCall(nil, types.StringType, "Compare", nil,
			[]expr.Expression{left, right}, types.Int32Type)
		zero := expr.NewConstant(int32(0), types.Int32Type)
		return expr.NewBinary(bop, compare, zero, types.BoolType)
	}
	return expr.NewBinary(bop, left, right, types.BoolType)
}

// parseAdditive parses: mul (('+' | '-' | '&') mul)*
func (p *Parser) parseAdditive() (expr.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.token.Is(lexer.PLUS) || p.token.Is(lexer.MINUS) || p.token.Is(lexer.AMP) {
		op := p.token
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		switch op.Type {
		case lexer.PLUS:
			if left.Type() == types.StringType || right.Type() == types.StringType {
				left = generateStringConcat(left, right)
				continue
			}
			l, r, rt, err := p.checkAndPromoteOperands(addSignatures, op.Text, left, right, op.Pos)
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.Add, l, r, rt)
		case lexer.MINUS:
			l, r, rt, err := p.checkAndPromoteOperands(subtractSignatures, op.Text, left, right, op.Pos)
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.Subtract, l, r, rt)
		default: // &
			left = generateStringConcat(left, right)
		}
	}
	return left, nil
}

func generateStringConcat(left, right expr.Expression) expr.Expression {
	return expr.NewCall(nil, types.StringType, "Concat", nil,
		[]expr.Expression{left, right}, types.StringType)
}

// parseMultiplicative parses: unary (('*' | '/' | '%' | 'mod') unary)*
func (p *Parser) parseMultiplicative() (expr.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.token.Is(lexer.ASTERISK) || p.token.Is(lexer.SLASH) ||
		p.token.Is(lexer.PERCENT) || p.tokenIdentifierIs("mod") {
		op := p.token
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l, r, rt, err := p.checkAndPromoteOperands(multiplySignatures, op.Text, left, right, op.Pos)
		if err != nil {
			return nil, err
		}
		var bop expr.BinaryOp
		switch {
		case op.Is(lexer.ASTERISK):
			bop = expr.Multiply
		case op.Is(lexer.SLASH):
			bop = expr.Divide
		default: // % or mod
			bop = expr.Modulo
		}
		left = expr.NewBinary(bop, l, r, rt)
	}
	return left, nil
}

// parseUnary parses: ('-' | '!' | 'not')? primary. Unary minus directly
// before a numeric literal folds into a signed literal so the minimum
// signed values stay representable.
func (p *Parser) parseUnary() (expr.Expression, error) {
	if p.token.Is(lexer.MINUS) || p.token.Is(lexer.EXCLAM) || p.tokenIdentifierIs("not") {
		op := p.token
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if op.Is(lexer.MINUS) && (p.token.Is(lexer.INT) || p.token.Is(lexer.REAL)) {
			p.token.Text = "-" + p.token.Text
			p.token.Pos = op.Pos
			return p.parsePrimary()
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op.Is(lexer.MINUS) {
			operand, err = p.checkAndPromoteOperand(negationSignatures, op.Text, operand, op.Pos)
			if err != nil {
				return nil, err
			}
			return expr.NewUnary(expr.Negate, operand), nil
		}
		operand, err = p.checkAndPromoteOperand(notSignatures, op.Text, operand, op.Pos)
		if err != nil {
			return nil, err
		}
		return expr.NewUnary(expr.Not, operand), nil
	}
	return p.parsePrimary()
}

// parsePrimary parses a primary expression followed by its member and
// index suffixes.
func (p *Parser) parsePrimary() (expr.Expression, error) {
	e, err := p.parsePrimaryStart()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.token.Is(lexer.DOT):
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			e, err = p.parseMemberAccess(e, nil)
			if err != nil {
				return nil, err
			}
		case p.token.Is(lexer.LBRACK):
			e, err = p.parseElementAccess(e)
			if err != nil {
				return nil, err
			}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimaryStart() (expr.Expression, error) {
	switch p.token.Type {
	case lexer.IDENT:
		return p.parseIdentifier()
	case lexer.STRING:
		return p.parseStringLiteral()
	case lexer.INT:
		return p.parseIntegerLiteral()
	case lexer.REAL:
		return p.parseRealLiteral()
	case lexer.LPAREN:
		return p.parseParenExpression()
	default:
		return nil, parseError(p.token.Pos, errExpressionExpected)
	}
}

// ============================================================================
// Literals
// ============================================================================

func (p *Parser) parseStringLiteral() (expr.Expression, error) {
	text := p.token.Text
	quote := text[0]
	s := text[1 : len(text)-1]
	s = strings.ReplaceAll(s, string([]byte{quote, quote}), string(quote))

	var e expr.Expression
	runes := []rune(s)
	if quote == '\'' && len(runes) == 1 {
		e = p.createLiteral(types.Char(runes[0]), s, types.CharType)
	} else {
		e = p.createLiteral(s, s, types.StringType)
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) parseIntegerLiteral() (expr.Expression, error) {
	text := p.token.Text
	var e expr.Expression
	if !strings.HasPrefix(text, "-") {
		value, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, parseError(p.token.Pos, errInvalidIntegerLiteral, text)
		}
		switch {
		case value <= math.MaxInt32:
			e = p.createLiteral(int32(value), text, types.Int32Type)
		case value <= math.MaxUint32:
			e = p.createLiteral(uint32(value), text, types.UInt32Type)
		case value <= math.MaxInt64:
			e = p.createLiteral(int64(value), text, types.Int64Type)
		default:
			e = p.createLiteral(value, text, types.UInt64Type)
		}
	} else {
		value, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, parseError(p.token.Pos, errInvalidIntegerLiteral, text)
		}
		if value >= math.MinInt32 && value <= math.MaxInt32 {
			e = p.createLiteral(int32(value), text, types.Int32Type)
		} else {
			e = p.createLiteral(value, text, types.Int64Type)
		}
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) parseRealLiteral() (expr.Expression, error) {
	text := p.token.Text
	var e expr.Expression
	if last := text[len(text)-1]; last == 'F' || last == 'f' {
		value, err := strconv.ParseFloat(text[:len(text)-1], 32)
		if err != nil {
			return nil, parseError(p.token.Pos, errInvalidRealLiteral, text)
		}
		e = p.createLiteral(float32(value), text, types.SingleType)
	} else {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, parseError(p.token.Pos, errInvalidRealLiteral, text)
		}
		e = p.createLiteral(value, text, types.DoubleType)
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) parseParenExpression() (expr.Expression, error) {
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.validateToken(lexer.RPAREN, errCloseParenOrOperatorExpected); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return e, nil
}

// ============================================================================
// Identifier dispatch
// ============================================================================

// parseIdentifier resolves an identifier in the fixed order: parent
// iteration reference, keyword table, symbols, externals, and finally a
// member access on the implicit it receiver.
func (p *Parser) parseIdentifier() (expr.Expression, error) {
	tok := p.token

	if m := itRefPattern.FindStringSubmatch(tok.Text); m != nil {
		k, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, parseError(tok.Pos, errNoItInScope)
		}
		return p.parseItReference(k)
	}

	if value, ok := p.keywords.Get(tok.Text); ok {
		switch v := value.(type) {
		case reflect.Type:
			return p.parseTypeAccess(v)
		case sentinel:
			switch v {
			case sentinelIt:
				return p.parseItReference(0)
			case sentinelIif:
				return p.parseIif()
			default:
				return p.parseNew()
			}
		case expr.Expression:
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			return v, nil
		}
	}

	if value, ok := p.symbols.Get(tok.Text); ok {
		return p.parseSymbolValue(value)
	}
	if p.externals != nil {
		if value, ok := p.externals.Get(tok.Text); ok {
			return p.parseSymbolValue(value)
		}
	}

	if len(p.itStack) > 0 {
		return p.parseMemberAccess(p.itStack[len(p.itStack)-1], nil)
	}
	return nil, parseError(tok.Pos, errUnknownIdentifier, tok.Text)
}

// parseItReference resolves it (k == 0) or it_k against the iteration
// scope stack.
func (p *Parser) parseItReference(k int) (expr.Expression, error) {
	if k >= len(p.itStack) {
		return nil, parseError(p.token.Pos, errNoItInScope)
	}
	param := p.itStack[len(p.itStack)-1-k]
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return param, nil
}

// parseSymbolValue materializes a symbols/externals entry: parameters pass
// through, lambdas are invoked, raw values become constants.
func (p *Parser) parseSymbolValue(value any) (expr.Expression, error) {
	if e, ok := value.(expr.Expression); ok {
		if lambda, ok := e.(*expr.Lambda); ok {
			return p.parseLambdaInvocation(lambda)
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		return e, nil
	}

	var e expr.Expression
	switch v := value.(type) {
	case nil:
		e = p.nullLiteral
	case string:
		e = p.createLiteral(v, v, types.StringType)
	default:
		e = expr.NewConstant(v, reflect.TypeOf(v))
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return e, nil
}

// parseLambdaInvocation applies a lambda-valued symbol to an argument
// list.
func (p *Parser) parseLambdaInvocation(lambda *expr.Lambda) (expr.Expression, error) {
	errPos := p.token.Pos
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	args, err := p.parseArgumentList()
	if err != nil {
		return nil, err
	}
	if len(args) != len(lambda.Parameters) {
		return nil, parseError(errPos, errArgsIncompatibleWithLambda)
	}
	promoted := make([]expr.Expression, len(args))
	for i, arg := range args {
		promoted[i] = p.promoteExpression(arg, lambda.Parameters[i].Type(), false)
		if promoted[i] == nil {
			return nil, parseError(errPos, errArgsIncompatibleWithLambda)
		}
	}
	return expr.NewInvoke(lambda, promoted, lambda.Body.Type()), nil
}

// parseIif parses iif(a, b, c), sugar for the ternary.
func (p *Parser) parseIif() (expr.Expression, error) {
	errPos := p.token.Pos
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	args, err := p.parseArgumentList()
	if err != nil {
		return nil, err
	}
	if len(args) != 3 {
		return nil, parseError(errPos, errIifRequiresThreeArgs)
	}
	return p.generateConditional(args[0], args[1], args[2], errPos)
}

// generateConditional reconciles the two result arms by bidirectional
// exact promotion; exactly one direction must succeed, and the null
// literal is never a promotion target.
func (p *Parser) generateConditional(test, expr1, expr2 expr.Expression, errPos int) (expr.Expression, error) {
	if test.Type() != types.BoolType {
		return nil, parseError(errPos, errFirstExprMustBeBool)
	}
	if expr1.Type() != expr2.Type() {
		var expr1as2, expr2as1 expr.Expression
		if expr2 != expr.Expression(p.nullLiteral) {
			expr1as2 = p.promoteExpression(expr1, expr2.Type(), true)
		}
		if expr1 != expr.Expression(p.nullLiteral) {
			expr2as1 = p.promoteExpression(expr2, expr1.Type(), true)
		}
		switch {
		case expr1as2 != nil && expr2as1 == nil:
			expr1 = expr1as2
		case expr2as1 != nil && expr1as2 == nil:
			expr2 = expr2as1
		case expr1as2 != nil && expr2as1 != nil:
			return nil, parseError(errPos, errBothTypesConvertToOther,
				expr.TypeName(expr1.Type()), expr.TypeName(expr2.Type()))
		default:
			return nil, parseError(errPos, errNeitherTypeConverts,
				expr.TypeName(expr1.Type()), expr.TypeName(expr2.Type()))
		}
	}
	return expr.NewConditional(test, expr1, expr2), nil
}

// parseNew parses the record constructor new(expr [alias Name], ...).
func (p *Parser) parseNew() (expr.Expression, error) {
	newPos := p.token.Pos
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.validateToken(lexer.LPAREN, errOpenParenExpected); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}

	var properties []dynclass.Property
	var initializers []expr.Expression
	for {
		exprPos := p.token.Pos
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		var name string
		if p.tokenIdentifierIs("alias") {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			name, err = p.getIdentifier()
			if err != nil {
				return nil, err
			}
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		} else {
			member, ok := e.(*expr.Member)
			if !ok {
				return nil, parseError(exprPos, errMissingAsClause)
			}
			name = member.Name
		}
		initializers = append(initializers, e)
		properties = append(properties, dynclass.Property{Name: name, Type: e.Type()})
		if !p.token.Is(lexer.COMMA) {
			break
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	if err := p.validateToken(lexer.RPAREN, errCloseParenOrCommaExpected); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}

	recordType, err := dynclass.CreateClass(properties...)
	if err != nil {
		return nil, parseError(newPos, "%s", err.Error())
	}
	bindings := make([]expr.Binding, len(initializers))
	for i, init := range initializers {
		bindings[i] = expr.Binding{Name: properties[i].Name, Value: init}
	}
	return expr.NewMemberInit(recordType, bindings), nil
}

// ============================================================================
// Types, members, calls
// ============================================================================

// parseKnownType parses a (possibly dotted) type name after is/as, with
// an optional '?' nullable suffix.
func (p *Parser) parseKnownType() (reflect.Type, error) {
	errPos := p.token.Pos
	name, err := p.getIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	for p.token.Is(lexer.DOT) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		part, err := p.getIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		name += "." + part
	}
	t, ok := p.reg.LookupQualified(name)
	if !ok {
		return nil, parseError(errPos, errUnknownIdentifier, name)
	}
	if p.token.Is(lexer.QUESTION) {
		lifted, ok := types.Nullable(t)
		if !ok {
			return nil, parseError(p.token.Pos, errTypeHasNoNullableForm, expr.TypeName(t))
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		t = lifted
	}
	return t, nil
}

// parseTypeAccess handles a type keyword: nullable lifting, constructor
// or conversion call, or static member access.
func (p *Parser) parseTypeAccess(t reflect.Type) (expr.Expression, error) {
	errPos := p.token.Pos
	if err := p.nextToken(); err != nil {
		return nil, err
	}

	if p.token.Is(lexer.QUESTION) {
		lifted, ok := types.Nullable(t)
		if !ok {
			return nil, parseError(errPos, errTypeHasNoNullableForm, expr.TypeName(t))
		}
		t = lifted
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}

	if p.token.Is(lexer.LPAREN) {
		args, err := p.parseArgumentList()
		if err != nil {
			return nil, err
		}
		ctors := p.reg.FindConstructors(types.NonNullable(t))
		paramLists := make([][]reflect.Type, len(ctors))
		for i, c := range ctors {
			paramLists[i] = c.Params
		}
		count, _, promoted := p.findBest(paramLists, args)
		switch count {
		case 0:
			if len(args) == 1 {
				return p.generateConversion(args[0], t, errPos)
			}
			return nil, parseError(errPos, errNoMatchingConstructor, expr.TypeName(t))
		case 1:
			return expr.NewNew(t, promoted), nil
		default:
			return nil, parseError(errPos, errAmbiguousConstructorInvocation, expr.TypeName(t))
		}
	}

	if err := p.validateToken(lexer.DOT, errDotOrOpenParenExpected); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return p.parseMemberAccess(nil, t)
}

// enumerableElement returns the element type of an enumerable receiver,
// or nil.
func enumerableElement(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem()
	}
	return nil
}

// parseMemberAccess parses a member reference on an instance (or, with a
// nil instance, a static member of t). The current token is the member
// name. Calls on enumerable instance receivers are rerouted to the
// aggregate dispatcher.
func (p *Parser) parseMemberAccess(instance expr.Expression, t reflect.Type) (expr.Expression, error) {
	if instance != nil {
		t = instance.Type()
	}
	errPos := p.token.Pos
	id, err := p.getIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}

	if p.token.Is(lexer.LPAREN) {
		if instance != nil && t != types.StringType {
			if elem := enumerableElement(t); elem != nil {
				return p.parseAggregate(instance, elem, id, errPos)
			}
		}
		args, err := p.parseArgumentList()
		if err != nil {
			return nil, err
		}
		static := instance == nil
		methods := p.reg.FindMethods(t, id, static)
		paramLists := make([][]reflect.Type, len(methods))
		for i, m := range methods {
			paramLists[i] = m.Params
		}
		count, idx, promoted := p.findBest(paramLists, args)
		switch count {
		case 0:
			return nil, parseError(errPos, errNoApplicableMethod, id, expr.TypeName(t))
		case 1:
			m := methods[idx]
			if !m.Builtin && !p.reg.IsAllowed(t) {
				return nil, parseError(errPos, errMethodsAreInaccessible, expr.TypeName(t))
			}
			if m.Result == nil {
				return nil, parseError(errPos, errMethodIsVoid, m.Name, expr.TypeName(t))
			}
			return expr.NewCall(instance, t, m.Name, nil, promoted, m.Result), nil
		default:
			return nil, parseError(errPos, errAmbiguousMethodInvocation, id, expr.TypeName(t))
		}
	}

	if instance == nil && p.reg.IsEnum(t) {
		if m, ok := p.reg.EnumMember(t, id); ok {
			return p.createLiteral(m.Value, strconv.FormatInt(m.Value, 10), t), nil
		}
		return nil, parseError(errPos, errUnknownPropertyOrField, id, expr.TypeName(t))
	}
	if prop, ok := p.reg.FindProperty(t, id, instance == nil); ok {
		return expr.NewMember(instance, t, prop.Name, prop.Type), nil
	}
	return nil, parseError(errPos, errUnknownPropertyOrField, id, expr.TypeName(t))
}

// parseElementAccess parses e[args].
func (p *Parser) parseElementAccess(e expr.Expression) (expr.Expression, error) {
	errPos := p.token.Pos
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	if err := p.validateToken(lexer.RBRACK, errCloseBracketOrCommaExpected); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}

	t := e.Type()
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if len(args) != 1 {
			return nil, parseError(errPos, errCannotIndexMultiDimArray)
		}
		index := p.promoteExpression(args[0], types.Int32Type, false)
		if index == nil {
			return nil, parseError(errPos, errInvalidIndex)
		}
		return expr.NewIndex(e, []expr.Expression{index}, t.Elem()), nil
	case reflect.Map:
		if len(args) != 1 {
			return nil, parseError(errPos, errNoApplicableIndexer, expr.TypeName(t))
		}
		key := p.promoteExpression(args[0], t.Key(), false)
		if key == nil {
			return nil, parseError(errPos, errNoApplicableIndexer, expr.TypeName(t))
		}
		return expr.NewIndex(e, []expr.Expression{key}, t.Elem()), nil
	}

	indexers := p.reg.FindIndexers(t)
	paramLists := make([][]reflect.Type, len(indexers))
	for i, ix := range indexers {
		paramLists[i] = ix.Params
	}
	count, idx, promoted := p.findBest(paramLists, args)
	switch count {
	case 0:
		return nil, parseError(errPos, errNoApplicableIndexer, expr.TypeName(t))
	case 1:
		return expr.NewIndex(e, promoted, indexers[idx].Result), nil
	default:
		return nil, parseError(errPos, errAmbiguousIndexerInvocation, expr.TypeName(t))
	}
}

// parseArgumentList parses '(' [args] ')'.
func (p *Parser) parseArgumentList() ([]expr.Expression, error) {
	if err := p.validateToken(lexer.LPAREN, errOpenParenExpected); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	var args []expr.Expression
	if !p.token.Is(lexer.RPAREN) {
		var err error
		args, err = p.parseArguments()
		if err != nil {
			return nil, err
		}
	}
	if err := p.validateToken(lexer.RPAREN, errCloseParenOrCommaExpected); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseArguments() ([]expr.Expression, error) {
	var args []expr.Expression
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if !p.token.Is(lexer.COMMA) {
			return args, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

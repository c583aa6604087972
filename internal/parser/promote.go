package parser

import (
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/expr"
)

// promoteExpression produces an expression of the target type, or nil when
// no promotion applies. A non-exact promotion to a reference target returns
// the assignable expression unchanged, keeping its own type.
//
// Literal constants are re-lexed through the literal side-table so that,
// for example, the Int32-typed literal 5 can become an Int64 or Decimal
// constant without an intermediate conversion node.
func (p *Parser) promoteExpression(e expr.Expression, target reflect.Type, exact bool) expr.Expression {
	if e.Type() == target {
		return e
	}

	if c, ok := e.(*expr.Constant); ok {
		if c == p.nullLiteral {
			if types.IsReferenceType(target) || types.IsNullable(target) {
				return expr.NewNull(target)
			}
		} else if text, ok := p.literals[c]; ok {
			nn := types.NonNullable(target)
			switch {
			case integralConstant(c.Type()) || p.reg.IsEnum(c.Type()):
				if value := parseNumber(p.reg, text, nn); value != nil {
					return p.registerLiteral(expr.NewConstant(value, target), text)
				}
			case c.Type() == types.DoubleType:
				if nn == types.DecimalType {
					if value := parseNumber(p.reg, text, nn); value != nil {
						return p.registerLiteral(expr.NewConstant(value, target), text)
					}
				}
			case c.Type() == types.StringType:
				if p.reg.IsEnum(nn) {
					if m, ok := p.reg.EnumMember(nn, text); ok {
						return p.registerLiteral(
							expr.NewConstant(m.Value, target),
							strconv.FormatInt(m.Value, 10))
					}
				}
			}
		}
	}

	if p.reg.IsCompatibleWith(e.Type(), target) {
		if types.IsValueType(target) || types.IsNullable(target) || exact {
			return expr.NewConvertChecked(e, target)
		}
		return e
	}
	return nil
}

// integralConstant reports whether t is one of the types an integer
// literal lexes to.
func integralConstant(t reflect.Type) bool {
	switch t {
	case types.Int32Type, types.UInt32Type, types.Int64Type, types.UInt64Type:
		return true
	}
	return false
}

// parseNumber re-parses a literal's source text as the given non-nullable
// target type. Returns nil when the text does not fit.
func parseNumber(reg *types.Registry, text string, t reflect.Type) any {
	code := types.CodeOf(t)
	if reg.IsEnum(t) {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return v
		}
		return nil
	}
	switch code {
	case types.CodeSByte:
		if v, err := strconv.ParseInt(text, 10, 8); err == nil {
			return int8(v)
		}
	case types.CodeByte:
		if v, err := strconv.ParseUint(text, 10, 8); err == nil {
			return uint8(v)
		}
	case types.CodeInt16:
		if v, err := strconv.ParseInt(text, 10, 16); err == nil {
			return int16(v)
		}
	case types.CodeUInt16:
		if v, err := strconv.ParseUint(text, 10, 16); err == nil {
			return uint16(v)
		}
	case types.CodeInt32:
		if v, err := strconv.ParseInt(text, 10, 32); err == nil {
			return int32(v)
		}
	case types.CodeUInt32:
		if v, err := strconv.ParseUint(text, 10, 32); err == nil {
			return uint32(v)
		}
	case types.CodeInt64:
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return v
		}
	case types.CodeUInt64:
		if v, err := strconv.ParseUint(text, 10, 64); err == nil {
			return v
		}
	case types.CodeSingle:
		if v, err := strconv.ParseFloat(text, 32); err == nil {
			return float32(v)
		}
	case types.CodeDouble:
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			return v
		}
	case types.CodeDecimal:
		if v, err := decimal.NewFromString(text); err == nil {
			return v
		}
	}
	return nil
}

// generateConversion compiles the explicit conversion form T(x).
func (p *Parser) generateConversion(e expr.Expression, target reflect.Type, errPos int) (expr.Expression, error) {
	exprType := e.Type()
	if exprType == target {
		return e, nil
	}

	// A string literal converts to Char when it holds exactly one
	// character.
	if types.NonNullable(target) == types.CharType && exprType == types.StringType {
		if c, ok := e.(*expr.Constant); ok {
			if text, ok := c.Value.(string); ok {
				runes := []rune(text)
				if len(runes) != 1 {
					return nil, parseError(errPos, errInvalidCharacterLiteral)
				}
				return expr.NewConstant(types.Char(runes[0]), target), nil
			}
		}
	}

	srcValue := types.IsValueType(exprType) || types.IsNullable(exprType)
	dstValue := types.IsValueType(target) || types.IsNullable(target)
	if srcValue && dstValue {
		sn := types.NonNullable(exprType)
		tn := types.NonNullable(target)
		if sn == tn {
			return expr.NewConvertChecked(e, target), nil
		}
		if (p.reg.IsNumeric(sn) || p.reg.IsEnum(sn)) && (p.reg.IsNumeric(tn) || p.reg.IsEnum(tn)) {
			return expr.NewConvertChecked(e, target), nil
		}
	}
	if exprType.AssignableTo(target) || target.AssignableTo(exprType) ||
		exprType.Kind() == reflect.Interface || target.Kind() == reflect.Interface {
		return expr.NewConvert(e, target), nil
	}
	return nil, parseError(errPos, errCannotConvertValue,
		expr.TypeName(exprType), expr.TypeName(target))
}

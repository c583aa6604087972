package parser

import (
	"reflect"

	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/expr"
)

// candidate is one applicable signature with its promoted argument vector.
type candidate struct {
	index int
	args  []expr.Expression
}

// findBest runs overload resolution over the candidate parameter lists.
// It returns the number of surviving candidates and, when exactly one
// survives, its index and the promoted arguments.
//
// Applicability demands an exact arity match and a non-exact promotion of
// every argument. With more than one applicable candidate, only those that
// no rival is better than survive.
func (p *Parser) findBest(paramLists [][]reflect.Type, args []expr.Expression) (int, int, []expr.Expression) {
	var applicable []candidate
	for i, params := range paramLists {
		if promoted := p.promoteArgs(params, args); promoted != nil {
			applicable = append(applicable, candidate{index: i, args: promoted})
		}
	}

	if len(applicable) > 1 {
		var best []candidate
		for _, m := range applicable {
			worse := false
			for _, n := range applicable {
				if m.index != n.index && p.isBetterThan(args, paramLists[n.index], paramLists[m.index]) {
					worse = true
					break
				}
			}
			if !worse {
				best = append(best, m)
			}
		}
		applicable = best
	}

	if len(applicable) == 1 {
		return 1, applicable[0].index, applicable[0].args
	}
	return len(applicable), -1, nil
}

// promoteArgs promotes every argument to its parameter type, or reports
// inapplicability with nil.
func (p *Parser) promoteArgs(params []reflect.Type, args []expr.Expression) []expr.Expression {
	if len(params) != len(args) {
		return nil
	}
	promoted := make([]expr.Expression, len(args))
	for i, arg := range args {
		e := p.promoteExpression(arg, params[i], false)
		if e == nil {
			return nil
		}
		promoted[i] = e
	}
	return promoted
}

// isBetterThan reports whether parameter list m1 is a strictly better
// match than m2 for args: no position worse, at least one better.
func (p *Parser) isBetterThan(args []expr.Expression, m1, m2 []reflect.Type) bool {
	better := false
	for i, arg := range args {
		c := p.compareConversions(arg.Type(), m1[i], m2[i])
		if c < 0 {
			return false
		}
		if c > 0 {
			better = true
		}
	}
	return better
}

// compareConversions ranks the conversion from s to t1 against the
// conversion from s to t2: +1 when t1 is better, -1 when t2 is better.
func (p *Parser) compareConversions(s, t1, t2 reflect.Type) int {
	if t1 == t2 {
		return 0
	}
	if s == t1 {
		return 1
	}
	if s == t2 {
		return -1
	}
	c1to2 := p.reg.IsCompatibleWith(t1, t2)
	c2to1 := p.reg.IsCompatibleWith(t2, t1)
	if c1to2 && !c2to1 {
		return 1
	}
	if c2to1 && !c1to2 {
		return -1
	}
	if sameWidth(t1, t2) {
		if types.SignedIntegral(t1) && types.UnsignedIntegral(t2) {
			return 1
		}
		if types.SignedIntegral(t2) && types.UnsignedIntegral(t1) {
			return -1
		}
	}
	return 0
}

// sameWidth reports whether both types are integral types of equal size.
func sameWidth(t1, t2 reflect.Type) bool {
	n1 := types.NonNullable(t1)
	n2 := types.NonNullable(t2)
	k1 := n1.Kind()
	k2 := n2.Kind()
	if !integralKind(k1) || !integralKind(k2) {
		return false
	}
	return n1.Size() == n2.Size()
}

func integralKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// findBestSig resolves an operator signature set.
func (p *Parser) findBestSig(sigs []opSig, args []expr.Expression) (int, int, []expr.Expression) {
	paramLists := make([][]reflect.Type, len(sigs))
	for i, s := range sigs {
		paramLists[i] = s.params
	}
	return p.findBest(paramLists, args)
}

// checkAndPromoteOperand resolves a unary operator signature set against
// one operand.
func (p *Parser) checkAndPromoteOperand(sigs []opSig, opName string, operand expr.Expression, errPos int) (expr.Expression, error) {
	count, _, promoted := p.findBestSig(sigs, []expr.Expression{operand})
	if count != 1 {
		return nil, parseError(errPos, errIncompatibleOperand, opName, expr.TypeName(operand.Type()))
	}
	return promoted[0], nil
}

// checkAndPromoteOperands resolves a binary operator signature set against
// two operands and returns the promoted pair plus the signature's result
// type.
func (p *Parser) checkAndPromoteOperands(sigs []opSig, opName string, left, right expr.Expression, errPos int) (expr.Expression, expr.Expression, reflect.Type, error) {
	count, idx, promoted := p.findBestSig(sigs, []expr.Expression{left, right})
	if count != 1 {
		return nil, nil, nil, parseError(errPos, errIncompatibleOperands,
			opName, expr.TypeName(left.Type()), expr.TypeName(right.Type()))
	}
	return promoted[0], promoted[1], sigs[idx].result, nil
}

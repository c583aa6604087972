package parser

import (
	"reflect"

	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/expr"
	"github.com/querytools/go-dynq/pkg/ident"
)

// aggregateSignatures is the fixed table of query-aggregate forms, keyed
// by normalized name. The object-typed parameters accept any selector;
// resolution runs through the same overload machinery as everything else.
var aggregateSignatures = map[string][][]reflect.Type{}

func addAggregate(name string, paramLists ...[]reflect.Type) {
	aggregateSignatures[ident.Normalize(name)] = append(aggregateSignatures[ident.Normalize(name)], paramLists...)
}

func init() {
	noArgs := []reflect.Type{}
	predicate := []reflect.Type{types.BoolType}
	selector := []reflect.Type{types.ObjectType}

	addAggregate("Where", predicate)
	addAggregate("Any", noArgs, predicate)
	addAggregate("All", predicate)
	addAggregate("Count", noArgs, predicate)
	addAggregate("First", noArgs, predicate)
	addAggregate("FirstOrDefault", noArgs, predicate)
	addAggregate("Min", selector)
	addAggregate("Max", selector)
	addAggregate("Select", selector)
	addAggregate("SelectMany", selector)
	addAggregate("GroupBy", selector)
	addAggregate("Distinct", noArgs, predicate)
	addAggregate("Union", noArgs, predicate)
	addAggregate("Concat", noArgs, predicate)

	for _, t := range arithmeticTypes {
		addAggregate("Sum", []reflect.Type{t}, []reflect.Type{lift(t)})
		addAggregate("Average", []reflect.Type{t}, []reflect.Type{lift(t)})
		addAggregate("Contains", []reflect.Type{t}, []reflect.Type{lift(t)})
	}
	addAggregate("Contains", []reflect.Type{types.StringType})
}

// parseAggregate dispatches instance.method(...) on an enumerable
// receiver. It pushes a fresh parameter of the element type as the new
// iteration scope, parses the args inside that scope, and pops it again.
func (p *Parser) parseAggregate(instance expr.Expression, elemType reflect.Type, methodName string, errPos int) (expr.Expression, error) {
	innerIt := expr.NewParameter("", elemType)
	p.itStack = append(p.itStack, innerIt)
	args, err := p.parseArgumentList()
	p.itStack = p.itStack[:len(p.itStack)-1]
	if err != nil {
		return nil, err
	}

	paramLists, ok := aggregateSignatures[ident.Normalize(methodName)]
	if !ok {
		return nil, parseError(errPos, errNoApplicableAggregate, methodName)
	}
	count, _, promoted := p.findBest(paramLists, args)
	if count != 1 {
		return nil, parseError(errPos, errNoApplicableAggregate, methodName)
	}
	args = promoted

	name, ok := getCanonicalAggregateName(methodName)
	if !ok {
		return nil, parseError(errPos, errNoApplicableAggregate, methodName)
	}
	resultType, err := p.aggregateResultType(name, elemType, args, errPos)
	if err != nil {
		return nil, err
	}

	typeArgs := []reflect.Type{elemType}
	if name == "Min" || name == "Max" {
		typeArgs = append(typeArgs, args[0].Type())
	}

	var callArgs []expr.Expression
	switch {
	case len(args) == 0:
		callArgs = []expr.Expression{instance}
	case name == "Contains":
		callArgs = []expr.Expression{instance, args[0]}
	default:
		callArgs = []expr.Expression{instance, expr.NewLambda(args[0], innerIt)}
	}

	return expr.NewCall(nil, types.SequenceType, name, typeArgs, callArgs, resultType), nil
}

// canonicalAggregateNames maps normalized names back to their canonical
// spelling for the emitted call.
var canonicalAggregateNames = func() *ident.Map[string] {
	m := ident.NewMap[string]()
	for _, name := range []string{
		"Where", "Any", "All", "Count", "First", "FirstOrDefault",
		"Min", "Max", "Select", "SelectMany", "GroupBy",
		"Distinct", "Union", "Concat", "Sum", "Average", "Contains",
	} {
		m.Set(name, name)
	}
	return m
}()

func getCanonicalAggregateName(name string) (string, bool) {
	return canonicalAggregateNames.Get(name)
}

// aggregateResultType computes the static type an aggregate call produces.
func (p *Parser) aggregateResultType(name string, elemType reflect.Type, args []expr.Expression, errPos int) (reflect.Type, error) {
	switch name {
	case "Where", "Distinct", "Union", "Concat":
		return reflect.SliceOf(elemType), nil
	case "Any", "All", "Contains":
		return types.BoolType, nil
	case "Count":
		return types.Int32Type, nil
	case "First", "FirstOrDefault":
		return elemType, nil
	case "Min", "Max", "Sum":
		return args[0].Type(), nil
	case "Average":
		return averageResultType(args[0].Type()), nil
	case "Select":
		return reflect.SliceOf(args[0].Type()), nil
	case "SelectMany":
		st := args[0].Type()
		if st.Kind() != reflect.Slice && st.Kind() != reflect.Array {
			return nil, parseError(errPos, errNoApplicableAggregate, name)
		}
		return reflect.SliceOf(st.Elem()), nil
	case "GroupBy":
		return reflect.SliceOf(types.GroupingType), nil
	default:
		return nil, parseError(errPos, errNoApplicableAggregate, name)
	}
}

// averageResultType follows the host's standard query semantics: integral
// selectors average to Double, floating selectors keep their type, and
// nullability is preserved.
func averageResultType(t reflect.Type) reflect.Type {
	nn := types.NonNullable(t)
	var result reflect.Type
	switch nn {
	case types.SingleType, types.DoubleType, types.DecimalType:
		result = nn
	default:
		result = types.DoubleType
	}
	if types.IsNullable(t) {
		result, _ = types.Nullable(result)
	}
	return result
}

package dynq

import (
	"fmt"
	"reflect"

	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/expr"
)

// Provider executes an expression tree against an external query backend.
// Execution itself is outside this module; the provider receives the
// fully built tree.
type Provider interface {
	Execute(e expr.Expression) (any, error)
}

// Query builds aggregate call trees over an enumerable root expression.
// Each text-taking method except Contains parses its argument with the
// current element type as the implicit it receiver; Contains parses its
// value without an iteration scope. The first error sticks; later calls
// are no-ops.
type Query struct {
	root expr.Expression
	elem reflect.Type
	opts []Option
	err  error
}

// NewQuery starts a query over an enumerable root expression.
func NewQuery(source expr.Expression, opts ...Option) *Query {
	q := &Query{opts: opts}
	t := source.Type()
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		q.root = source
		q.elem = t.Elem()
	default:
		q.err = fmt.Errorf("dynq: query source must be enumerable, got %s", expr.TypeName(t))
	}
	return q
}

// NewQueryOver starts a query over a named source parameter of the given
// slice type.
func NewQueryOver(name string, sliceType reflect.Type, opts ...Option) *Query {
	return NewQuery(expr.NewParameter(name, sliceType), opts...)
}

func (q *Query) parseIt(resultType reflect.Type, expression string, values []any) (*expr.Lambda, error) {
	opts := q.opts
	if len(values) > 0 {
		opts = append(opts[:len(opts):len(opts)], WithValues(values...))
	}
	return ParseIt(q.elem, resultType, expression, opts...)
}

func (q *Query) chain(method string, typeArgs []reflect.Type, args []expr.Expression, resultType reflect.Type) {
	q.root = expr.NewCall(nil, types.SequenceType, method, typeArgs, args, resultType)
}

// Where filters by a boolean predicate expression.
func (q *Query) Where(predicate string, values ...any) *Query {
	if q.err != nil {
		return q
	}
	lambda, err := q.parseIt(types.BoolType, predicate, values)
	if err != nil {
		q.err = err
		return q
	}
	q.chain("Where", []reflect.Type{q.elem},
		[]expr.Expression{q.root, lambda}, reflect.SliceOf(q.elem))
	return q
}

// Select projects each element through a selector expression.
func (q *Query) Select(selector string, values ...any) *Query {
	if q.err != nil {
		return q
	}
	lambda, err := q.parseIt(nil, selector, values)
	if err != nil {
		q.err = err
		return q
	}
	result := lambda.Body.Type()
	q.chain("Select", []reflect.Type{q.elem, result},
		[]expr.Expression{q.root, lambda}, reflect.SliceOf(result))
	q.elem = result
	return q
}

// GroupBy groups elements by a key selector expression.
func (q *Query) GroupBy(keySelector string, values ...any) *Query {
	if q.err != nil {
		return q
	}
	lambda, err := q.parseIt(nil, keySelector, values)
	if err != nil {
		q.err = err
		return q
	}
	q.chain("GroupBy", []reflect.Type{q.elem, lambda.Body.Type()},
		[]expr.Expression{q.root, lambda}, reflect.SliceOf(types.GroupingType))
	q.elem = types.GroupingType
	return q
}

// OrderBy orders by a comma-separated ordering expression; subsequent
// clauses become ThenBy calls.
func (q *Query) OrderBy(ordering string, values ...any) *Query {
	if q.err != nil {
		return q
	}
	opts := q.opts
	if len(values) > 0 {
		opts = append(opts[:len(opts):len(opts)], WithValues(values...))
	}
	clauses, err := ParseOrdering(q.elem, ordering, opts...)
	if err != nil {
		q.err = err
		return q
	}
	for i, c := range clauses {
		method := "OrderBy"
		if i > 0 {
			method = "ThenBy"
		}
		if !c.Ascending {
			method += "Descending"
		}
		lambda := expr.NewLambda(c.Selector, c.Parameter)
		q.chain(method, []reflect.Type{q.elem, c.Selector.Type()},
			[]expr.Expression{q.root, lambda}, reflect.SliceOf(q.elem))
	}
	return q
}

// Distinct removes duplicate elements.
func (q *Query) Distinct() *Query {
	if q.err != nil {
		return q
	}
	q.chain("Distinct", []reflect.Type{q.elem},
		[]expr.Expression{q.root}, reflect.SliceOf(q.elem))
	return q
}

// Take keeps the first n elements.
func (q *Query) Take(n int) *Query {
	return q.partition("Take", n)
}

// Skip drops the first n elements.
func (q *Query) Skip(n int) *Query {
	return q.partition("Skip", n)
}

func (q *Query) partition(method string, n int) *Query {
	if q.err != nil {
		return q
	}
	count := expr.NewConstant(int32(n), types.Int32Type)
	q.chain(method, []reflect.Type{q.elem},
		[]expr.Expression{q.root, count}, reflect.SliceOf(q.elem))
	return q
}

// terminal builds a terminal aggregate call, with an optional predicate.
func (q *Query) terminal(method, predicate string, values []any, resultType reflect.Type) (expr.Expression, error) {
	if q.err != nil {
		return nil, q.err
	}
	args := []expr.Expression{q.root}
	if predicate != "" {
		lambda, err := q.parseIt(types.BoolType, predicate, values)
		if err != nil {
			return nil, err
		}
		args = append(args, lambda)
	}
	return expr.NewCall(nil, types.SequenceType, method,
		[]reflect.Type{q.elem}, args, resultType), nil
}

// Any tests whether any element matches; an empty predicate tests for
// any element at all.
func (q *Query) Any(predicate string, values ...any) (expr.Expression, error) {
	return q.terminal("Any", predicate, values, types.BoolType)
}

// All tests whether every element matches the predicate.
func (q *Query) All(predicate string, values ...any) (expr.Expression, error) {
	if predicate == "" {
		if q.err != nil {
			return nil, q.err
		}
		return nil, fmt.Errorf("dynq: All requires a predicate")
	}
	return q.terminal("All", predicate, values, types.BoolType)
}

// Count counts the (matching) elements.
func (q *Query) Count(predicate string, values ...any) (expr.Expression, error) {
	return q.terminal("Count", predicate, values, types.Int32Type)
}

// First selects the first (matching) element; the host throws when none
// exists.
func (q *Query) First(predicate string, values ...any) (expr.Expression, error) {
	return q.terminal("First", predicate, values, q.elem)
}

// FirstOrDefault selects the first (matching) element, or the element
// type's default value when none exists.
func (q *Query) FirstOrDefault(predicate string, values ...any) (expr.Expression, error) {
	return q.terminal("FirstOrDefault", predicate, values, q.elem)
}

// SelectMany projects each element through an enumerable-typed selector
// and flattens the result.
func (q *Query) SelectMany(selector string, values ...any) *Query {
	if q.err != nil {
		return q
	}
	lambda, err := q.parseIt(nil, selector, values)
	if err != nil {
		q.err = err
		return q
	}
	st := lambda.Body.Type()
	if st.Kind() != reflect.Slice && st.Kind() != reflect.Array {
		q.err = fmt.Errorf("dynq: SelectMany selector must be enumerable, got %s", expr.TypeName(st))
		return q
	}
	q.chain("SelectMany", []reflect.Type{q.elem, st.Elem()},
		[]expr.Expression{q.root, lambda}, reflect.SliceOf(st.Elem()))
	q.elem = st.Elem()
	return q
}

// selectorTerminal builds a terminal aggregate over a selector expression.
func (q *Query) selectorTerminal(method, selector string, values []any, result func(reflect.Type) reflect.Type) (expr.Expression, error) {
	if q.err != nil {
		return nil, q.err
	}
	lambda, err := q.parseIt(nil, selector, values)
	if err != nil {
		return nil, err
	}
	st := lambda.Body.Type()
	return expr.NewCall(nil, types.SequenceType, method,
		[]reflect.Type{q.elem, st},
		[]expr.Expression{q.root, lambda}, result(st)), nil
}

// Sum totals a numeric selector over the elements.
func (q *Query) Sum(selector string, values ...any) (expr.Expression, error) {
	return q.selectorTerminal("Sum", selector, values, func(st reflect.Type) reflect.Type { return st })
}

// Average averages a numeric selector; integral selectors widen to Double.
func (q *Query) Average(selector string, values ...any) (expr.Expression, error) {
	return q.selectorTerminal("Average", selector, values, func(st reflect.Type) reflect.Type {
		switch types.NonNullable(st) {
		case types.SingleType, types.DoubleType, types.DecimalType:
			return st
		}
		if types.IsNullable(st) {
			return reflect.PointerTo(types.DoubleType)
		}
		return types.DoubleType
	})
}

// Min selects the smallest selector value.
func (q *Query) Min(selector string, values ...any) (expr.Expression, error) {
	return q.selectorTerminal("Min", selector, values, func(st reflect.Type) reflect.Type { return st })
}

// Max selects the largest selector value.
func (q *Query) Max(selector string, values ...any) (expr.Expression, error) {
	return q.selectorTerminal("Max", selector, values, func(st reflect.Type) reflect.Type { return st })
}

// Contains tests whether the elements contain the given value expression.
// The value is parsed without an iteration scope; use @0-style
// substitutions to pass the needle.
func (q *Query) Contains(value string, values ...any) (expr.Expression, error) {
	if q.err != nil {
		return nil, q.err
	}
	opts := q.opts
	if len(values) > 0 {
		opts = append(opts[:len(opts):len(opts)], WithValues(values...))
	}
	needle, err := Parse(nil, value, opts...)
	if err != nil {
		return nil, err
	}
	return expr.NewCall(nil, types.SequenceType, "Contains",
		[]reflect.Type{q.elem},
		[]expr.Expression{q.root, needle}, types.BoolType), nil
}

// Expression returns the accumulated tree.
func (q *Query) Expression() (expr.Expression, error) {
	return q.root, q.err
}

// Execute hands the accumulated tree to a provider.
func (q *Query) Execute(p Provider) (any, error) {
	e, err := q.Expression()
	if err != nil {
		return nil, err
	}
	return p.Execute(e)
}

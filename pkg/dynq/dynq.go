// Package dynq is the public surface of the expression parser: it parses
// C#-family query expressions into typed expression trees against the
// host type system, with overload resolution and numeric/enum promotion.
//
// Basic usage:
//
//	lambda, err := dynq.ParseIt(reflect.TypeOf(""), nil, `it.Length == 4`)
//
// parses a predicate over a string iteration variable and wraps it in a
// single-parameter lambda.
package dynq

import (
	"reflect"

	"github.com/querytools/go-dynq/internal/errors"
	"github.com/querytools/go-dynq/internal/parser"
	"github.com/querytools/go-dynq/internal/types"
	"github.com/querytools/go-dynq/pkg/dynclass"
	"github.com/querytools/go-dynq/pkg/expr"
)

// ParseError is the error type every parse entry point returns on
// failure. It carries the 0-based rune offset of the failure.
type ParseError = errors.ParseError

// Ordering is one parsed ordering clause.
type Ordering = parser.Ordering

type config struct {
	extraTypes []reflect.Type
	enums      []enumRegistration
	values     []any
}

type enumRegistration struct {
	typ     reflect.Type
	members map[string]int64
}

// Option configures a parse.
type Option func(*config)

// WithTypes extends the allowed-type set: the types become referenceable
// by their short name and legal method-invocation targets.
func WithTypes(ts ...reflect.Type) Option {
	return func(c *config) {
		c.extraTypes = append(c.extraTypes, ts...)
	}
}

// WithEnum registers t as an enum with the given members and allows it.
// Member names match case-insensitively.
func WithEnum(t reflect.Type, members map[string]int64) Option {
	return func(c *config) {
		c.enums = append(c.enums, enumRegistration{typ: t, members: members})
	}
}

// WithValues installs the positional substitutions @0, @1, ...; a
// trailing map[string]any is installed as the externals table instead.
func WithValues(values ...any) Option {
	return func(c *config) {
		c.values = append(c.values, values...)
	}
}

func buildConfig(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) registry() *types.Registry {
	reg := types.NewRegistry()
	for _, t := range c.extraTypes {
		reg.Add(t)
	}
	for _, e := range c.enums {
		reg.RegisterEnum(e.typ, e.members)
	}
	return reg
}

// Parse parses a single expression. When resultType is non-nil the parsed
// expression is promoted to it exactly.
func Parse(resultType reflect.Type, expression string, opts ...Option) (expr.Expression, error) {
	cfg := buildConfig(opts)
	p, err := parser.New(cfg.registry(), expression, nil, cfg.values)
	if err != nil {
		return nil, err
	}
	return p.Parse(resultType)
}

// ParseLambda parses an expression over the given parameters and wraps it
// in a lambda.
func ParseLambda(parameters []*expr.Parameter, resultType reflect.Type, expression string, opts ...Option) (*expr.Lambda, error) {
	cfg := buildConfig(opts)
	p, err := parser.New(cfg.registry(), expression, parameters, cfg.values)
	if err != nil {
		return nil, err
	}
	body, err := p.Parse(resultType)
	if err != nil {
		return nil, err
	}
	return expr.NewLambda(body, parameters...), nil
}

// ParseIt parses an expression over a single anonymous parameter of
// itType, pushed as the implicit it receiver.
func ParseIt(itType, resultType reflect.Type, expression string, opts ...Option) (*expr.Lambda, error) {
	return ParseLambda([]*expr.Parameter{expr.NewParameter("", itType)}, resultType, expression, opts...)
}

// ParseOrdering parses a comma-separated ordering over a single anonymous
// parameter of itType and returns the clauses with that parameter.
func ParseOrdering(itType reflect.Type, ordering string, opts ...Option) ([]Ordering, error) {
	cfg := buildConfig(opts)
	p, err := parser.New(cfg.registry(), ordering, []*expr.Parameter{expr.NewParameter("", itType)}, cfg.values)
	if err != nil {
		return nil, err
	}
	return p.ParseOrdering()
}

// CreateClass returns the interned anonymous record type for the given
// property list, synthesizing it on first use.
func CreateClass(properties ...dynclass.Property) (reflect.Type, error) {
	return dynclass.CreateClass(properties...)
}

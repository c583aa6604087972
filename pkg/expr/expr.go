// Package expr defines the typed expression-tree IR emitted by the parser.
//
// Every node carries the reflect.Type of the value it produces. Nodes are
// immutable once built; trees may be shared freely across goroutines.
package expr

import (
	"fmt"
	"reflect"
	"strings"
)

// Expression is the base interface for all IR nodes.
type Expression interface {
	// Type returns the static type of the value this node produces.
	Type() reflect.Type

	// String returns a compact source-like rendering for debugging and tests.
	String() string

	exprNode()
}

var boolType = reflect.TypeOf(true)

// TypeName returns a short display name for a type: the type's own name
// when it has one, with nullable types rendered as "T?".
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Ptr {
		return TypeName(t.Elem()) + "?"
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// ============================================================================
// Parameter
// ============================================================================

// Parameter is a named (or anonymous) lambda parameter reference.
type Parameter struct {
	Name string // empty for the anonymous implicit parameter
	typ  reflect.Type
}

// NewParameter creates a parameter of the given type. An empty name
// denotes the anonymous implicit parameter ("it").
func NewParameter(name string, t reflect.Type) *Parameter {
	return &Parameter{Name: name, typ: t}
}

func (p *Parameter) exprNode()          {}
func (p *Parameter) Type() reflect.Type { return p.typ }

func (p *Parameter) String() string {
	if p.Name == "" {
		return "it"
	}
	return p.Name
}

// ============================================================================
// Constant
// ============================================================================

// Constant is a literal or captured value. A nil Value with a non-nil type
// is a typed null.
type Constant struct {
	Value any
	typ   reflect.Type
}

// NewConstant creates a constant of the given type.
func NewConstant(value any, t reflect.Type) *Constant {
	return &Constant{Value: value, typ: t}
}

// NewNull creates a typed null constant.
func NewNull(t reflect.Type) *Constant {
	return &Constant{Value: nil, typ: t}
}

func (c *Constant) exprNode()          {}
func (c *Constant) Type() reflect.Type { return c.typ }

// IsNull reports whether the constant is a null value.
func (c *Constant) IsNull() bool { return c.Value == nil }

func (c *Constant) String() string {
	if c.Value == nil {
		return "null"
	}
	if s, ok := c.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", c.Value)
}

// ============================================================================
// Binary
// ============================================================================

// BinaryOp identifies a binary operator node kind.
type BinaryOp int

const (
	Equal BinaryOp = iota
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	Add
	Subtract
	Multiply
	Divide
	Modulo
	AndAlso // short-circuit &&
	OrElse  // short-circuit ||
)

var binaryOpSymbols = [...]string{
	Equal:        "==",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
	Add:          "+",
	Subtract:     "-",
	Multiply:     "*",
	Divide:       "/",
	Modulo:       "%",
	AndAlso:      "&&",
	OrElse:       "||",
}

// String returns the operator's source symbol.
func (op BinaryOp) String() string { return binaryOpSymbols[op] }

// IsComparison reports whether the operator produces a boolean result.
func (op BinaryOp) IsComparison() bool { return op <= GreaterEqual }

// Binary is a binary operator application.
type Binary struct {
	Op          BinaryOp
	Left, Right Expression
	typ         reflect.Type
}

// NewBinary creates a binary node with an explicit result type.
func NewBinary(op BinaryOp, left, right Expression, t reflect.Type) *Binary {
	return &Binary{Op: op, Left: left, Right: right, typ: t}
}

func (b *Binary) exprNode()          {}
func (b *Binary) Type() reflect.Type { return b.typ }

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// ============================================================================
// Unary
// ============================================================================

// UnaryOp identifies a unary operator node kind.
type UnaryOp int

const (
	Negate UnaryOp = iota
	Not
)

// String returns the operator's source symbol.
func (op UnaryOp) String() string {
	if op == Negate {
		return "-"
	}
	return "!"
}

// Unary is a unary operator application.
type Unary struct {
	Op      UnaryOp
	Operand Expression
	typ     reflect.Type
}

// NewUnary creates a unary node. The result type equals the operand type.
func NewUnary(op UnaryOp, operand Expression) *Unary {
	return &Unary{Op: op, Operand: operand, typ: operand.Type()}
}

func (u *Unary) exprNode()          {}
func (u *Unary) Type() reflect.Type { return u.typ }

func (u *Unary) String() string {
	return fmt.Sprintf("%s%s", u.Op, u.Operand)
}

// ============================================================================
// Conditional
// ============================================================================

// Conditional is the ternary test ? ifTrue : ifFalse.
type Conditional struct {
	Test, IfTrue, IfFalse Expression
}

// NewConditional creates a conditional node. Both branches must already
// share a type.
func NewConditional(test, ifTrue, ifFalse Expression) *Conditional {
	return &Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse}
}

func (c *Conditional) exprNode()          {}
func (c *Conditional) Type() reflect.Type { return c.IfTrue.Type() }

func (c *Conditional) String() string {
	return fmt.Sprintf("iif(%s, %s, %s)", c.Test, c.IfTrue, c.IfFalse)
}

// ============================================================================
// Member access
// ============================================================================

// Member is a property or field access. A nil Target denotes static access
// on the declaring type On.
type Member struct {
	Target Expression
	On     reflect.Type
	Name   string
	typ    reflect.Type
}

// NewMember creates a member access node.
func NewMember(target Expression, on reflect.Type, name string, t reflect.Type) *Member {
	return &Member{Target: target, On: on, Name: name, typ: t}
}

func (m *Member) exprNode()          {}
func (m *Member) Type() reflect.Type { return m.typ }

func (m *Member) String() string {
	if m.Target == nil {
		return fmt.Sprintf("%s.%s", TypeName(m.On), m.Name)
	}
	return fmt.Sprintf("%s.%s", m.Target, m.Name)
}

// ============================================================================
// Index access
// ============================================================================

// Index is an array, map, or indexer element access.
type Index struct {
	Target Expression
	Args   []Expression
	typ    reflect.Type
}

// NewIndex creates an index access node.
func NewIndex(target Expression, args []Expression, t reflect.Type) *Index {
	return &Index{Target: target, Args: args, typ: t}
}

func (ix *Index) exprNode()          {}
func (ix *Index) Type() reflect.Type { return ix.typ }

func (ix *Index) String() string {
	return fmt.Sprintf("%s[%s]", ix.Target, joinExprs(ix.Args))
}

// ============================================================================
// Call
// ============================================================================

// Call is a method call. A nil Target denotes a static call on the
// declaring type On. TypeArgs carries the generic instantiation for
// aggregate calls (element type, and result type for Min/Max).
type Call struct {
	Target   Expression
	On       reflect.Type
	Method   string
	TypeArgs []reflect.Type
	Args     []Expression
	typ      reflect.Type
}

// NewCall creates a call node.
func NewCall(target Expression, on reflect.Type, method string, typeArgs []reflect.Type, args []Expression, t reflect.Type) *Call {
	return &Call{Target: target, On: on, Method: method, TypeArgs: typeArgs, Args: args, typ: t}
}

func (c *Call) exprNode()          {}
func (c *Call) Type() reflect.Type { return c.typ }

func (c *Call) String() string {
	recv := ""
	if c.Target != nil {
		recv = c.Target.String()
	} else if c.On != nil {
		recv = TypeName(c.On)
	}
	if recv != "" {
		return fmt.Sprintf("%s.%s(%s)", recv, c.Method, joinExprs(c.Args))
	}
	return fmt.Sprintf("%s(%s)", c.Method, joinExprs(c.Args))
}

// ============================================================================
// Lambda and invocation
// ============================================================================

// Lambda wraps a body expression over a parameter list.
type Lambda struct {
	Parameters []*Parameter
	Body       Expression
}

// NewLambda creates a lambda node.
func NewLambda(body Expression, params ...*Parameter) *Lambda {
	return &Lambda{Parameters: params, Body: body}
}

func (l *Lambda) exprNode() {}

// Type returns the lambda's function type.
func (l *Lambda) Type() reflect.Type {
	in := make([]reflect.Type, len(l.Parameters))
	for i, p := range l.Parameters {
		in[i] = p.Type()
	}
	return reflect.FuncOf(in, []reflect.Type{l.Body.Type()}, false)
}

func (l *Lambda) String() string {
	if len(l.Parameters) == 1 {
		return fmt.Sprintf("%s => %s", l.Parameters[0], l.Body)
	}
	names := make([]string, len(l.Parameters))
	for i, p := range l.Parameters {
		names[i] = p.String()
	}
	return fmt.Sprintf("(%s) => %s", strings.Join(names, ", "), l.Body)
}

// Invoke applies a lambda-valued expression to arguments.
type Invoke struct {
	Lambda Expression
	Args   []Expression
	typ    reflect.Type
}

// NewInvoke creates an invocation node.
func NewInvoke(lambda Expression, args []Expression, t reflect.Type) *Invoke {
	return &Invoke{Lambda: lambda, Args: args, typ: t}
}

func (iv *Invoke) exprNode()          {}
func (iv *Invoke) Type() reflect.Type { return iv.typ }

func (iv *Invoke) String() string {
	return fmt.Sprintf("%s(%s)", iv.Lambda, joinExprs(iv.Args))
}

// ============================================================================
// Conversions and type tests
// ============================================================================

// Convert changes the static type of its operand. Checked conversions
// demand overflow checking from the host on execution.
type Convert struct {
	Operand Expression
	Checked bool
	typ     reflect.Type
}

// NewConvert creates an unchecked conversion node.
func NewConvert(operand Expression, t reflect.Type) *Convert {
	return &Convert{Operand: operand, typ: t}
}

// NewConvertChecked creates an overflow-checked conversion node.
func NewConvertChecked(operand Expression, t reflect.Type) *Convert {
	return &Convert{Operand: operand, typ: t, Checked: true}
}

func (c *Convert) exprNode()          {}
func (c *Convert) Type() reflect.Type { return c.typ }

func (c *Convert) String() string {
	return fmt.Sprintf("%s(%s)", TypeName(c.typ), c.Operand)
}

// TypeIs tests whether the operand's runtime type is (or derives from) a
// target type. Its result is boolean.
type TypeIs struct {
	Operand Expression
	Target  reflect.Type
}

// NewTypeIs creates a type-test node.
func NewTypeIs(operand Expression, target reflect.Type) *TypeIs {
	return &TypeIs{Operand: operand, Target: target}
}

func (t *TypeIs) exprNode()          {}
func (t *TypeIs) Type() reflect.Type { return boolType }

func (t *TypeIs) String() string {
	return fmt.Sprintf("(%s is %s)", t.Operand, TypeName(t.Target))
}

// TypeAs converts the operand to a target type, producing null on failure.
type TypeAs struct {
	Operand Expression
	typ     reflect.Type
}

// NewTypeAs creates a type-as node.
func NewTypeAs(operand Expression, target reflect.Type) *TypeAs {
	return &TypeAs{Operand: operand, typ: target}
}

func (t *TypeAs) exprNode()          {}
func (t *TypeAs) Type() reflect.Type { return t.typ }

func (t *TypeAs) String() string {
	return fmt.Sprintf("(%s as %s)", t.Operand, TypeName(t.typ))
}

// ============================================================================
// Construction
// ============================================================================

// New is a constructor call on a host type.
type New struct {
	Args []Expression
	typ  reflect.Type
}

// NewNew creates a constructor call node.
func NewNew(t reflect.Type, args []Expression) *New {
	return &New{Args: args, typ: t}
}

func (n *New) exprNode()          {}
func (n *New) Type() reflect.Type { return n.typ }

func (n *New) String() string {
	return fmt.Sprintf("%s(%s)", TypeName(n.typ), joinExprs(n.Args))
}

// Binding associates a synthesized property with its initializer.
type Binding struct {
	Name  string
	Value Expression
}

// MemberInit constructs an anonymous record instance, binding each
// synthesized property to its initializer expression.
type MemberInit struct {
	Bindings []Binding
	typ      reflect.Type
}

// NewMemberInit creates a member-init node over a synthesized record type.
func NewMemberInit(t reflect.Type, bindings []Binding) *MemberInit {
	return &MemberInit{Bindings: bindings, typ: t}
}

func (m *MemberInit) exprNode()          {}
func (m *MemberInit) Type() reflect.Type { return m.typ }

func (m *MemberInit) String() string {
	parts := make([]string, len(m.Bindings))
	for i, b := range m.Bindings {
		parts[i] = fmt.Sprintf("%s = %s", b.Name, b.Value)
	}
	return fmt.Sprintf("new(%s)", strings.Join(parts, ", "))
}

func joinExprs(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

package expr

import (
	"fmt"
	"strings"
)

// Dump renders an expression tree as an indented multi-line listing, one
// node per line with its static type. Used by the CLI and snapshot tests.
func Dump(e Expression) string {
	var sb strings.Builder
	dump(&sb, e, 0)
	return sb.String()
}

func dump(sb *strings.Builder, e Expression, depth int) {
	indent := strings.Repeat("  ", depth)
	if e == nil {
		fmt.Fprintf(sb, "%s<nil>\n", indent)
		return
	}

	switch n := e.(type) {
	case *Parameter:
		fmt.Fprintf(sb, "%sParameter %s : %s\n", indent, n, TypeName(n.Type()))
	case *Constant:
		fmt.Fprintf(sb, "%sConstant %s : %s\n", indent, n, TypeName(n.Type()))
	case *Binary:
		fmt.Fprintf(sb, "%sBinary %s : %s\n", indent, n.Op, TypeName(n.Type()))
		dump(sb, n.Left, depth+1)
		dump(sb, n.Right, depth+1)
	case *Unary:
		fmt.Fprintf(sb, "%sUnary %s : %s\n", indent, n.Op, TypeName(n.Type()))
		dump(sb, n.Operand, depth+1)
	case *Conditional:
		fmt.Fprintf(sb, "%sConditional : %s\n", indent, TypeName(n.Type()))
		dump(sb, n.Test, depth+1)
		dump(sb, n.IfTrue, depth+1)
		dump(sb, n.IfFalse, depth+1)
	case *Member:
		fmt.Fprintf(sb, "%sMember %s : %s\n", indent, n.Name, TypeName(n.Type()))
		if n.Target != nil {
			dump(sb, n.Target, depth+1)
		} else {
			fmt.Fprintf(sb, "%s  (static %s)\n", indent, TypeName(n.On))
		}
	case *Index:
		fmt.Fprintf(sb, "%sIndex : %s\n", indent, TypeName(n.Type()))
		dump(sb, n.Target, depth+1)
		for _, a := range n.Args {
			dump(sb, a, depth+1)
		}
	case *Call:
		fmt.Fprintf(sb, "%sCall %s : %s\n", indent, n.Method, TypeName(n.Type()))
		if n.Target != nil {
			dump(sb, n.Target, depth+1)
		} else if n.On != nil {
			fmt.Fprintf(sb, "%s  (static %s)\n", indent, TypeName(n.On))
		}
		for _, a := range n.Args {
			dump(sb, a, depth+1)
		}
	case *Lambda:
		fmt.Fprintf(sb, "%sLambda(%d params)\n", indent, len(n.Parameters))
		dump(sb, n.Body, depth+1)
	case *Invoke:
		fmt.Fprintf(sb, "%sInvoke : %s\n", indent, TypeName(n.Type()))
		dump(sb, n.Lambda, depth+1)
		for _, a := range n.Args {
			dump(sb, a, depth+1)
		}
	case *Convert:
		kind := "Convert"
		if n.Checked {
			kind = "ConvertChecked"
		}
		fmt.Fprintf(sb, "%s%s : %s\n", indent, kind, TypeName(n.Type()))
		dump(sb, n.Operand, depth+1)
	case *TypeIs:
		fmt.Fprintf(sb, "%sTypeIs %s\n", indent, TypeName(n.Target))
		dump(sb, n.Operand, depth+1)
	case *TypeAs:
		fmt.Fprintf(sb, "%sTypeAs : %s\n", indent, TypeName(n.Type()))
		dump(sb, n.Operand, depth+1)
	case *New:
		fmt.Fprintf(sb, "%sNew : %s\n", indent, TypeName(n.Type()))
		for _, a := range n.Args {
			dump(sb, a, depth+1)
		}
	case *MemberInit:
		fmt.Fprintf(sb, "%sMemberInit : %s\n", indent, TypeName(n.Type()))
		for _, b := range n.Bindings {
			fmt.Fprintf(sb, "%s  %s =\n", indent, b.Name)
			dump(sb, b.Value, depth+2)
		}
	default:
		fmt.Fprintf(sb, "%s%T : %s\n", indent, e, TypeName(e.Type()))
	}
}

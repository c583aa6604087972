package parser

import (
	"github.com/querytools/go-dynq/internal/lexer"
	"github.com/querytools/go-dynq/pkg/expr"
)

// Ordering is one parsed ordering clause: a selector over the iteration
// parameter plus a direction.
type Ordering struct {
	Selector  expr.Expression
	Parameter *expr.Parameter
	Ascending bool
}

// ParseOrdering parses a comma-separated sequence of
// "expr [asc|ascending|desc|descending]" clauses.
func (p *Parser) ParseOrdering() ([]Ordering, error) {
	var orderings []Ordering
	for {
		selector, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		ascending := true
		switch {
		case p.tokenIdentifierIs("asc") || p.tokenIdentifierIs("ascending"):
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		case p.tokenIdentifierIs("desc") || p.tokenIdentifierIs("descending"):
			ascending = false
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
		var param *expr.Parameter
		if len(p.itStack) > 0 {
			param = p.itStack[len(p.itStack)-1]
		}
		orderings = append(orderings, Ordering{Selector: selector, Parameter: param, Ascending: ascending})
		if !p.token.Is(lexer.COMMA) {
			break
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	if err := p.validateToken(lexer.END, errSyntaxError); err != nil {
		return nil, err
	}
	return orderings, nil
}

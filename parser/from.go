package parser

import (
	"fmt"

	"github.com/gingi/ibis/parser/token"
	"github.com/gingi/ibis/qexpr"
)

// TableRef is one table reference in a FROM clause, with an optional alias.
type TableRef struct {
	Name, Alias string
}

// FromClause is the ordered table list plus an optional join condition,
// from fromClause.cpp.
type FromClause struct {
	Tables []TableRef
	Join   *qexpr.CompRange
}

// ParseFrom parses the contents of a FROM clause (without the leading FROM
// keyword). Supports a single table, a comma-separated cross list, and a
// two-table JOIN with an optional ON condition or USING(col) shorthand (at
// most two tables are permitted when a join condition is given).
func ParseFrom(input string) (*FromClause, error) {
	p := newParser(input)
	clause := &FromClause{}

	first, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	clause.Tables = append(clause.Tables, first)

	for {
		switch p.cur.Type {
		case token.COMMA:
			p.next()
			ref, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			clause.Tables = append(clause.Tables, ref)
		case token.JOIN:
			p.next()
			ref, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			clause.Tables = append(clause.Tables, ref)
			if len(clause.Tables) > 2 {
				return nil, fmt.Errorf("parser: at most two tables permitted with a join condition")
			}
			join, err := p.parseJoinCondition()
			if err != nil {
				return nil, err
			}
			clause.Join = join
		case token.EOF:
			return clause, nil
		default:
			return nil, p.errorf("unexpected token %q in FROM clause", p.cur.Literal)
		}
	}
}

func (p *Parser) parseTableRef() (TableRef, error) {
	if p.cur.Type != token.IDENT {
		return TableRef{}, p.errorf("expected table name, got %q", p.cur.Literal)
	}
	ref := TableRef{Name: p.cur.Literal}
	p.next()
	if p.cur.Type == token.AS {
		p.next()
	}
	if p.cur.Type == token.IDENT {
		ref.Alias = p.cur.Literal
		p.next()
	}
	return ref, nil
}

// parseJoinCondition parses either "ON <cond>" (stored directly as a
// CompRange) or "USING(col)" (stored as a CompRange whose Term3 encodes the
// join column, per spec.md §4.B).
func (p *Parser) parseJoinCondition() (*qexpr.CompRange, error) {
	switch p.cur.Type {
	case token.ON:
		p.next()
		t1, err := p.parseMathTerm(precLowest)
		if err != nil {
			return nil, err
		}
		op, ok := compareOpFor(p.cur.Type)
		if !ok {
			return nil, p.errorf("expected comparison operator in ON condition")
		}
		p.next()
		t2, err := p.parseMathTerm(precLowest)
		if err != nil {
			return nil, err
		}
		return &qexpr.CompRange{Term1: t1, Op12: op, Term2: t2}, nil
	case token.USING:
		p.next()
		if err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		if p.cur.Type != token.IDENT {
			return nil, p.errorf("expected column name in USING(...)")
		}
		col := p.cur.Literal
		p.next()
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &qexpr.CompRange{
			Term1: &qexpr.Variable{Name: col},
			Op12:  qexpr.OpEQ,
			Term2: &qexpr.Variable{Name: col},
			Term3: &qexpr.Literal{Value: col},
		}, nil
	default:
		return nil, nil // JOIN with no condition is permitted (cross join)
	}
}

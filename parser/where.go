package parser

import (
	"fmt"
	"sort"

	"github.com/gingi/ibis/parser/token"
	"github.com/gingi/ibis/qexpr"
)

const (
	boolLowest = iota
	boolOr
	boolXor
	boolAnd
	boolMinus // logical "-" (A - B = A AND NOT B)
)

var boolPrecedences = map[token.Type]int{
	token.OR_OP:  boolOr,
	token.XOR_OP: boolXor,
	token.AND_OP: boolAnd,
	token.MINUS:  boolMinus,
}

func (p *Parser) boolCurPrecedence() int {
	if pr, ok := boolPrecedences[p.cur.Type]; ok {
		return pr
	}
	return boolLowest
}

// ParseWhere parses the contents of a WHERE clause (without the leading
// WHERE keyword) into a qexpr.Expr tree.
func ParseWhere(input string) (qexpr.Expr, error) {
	p := newParser(input)
	expr, err := p.parseWhereExpr(boolLowest)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.EOF {
		return nil, fmt.Errorf("parser: unexpected trailing token %q in WHERE clause", p.cur.Literal)
	}
	return expr, nil
}

func (p *Parser) parseWhereExpr(minPrec int) (qexpr.Expr, error) {
	left, err := p.parseWherePrimary()
	if err != nil {
		return nil, err
	}
	for minPrec < p.boolCurPrecedence() {
		opTok := p.cur.Type
		p.next()
		right, err := p.parseWhereExpr(boolPrecedences[opTok])
		if err != nil {
			return nil, err
		}
		switch opTok {
		case token.OR_OP:
			left = &qexpr.Or{Left: left, Right: right}
		case token.XOR_OP:
			left = &qexpr.Xor{Left: left, Right: right}
		case token.AND_OP:
			left = &qexpr.And{Left: left, Right: right}
		case token.MINUS:
			left = &qexpr.Minus{Left: left, Right: right}
		}
	}
	return left, nil
}

func (p *Parser) parseWherePrimary() (qexpr.Expr, error) {
	switch p.cur.Type {
	case token.NOT_OP:
		p.next()
		operand, err := p.parseWhereExpr(boolMinus)
		if err != nil {
			return nil, err
		}
		return &qexpr.Not{Operand: operand}, nil
	case token.LPAREN:
		p.next()
		inner, err := p.parseWhereExpr(boolLowest)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	}

	t1, err := p.parseMathTerm(precLowest)
	if err != nil {
		return nil, err
	}

	if v, ok := t1.(*qexpr.Variable); ok {
		switch p.cur.Type {
		case token.IN:
			return p.parseInClause(v.Name)
		case token.BETWEEN:
			return p.parseBetween(v.Name)
		case token.LIKE:
			return p.parseLike(v.Name)
		}
	}

	op, ok := compareOpFor(p.cur.Type)
	if !ok {
		return nil, p.errorf("expected comparison operator, IN, BETWEEN, or LIKE, got %q", p.cur.Literal)
	}
	p.next()
	t2, err := p.parseMathTerm(precLowest)
	if err != nil {
		return nil, err
	}

	if expr := asStringEquality(t1, op, t2); expr != nil {
		return expr, nil
	}

	cr := &qexpr.CompRange{Term1: t1, Op12: op, Term2: t2}
	if op2, ok := compareOpFor(p.cur.Type); ok {
		p.next()
		t3, err := p.parseMathTerm(precLowest)
		if err != nil {
			return nil, err
		}
		cr.Op23 = op2
		cr.Term3 = t3
	}
	return qexpr.Simplify(cr), nil
}

// asStringEquality recognizes `col = 'literal'` (or reversed) and produces
// a StringEquality node directly, since ContinuousRange only models
// numeric bounds. Per spec.md §4.B/§9, an unquoted identifier on the RHS
// of `=` is ambiguous between "another column" and "a bare literal"; that
// ambiguity is resolved later by Verify once the column's type is known
// (see the qString rewrite rule there). Here we only handle the
// unambiguous case of an explicit quoted-string literal.
func asStringEquality(t1 qexpr.MathTerm, op qexpr.CompareOp, t2 qexpr.MathTerm) qexpr.Expr {
	if op != qexpr.OpEQ {
		return nil
	}
	if v, ok := t1.(*qexpr.Variable); ok {
		if lit, ok := t2.(*qexpr.Literal); ok {
			return &qexpr.StringEquality{Name: v.Name, Value: lit.Value}
		}
	}
	if v, ok := t2.(*qexpr.Variable); ok {
		if lit, ok := t1.(*qexpr.Literal); ok {
			return &qexpr.StringEquality{Name: v.Name, Value: lit.Value}
		}
	}
	return nil
}

func (p *Parser) parseInClause(name string) (qexpr.Expr, error) {
	p.next() // consume IN
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var nums []float64
	var strs []string
	allNumeric := true
	for {
		if p.cur.Type == token.STRING {
			strs = append(strs, p.cur.Literal)
			allNumeric = false
			p.next()
		} else {
			term, err := p.parseMathTerm(precLowest)
			if err != nil {
				return nil, err
			}
			v, ok := term.Eval()
			if !ok {
				return nil, p.errorf("IN(...) values must be constants")
			}
			nums = append(nums, v)
		}
		if p.cur.Type != token.COMMA {
			break
		}
		p.next()
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if allNumeric {
		sort.Float64s(nums)
		nums = dedupeSorted(nums)
		return &qexpr.DiscreteRange{Name: name, Values: nums}, nil
	}
	sort.Strings(strs)
	strs = dedupeSortedStrings(strs)
	return &qexpr.MultiString{Name: name, Values: strs}, nil
}

func dedupeSorted(v []float64) []float64 {
	out := v[:0]
	for i, x := range v {
		if i == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

func dedupeSortedStrings(v []string) []string {
	out := v[:0]
	for i, x := range v {
		if i == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

func (p *Parser) parseBetween(name string) (qexpr.Expr, error) {
	p.next() // consume BETWEEN
	lowTerm, err := p.parseMathTerm(precCompare)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.AND_OP {
		return nil, p.errorf("expected AND in BETWEEN clause")
	}
	p.next()
	highTerm, err := p.parseMathTerm(precCompare)
	if err != nil {
		return nil, err
	}
	low, _ := lowTerm.Eval()
	high, _ := highTerm.Eval()
	return &qexpr.ContinuousRange{Name: name, LeftOp: qexpr.OpLE, Lower: low, RightOp: qexpr.OpLE, Upper: high}, nil
}

func (p *Parser) parseLike(name string) (qexpr.Expr, error) {
	p.next() // consume LIKE
	if p.cur.Type != token.STRING {
		return nil, p.errorf("expected string pattern after LIKE")
	}
	pattern := p.cur.Literal
	p.next()
	return &qexpr.Like{Name: name, Pattern: pattern}, nil
}

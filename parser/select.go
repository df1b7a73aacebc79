package parser

import (
	"fmt"
	"strings"

	"github.com/gingi/ibis/parser/token"
	"github.com/gingi/ibis/qexpr"
)

// Aggregator is the SELECT-term aggregation function, from
// selectClause.h's AGREGADO enum.
type Aggregator int

const (
	AggNone Aggregator = iota
	AggAvg
	AggCount
	AggMax
	AggMin
	AggSum
	AggDistinct
	AggVarPop
	AggVarSamp
	AggStdPop
	AggStdSamp
	AggMedian
)

func (a Aggregator) String() string {
	switch a {
	case AggAvg:
		return "AVG"
	case AggCount:
		return "COUNT"
	case AggMax:
		return "MAX"
	case AggMin:
		return "MIN"
	case AggSum:
		return "SUM"
	case AggDistinct:
		return "COUNT(DISTINCT)"
	case AggVarPop:
		return "VARPOP"
	case AggVarSamp:
		return "VARSAMP"
	case AggStdPop:
		return "STDPOP"
	case AggStdSamp:
		return "STDSAMP"
	case AggMedian:
		return "MEDIAN"
	default:
		return ""
	}
}

// SelectTerm is one projected/aggregated expression with an optional alias.
type SelectTerm struct {
	Aggregator Aggregator
	Expr       qexpr.MathTerm
	Alias      string
}

// SelectClause is the ordered list of SELECT terms (spec.md §3.1).
type SelectClause struct {
	Terms []SelectTerm
}

// AliasTarget returns the term whose alias matches name, case-insensitively.
func (s *SelectClause) AliasTarget(name string) (*SelectTerm, bool) {
	low := strings.ToLower(name)
	for i := range s.Terms {
		if strings.ToLower(s.Terms[i].Alias) == low {
			return &s.Terms[i], true
		}
	}
	return nil, false
}

var aggByToken = map[token.Type]Aggregator{
	token.AVG: AggAvg, token.COUNT: AggCount, token.MAX: AggMax, token.MIN: AggMin,
	token.SUM: AggSum, token.VARPOP: AggVarPop, token.VARSAMP: AggVarSamp,
	token.VARIANCE: AggVarPop, token.VAR: AggVarPop,
	token.STDPOP: AggStdPop, token.STDSAMP: AggStdSamp,
	token.STDDEV: AggStdSamp, token.STDEV: AggStdSamp, token.MEDIAN: AggMedian,
}

// ParseSelect parses the contents of a SELECT clause (without the leading
// SELECT keyword) into an ordered term list.
func ParseSelect(input string) (*SelectClause, error) {
	p := newParser(input)
	clause := &SelectClause{}
	for {
		term, err := p.parseSelectTerm()
		if err != nil {
			return nil, err
		}
		clause.Terms = append(clause.Terms, *term)
		if p.cur.Type != token.COMMA {
			break
		}
		p.next()
	}
	if p.cur.Type != token.EOF {
		return nil, fmt.Errorf("parser: unexpected trailing token %q in SELECT clause", p.cur.Literal)
	}
	fillNames(clause)
	return clause, nil
}

func (p *Parser) parseSelectTerm() (*SelectTerm, error) {
	term := &SelectTerm{}

	if agg, ok := aggByToken[p.cur.Type]; ok {
		term.Aggregator = agg
		p.next()
		if err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		if term.Aggregator == AggCount && p.cur.Type == token.ASTERISK {
			p.next()
			term.Expr = &qexpr.Variable{Name: "*"}
		} else {
			if p.cur.Type == token.DISTINCT {
				if term.Aggregator != AggCount {
					return nil, p.errorf("DISTINCT only valid inside COUNT()")
				}
				term.Aggregator = AggDistinct
				p.next()
			}
			expr, err := p.parseMathTerm(precLowest)
			if err != nil {
				return nil, err
			}
			term.Expr = expr
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
	} else {
		expr, err := p.parseMathTerm(precLowest)
		if err != nil {
			return nil, err
		}
		term.Expr = expr
	}

	if p.cur.Type == token.AS {
		p.next()
		if p.cur.Type != token.IDENT {
			return nil, p.errorf("expected alias identifier after AS")
		}
		term.Alias = p.cur.Literal
		p.next()
	}
	return term, nil
}

// fillNames synthesizes a canonical alias for any term left unaliased,
// from the aggregator name and the printed expression
// (selectClause.cpp's fillNames).
func fillNames(c *SelectClause) {
	for i := range c.Terms {
		t := &c.Terms[i]
		if t.Alias != "" {
			continue
		}
		if t.Aggregator == AggNone {
			t.Alias = t.Expr.String()
		} else {
			t.Alias = fmt.Sprintf("%s(%s)", t.Aggregator, t.Expr)
		}
	}
}

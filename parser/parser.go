// Package parser implements the three LALR-ish grammars described in
// spec.md §4.B — SELECT, FROM, and WHERE — sharing a single
// precedence-climbing (Pratt) arithmetic core, structured after
// _examples/ha1tch-tsqlparser/parser/parser.go's
// precedences/registerPrefix/registerInfix/parseExpression shape, with exact
// clause semantics grounded on
// _examples/original_source/src/{selectClause,fromClause,whereClause}.cpp.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gingi/ibis/parser/lexer"
	"github.com/gingi/ibis/parser/token"
	"github.com/gingi/ibis/qexpr"
)

// Precedence levels for the shared arithmetic expression parser.
const (
	_ int = iota
	precLowest
	precOr
	precXor
	precAnd
	precCompare
	precBitOr
	precBitAnd
	precSum
	precProduct
	precPower
	precUnary
)

var precedences = map[token.Type]int{
	token.OR_OP:     precOr,
	token.XOR_OP:    precXor,
	token.AND_OP:    precAnd,
	token.LT:        precCompare,
	token.LE:        precCompare,
	token.EQ:        precCompare,
	token.GE:        precCompare,
	token.GT:        precCompare,
	token.NEQ:       precCompare,
	token.PIPE:      precBitOr,
	token.AMP:       precBitAnd,
	token.PLUS:      precSum,
	token.MINUS:     precSum,
	token.ASTERISK:  precProduct,
	token.SLASH:     precProduct,
	token.PERCENT:   precProduct,
	token.CARET:     precPower,
	token.POWER:     precPower,
}

// Parser is a precedence-climbing parser shared across the SELECT, FROM,
// and WHERE grammars.
type Parser struct {
	l *lexer.Lexer

	cur, peek token.Token
	errs       []string
}

func newParser(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Type]; ok {
		return pr
	}
	return precLowest
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return precLowest
}

func (p *Parser) expect(t token.Type) error {
	if p.cur.Type != t {
		return fmt.Errorf("parser: expected %s, got %q at line %d col %d", t, p.cur.Literal, p.cur.Line, p.cur.Column)
	}
	p.next()
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	p.errs = append(p.errs, msg)
	return fmt.Errorf("parser: %s", msg)
}

// --- shared arithmetic MathTerm parser --------------------------------

var fun1ByName = map[string]qexpr.StdFun1Kind{
	"acos": qexpr.FnAcos, "asin": qexpr.FnAsin, "atan": qexpr.FnAtan,
	"ceil": qexpr.FnCeil, "cos": qexpr.FnCos, "cosh": qexpr.FnCosh,
	"exp": qexpr.FnExp, "fabs": qexpr.FnFabs, "floor": qexpr.FnFloor,
	"log10": qexpr.FnLog10, "log": qexpr.FnLog, "sin": qexpr.FnSin,
	"sinh": qexpr.FnSinh, "sqrt": qexpr.FnSqrt, "tan": qexpr.FnTan, "tanh": qexpr.FnTanh,
}

var fun2ByName = map[string]qexpr.StdFun2Kind{
	"atan2": qexpr.FnAtan2, "fmod": qexpr.FnFmod, "pow": qexpr.FnPow,
}

// parseMathTerm parses an arithmetic expression at the given minimum
// precedence, the shared core used by SELECT terms, WHERE CompRange
// operands, and Join fuzz-range deltas.
func (p *Parser) parseMathTerm(minPrec int) (qexpr.MathTerm, error) {
	left, err := p.parseMathPrefix()
	if err != nil {
		return nil, err
	}
	for minPrec < p.curPrecedence() {
		op, ok := arithOpFor(p.cur.Type)
		if !ok {
			break
		}
		prec := p.curPrecedence()
		p.next()
		right, err := p.parseMathTerm(prec)
		if err != nil {
			return nil, err
		}
		left = &qexpr.Bediener{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func arithOpFor(t token.Type) (qexpr.ArithOp, bool) {
	switch t {
	case token.PLUS:
		return qexpr.OpPlus, true
	case token.MINUS:
		return qexpr.OpMinus, true
	case token.ASTERISK:
		return qexpr.OpMultiply, true
	case token.SLASH:
		return qexpr.OpDivide, true
	case token.PERCENT:
		return qexpr.OpRemainder, true
	case token.CARET, token.POWER:
		return qexpr.OpPower, true
	case token.PIPE:
		return qexpr.OpBitOr, true
	case token.AMP:
		return qexpr.OpBitAnd, true
	}
	return 0, false
}

func (p *Parser) parseMathPrefix() (qexpr.MathTerm, error) {
	switch p.cur.Type {
	case token.MINUS:
		p.next()
		operand, err := p.parseMathTerm(precUnary)
		if err != nil {
			return nil, err
		}
		return &qexpr.Bediener{Op: qexpr.OpNegate, Left: operand}, nil
	case token.LPAREN:
		p.next()
		inner, err := p.parseMathTerm(precLowest)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case token.NUMBER:
		v, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return nil, p.errorf("invalid numeral %q", p.cur.Literal)
		}
		p.next()
		return &qexpr.Number{Value: v}, nil
	case token.STRING:
		lit := &qexpr.Literal{Value: p.cur.Literal}
		p.next()
		return lit, nil
	case token.IDENT:
		name := p.cur.Literal
		lower := strings.ToLower(name)
		if fn, ok := fun1ByName[lower]; ok && p.peek.Type == token.LPAREN {
			return p.parseStdFun1(fn)
		}
		if fn, ok := fun2ByName[lower]; ok && p.peek.Type == token.LPAREN {
			return p.parseStdFun2(fn)
		}
		for p.peek.Type == token.DOT {
			p.next()
			p.next()
			name = name + "." + p.cur.Literal
		}
		p.next()
		return &qexpr.Variable{Name: name}, nil
	default:
		return nil, p.errorf("unexpected token %q in arithmetic expression", p.cur.Literal)
	}
}

func (p *Parser) parseStdFun1(fn qexpr.StdFun1Kind) (qexpr.MathTerm, error) {
	p.next() // fn name
	p.next() // (
	arg, err := p.parseMathTerm(precLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return &qexpr.StdFun1{Fn: fn, Arg: arg}, nil
}

func (p *Parser) parseStdFun2(fn qexpr.StdFun2Kind) (qexpr.MathTerm, error) {
	p.next()
	p.next()
	arg1, err := p.parseMathTerm(precLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.COMMA); err != nil {
		return nil, err
	}
	arg2, err := p.parseMathTerm(precLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return &qexpr.StdFun2{Fn: fn, Arg1: arg1, Arg2: arg2}, nil
}

func compareOpFor(t token.Type) (qexpr.CompareOp, bool) {
	switch t {
	case token.LT:
		return qexpr.OpLT, true
	case token.LE:
		return qexpr.OpLE, true
	case token.EQ:
		return qexpr.OpEQ, true
	case token.GE:
		return qexpr.OpGE, true
	case token.GT:
		return qexpr.OpGT, true
	}
	return qexpr.OpUndefined, false
}

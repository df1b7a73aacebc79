package partition

import (
	"fmt"

	"github.com/gingi/ibis/bitvector"
	"github.com/gingi/ibis/qexpr"
)

// evalCondition resolves a WHERE-style qexpr.Expr against the partition's
// current columns into a BitVector of matching rows (bit i = 1 iff row i
// satisfies e), the "evaluation through Column(C) ... collaborators"
// data-flow step of spec.md §1. Used by DeactivateWhere and available to a
// future query layer.
//
// Supports the terminal node types a WHERE clause parses to
// (ContinuousRange, DiscreteRange, StringEquality, MultiString, Like) and
// the logical combinators (And, Or, Xor, Minus, Not). CompRange/Join nodes
// involving two columns or general arithmetic are outside a single
// partition's per-row mask evaluation and return an error; the query layer
// that eventually consumes multi-partition joins handles those instead.
func (p *Partition) evalCondition(e qexpr.Expr) (bitvector.BitVector, error) {
	n := p.NRows()
	switch t := e.(type) {
	case *qexpr.And:
		l, err := p.evalCondition(t.Left)
		if err != nil {
			return nil, err
		}
		r, err := p.evalCondition(t.Right)
		if err != nil {
			return nil, err
		}
		return l.And(r), nil
	case *qexpr.Or:
		l, err := p.evalCondition(t.Left)
		if err != nil {
			return nil, err
		}
		r, err := p.evalCondition(t.Right)
		if err != nil {
			return nil, err
		}
		return l.Or(r), nil
	case *qexpr.Xor:
		l, err := p.evalCondition(t.Left)
		if err != nil {
			return nil, err
		}
		r, err := p.evalCondition(t.Right)
		if err != nil {
			return nil, err
		}
		return l.Xor(r), nil
	case *qexpr.Minus:
		l, err := p.evalCondition(t.Left)
		if err != nil {
			return nil, err
		}
		r, err := p.evalCondition(t.Right)
		if err != nil {
			return nil, err
		}
		return l.Minus(r), nil
	case *qexpr.Not:
		inner, err := p.evalCondition(t.Operand)
		if err != nil {
			return nil, err
		}
		full := bitvector.NewAllOnes(n)
		return full.Minus(inner), nil
	case *qexpr.ContinuousRange:
		return p.evalNumeric(n, t.Name, t.InRange)
	case *qexpr.DiscreteRange:
		return p.evalNumeric(n, t.Name, t.InRange)
	case *qexpr.StringEquality:
		return p.evalString(n, t.Name, func(s string) bool { return s == t.Value })
	case *qexpr.MultiString:
		set := make(map[string]struct{}, len(t.Values))
		for _, v := range t.Values {
			set[v] = struct{}{}
		}
		return p.evalString(n, t.Name, func(s string) bool { _, ok := set[s]; return ok })
	case *qexpr.Like:
		return p.evalString(n, t.Name, func(s string) bool { return globLikeMatch(s, t.Pattern) })
	default:
		return nil, fmt.Errorf("partition %s: evalCondition: unsupported node %T", p.Name, e)
	}
}

func (p *Partition) evalNumeric(n uint32, colName string, inRange func(float64) bool) (bitvector.BitVector, error) {
	col, ok := p.Column(colName)
	if !ok {
		return nil, fmt.Errorf("partition %s: unknown column %q", p.Name, colName)
	}
	values, err := col.GetValues(nil)
	if err != nil {
		return nil, err
	}
	floats, err := toFloatSlice(values)
	if err != nil {
		return nil, fmt.Errorf("partition %s: column %q: %w", p.Name, colName, err)
	}
	out := bitvector.New(n)
	for i, v := range floats {
		if inRange(v) {
			if err := out.Set(uint32(i)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (p *Partition) evalString(n uint32, colName string, match func(string) bool) (bitvector.BitVector, error) {
	col, ok := p.Column(colName)
	if !ok {
		return nil, fmt.Errorf("partition %s: unknown column %q", p.Name, colName)
	}
	values, err := col.GetValues(nil)
	if err != nil {
		return nil, err
	}
	strs, ok := values.([]string)
	if !ok {
		return nil, fmt.Errorf("partition %s: column %q is not string-valued", p.Name, colName)
	}
	out := bitvector.New(n)
	for i, s := range strs {
		if match(s) {
			if err := out.Set(uint32(i)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// toFloatSlice converts a fixed-width GetValues result (one of the Numeric
// instantiations) into a []float64, by type switch over the concrete
// element type.
func toFloatSlice(values any) ([]float64, error) {
	switch v := values.(type) {
	case []int8:
		return mapFloat(v), nil
	case []uint8:
		return mapFloat(v), nil
	case []int16:
		return mapFloat(v), nil
	case []uint16:
		return mapFloat(v), nil
	case []int32:
		return mapFloat(v), nil
	case []uint32:
		return mapFloat(v), nil
	case []int64:
		return mapFloat(v), nil
	case []uint64:
		return mapFloat(v), nil
	case []float32:
		return mapFloat(v), nil
	case []float64:
		return v, nil
	default:
		return nil, fmt.Errorf("not a numeric column (got %T)", values)
	}
}

func mapFloat[T int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// globLikeMatch matches SQL LIKE patterns ('%' any run, '_' any one
// character), case-sensitive, distinct from column.Text.KeywordSearch's
// shell-glob semantics ('*'/'?').
func globLikeMatch(s, pattern string) bool {
	if pattern == "" {
		return s == ""
	}
	switch pattern[0] {
	case '%':
		for i := 0; i <= len(s); i++ {
			if globLikeMatch(s[i:], pattern[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(s) == 0 {
			return false
		}
		return globLikeMatch(s[1:], pattern[1:])
	default:
		if len(s) == 0 || s[0] != pattern[0] {
			return false
		}
		return globLikeMatch(s[1:], pattern[1:])
	}
}

package parser

import (
	"math"

	"github.com/gingi/ibis/column"
	"github.com/gingi/ibis/qexpr"
)

// Schema is the narrow view of a data partition Verify and Amplify need:
// column-name -> logical-type lookup. Partition.ColumnType already matches
// this signature, so partition.Partition satisfies Schema without either
// package importing the other (parser sits below partition in the
// dependency order E -> A -> C -> D -> B; only column, not partition, needs
// importing here).
type Schema interface {
	ColumnType(name string) (column.ColumnType, bool)
}

// BoundsSchema additionally exposes a column's observed [min, max], the
// extra a Schema can supply to make Amplify's join-range propagation
// (spec.md §4.B "Name amplification") do something beyond a no-op.
type BoundsSchema interface {
	Schema
	ColumnBounds(name string) (min, max float64, ok bool)
}

// Verify walks e and resolves every column name it references against
// schema, per spec.md §4.B "Verification":
//  1. a name matching a partition column is accepted as-is;
//  2. a name matching a SELECT alias is rewritten to the alias's target
//     (a column name or a full arithmetic expression substituted in place);
//  3. anything else is counted as unresolved.
//
// It also applies the two rewrites spec.md calls out alongside
// verification: `(var1 = var2)` with exactly one string-typed side becomes
// a StringEquality, and a ContinuousRange's lower bound on an unsigned
// column is clamped to 0 when parsed as negative. sel may be nil when no
// SELECT clause aliases are in scope. Returns the (possibly rewritten) tree
// and the count of names that could not be resolved.
func Verify(e qexpr.Expr, schema Schema, sel *SelectClause) (qexpr.Expr, int) {
	v := &verifier{schema: schema, sel: sel}
	out := v.walk(e)
	return out, v.unresolved
}

type verifier struct {
	schema     Schema
	sel        *SelectClause
	unresolved int
}

func (v *verifier) walk(e qexpr.Expr) qexpr.Expr {
	switch t := e.(type) {
	case *qexpr.And:
		t.Left, t.Right = v.walk(t.Left), v.walk(t.Right)
		return t
	case *qexpr.Or:
		t.Left, t.Right = v.walk(t.Left), v.walk(t.Right)
		return t
	case *qexpr.Xor:
		t.Left, t.Right = v.walk(t.Left), v.walk(t.Right)
		return t
	case *qexpr.Minus:
		t.Left, t.Right = v.walk(t.Left), v.walk(t.Right)
		return t
	case *qexpr.Not:
		t.Operand = v.walk(t.Operand)
		return t
	case *qexpr.ContinuousRange:
		t.Name = v.resolveColumnName(t.Name)
		v.clampUnsigned(t)
		return t
	case *qexpr.DiscreteRange:
		t.Name = v.resolveColumnName(t.Name)
		return t
	case *qexpr.MultiString:
		t.Name = v.resolveColumnName(t.Name)
		return t
	case *qexpr.StringEquality:
		t.Name = v.resolveColumnName(t.Name)
		return t
	case *qexpr.Like:
		t.Name = v.resolveColumnName(t.Name)
		return t
	case *qexpr.CompRange:
		return v.verifyCompRange(t)
	default:
		return e
	}
}

// resolveColumnName implements the three-way column/alias/unresolved
// dispatch for a range-predicate node, whose Name field can only ever hold
// a column name (not an arbitrary substituted expression — a range
// predicate evaluates over one column's stored values).
func (v *verifier) resolveColumnName(name string) string {
	if _, ok := v.schema.ColumnType(name); ok {
		return name
	}
	if v.sel != nil {
		if target, ok := v.sel.AliasTarget(name); ok {
			if variable, ok := target.Expr.(*qexpr.Variable); ok {
				return variable.Name
			}
		}
	}
	v.unresolved++
	return name
}

// resolveMathTerm applies the same three-way dispatch to every Variable
// leaf of a MathTerm, substituting a matched alias's full target expression
// (spec.md §4.B: "a constant, or full arithmetic expression substituted in
// place").
func (v *verifier) resolveMathTerm(t qexpr.MathTerm) qexpr.MathTerm {
	switch n := t.(type) {
	case *qexpr.Variable:
		if _, ok := v.schema.ColumnType(n.Name); ok {
			return n
		}
		if v.sel != nil {
			if target, ok := v.sel.AliasTarget(n.Name); ok {
				return target.Expr
			}
		}
		v.unresolved++
		return n
	case *qexpr.Bediener:
		n.Left = v.resolveMathTerm(n.Left)
		if n.Right != nil {
			n.Right = v.resolveMathTerm(n.Right)
		}
		return n
	case *qexpr.StdFun1:
		n.Arg = v.resolveMathTerm(n.Arg)
		return n
	case *qexpr.StdFun2:
		n.Arg1 = v.resolveMathTerm(n.Arg1)
		n.Arg2 = v.resolveMathTerm(n.Arg2)
		return n
	default:
		return t
	}
}

func (v *verifier) verifyCompRange(c *qexpr.CompRange) qexpr.Expr {
	// Check the string-equality rewrite against the raw, not-yet-resolved
	// operands: an unquoted RHS identifier here is meant as a literal, not
	// a column reference, so it must never be run through resolveMathTerm
	// (which would otherwise count it as an unresolved column name).
	if c.Term3 == nil && c.Op12 == qexpr.OpEQ {
		if expr, ok := v.stringEqualityRewrite(c.Term1, c.Term2); ok {
			return expr
		}
	}
	c.Term1 = v.resolveMathTerm(c.Term1)
	c.Term2 = v.resolveMathTerm(c.Term2)
	if c.Term3 != nil {
		c.Term3 = v.resolveMathTerm(c.Term3)
	}
	return c
}

// stringEqualityRewrite is the "String matching in WHERE" rule of spec.md
// §9: `(var1 = var2)` where exactly one side names a text/category column
// is rewritten to a StringEquality whose literal is the other side's bare
// identifier text — the unquoted-identifier-as-literal ambiguity spec.md
// says is resolved by the column's type, not the parser.
func (v *verifier) stringEqualityRewrite(t1, t2 qexpr.MathTerm) (qexpr.Expr, bool) {
	v1, ok1 := t1.(*qexpr.Variable)
	v2, ok2 := t2.(*qexpr.Variable)
	if !ok1 || !ok2 {
		return nil, false
	}
	isStr1 := v.isStringColumn(v1.Name)
	isStr2 := v.isStringColumn(v2.Name)
	switch {
	case isStr1 && !isStr2:
		return &qexpr.StringEquality{Name: v1.Name, Value: v2.Name}, true
	case isStr2 && !isStr1:
		return &qexpr.StringEquality{Name: v2.Name, Value: v1.Name}, true
	default:
		return nil, false
	}
}

func (v *verifier) isStringColumn(name string) bool {
	typ, ok := v.schema.ColumnType(name)
	if !ok {
		return false
	}
	return typ == column.TypeText || typ == column.TypeCategory
}

// clampUnsigned normalizes a negative lower bound to 0 on an unsigned
// column, per spec.md §3.2/§4.B ("unsigned-column range bounds with
// negative values are clamped to 0"): a negative `<` or `<=` lower bound
// becomes `0 <=`, e.g. both `x >= -1` and `x > -1` become `x >= 0`,
// trivially true for any unsigned x.
func (v *verifier) clampUnsigned(r *qexpr.ContinuousRange) {
	typ, ok := v.schema.ColumnType(r.Name)
	if !ok || !typ.IsUnsigned() {
		return
	}
	if (r.LeftOp == qexpr.OpLT || r.LeftOp == qexpr.OpLE) && r.Lower < 0 {
		r.Lower = 0
		r.LeftOp = qexpr.OpLE
	}
}

// Amplify implements spec.md §4.B's optional "Name amplification": for
// every Join(a, b) in e, it derives implied range constraints on b from
// any existing range on a (and vice versa), tightening an existing range
// on the other side or adding a new conservative one. It is a no-op unless
// schema also implements BoundsSchema (callers that cannot supply observed
// column bounds get the tree back unchanged, never a wrong amplification).
func Amplify(e qexpr.Expr, schema Schema) qexpr.Expr {
	bs, ok := schema.(BoundsSchema)
	if !ok {
		return e
	}
	for _, j := range qexpr.ExtractJoins(e) {
		e = amplifyFromJoin(e, j.Name1, j.Name2, bs)
		e = amplifyFromJoin(e, j.Name2, j.Name1, bs)
	}
	return e
}

// amplifyFromJoin propagates the [min, max] bounds of column `from` onto
// column `to`: tightens `to`'s existing ContinuousRange by intersection, or
// adds a new conservative one covering `from`'s full observed range if `to`
// has none yet.
func amplifyFromJoin(e qexpr.Expr, from, to string, bs BoundsSchema) qexpr.Expr {
	min, max, ok := bs.ColumnBounds(from)
	if !ok {
		return e
	}
	if r, ok := qexpr.FindRange(e, from); ok {
		if cr, ok := r.(*qexpr.ContinuousRange); ok {
			if cr.LeftOp != qexpr.OpUndefined {
				min = math.Max(min, cr.Lower)
			}
			if cr.RightOp != qexpr.OpUndefined {
				max = math.Min(max, cr.Upper)
			}
		}
	}

	if r, ok := qexpr.FindRange(e, to); ok {
		if cr, ok := r.(*qexpr.ContinuousRange); ok {
			if cr.LeftOp == qexpr.OpUndefined || min > cr.Lower {
				cr.Lower, cr.LeftOp = min, qexpr.OpLE
			}
			if cr.RightOp == qexpr.OpUndefined || max < cr.Upper {
				cr.Upper, cr.RightOp = max, qexpr.OpLE
			}
		}
		return e
	}

	newRange := &qexpr.ContinuousRange{Name: to, LeftOp: qexpr.OpLE, Lower: min, RightOp: qexpr.OpLE, Upper: max}
	return &qexpr.And{Left: e, Right: newRange}
}

package qexpr

// Simplify rewrites a tree in place (functionally — the tree is rebuilt
// rather than mutated through pointers, per spec.md §9) producing an
// equivalent, smaller tree. It implements the rewrite-rule set of
// spec.md §4.A: pushing And/Or past empty children, merging same-column
// ContinuousRanges under And, expanding MultiString into an Or-cascade of
// StringEquality, normalizing CompRange of (Variable, Number) shape into a
// ContinuousRange, and constant-folding arithmetic subtrees.
//
// Simplify is idempotent: Simplify(Simplify(e)) produces a tree equal in
// structure and meaning to Simplify(e) (spec.md §8 "Idempotence").
func Simplify(e Expr) Expr {
	switch n := e.(type) {
	case *And:
		return simplifyAnd(Simplify(n.Left), Simplify(n.Right))
	case *Or:
		return simplifyOr(Simplify(n.Left), Simplify(n.Right))
	case *Xor:
		return &Xor{Left: Simplify(n.Left), Right: Simplify(n.Right)}
	case *Minus:
		return &Minus{Left: Simplify(n.Left), Right: Simplify(n.Right)}
	case *Not:
		return &Not{Operand: Simplify(n.Operand)}
	case *MultiString:
		return simplifyMultiString(n)
	case *CompRange:
		return simplifyCompRange(n)
	case *Bediener:
		return n.Reduce()
	case *StdFun1:
		return n.Reduce()
	case *StdFun2:
		return n.Reduce()
	default:
		return e
	}
}

// isEmptyLeaf reports whether e is a terminal node that always evaluates to
// the empty set (an empty ContinuousRange or DiscreteRange).
func isEmptyLeaf(e Expr) bool {
	switch n := e.(type) {
	case *ContinuousRange:
		return n.Empty()
	case *DiscreteRange:
		return n.Empty()
	}
	return false
}

func simplifyAnd(left, right Expr) Expr {
	if isEmptyLeaf(left) {
		return left
	}
	if isEmptyLeaf(right) {
		return right
	}
	if merged := mergeContinuousRanges(left, right); merged != nil {
		return merged
	}
	return &And{Left: left, Right: right}
}

func simplifyOr(left, right Expr) Expr {
	if isEmptyLeaf(left) {
		return right
	}
	if isEmptyLeaf(right) {
		return left
	}
	return &Or{Left: left, Right: right}
}

// mergeContinuousRanges implements "merges two ContinuousRange nodes on the
// same column under And into a single tighter range, respecting strict vs.
// non-strict operators". Returns nil if left/right are not both
// ContinuousRange on the same column.
func mergeContinuousRanges(left, right Expr) Expr {
	l, ok := left.(*ContinuousRange)
	if !ok {
		return nil
	}
	r, ok := right.(*ContinuousRange)
	if !ok {
		return nil
	}
	if l.Name != r.Name {
		return nil
	}
	merged := &ContinuousRange{Name: l.Name}
	merged.LeftOp, merged.Lower = tighterLower(l.LeftOp, l.Lower, r.LeftOp, r.Lower)
	merged.RightOp, merged.Upper = tighterUpper(l.RightOp, l.Upper, r.RightOp, r.Upper)
	if merged.Empty() {
		return merged
	}
	return merged
}

// tighterLower picks the larger of two lower bounds, preferring the
// strict (OpLT) operator when bounds are equal ("tightening <= to < when a
// < bound equals the other <= bound").
func tighterLower(op1 CompareOp, v1 float64, op2 CompareOp, v2 float64) (CompareOp, float64) {
	if op1 == OpUndefined {
		return op2, v2
	}
	if op2 == OpUndefined {
		return op1, v1
	}
	if v1 == v2 {
		if op1 == OpLT || op2 == OpLT {
			return OpLT, v1
		}
		if op1 == OpEQ || op2 == OpEQ {
			return OpEQ, v1
		}
		return OpLE, v1
	}
	if v1 > v2 {
		return op1, v1
	}
	return op2, v2
}

func tighterUpper(op1 CompareOp, v1 float64, op2 CompareOp, v2 float64) (CompareOp, float64) {
	if op1 == OpUndefined {
		return op2, v2
	}
	if op2 == OpUndefined {
		return op1, v1
	}
	if v1 == v2 {
		if op1 == OpLT || op2 == OpLT {
			return OpLT, v1
		}
		if op1 == OpEQ || op2 == OpEQ {
			return OpEQ, v1
		}
		return OpLE, v1
	}
	if v1 < v2 {
		return op1, v1
	}
	return op2, v2
}

// simplifyMultiString converts MultiString into a cascade of StringEquality
// nodes joined by Or (spec.md §4.A).
func simplifyMultiString(m *MultiString) Expr {
	if len(m.Values) == 0 {
		return &DiscreteRange{Name: m.Name} // empty predicate
	}
	var cur Expr = &StringEquality{Name: m.Name, Value: m.Values[0]}
	for _, v := range m.Values[1:] {
		cur = &Or{Left: cur, Right: &StringEquality{Name: m.Name, Value: v}}
	}
	return cur
}

// simplifyCompRange normalizes a CompRange whose two sides reduce to a
// (variable, number) pair into a ContinuousRange, applying the linear
// rewrite rules of spec.md §4.A: (k+x) CMP c -> x CMP (c-k); (k-x) swaps
// direction; (k*x) with k>0 divides bounds, k<=0 divides and swaps.
func simplifyCompRange(c *CompRange) Expr {
	t1 := Simplify(c.Term1).(MathTerm)
	t2 := Simplify(c.Term2).(MathTerm)
	var t3 MathTerm
	if c.Term3 != nil {
		t3 = Simplify(c.Term3).(MathTerm)
	}

	if name, num, op, swapped, ok := asVariableNumber(t1, c.Op12, t2); ok && t3 == nil {
		finalOp, bound := linearize(name, num, op, swapped)
		if finalOp == opLowerBound {
			return &ContinuousRange{Name: name, LeftOp: boundOp(op, swapped), Lower: bound, RightOp: OpUndefined}
		}
		return &ContinuousRange{Name: name, RightOp: boundOp(op, swapped), Upper: bound, LeftOp: OpUndefined}
	}
	return &CompRange{Term1: t1, Op12: c.Op12, Term2: t2, Op23: c.Op23, Term3: t3}
}

type boundSide int

const (
	opLowerBound boundSide = iota
	opUpperBound
)

// asVariableNumber reports whether the comparison reduces to a bare
// Variable compared against a constant Number, returning the variable name,
// the (possibly transformed) remaining linear term, the operator, and
// whether operand order was swapped (variable was term2, not term1, or the
// Bediener's linear coefficient was negative — both flip which bound side
// the constraint lands on, so they fold into the same flag).
func asVariableNumber(t1 MathTerm, op CompareOp, t2 MathTerm) (name string, rest MathTerm, cop CompareOp, swapped bool, ok bool) {
	if v, isVar := t1.(*Variable); isVar {
		return v.Name, t2, op, false, true
	}
	if v, isVar := t2.(*Variable); isVar {
		return v.Name, t1, op, true, true
	}
	if b, isB := t1.(*Bediener); isB {
		if n, r, s, k := reduceBediener(b, t2, false); k {
			return n, r, op, s, true
		}
	}
	if b, isB := t2.(*Bediener); isB {
		if n, r, s, k := reduceBediener(b, t1, true); k {
			return n, r, op, s, true
		}
	}
	return "", nil, OpUndefined, false, false
}

// reduceBediener reduces a linear Bediener (x+k, k+x, x-k, k-x, x*k, k*x)
// compared against other (which must constant-fold) to a bare variable name
// plus an adjusted bound, per spec.md §4.A: "(k + x) CMP c -> x CMP (c-k);
// (k - x) swaps direction; (k * x) with k > 0 divides bounds, k <= 0
// divides and swaps." The direction swap for (k-x) and for a non-positive
// multiplier is expressed as a flip of baseSwapped (the side the Bediener
// already sits on) rather than as a separate operator rewrite, since
// linearize/boundOp already know how to turn swapped+op into the right
// ContinuousRange bound.
func reduceBediener(b *Bediener, other MathTerm, baseSwapped bool) (name string, rest MathTerm, swapped bool, ok bool) {
	coeff, offset, varName, lok := linearParts(b)
	if !lok || coeff == 0 {
		return "", nil, false, false
	}
	c, cok := other.Eval()
	if !cok {
		return "", nil, false, false
	}
	adjusted := (c - offset) / coeff
	return varName, &Number{Value: adjusted}, baseSwapped != (coeff < 0), true
}

// linearParts reduces b to the coefficient/offset pair of coeff*x + offset,
// for the six linear shapes a single-variable Bediener can take. ok is
// false for anything else (two variables, two constants, non-linear ops).
func linearParts(b *Bediener) (coeff, offset float64, name string, ok bool) {
	if v, isVar := b.Left.(*Variable); isVar {
		if n, isN := b.Right.(*Number); isN {
			switch b.Op {
			case OpPlus:
				return 1, n.Value, v.Name, true
			case OpMinus:
				return 1, -n.Value, v.Name, true
			case OpMultiply:
				return n.Value, 0, v.Name, true
			}
		}
	}
	if v, isVar := b.Right.(*Variable); isVar {
		if n, isN := b.Left.(*Number); isN {
			switch b.Op {
			case OpPlus:
				return 1, n.Value, v.Name, true
			case OpMinus:
				return -1, n.Value, v.Name, true // k - x = (-1)*x + k
			case OpMultiply:
				return n.Value, 0, v.Name, true
			}
		}
	}
	return 0, 0, "", false
}

func linearize(name string, rest MathTerm, op CompareOp, swapped bool) (boundSide, float64) {
	v, _ := rest.Eval()
	_ = name
	if op == OpLT || op == OpLE {
		if swapped {
			return opLowerBound, v
		}
		return opUpperBound, v
	}
	if swapped {
		return opUpperBound, v
	}
	return opLowerBound, v
}

// boundOp reduces a comparison operator to the canonical LT/LE/EQ family a
// ContinuousRange's LeftOp/RightOp stores ("Lower LeftOp x RightOp Upper");
// leftPass/rightPass only know how to evaluate that family, so > and >=
// must always be rewritten to their < / <= mirror (x > c == c < x, x >= c
// == c <= x) independent of which operand originally held the variable —
// swapped only decided which bound side to place the constraint on, not
// whether the stored operator needs reducing.
func boundOp(op CompareOp, swapped bool) CompareOp {
	_ = swapped
	switch op {
	case OpGT:
		return OpLT
	case OpGE:
		return OpLE
	}
	return op
}

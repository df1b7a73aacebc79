package qexpr

import "testing"

// scenario 1 from spec.md §8: (x > 3 AND x <= 10) AND (x >= 5 AND x < 20)
// simplifies to a single tight ContinuousRange.
func TestSimplifyTwoSidedRangeMerge(t *testing.T) {
	left := &And{
		Left:  &ContinuousRange{Name: "x", LeftOp: OpLT, Lower: 3, RightOp: OpUndefined},
		Right: &ContinuousRange{Name: "x", RightOp: OpLE, Upper: 10, LeftOp: OpUndefined},
	}
	right := &And{
		Left:  &ContinuousRange{Name: "x", LeftOp: OpLE, Lower: 5, RightOp: OpUndefined},
		Right: &ContinuousRange{Name: "x", RightOp: OpLT, Upper: 20, LeftOp: OpUndefined},
	}
	got := Simplify(&And{Left: left, Right: right})
	cr, ok := got.(*ContinuousRange)
	if !ok {
		t.Fatalf("expected *ContinuousRange, got %T", got)
	}
	if cr.Lower != 5 || cr.Upper != 10 {
		t.Fatalf("expected [5,10], got [%g,%g]", cr.Lower, cr.Upper)
	}
	if cr.LeftOp != OpLE {
		t.Fatalf("expected left op <=, got %v", cr.LeftOp)
	}
	if cr.RightOp != OpLE {
		t.Fatalf("expected right op <=, got %v", cr.RightOp)
	}
}

// scenario 2: (x > 5 AND x < 3) AND (y = 7) simplifies to empty.
func TestSimplifyEmptyAnd(t *testing.T) {
	left := &And{
		Left:  &ContinuousRange{Name: "x", LeftOp: OpLT, Lower: 5, RightOp: OpUndefined},
		Right: &ContinuousRange{Name: "x", RightOp: OpLT, Upper: 3, LeftOp: OpUndefined},
	}
	right := &ContinuousRange{Name: "y", LeftOp: OpEQ, Lower: 7, RightOp: OpEQ, Upper: 7}
	got := Simplify(&And{Left: left, Right: right})
	cr, ok := got.(*ContinuousRange)
	if !ok {
		t.Fatalf("expected *ContinuousRange, got %T", got)
	}
	if !cr.Empty() {
		t.Fatalf("expected empty range, got %v", cr)
	}
}

func TestContinuousRangeInRange(t *testing.T) {
	cr := &ContinuousRange{Name: "x", LeftOp: OpLE, Lower: 5, RightOp: OpLE, Upper: 5}
	if !cr.InRange(5) {
		t.Fatalf("expected 5 in range for single-point inclusion")
	}
	if cr.Empty() {
		t.Fatalf("single-point <=5<= should not be empty")
	}
	if cr.InRange(6) {
		t.Fatalf("6 should not be in range")
	}
}

// scenario 6: col IN (5, 3, 3, 9, 5, 1) parses to the normalized list
// [1, 3, 5, 9] (the parser sorts and deduplicates); this test checks InRange
// and Empty on that already-normalized list.
func TestDiscreteRangeNormalization(t *testing.T) {
	dr := &DiscreteRange{Name: "col", Values: []float64{1, 3, 5, 9}}
	if !dr.InRange(3) {
		t.Fatalf("expected 3 in range")
	}
	if dr.InRange(4) {
		t.Fatalf("expected 4 not in range")
	}
	if dr.Empty() {
		t.Fatalf("non-empty discrete range reported empty")
	}
}

func TestDiscreteRangeEmpty(t *testing.T) {
	dr := &DiscreteRange{Name: "col"}
	if !dr.Empty() {
		t.Fatalf("zero-value discrete range should be empty")
	}
	if dr.InRange(1) {
		t.Fatalf("empty discrete range must reject all values")
	}
}

func TestSimplifyMultiStringCascade(t *testing.T) {
	ms := &MultiString{Name: "c", Values: []string{"a", "b", "c"}}
	got := Simplify(ms)
	or1, ok := got.(*Or)
	if !ok {
		t.Fatalf("expected top-level *Or, got %T", got)
	}
	if _, ok := or1.Right.(*StringEquality); !ok {
		t.Fatalf("expected rightmost StringEquality, got %T", or1.Right)
	}
}

func TestSimplifyCompRangeToContinuousRange(t *testing.T) {
	// (x + 3) < 10  ->  x < 7
	cr := &CompRange{
		Term1: &Bediener{Op: OpPlus, Left: &Variable{Name: "x"}, Right: &Number{Value: 3}},
		Op12:  OpLT,
		Term2: &Number{Value: 10},
	}
	got := Simplify(cr)
	r, ok := got.(*ContinuousRange)
	if !ok {
		t.Fatalf("expected *ContinuousRange, got %T", got)
	}
	if r.Name != "x" || r.RightOp != OpLT || r.Upper != 7 {
		t.Fatalf("unexpected range: %+v", r)
	}
}

// (x * -2) < 10  ->  x > -5: a negative multiplier must flip the
// comparison direction, not just divide the bound.
func TestSimplifyCompRangeMultiplyNegativeFlipsDirection(t *testing.T) {
	cr := &CompRange{
		Term1: &Bediener{Op: OpMultiply, Left: &Variable{Name: "x"}, Right: &Number{Value: -2}},
		Op12:  OpLT,
		Term2: &Number{Value: 10},
	}
	got := Simplify(cr)
	r, ok := got.(*ContinuousRange)
	if !ok {
		t.Fatalf("expected *ContinuousRange, got %T", got)
	}
	if r.Name != "x" || r.LeftOp != OpLT || r.Lower != -5 || r.RightOp != OpUndefined {
		t.Fatalf("expected x > -5, got %+v", r)
	}
}

// (x * 2) > 10 -> x > 5: a positive multiplier keeps the direction.
func TestSimplifyCompRangeMultiplyPositiveKeepsDirection(t *testing.T) {
	cr := &CompRange{
		Term1: &Bediener{Op: OpMultiply, Left: &Variable{Name: "x"}, Right: &Number{Value: 2}},
		Op12:  OpGT,
		Term2: &Number{Value: 10},
	}
	got := Simplify(cr)
	r, ok := got.(*ContinuousRange)
	if !ok {
		t.Fatalf("expected *ContinuousRange, got %T", got)
	}
	if r.Name != "x" || r.LeftOp != OpLT || r.Lower != 5 || r.RightOp != OpUndefined {
		t.Fatalf("expected x > 5, got %+v", r)
	}
}

// 5 + x < 10 -> x < 5: constant-first Bediener shape.
func TestSimplifyCompRangeConstantFirstPlus(t *testing.T) {
	cr := &CompRange{
		Term1: &Bediener{Op: OpPlus, Left: &Number{Value: 5}, Right: &Variable{Name: "x"}},
		Op12:  OpLT,
		Term2: &Number{Value: 10},
	}
	got := Simplify(cr)
	r, ok := got.(*ContinuousRange)
	if !ok {
		t.Fatalf("expected *ContinuousRange, got %T", got)
	}
	if r.Name != "x" || r.RightOp != OpLT || r.Upper != 5 {
		t.Fatalf("expected x < 5, got %+v", r)
	}
}

// 5 - x < 10 -> x > -5: constant-first minus negates the variable's
// coefficient and so flips the comparison direction.
func TestSimplifyCompRangeConstantFirstMinusFlipsDirection(t *testing.T) {
	cr := &CompRange{
		Term1: &Bediener{Op: OpMinus, Left: &Number{Value: 5}, Right: &Variable{Name: "x"}},
		Op12:  OpLT,
		Term2: &Number{Value: 10},
	}
	got := Simplify(cr)
	r, ok := got.(*ContinuousRange)
	if !ok {
		t.Fatalf("expected *ContinuousRange, got %T", got)
	}
	if r.Name != "x" || r.LeftOp != OpLT || r.Lower != -5 {
		t.Fatalf("expected x > -5, got %+v", r)
	}
}

// 10 < x + 3 -> x > 7: a variable-first Bediener sitting on Term2 instead
// of Term1.
func TestSimplifyCompRangeVariableOnRightSide(t *testing.T) {
	cr := &CompRange{
		Term1: &Number{Value: 10},
		Op12:  OpLT,
		Term2: &Bediener{Op: OpPlus, Left: &Variable{Name: "x"}, Right: &Number{Value: 3}},
	}
	got := Simplify(cr)
	r, ok := got.(*ContinuousRange)
	if !ok {
		t.Fatalf("expected *ContinuousRange, got %T", got)
	}
	if r.Name != "x" || r.LeftOp != OpLT || r.Lower != 7 {
		t.Fatalf("expected x > 7, got %+v", r)
	}
}

func TestReduceConstantFold(t *testing.T) {
	b := &Bediener{Op: OpPlus, Left: &Number{Value: 2}, Right: &Number{Value: 3}}
	got := b.Reduce()
	n, ok := got.(*Number)
	if !ok || n.Value != 5 {
		t.Fatalf("expected constant-folded 5, got %#v", got)
	}
}

func TestReduceCancelsInverseFunctions(t *testing.T) {
	inner := &StdFun1{Fn: FnSin, Arg: &Variable{Name: "x"}}
	outer := &StdFun1{Fn: FnAsin, Arg: inner}
	got := outer.Reduce()
	v, ok := got.(*Variable)
	if !ok || v.Name != "x" {
		t.Fatalf("expected asin(sin(x)) to cancel to x, got %#v", got)
	}
}

func TestSeparateSimple(t *testing.T) {
	simpleTerm := &ContinuousRange{Name: "x", LeftOp: OpLT, Lower: 3}
	joinTerm := &Join{Name1: "a.x", Name2: "b.y"}
	tree := &And{Left: simpleTerm, Right: joinTerm}

	simple, complex, code := SeparateSimple(tree)
	if code != Mixed {
		t.Fatalf("expected Mixed, got %v", code)
	}
	if simple == nil || complex == nil {
		t.Fatalf("expected both non-nil")
	}

	onlySimple, onlyComplex, code2 := SeparateSimple(simpleTerm)
	if code2 != OnlySimple || onlySimple == nil || onlyComplex != nil {
		t.Fatalf("expected OnlySimple, got code=%v simple=%v complex=%v", code2, onlySimple, onlyComplex)
	}
}

func TestExtractJoins(t *testing.T) {
	j1 := &Join{Name1: "a.x", Name2: "b.y"}
	j2 := &Join{Name1: "b.z", Name2: "c.w"}
	tree := &And{Left: j1, Right: &And{Left: j2, Right: &ContinuousRange{Name: "q", LeftOp: OpLT, Lower: 1}}}
	joins := ExtractJoins(tree)
	if len(joins) != 2 {
		t.Fatalf("expected 2 joins, got %d", len(joins))
	}
}

func TestFindRange(t *testing.T) {
	cr := &ContinuousRange{Name: "x", LeftOp: OpLT, Lower: 3}
	tree := &And{Left: cr, Right: &ContinuousRange{Name: "y", LeftOp: OpLT, Lower: 1}}
	r, ok := FindRange(tree, "x")
	if !ok || r.ColName() != "x" {
		t.Fatalf("expected to find range on x")
	}
	_, ok = FindRange(tree, "z")
	if ok {
		t.Fatalf("expected no range found for z")
	}
}

func TestReorderTerminalsFirst(t *testing.T) {
	join := &Join{Name1: "a.x", Name2: "b.y"}
	terminal := &ContinuousRange{Name: "x", LeftOp: OpLT, Lower: 3}
	tree := &And{Left: join, Right: terminal}
	got, _ := Reorder(tree, func(e Expr) float64 { return 1 })
	and, ok := got.(*And)
	if !ok {
		t.Fatalf("expected *And, got %T", got)
	}
	if !and.Left.IsTerminal() {
		t.Fatalf("expected terminal node first, got %T", and.Left)
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	tree := &And{
		Left:  &ContinuousRange{Name: "x", LeftOp: OpLT, Lower: 3},
		Right: &ContinuousRange{Name: "x", RightOp: OpLE, Upper: 10},
	}
	once := Simplify(tree)
	twice := Simplify(once)
	if once.String() != twice.String() {
		t.Fatalf("simplify not idempotent: %s vs %s", once, twice)
	}
}

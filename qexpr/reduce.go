package qexpr

import "math"

// Eval evaluates a Bediener node if both operands are constant.
func (b *Bediener) Eval() (float64, bool) {
	l, ok := b.Left.Eval()
	if !ok {
		return 0, false
	}
	if b.Op == OpNegate {
		return -l, true
	}
	r, ok := b.Right.Eval()
	if !ok {
		return 0, false
	}
	switch b.Op {
	case OpBitOr:
		return float64(int64(l) | int64(r)), true
	case OpBitAnd:
		return float64(int64(l) & int64(r)), true
	case OpPlus:
		return l + r, true
	case OpMinus:
		return l - r, true
	case OpMultiply:
		return l * r, true
	case OpDivide:
		return l / r, true
	case OpRemainder:
		return math.Mod(l, r), true
	case OpPower:
		return math.Pow(l, r), true
	default:
		return 0, false
	}
}

func (f *StdFun1) Eval() (float64, bool) {
	a, ok := f.Arg.Eval()
	if !ok {
		return 0, false
	}
	switch f.Fn {
	case FnAcos:
		return math.Acos(a), true
	case FnAsin:
		return math.Asin(a), true
	case FnAtan:
		return math.Atan(a), true
	case FnCeil:
		return math.Ceil(a), true
	case FnCos:
		return math.Cos(a), true
	case FnCosh:
		return math.Cosh(a), true
	case FnExp:
		return math.Exp(a), true
	case FnFabs:
		return math.Abs(a), true
	case FnFloor:
		return math.Floor(a), true
	case FnLog10:
		return math.Log10(a), true
	case FnLog:
		return math.Log(a), true
	case FnSin:
		return math.Sin(a), true
	case FnSinh:
		return math.Sinh(a), true
	case FnSqrt:
		return math.Sqrt(a), true
	case FnTan:
		return math.Tan(a), true
	case FnTanh:
		return math.Tanh(a), true
	default:
		return 0, false
	}
}

func (f *StdFun2) Eval() (float64, bool) {
	a, ok := f.Arg1.Eval()
	if !ok {
		return 0, false
	}
	b, ok := f.Arg2.Eval()
	if !ok {
		return 0, false
	}
	switch f.Fn {
	case FnAtan2:
		return math.Atan2(a, b), true
	case FnFmod:
		return math.Mod(a, b), true
	case FnPow:
		return math.Pow(a, b), true
	default:
		return 0, false
	}
}

// inverseFn1 pairs a one-argument function with the one that cancels it,
// e.g. asin(sin(x)) reduces to x. Only the pairs the original qExpr.cpp
// cancels are listed (spec.md §4.A "cancels inverse unary functions").
var inverseFn1 = map[StdFun1Kind]StdFun1Kind{
	FnAsin: FnSin, FnSin: FnAsin,
	FnAcos: FnCos, FnCos: FnAcos,
	FnAtan: FnTan, FnTan: FnAtan,
	FnExp: FnLog, FnLog: FnExp,
}

// Reduce constant-folds a Bediener subtree and cancels inverse unary
// function compositions, mirroring ibis::compRange::bediener::reduce.
func (b *Bediener) Reduce() MathTerm {
	left := b.Left.Reduce()
	var right MathTerm
	if b.Right != nil {
		right = b.Right.Reduce()
	}
	if v, ok := left.Eval(); ok {
		if b.Op == OpNegate {
			return &Number{Value: -v}
		}
		if rv, ok2 := right.Eval(); ok2 {
			nb := &Bediener{Op: b.Op, Left: &Number{Value: v}, Right: &Number{Value: rv}}
			if folded, ok3 := nb.Eval(); ok3 {
				return &Number{Value: folded}
			}
		}
	}
	return linearizeDistribute(&Bediener{Op: b.Op, Left: left, Right: right})
}

// linearizeDistribute implements the "distributes constants across linear
// operator chains" rule: k + (a + x) -> (k+a) + x, and similarly for minus.
func linearizeDistribute(b *Bediener) MathTerm {
	if b.Op != OpPlus && b.Op != OpMinus {
		return b
	}
	if kNum, ok := b.Left.(*Number); ok {
		if inner, ok := b.Right.(*Bediener); ok && (inner.Op == OpPlus || inner.Op == OpMinus) {
			if aNum, ok := inner.Left.(*Number); ok {
				combined := combine(b.Op, kNum.Value, aNum.Value)
				op := inner.Op
				if b.Op == OpMinus {
					// k - (a + x) = (k-a) - x and k - (a - x) = (k-a) + x.
					if op == OpPlus {
						op = OpMinus
					} else {
						op = OpPlus
					}
				}
				return &Bediener{Op: op, Left: &Number{Value: combined}, Right: inner.Right}
			}
		}
	}
	return b
}

func combine(op ArithOp, k, a float64) float64 {
	if op == OpPlus {
		return k + a
	}
	return k - a
}

// Reduce cancels f(g(x)) when f and g are inverse pair functions, otherwise
// constant-folds.
func (f *StdFun1) Reduce() MathTerm {
	arg := f.Arg.Reduce()
	if inner, ok := arg.(*StdFun1); ok {
		if pair, has := inverseFn1[f.Fn]; has && pair == inner.Fn {
			return inner.Arg
		}
	}
	nf := &StdFun1{Fn: f.Fn, Arg: arg}
	if v, ok := nf.Eval(); ok {
		return &Number{Value: v}
	}
	return nf
}

func (f *StdFun2) Reduce() MathTerm {
	a1 := f.Arg1.Reduce()
	a2 := f.Arg2.Reduce()
	nf := &StdFun2{Fn: f.Fn, Arg1: a1, Arg2: a2}
	if v, ok := nf.Eval(); ok {
		return &Number{Value: v}
	}
	return nf
}

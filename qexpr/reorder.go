package qexpr

import "sort"

// CostFunc assigns a relative evaluation weight to a node; Reorder places
// cheaper/terminal nodes earlier in a commutative chain's in-order
// evaluation sequence.
type CostFunc func(Expr) float64

// Reorder rearranges commutative And/Or/Xor sequences so that evaluating
// the tree in-order encounters terminal and cheap predicates first. It
// returns the rewritten tree and the aggregate cost (ibis::qExpr::reorder
// from qExpr.cpp). Terminal nodes are placed before non-terminal ones;
// remaining order is by descending weight from cost.
func Reorder(e Expr, cost CostFunc) (Expr, float64) {
	switch n := e.(type) {
	case *And:
		return reorderChain(n, cost, func(l, r Expr) Expr { return &And{Left: l, Right: r} })
	case *Or:
		return reorderChain(n, cost, func(l, r Expr) Expr { return &Or{Left: l, Right: r} })
	case *Xor:
		return reorderChain(n, cost, func(l, r Expr) Expr { return &Xor{Left: l, Right: r} })
	case *Minus:
		left, cl := Reorder(n.Left, cost)
		right, cr := Reorder(n.Right, cost)
		return &Minus{Left: left, Right: right}, cl + cr
	case *Not:
		operand, c := Reorder(n.Operand, cost)
		return &Not{Operand: operand}, c
	default:
		return e, cost(e)
	}
}

type weighted struct {
	expr   Expr
	weight float64
}

// flattenChain collects the operands of a left/right-nested chain of the
// same connective type, e.g. ((a AND b) AND c) AND d -> [a, b, c, d].
func flattenChain(e Expr, same func(Expr) (Expr, Expr, bool)) []Expr {
	left, right, ok := same(e)
	if !ok {
		return []Expr{e}
	}
	return append(flattenChain(left, same), flattenChain(right, same)...)
}

func reorderChain(e Expr, cost CostFunc, rebuild func(l, r Expr) Expr) (Expr, float64) {
	var same func(Expr) (Expr, Expr, bool)
	switch e.(type) {
	case *And:
		same = func(x Expr) (Expr, Expr, bool) {
			n, ok := x.(*And)
			if !ok {
				return nil, nil, false
			}
			return n.Left, n.Right, true
		}
	case *Or:
		same = func(x Expr) (Expr, Expr, bool) {
			n, ok := x.(*Or)
			if !ok {
				return nil, nil, false
			}
			return n.Left, n.Right, true
		}
	case *Xor:
		same = func(x Expr) (Expr, Expr, bool) {
			n, ok := x.(*Xor)
			if !ok {
				return nil, nil, false
			}
			return n.Left, n.Right, true
		}
	}

	members := flattenChain(e, same)
	items := make([]weighted, len(members))
	var total float64
	for i, m := range members {
		reordered, c := Reorder(m, cost)
		items[i] = weighted{expr: reordered, weight: c}
		total += c
	}

	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := items[i].expr.IsTerminal(), items[j].expr.IsTerminal()
		if ti != tj {
			return ti // terminals first
		}
		return items[i].weight > items[j].weight // descending weight
	})

	result := items[0].expr
	for _, it := range items[1:] {
		result = rebuild(result, it.expr)
	}
	return result, total
}

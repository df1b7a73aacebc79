package qexpr

// ExtractJoins collects all Join nodes reachable along top-level And
// connectives (ibis::qExpr::getJoins).
func ExtractJoins(e Expr) []*Join {
	var joins []*Join
	var walk func(Expr)
	walk = func(n Expr) {
		switch v := n.(type) {
		case *Join:
			joins = append(joins, v)
		case *And:
			walk(v.Left)
			walk(v.Right)
		}
	}
	walk(e)
	return joins
}

// FindRange returns the first range predicate on the named variable
// encountered along an And chain.
func FindRange(e Expr, name string) (Range, bool) {
	switch n := e.(type) {
	case *ContinuousRange:
		if n.Name == name {
			return n, true
		}
	case *DiscreteRange:
		if n.Name == name {
			return n, true
		}
	case *And:
		if r, ok := FindRange(n.Left, name); ok {
			return r, true
		}
		return FindRange(n.Right, name)
	}
	return nil, false
}

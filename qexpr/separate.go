package qexpr

// SimpleCode distinguishes the three-valued outcome of SeparateSimple.
type SimpleCode int

const (
	// Mixed indicates both Simple and Complex are non-nil.
	Mixed SimpleCode = 0
	// OnlySimple indicates every term in the chain was simple.
	OnlySimple SimpleCode = 1
	// OnlyComplex indicates no term in the chain was simple.
	OnlyComplex SimpleCode = -1
)

// IsSimple reports whether e is a "simple" term per spec.md §4.A's
// separate_simple: a range or string predicate, or a conjunction/
// disjunction purely of such terms.
func IsSimple(e Expr) bool {
	switch n := e.(type) {
	case *ContinuousRange, *DiscreteRange, *MultiString, *StringEquality, *Like:
		return true
	case *And:
		return IsSimple(n.Left) && IsSimple(n.Right)
	case *Or:
		return IsSimple(n.Left) && IsSimple(n.Right)
	default:
		return false
	}
}

// SeparateSimple splits an And chain into simple (range/string) and complex
// terms. Returns (simple, complex, code) where code is OnlySimple when
// complex is nil, OnlyComplex when simple is nil, Mixed otherwise — the
// three-valued result spec.md §4.A describes.
func SeparateSimple(e Expr) (simple, complex Expr, code SimpleCode) {
	terms := flattenAnd(e)
	var simples, complexes []Expr
	for _, t := range terms {
		if IsSimple(t) {
			simples = append(simples, t)
		} else {
			complexes = append(complexes, t)
		}
	}
	simple = andAll(simples)
	complex = andAll(complexes)
	switch {
	case complex == nil:
		return simple, nil, OnlySimple
	case simple == nil:
		return nil, complex, OnlyComplex
	default:
		return simple, complex, Mixed
	}
}

func flattenAnd(e Expr) []Expr {
	n, ok := e.(*And)
	if !ok {
		return []Expr{e}
	}
	return append(flattenAnd(n.Left), flattenAnd(n.Right)...)
}

func andAll(terms []Expr) Expr {
	if len(terms) == 0 {
		return nil
	}
	result := terms[0]
	for _, t := range terms[1:] {
		result = &And{Left: result, Right: t}
	}
	return result
}

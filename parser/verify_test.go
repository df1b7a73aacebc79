package parser

import (
	"testing"

	"github.com/gingi/ibis/column"
	"github.com/gingi/ibis/qexpr"
)

// fakeSchema is a minimal Schema/BoundsSchema for verify/amplify tests,
// mirroring the column/bounds lookups partition.Partition provides.
type fakeSchema struct {
	types  map[string]column.ColumnType
	bounds map[string][2]float64
}

func (f *fakeSchema) ColumnType(name string) (column.ColumnType, bool) {
	t, ok := f.types[name]
	return t, ok
}

func (f *fakeSchema) ColumnBounds(name string) (float64, float64, bool) {
	b, ok := f.bounds[name]
	if !ok {
		return 0, 0, false
	}
	return b[0], b[1], true
}

func TestVerifyAcceptsKnownColumn(t *testing.T) {
	schema := &fakeSchema{types: map[string]column.ColumnType{"age": column.TypeInt}}
	expr, err := ParseWhere("age > 5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, unresolved := Verify(expr, schema, nil)
	if unresolved != 0 {
		t.Fatalf("expected 0 unresolved, got %d", unresolved)
	}
	cr, ok := got.(*qexpr.ContinuousRange)
	if !ok || cr.Name != "age" {
		t.Fatalf("expected ContinuousRange(age), got %v", got)
	}
}

func TestVerifyCountsUnresolvedColumn(t *testing.T) {
	schema := &fakeSchema{types: map[string]column.ColumnType{"age": column.TypeInt}}
	expr, err := ParseWhere("height > 5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, unresolved := Verify(expr, schema, nil)
	if unresolved != 1 {
		t.Fatalf("expected 1 unresolved, got %d", unresolved)
	}
}

func TestVerifyRewritesAliasToColumn(t *testing.T) {
	schema := &fakeSchema{types: map[string]column.ColumnType{"age": column.TypeInt}}
	sel, err := ParseSelect("age AS yrs")
	if err != nil {
		t.Fatalf("parse select: %v", err)
	}
	expr, err := ParseWhere("yrs > 5")
	if err != nil {
		t.Fatalf("parse where: %v", err)
	}
	got, unresolved := Verify(expr, schema, sel)
	if unresolved != 0 {
		t.Fatalf("expected 0 unresolved, got %d", unresolved)
	}
	cr, ok := got.(*qexpr.ContinuousRange)
	if !ok || cr.Name != "age" {
		t.Fatalf("expected alias yrs rewritten to column age, got %v", got)
	}
}

func TestVerifyClampsUnsignedNegativeBound(t *testing.T) {
	schema := &fakeSchema{types: map[string]column.ColumnType{"n": column.TypeUInt}}
	expr, err := ParseWhere("n >= -1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, _ := Verify(expr, schema, nil)
	cr, ok := got.(*qexpr.ContinuousRange)
	if !ok {
		t.Fatalf("expected ContinuousRange, got %v", got)
	}
	if cr.Lower != 0 {
		t.Fatalf("expected lower bound clamped to 0, got %g", cr.Lower)
	}
}

func TestVerifyStringEqualityRewrite(t *testing.T) {
	schema := &fakeSchema{types: map[string]column.ColumnType{
		"name": column.TypeText,
		"age":  column.TypeInt,
	}}
	expr, err := ParseWhere("name = bob")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, unresolved := Verify(expr, schema, nil)
	if unresolved != 0 {
		t.Fatalf("expected 0 unresolved, got %d", unresolved)
	}
	se, ok := got.(*qexpr.StringEquality)
	if !ok || se.Name != "name" || se.Value != "bob" {
		t.Fatalf("expected StringEquality(name, bob), got %v", got)
	}
}

func TestAmplifyAddsConservativeRange(t *testing.T) {
	schema := &fakeSchema{
		types:  map[string]column.ColumnType{"a.x": column.TypeInt, "b.y": column.TypeInt},
		bounds: map[string][2]float64{"a.x": {0, 10}},
	}
	expr := &qexpr.Join{Name1: "a.x", Name2: "b.y"}
	out := Amplify(expr, schema)
	and, ok := out.(*qexpr.And)
	if !ok {
		t.Fatalf("expected And wrapping new range, got %T", out)
	}
	cr, ok := and.Right.(*qexpr.ContinuousRange)
	if !ok || cr.Name != "b.y" || cr.Lower != 0 || cr.Upper != 10 {
		t.Fatalf("expected amplified range b.y in [0,10], got %v", and.Right)
	}
}

func TestAmplifyNoOpWithoutBoundsSchema(t *testing.T) {
	schema := boundslessSchema{types: map[string]column.ColumnType{"a.x": column.TypeInt}}
	expr := &qexpr.Join{Name1: "a.x", Name2: "b.y"}
	out := Amplify(expr, schema)
	if out != expr {
		t.Fatalf("expected no-op when schema lacks ColumnBounds, got %v", out)
	}
}

type boundslessSchema struct {
	types map[string]column.ColumnType
}

func (b boundslessSchema) ColumnType(name string) (column.ColumnType, bool) {
	t, ok := b.types[name]
	return t, ok
}

func TestParseWhereGreaterThanProducesUsableLowerBound(t *testing.T) {
	expr, err := ParseWhere("x > 3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cr, ok := expr.(*qexpr.ContinuousRange)
	if !ok {
		t.Fatalf("expected *qexpr.ContinuousRange, got %T", expr)
	}
	if cr.InRange(3) {
		t.Fatalf("3 should fail a strict > 3 bound")
	}
	if !cr.InRange(4) {
		t.Fatalf("4 should satisfy > 3")
	}
	if cr.InRange(2) {
		t.Fatalf("2 should fail > 3")
	}
}

func TestParseWhereGreaterOrEqualProducesUsableLowerBound(t *testing.T) {
	expr, err := ParseWhere("x >= 3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cr, ok := expr.(*qexpr.ContinuousRange)
	if !ok {
		t.Fatalf("expected *qexpr.ContinuousRange, got %T", expr)
	}
	if !cr.InRange(3) {
		t.Fatalf("3 should satisfy >= 3")
	}
	if cr.InRange(2) {
		t.Fatalf("2 should fail >= 3")
	}
}

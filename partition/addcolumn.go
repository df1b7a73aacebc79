package partition

import (
	"context"
	"fmt"
	"math"

	"github.com/gingi/ibis/bitvector"
	"github.com/gingi/ibis/column"
	"github.com/gingi/ibis/qexpr"
)

// AddColumn evaluates expr once per row, writes the result under newName
// cast to newType (substituting column.NullSentinel for rows mask excludes,
// per spec.md §4.D "add_column"), and registers the new column. Returns the
// number of rows written (the partition's full row count, mirroring
// parti.cpp's addColumn: it always writes mask.size() values, sentinel-
// filled outside the mask, not just mask.Cnt()).
//
// Grounded on _examples/original_source/src/parti.cpp's addColumn:
// evaluate the arithmetic term under the given mask, cast-and-write with a
// type-specific NULL sentinel, then register the column under the
// partition's mutex.
func (p *Partition) AddColumn(ctx context.Context, expr qexpr.MathTerm, mask bitvector.BitVector, newName string, newType column.ColumnType) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-ctx.Done():
		return -1, ctx.Err()
	default:
	}

	p.rw.RLock()
	n := p.nRows
	dir := p.activeDir
	values, err := p.evalMathTermLocked(expr)
	p.rw.RUnlock()
	if err != nil {
		return -1, fmt.Errorf("partition %s: add_column %s: %w", p.Name, newName, err)
	}

	if mask == nil {
		mask = bitvector.NewAllOnes(n)
	}
	if mask.Size() != n {
		return -1, fmt.Errorf("partition %s: add_column %s: mask size %d != %d rows", p.Name, newName, mask.Size(), n)
	}

	col, err := column.NewByType(newType, newName, fmt.Sprintf("Select %s From %s", expr, p.Name), dir)
	if err != nil {
		return -1, fmt.Errorf("partition %s: add_column %s: %w", p.Name, newName, err)
	}
	written, err := column.WriteComputed(col, n, mask, values)
	if err != nil {
		return -1, fmt.Errorf("partition %s: add_column %s: %w", p.Name, newName, err)
	}
	if written != int64(n) {
		return -1, fmt.Errorf("partition %s: add_column %s: wrote %d values, expected %d", p.Name, newName, written, n)
	}

	p.AddColumnDef(col)
	if err := column.WriteSchema(dir, p.orderedColumns()); err != nil {
		return -1, fmt.Errorf("partition %s: add_column %s: write schema: %w", p.Name, newName, err)
	}
	return written, nil
}

// evalMathTermLocked evaluates t once per partition row, reading each
// referenced column's values (caller holds at least p.rw.RLock()). Unlike
// MathTerm.Eval() (constant-fold only, fails the moment a Variable
// appears), this is the per-row evaluator spec.md §4.D "add_column" step 1
// requires: every Variable resolves to that column's row values, and
// arithmetic/standard-function nodes combine elementwise.
func (p *Partition) evalMathTermLocked(t qexpr.MathTerm) ([]float64, error) {
	n := int(p.nRows)
	switch e := t.(type) {
	case *qexpr.Number:
		out := make([]float64, n)
		for i := range out {
			out[i] = e.Value
		}
		return out, nil
	case *qexpr.Variable:
		col, ok := p.columns[e.Name]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", e.Name)
		}
		values, err := col.GetValues(nil)
		if err != nil {
			return nil, err
		}
		return toFloatSlice(values)
	case *qexpr.Bediener:
		left, err := p.evalMathTermLocked(e.Left)
		if err != nil {
			return nil, err
		}
		if e.Op == qexpr.OpNegate {
			out := make([]float64, len(left))
			for i, v := range left {
				out[i] = -v
			}
			return out, nil
		}
		right, err := p.evalMathTermLocked(e.Right)
		if err != nil {
			return nil, err
		}
		return combineBediener(e.Op, left, right)
	case *qexpr.StdFun1:
		arg, err := p.evalMathTermLocked(e.Arg)
		if err != nil {
			return nil, err
		}
		return applyStdFun1(e.Fn, arg)
	case *qexpr.StdFun2:
		arg1, err := p.evalMathTermLocked(e.Arg1)
		if err != nil {
			return nil, err
		}
		arg2, err := p.evalMathTermLocked(e.Arg2)
		if err != nil {
			return nil, err
		}
		return applyStdFun2(e.Fn, arg1, arg2)
	default:
		return nil, fmt.Errorf("add_column: unsupported math term %T", t)
	}
}

// combineBediener applies op elementwise to same-length left/right row
// vectors, mirroring qexpr.Bediener.Eval's operator switch vectorized over
// every row instead of a single constant pair.
func combineBediener(op qexpr.ArithOp, left, right []float64) ([]float64, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("add_column: operand length mismatch %d != %d", len(left), len(right))
	}
	out := make([]float64, len(left))
	for i := range out {
		l, r := left[i], right[i]
		switch op {
		case qexpr.OpBitOr:
			out[i] = float64(int64(l) | int64(r))
		case qexpr.OpBitAnd:
			out[i] = float64(int64(l) & int64(r))
		case qexpr.OpPlus:
			out[i] = l + r
		case qexpr.OpMinus:
			out[i] = l - r
		case qexpr.OpMultiply:
			out[i] = l * r
		case qexpr.OpDivide:
			out[i] = l / r
		case qexpr.OpRemainder:
			out[i] = math.Mod(l, r)
		case qexpr.OpPower:
			out[i] = math.Pow(l, r)
		default:
			return nil, fmt.Errorf("add_column: unsupported operator %v", op)
		}
	}
	return out, nil
}

func applyStdFun1(fn qexpr.StdFun1Kind, arg []float64) ([]float64, error) {
	out := make([]float64, len(arg))
	for i, a := range arg {
		switch fn {
		case qexpr.FnAcos:
			out[i] = math.Acos(a)
		case qexpr.FnAsin:
			out[i] = math.Asin(a)
		case qexpr.FnAtan:
			out[i] = math.Atan(a)
		case qexpr.FnCeil:
			out[i] = math.Ceil(a)
		case qexpr.FnCos:
			out[i] = math.Cos(a)
		case qexpr.FnCosh:
			out[i] = math.Cosh(a)
		case qexpr.FnExp:
			out[i] = math.Exp(a)
		case qexpr.FnFabs:
			out[i] = math.Abs(a)
		case qexpr.FnFloor:
			out[i] = math.Floor(a)
		case qexpr.FnLog10:
			out[i] = math.Log10(a)
		case qexpr.FnLog:
			out[i] = math.Log(a)
		case qexpr.FnSin:
			out[i] = math.Sin(a)
		case qexpr.FnSinh:
			out[i] = math.Sinh(a)
		case qexpr.FnSqrt:
			out[i] = math.Sqrt(a)
		case qexpr.FnTan:
			out[i] = math.Tan(a)
		case qexpr.FnTanh:
			out[i] = math.Tanh(a)
		default:
			return nil, fmt.Errorf("add_column: unsupported function %v", fn)
		}
	}
	return out, nil
}

func applyStdFun2(fn qexpr.StdFun2Kind, arg1, arg2 []float64) ([]float64, error) {
	if len(arg1) != len(arg2) {
		return nil, fmt.Errorf("add_column: operand length mismatch %d != %d", len(arg1), len(arg2))
	}
	out := make([]float64, len(arg1))
	for i := range out {
		a, b := arg1[i], arg2[i]
		switch fn {
		case qexpr.FnAtan2:
			out[i] = math.Atan2(a, b)
		case qexpr.FnFmod:
			out[i] = math.Mod(a, b)
		case qexpr.FnPow:
			out[i] = math.Pow(a, b)
		default:
			return nil, fmt.Errorf("add_column: unsupported function %v", fn)
		}
	}
	return out, nil
}

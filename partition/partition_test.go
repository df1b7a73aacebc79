package partition

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gingi/ibis/bitvector"
	"github.com/gingi/ibis/column"
	"github.com/gingi/ibis/filemanager"
	"github.com/gingi/ibis/logsink"
	"github.com/gingi/ibis/qexpr"
	"github.com/gingi/ibis/ridset"
)

// writeInt32Data writes values as raw little-endian int32 elements to
// dir/name.
func writeInt32Data(t *testing.T, dir, name string, values []int32) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, values); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// writeFixtureRids writes n sequential rids (run 0, event 0..n-1) to dir.
func writeFixtureRids(t *testing.T, dir string, n int) {
	t.Helper()
	rids := make([]ridset.Rid, n)
	for i := range rids {
		rids[i] = ridset.Rid{Run: 0, Event: uint32(i)}
	}
	rs := ridset.NewRidSetFromSlice(rids)
	f, err := os.Create(ridsPath(dir))
	if err != nil {
		t.Fatalf("create rids: %v", err)
	}
	defer f.Close()
	if err := rs.Write(f); err != nil {
		t.Fatalf("write rids: %v", err)
	}
}

// writeFixturePartTxt writes a -part.txt declaring nRows rows.
func writeFixturePartTxt(t *testing.T, dir, name string, nRows uint32) {
	t.Helper()
	if err := writeMeta(dir, &meta{name: name, description: "", nRows: nRows}, ""); err != nil {
		t.Fatalf("write part.txt: %v", err)
	}
}

// newInt32SourceDir builds a source directory usable as an Append/Commit
// argument: a single int32 column whose data file holds len(data) values
// (the cumulative dataset an append reads its [nOld, nOld+nNew) tail from),
// a -part.txt declaring nNew rows (the increment the partition doesn't
// already have), and nNew rids.
func newInt32SourceDir(t *testing.T, colName string, data []int32, nNew uint32) string {
	t.Helper()
	dir := t.TempDir()
	writeInt32Data(t, dir, colName, data)
	col := column.NewFixedWidth[int32](colName, "", column.TypeInt, dir)
	if err := column.WriteSchema(dir, []column.Column{col}); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	writeFixturePartTxt(t, dir, "src", nNew)
	writeFixtureRids(t, dir, int(nNew))
	return dir
}

func newTestPartition(name, activeDir, backupDir string) *Partition {
	var fm filemanager.FileManager
	return New(name, "", activeDir, backupDir, fm, logsink.NewNopLogger())
}

func readInt32Values(t *testing.T, dir, name string) []int32 {
	t.Helper()
	col := column.NewFixedWidth[int32](name, "", column.TypeInt, dir)
	col.SetDir(dir)
	values, err := col.GetValues(nil)
	if err != nil {
		t.Fatalf("get values: %v", err)
	}
	out, ok := values.([]int32)
	if !ok {
		t.Fatalf("expected []int32, got %T", values)
	}
	return out
}

// TestPartitionAppendCommit exercises spec.md §8 scenario 3's first half: an
// initial load followed by Commit resyncing active and backup byte-for-byte.
func TestPartitionAppendCommit(t *testing.T) {
	activeDir, backupDir := t.TempDir(), t.TempDir()
	p := newTestPartition("p", activeDir, backupDir)

	initial := make([]int32, 100)
	for i := range initial {
		initial[i] = int32(i)
	}
	src := newInt32SourceDir(t, "a", initial, 100)

	ctx := context.Background()
	n, err := p.Append(ctx, src)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if n != 100 {
		t.Fatalf("expected 100 rows appended, got %d", n)
	}
	if got := p.NRows(); got != 100 {
		t.Fatalf("expected n_rows 100, got %d", got)
	}
	if p.State() != Transition {
		t.Fatalf("expected state Transition after append, got %s", p.State())
	}

	if err := p.Commit(ctx, src); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if p.State() != Stable {
		t.Fatalf("expected state Stable after commit, got %s", p.State())
	}
	equal, err := dirsEqual(p.ActiveDir(), p.backupDir)
	if err != nil {
		t.Fatalf("dirsEqual: %v", err)
	}
	if !equal {
		t.Fatalf("expected active and backup dirs byte-identical after commit")
	}

	got := readInt32Values(t, p.ActiveDir(), "a")
	if len(got) != 100 {
		t.Fatalf("expected 100 values, got %d", len(got))
	}
	for i, v := range got {
		if v != int32(i) {
			t.Fatalf("value %d: expected %d, got %d", i, i, v)
		}
	}
}

// TestPartitionAppendRollback covers spec.md §8 scenario 3: start at
// n_rows=100, append 10 more (n_rows=110), then roll back to the pre-append
// state with active and backup byte-identical again.
func TestPartitionAppendRollback(t *testing.T) {
	activeDir, backupDir := t.TempDir(), t.TempDir()
	p := newTestPartition("p", activeDir, backupDir)
	ctx := context.Background()

	initial := make([]int32, 100)
	for i := range initial {
		initial[i] = int32(i)
	}
	src1 := newInt32SourceDir(t, "a", initial, 100)
	if _, err := p.Append(ctx, src1); err != nil {
		t.Fatalf("initial append: %v", err)
	}
	if err := p.Commit(ctx, src1); err != nil {
		t.Fatalf("initial commit: %v", err)
	}
	if p.NRows() != 100 || p.State() != Stable {
		t.Fatalf("expected stable partition at n_rows=100, got n_rows=%d state=%s", p.NRows(), p.State())
	}

	cumulative := make([]int32, 110)
	copy(cumulative, initial)
	for i := 100; i < 110; i++ {
		cumulative[i] = int32(i)
	}
	src2 := newInt32SourceDir(t, "a", cumulative, 10)

	if _, err := p.Append(ctx, src2); err != nil {
		t.Fatalf("second append: %v", err)
	}
	if got := p.NRows(); got != 110 {
		t.Fatalf("expected n_rows 110 after append, got %d", got)
	}
	if p.State() != Transition {
		t.Fatalf("expected state Transition after second append, got %s", p.State())
	}

	if err := p.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if got := p.NRows(); got != 100 {
		t.Fatalf("expected rollback to restore n_rows 100, got %d", got)
	}
	if p.State() != Stable {
		t.Fatalf("expected state Stable after rollback, got %s", p.State())
	}

	equal, err := dirsEqual(p.ActiveDir(), p.backupDir)
	if err != nil {
		t.Fatalf("dirsEqual: %v", err)
	}
	if !equal {
		t.Fatalf("expected active and backup dirs byte-identical after rollback")
	}

	got := readInt32Values(t, p.ActiveDir(), "a")
	if len(got) != 100 {
		t.Fatalf("expected 100 values restored, got %d", len(got))
	}
	for i, v := range got {
		if v != int32(i) {
			t.Fatalf("value %d: expected %d, got %d", i, i, v)
		}
	}
}

// TestPartitionReorderTwoKeys covers spec.md §8 scenario 5: sorting by
// x ascending, then y descending within equal-x groups, on
// x=[3,1,2,1,3], y=[10,30,20,40,50] produces the permutation [3,1,2,4,0].
func TestPartitionReorderTwoKeys(t *testing.T) {
	dir := t.TempDir()
	p := newTestPartition("p", dir, dir)
	ctx := context.Background()

	srcDir := t.TempDir()
	x := []int32{3, 1, 2, 1, 3}
	y := []int32{10, 30, 20, 40, 50}
	writeInt32Data(t, srcDir, "x", x)
	writeInt32Data(t, srcDir, "y", y)
	xCol := column.NewFixedWidth[int32]("x", "", column.TypeInt, srcDir)
	yCol := column.NewFixedWidth[int32]("y", "", column.TypeInt, srcDir)
	if err := column.WriteSchema(srcDir, []column.Column{xCol, yCol}); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	writeFixturePartTxt(t, srcDir, "src", 5)
	writeFixtureRids(t, srcDir, 5)

	if _, err := p.Append(ctx, srcDir); err != nil {
		t.Fatalf("append: %v", err)
	}
	if p.NRows() != 5 {
		t.Fatalf("expected n_rows 5, got %d", p.NRows())
	}

	clock := WithReorderClock(ctx, time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC))
	if err := p.Reorder(clock, []SortKey{{Column: "x"}, {Column: "y", Descending: true}}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	wantX := []int32{1, 1, 2, 3, 3}
	wantY := []int32{40, 30, 20, 50, 10}
	gotX := readInt32Values(t, p.ActiveDir(), "x")
	gotY := readInt32Values(t, p.ActiveDir(), "y")
	for i := range wantX {
		if gotX[i] != wantX[i] {
			t.Fatalf("x[%d]: expected %d, got %d", i, wantX[i], gotX[i])
		}
		if gotY[i] != wantY[i] {
			t.Fatalf("y[%d]: expected %d, got %d", i, wantY[i], gotY[i])
		}
	}

	xc, ok := p.Column("x")
	if !ok || !xc.Sorted() {
		t.Fatalf("expected primary sort key x marked sorted")
	}
	yc, ok := p.Column("y")
	if !ok || yc.Sorted() {
		t.Fatalf("expected secondary sort key y not marked sorted")
	}
}

// TestPartitionDeactivateReactivateRoundTrip checks that reactivating every
// row Deactivate cleared restores the all-active mask and removes -part.msk
// (spec.md §4.D "Active-row mask": an all-ones mask is represented by the
// file's absence).
func TestPartitionDeactivateReactivateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := newTestPartition("p", dir, dir)
	ctx := context.Background()

	srcDir := newInt32SourceDir(t, "a", []int32{10, 20, 30, 40, 50}, 5)
	if _, err := p.Append(ctx, srcDir); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := p.DeactivateRows([]uint32{1, 3}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if got := p.Amask().Cnt(); got != 3 {
		t.Fatalf("expected 3 active rows after deactivate, got %d", got)
	}
	if _, err := os.Stat(maskPath(p.ActiveDir())); err != nil {
		t.Fatalf("expected -part.msk to exist after partial deactivate: %v", err)
	}

	if err := p.ReactivateRows([]uint32{1, 3}); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if got := p.Amask().Cnt(); got != 5 {
		t.Fatalf("expected all 5 rows active after reactivate, got %d", got)
	}
	if _, err := os.Stat(maskPath(p.ActiveDir())); !os.IsNotExist(err) {
		t.Fatalf("expected -part.msk removed once all rows are active again, err=%v", err)
	}
}

// TestPartitionAddColumn covers spec.md §4.D "add_column": a new column
// computed from (a + b) over every active row, with a deactivated row
// written as column.NullSentinel instead of the computed value.
func TestPartitionAddColumn(t *testing.T) {
	dir := t.TempDir()
	p := newTestPartition("p", dir, t.TempDir())
	ctx := context.Background()

	srcDir := t.TempDir()
	a := []int32{1, 2, 3, 4, 5}
	b := []int32{10, 20, 30, 40, 50}
	writeInt32Data(t, srcDir, "a", a)
	writeInt32Data(t, srcDir, "b", b)
	aCol := column.NewFixedWidth[int32]("a", "", column.TypeInt, srcDir)
	bCol := column.NewFixedWidth[int32]("b", "", column.TypeInt, srcDir)
	if err := column.WriteSchema(srcDir, []column.Column{aCol, bCol}); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	writeFixturePartTxt(t, srcDir, "src", 5)
	writeFixtureRids(t, srcDir, 5)

	if _, err := p.Append(ctx, srcDir); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := p.Commit(ctx, srcDir); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := p.DeactivateRows([]uint32{2}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	expr := &qexpr.Bediener{Op: qexpr.OpPlus, Left: &qexpr.Variable{Name: "a"}, Right: &qexpr.Variable{Name: "b"}}
	n, err := p.AddColumn(ctx, expr, p.Amask(), "sum", column.TypeInt)
	if err != nil {
		t.Fatalf("add_column: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 rows written, got %d", n)
	}

	got := readInt32Values(t, p.ActiveDir(), "sum")
	want := []int32{11, 22, 0, 44, 55}
	for i := range want {
		if i == 2 {
			if got[i] != column.NullSentinel[int32]() {
				t.Fatalf("sum[2]: expected null sentinel for deactivated row, got %d", got[i])
			}
			continue
		}
		if got[i] != want[i] {
			t.Fatalf("sum[%d]: expected %d, got %d", i, want[i], got[i])
		}
	}

	col, ok := p.Column("sum")
	if !ok {
		t.Fatalf("expected sum column registered")
	}
	if col.Type() != column.TypeInt {
		t.Fatalf("expected sum column type Int, got %v", col.Type())
	}
}

// TestPartitionAddColumnMaskSizeMismatch rejects a mask sized for a
// different row count than the partition currently holds.
func TestPartitionAddColumnMaskSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	p := newTestPartition("p", dir, dir)
	ctx := context.Background()

	srcDir := newInt32SourceDir(t, "a", []int32{1, 2, 3}, 3)
	if _, err := p.Append(ctx, srcDir); err != nil {
		t.Fatalf("append: %v", err)
	}

	expr := &qexpr.Variable{Name: "a"}
	badMask := bitvector.NewAllOnes(10)
	if _, err := p.AddColumn(ctx, expr, badMask, "double", column.TypeInt); err == nil {
		t.Fatalf("expected error for mismatched mask size")
	}
}

// TestPartitionCheckInvariants exercises the amask/rids/null-mask size
// invariant spot-check after a normal append.
func TestPartitionCheckInvariants(t *testing.T) {
	dir := t.TempDir()
	p := newTestPartition("p", dir, dir)
	ctx := context.Background()

	srcDir := newInt32SourceDir(t, "a", []int32{1, 2, 3}, 3)
	if _, err := p.Append(ctx, srcDir); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := p.checkInvariants(); err != nil {
		t.Fatalf("checkInvariants: %v", err)
	}
}

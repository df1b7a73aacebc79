package partition

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gingi/ibis/column"
	"github.com/gingi/ibis/ridset"
	"golang.org/x/sync/errgroup"
)

// Append ingests a fresh slice of new rows from srcDir, following spec.md
// §4.D's append/commit/rollback protocol. In two-directory mode this
// dispatches to append2; in single-directory mode (backupDir == activeDir,
// a deliberately non-recoverable configuration) it dispatches to append1.
// Grounded on _examples/original_source/src/parti.cpp's append/append1/append2.
func (p *Partition) Append(ctx context.Context, srcDir string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	srcMeta, err := readMeta(srcDir)
	if err != nil {
		return -1, err
	}
	if srcMeta == nil {
		return -1, fmt.Errorf("partition %s: source dir %s has no %s", p.Name, srcDir, partTxtName)
	}
	nNew := srcMeta.nRows
	if nNew == 0 {
		return 0, nil
	}

	if p.singleDir {
		return p.append1(ctx, srcDir, nNew)
	}
	return p.append2(ctx, srcDir, nNew)
}

// append2 implements the two-directory append (spec.md §4.D steps 1-9).
func (p *Partition) append2(ctx context.Context, srcDir string, nNew uint32) (int64, error) {
	nOld := p.nRows
	p.setState(Receiving)

	equal, err := dirsEqual(p.activeDir, p.backupDir)
	if err != nil {
		p.setState(Unknown)
		return -1, err
	}
	if !equal {
		if err := copyDirFiles(p.backupDir, p.activeDir); err != nil {
			p.setState(Unknown)
			return -1, fmt.Errorf("partition %s: resync backup before append: %w", p.Name, err)
		}
	}

	p.setState(PreTransition)
	if err := p.appendColumns(ctx, p.backupDir, srcDir, nOld, nNew); err != nil {
		p.setState(Unknown)
		p.tryMakeBackupCopy()
		return -1, err
	}
	if err := writeMeta(p.backupDir, &meta{name: p.Name, description: p.Description, nRows: nOld + nNew}, ""); err != nil {
		p.setState(Unknown)
		return -1, fmt.Errorf("partition %s: write %s: %w", p.Name, partTxtPath(p.backupDir), err)
	}
	if err := column.WriteSchema(p.backupDir, p.orderedColumns()); err != nil {
		p.setState(Unknown)
		return -1, err
	}

	p.rw.Lock()
	if p.fm != nil {
		_ = p.fm.FlushDir(p.activeDir)
	}
	p.activeDir, p.backupDir = p.backupDir, p.activeDir
	if err := p.reload(p.activeDir); err != nil {
		p.rw.Unlock()
		p.setState(Unknown)
		return -1, fmt.Errorf("partition %s: reload after swap: %w", p.Name, err)
	}
	p.rw.Unlock()

	p.setState(Transition)
	return int64(nNew), nil
}

// append1 implements single-directory append: identical, minus the swap
// step; a failure here is not recoverable (spec.md §4.D "Single-directory
// mode").
func (p *Partition) append1(ctx context.Context, srcDir string, nNew uint32) (int64, error) {
	nOld := p.nRows
	p.setState(Receiving)
	p.setState(PreTransition)

	if err := p.appendColumns(ctx, p.activeDir, srcDir, nOld, nNew); err != nil {
		p.setState(Unknown)
		return -1, err
	}
	if err := writeMeta(p.activeDir, &meta{name: p.Name, description: p.Description, nRows: nOld + nNew}, ""); err != nil {
		p.setState(Unknown)
		return -1, err
	}
	if err := column.WriteSchema(p.activeDir, p.orderedColumns()); err != nil {
		p.setState(Unknown)
		return -1, err
	}

	p.rw.Lock()
	if p.fm != nil {
		_ = p.fm.FlushDir(p.activeDir)
	}
	if err := p.reload(p.activeDir); err != nil {
		p.rw.Unlock()
		p.setState(Unknown)
		return -1, err
	}
	p.rw.Unlock()

	p.setState(Stable)
	return int64(nNew), nil
}

// appendColumns fans per-column append work out over an errgroup, one
// goroutine per column, since columns never share files (SPEC_FULL.md
// Domain Stack: golang.org/x/sync/errgroup).
func (p *Partition) appendColumns(ctx context.Context, destDir, srcDir string, nOld, nNew uint32) error {
	if err := p.unionSourceColumns(srcDir); err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)
	for _, name := range p.order {
		col := p.columns[name]
		g.Go(func() error {
			if _, err := col.Append(destDir, srcDir, nOld, nNew); err != nil {
				return fmt.Errorf("partition %s: column %s append: %w", p.Name, col.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Merge destDir's existing [0, nOld) rids with srcDir's new [0, nNew)
	// rids purely from on-disk state, rather than mutating p.rids directly:
	// this same helper backs both Append (destDir fresh or a resynced
	// backup) and Commit (destDir re-running the same srcDir against an
	// already-reloaded p.rids), so p.rids cannot be trusted as the merge's
	// starting point in both cases. The caller's subsequent reload is the
	// sole place p.rids is set from disk.
	if p.rids != nil {
		destRids, err := loadRids(destDir, nOld)
		if err != nil {
			return err
		}
		srcRids, err := loadRids(srcDir, nNew)
		if err != nil {
			return err
		}
		merged := ridset.NewRidSet()
		for i := 0; i < destRids.Len(); i++ {
			r, _ := destRids.At(i)
			merged.Append(r)
		}
		for i := 0; i < srcRids.Len(); i++ {
			r, _ := srcRids.At(i)
			merged.Append(r)
		}
		if err := writeRids(destDir, merged); err != nil {
			return err
		}
	}
	return nil
}

// unionSourceColumns registers any column present in srcDir's schema but
// not yet in the partition (spec.md §4.D step 5 "union of partition
// columns and source columns").
func (p *Partition) unionSourceColumns(srcDir string) error {
	srcCols, err := column.ReadSchema(srcDir)
	if err != nil {
		return fmt.Errorf("partition %s: read source schema: %w", p.Name, err)
	}
	for _, sc := range srcCols {
		if _, ok := p.columns[sc.Name()]; ok {
			continue
		}
		col, err := column.NewByType(sc.Type(), sc.Name(), sc.Description(), p.activeDir)
		if err != nil {
			return err
		}
		p.AddColumnDef(col)
	}
	return nil
}

func (p *Partition) orderedColumns() []column.Column {
	cols := make([]column.Column, 0, len(p.order))
	for _, name := range p.order {
		cols = append(cols, p.columns[name])
	}
	return cols
}

// reload reconstructs the partition's in-memory state (columns, rids,
// amask, nRows) from dir, as done after a directory swap or rollback.
func (p *Partition) reload(dir string) error {
	m, err := readMeta(dir)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("partition %s: %s missing in %s", p.Name, partTxtName, dir)
	}
	cols, err := column.ReadSchema(dir)
	if err != nil {
		return err
	}
	p.columns = make(map[string]column.Column, len(cols))
	p.order = p.order[:0]
	for _, c := range cols {
		c.SetDir(dir)
		p.columns[c.Name()] = c
		p.order = append(p.order, c.Name())
	}
	rids, err := loadRids(dir, m.nRows)
	if err != nil {
		return err
	}
	amask, err := loadMask(dir, m.nRows)
	if err != nil {
		return err
	}
	p.nRows = m.nRows
	p.rids = rids
	p.amask = amask
	p.Description = m.description
	return nil
}

// tryMakeBackupCopy best-effort resyncs backupDir from activeDir after an
// aborted operation leaves the partition in state Unknown (spec.md §4.D
// "makeBackupCopy is attempted").
func (p *Partition) tryMakeBackupCopy() {
	if p.singleDir {
		return
	}
	_ = copyDirFiles(p.backupDir, p.activeDir)
}

// Commit finalizes an append made in two-directory mode: it requires state
// Transition, re-runs the append from srcDir into the new backup so both
// directories converge, and verifies they match byte-for-byte
// (spec.md §4.D "Commit").
func (p *Partition) Commit(ctx context.Context, srcDir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Transition {
		return fmt.Errorf("partition %s: commit requires state Transition, have %s", p.Name, p.state)
	}
	srcMeta, err := readMeta(srcDir)
	if err != nil {
		return err
	}
	if srcMeta == nil {
		return fmt.Errorf("partition %s: source dir %s has no %s", p.Name, srcDir, partTxtName)
	}

	nOld := p.nRows - srcMeta.nRows
	if err := p.appendColumns(ctx, p.backupDir, srcDir, nOld, srcMeta.nRows); err != nil {
		p.setState(Unknown)
		return err
	}
	if err := writeMeta(p.backupDir, &meta{name: p.Name, description: p.Description, nRows: p.nRows}, ""); err != nil {
		p.setState(Unknown)
		return err
	}
	if err := column.WriteSchema(p.backupDir, p.orderedColumns()); err != nil {
		p.setState(Unknown)
		return err
	}

	equal, err := dirsEqual(p.activeDir, p.backupDir)
	if err != nil {
		p.setState(Unknown)
		return err
	}
	p.setState(PostTransition)
	if equal {
		p.setState(Stable)
		return nil
	}
	if err := copyDirFiles(p.backupDir, p.activeDir); err != nil {
		p.setState(Unknown)
		return fmt.Errorf("partition %s: commit mismatch, resync failed: %w", p.Name, err)
	}
	p.setState(Unknown)
	return fmt.Errorf("partition %s: commit detected active/backup divergence; state set to Unknown pending manual repair", p.Name)
}

// Rollback reverts an in-progress two-directory append: requires state
// Transition, swaps active/backup back, reloads, and resyncs backup from
// the restored active dir (spec.md §4.D "Rollback").
func (p *Partition) Rollback(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Transition {
		return fmt.Errorf("partition %s: rollback requires state Transition, have %s", p.Name, p.state)
	}

	p.rw.Lock()
	if p.fm != nil {
		_ = p.fm.FlushDir(p.activeDir)
	}
	p.activeDir, p.backupDir = p.backupDir, p.activeDir
	err := p.reload(p.activeDir)
	p.rw.Unlock()
	if err != nil {
		p.setState(Unknown)
		return fmt.Errorf("partition %s: rollback reload: %w", p.Name, err)
	}

	p.setState(Unknown)
	if err := copyDirFiles(p.backupDir, p.activeDir); err != nil {
		return fmt.Errorf("partition %s: rollback resync backup: %w", p.Name, err)
	}
	p.setState(Stable)
	return nil
}

// dirsEqual reports whether dir1 and dir2 contain the same set of
// filenames with byte-identical contents (spec.md's "byte-identical"
// commit invariant). File contents are compared byte for byte; mtimes are
// not compared.
func dirsEqual(dir1, dir2 string) (bool, error) {
	names1, err := listFiles(dir1)
	if err != nil {
		return false, err
	}
	names2, err := listFiles(dir2)
	if err != nil {
		return false, err
	}
	if len(names1) != len(names2) {
		return false, nil
	}
	for name := range names1 {
		if _, ok := names2[name]; !ok {
			return false, nil
		}
		eq, err := filesEqual(filepath.Join(dir1, name), filepath.Join(dir2, name))
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}

func listFiles(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("partition: read dir %s: %w", dir, err)
	}
	out := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			out[e.Name()] = struct{}{}
		}
	}
	return out, nil
}

func filesEqual(p1, p2 string) (bool, error) {
	b1, err := os.ReadFile(p1)
	if err != nil {
		return false, err
	}
	b2, err := os.ReadFile(p2)
	if err != nil {
		return false, err
	}
	if len(b1) != len(b2) {
		return false, nil
	}
	for i := range b1 {
		if b1[i] != b2[i] {
			return false, nil
		}
	}
	return true, nil
}

// copyDirFiles makes destDir's files match srcDir's, overwriting existing
// files and creating destDir if needed.
func copyDirFiles(destDir, srcDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("partition: mkdir %s: %w", destDir, err)
	}
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("partition: read dir %s: %w", srcDir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(srcDir, e.Name()))
		if err != nil {
			return fmt.Errorf("partition: read %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(destDir, e.Name()), data, 0o644); err != nil {
			return fmt.Errorf("partition: write %s: %w", e.Name(), err)
		}
	}
	return nil
}

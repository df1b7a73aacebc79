package partition

import (
	"context"
	"fmt"

	"github.com/gingi/ibis/bitvector"
	"github.com/gingi/ibis/column"
	"github.com/gingi/ibis/parser"
)

// Deactivate clears amask -= mask and persists -part.msk, deleting it if
// every row is once again active (spec.md §4.D "Active-row mask").
func (p *Partition) Deactivate(mask bitvector.BitVector) error {
	p.rw.Lock()
	defer p.rw.Unlock()
	p.amask = p.amask.Minus(mask)
	return writeMask(p.activeDir, p.amask)
}

// Reactivate sets amask |= mask and persists symmetrically.
func (p *Partition) Reactivate(mask bitvector.BitVector) error {
	p.rw.Lock()
	defer p.rw.Unlock()
	p.amask = p.amask.Or(mask)
	return writeMask(p.activeDir, p.amask)
}

// DeactivateRows translates a list of row numbers to a bitmap and delegates
// to Deactivate.
func (p *Partition) DeactivateRows(rows []uint32) error {
	n := p.NRows()
	mask := bitvector.New(n)
	for _, r := range rows {
		if r >= n {
			return fmt.Errorf("partition %s: row %d out of range (n_rows=%d)", p.Name, r, n)
		}
		if err := mask.Set(r); err != nil {
			return err
		}
	}
	return p.Deactivate(mask)
}

// ReactivateRows translates a list of row numbers to a bitmap and delegates
// to Reactivate.
func (p *Partition) ReactivateRows(rows []uint32) error {
	n := p.NRows()
	mask := bitvector.New(n)
	for _, r := range rows {
		if r >= n {
			return fmt.Errorf("partition %s: row %d out of range (n_rows=%d)", p.Name, r, n)
		}
		if err := mask.Set(r); err != nil {
			return err
		}
	}
	return p.Reactivate(mask)
}

// DeactivateWhere parses conds as a WHERE clause, evaluates it against the
// partition's columns, and deactivates the matching rows.
func (p *Partition) DeactivateWhere(conds string) error {
	expr, err := parser.ParseWhere(conds)
	if err != nil {
		return fmt.Errorf("partition %s: parse conditions: %w", p.Name, err)
	}
	mask, err := p.evalCondition(expr)
	if err != nil {
		return err
	}
	return p.Deactivate(mask)
}

// ReactivateWhere is the Reactivate counterpart of DeactivateWhere.
func (p *Partition) ReactivateWhere(conds string) error {
	expr, err := parser.ParseWhere(conds)
	if err != nil {
		return fmt.Errorf("partition %s: parse conditions: %w", p.Name, err)
	}
	mask, err := p.evalCondition(expr)
	if err != nil {
		return err
	}
	return p.Reactivate(mask)
}

// PurgeInactive physically removes every row marked inactive in amask: for
// each column, SaveSelected(amask, target) rewrites its files to only the
// active rows; -rids is rewritten; amask resets to all-ones of the new
// size; -part.msk is deleted. In two-directory mode the purge targets
// backupDir first, then swaps, mirroring Append's own two-directory
// discipline (spec.md §4.D "purge_inactive").
func (p *Partition) PurgeInactive(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.purgeInactiveLocked(ctx)
}

// purgeInactiveLocked is PurgeInactive's body, callable by other p.mu-holding
// operations (Reorder) without re-entering the non-reentrant mutex.
func (p *Partition) purgeInactiveLocked(ctx context.Context) (int64, error) {
	if p.amask.Cnt() == uint64(p.amask.Size()) {
		return 0, nil // nothing inactive
	}

	target := p.activeDir
	if !p.singleDir {
		target = p.backupDir
		if err := copyDirFiles(target, p.activeDir); err != nil {
			return -1, fmt.Errorf("partition %s: purge: resync backup: %w", p.Name, err)
		}
	}

	newN := uint32(p.amask.Cnt())
	for _, name := range p.order {
		col := p.columns[name]
		if _, err := col.SaveSelected(p.amask, target); err != nil {
			p.setState(Unknown)
			return -1, fmt.Errorf("partition %s: purge column %s: %w", p.Name, col.Name(), err)
		}
	}

	newRids, err := p.rids.Permute(selectedIndices(p.amask))
	if err != nil {
		p.setState(Unknown)
		return -1, fmt.Errorf("partition %s: purge rids: %w", p.Name, err)
	}
	if err := writeRids(target, newRids); err != nil {
		p.setState(Unknown)
		return -1, err
	}
	if err := writeMeta(target, &meta{name: p.Name, description: p.Description, nRows: newN}, ""); err != nil {
		p.setState(Unknown)
		return -1, err
	}
	if err := column.WriteSchema(target, p.orderedColumns()); err != nil {
		p.setState(Unknown)
		return -1, err
	}
	if err := writeMask(target, bitvector.NewAllOnes(newN)); err != nil {
		p.setState(Unknown)
		return -1, err
	}

	p.rw.Lock()
	if !p.singleDir {
		if p.fm != nil {
			_ = p.fm.FlushDir(p.activeDir)
		}
		p.activeDir, p.backupDir = p.backupDir, p.activeDir
	}
	err = p.reload(p.activeDir)
	p.rw.Unlock()
	if err != nil {
		p.setState(Unknown)
		return -1, err
	}
	return int64(newN), nil
}

// selectedIndices returns, in ascending order, the row indices whose bit is
// set in mask — the permutation PurgeInactive uses to rebuild -rids.
func selectedIndices(mask bitvector.BitVector) []int {
	var out []int
	for _, run := range mask.Iterate() {
		for i := run.Start; i < run.Start+run.Length; i++ {
			out = append(out, int(i))
		}
	}
	return out
}

// Package partition implements the IBIS data-partition lifecycle of
// spec.md §4.D: the coordinator that owns columns, executes
// append/commit/rollback over a two-directory crash-recovery scheme,
// performs multi-key physical row reordering, and applies logical deletion
// via a persistent active-row mask.
//
// Grounded on _examples/original_source/src/parti.cpp (append, append1,
// append2, rollback, commit, reorder, reorderValues, deactivate,
// reactivate, purgeInactive, addColumn).
package partition

import (
	"fmt"
	"sync"

	"github.com/gingi/ibis/bitvector"
	"github.com/gingi/ibis/column"
	"github.com/gingi/ibis/filemanager"
	"github.com/gingi/ibis/logsink"
	"github.com/gingi/ibis/ridset"
)

// State is the partition's append/commit lifecycle state (spec.md §3.3).
type State int

const (
	Stable State = iota
	Receiving
	PreTransition
	Transition
	PostTransition
	Unknown
)

func (s State) String() string {
	switch s {
	case Stable:
		return "Stable"
	case Receiving:
		return "Receiving"
	case PreTransition:
		return "PreTransition"
	case Transition:
		return "Transition"
	case PostTransition:
		return "PostTransition"
	case Unknown:
		return "Unknown"
	default:
		return "?"
	}
}

// envLock stands in for spec.md §4.D's process-wide env_lock, serializing
// mutation of shared environment (logger target, global parameter map,
// file-manager accounting) across every partition.
var envLock sync.Mutex

// WithEnvLock runs fn while holding the package-wide environment lock.
func WithEnvLock(fn func()) {
	envLock.Lock()
	defer envLock.Unlock()
	fn()
}

// Partition is a horizontally independent table fragment.
type Partition struct {
	Name, Description string

	mu sync.Mutex   // serializes append/commit/rollback/reorder/addColumn
	rw sync.RWMutex // guards column mutation vs. queries

	activeDir, backupDir string
	singleDir            bool // true when backupDir == activeDir (single-directory mode)

	nRows uint32
	state State

	amask   bitvector.BitVector
	columns map[string]column.Column
	order   []string // insertion order, for stable metadata output
	rids    *ridset.RidSet

	fm     filemanager.FileManager
	logger logsink.Logger
}

// New creates a Partition over an existing activeDir, with an optional
// backupDir for two-directory crash recovery (pass activeDir itself for
// single-directory mode).
func New(name, description, activeDir, backupDir string, fm filemanager.FileManager, logger logsink.Logger) *Partition {
	if logger == nil {
		logger = logsink.NewNopLogger()
	}
	return &Partition{
		Name:        name,
		Description: description,
		activeDir:   activeDir,
		backupDir:   backupDir,
		singleDir:   activeDir == backupDir,
		state:       Stable,
		amask:       bitvector.NewAllOnes(0),
		columns:     make(map[string]column.Column),
		rids:        ridset.NewRidSet(),
		fm:          fm,
		logger:      logger,
	}
}

// NRows returns the current row count.
func (p *Partition) NRows() uint32 {
	p.rw.RLock()
	defer p.rw.RUnlock()
	return p.nRows
}

// State returns the partition's current lifecycle state.
func (p *Partition) State() State {
	p.rw.RLock()
	defer p.rw.RUnlock()
	return p.state
}

// ActiveDir returns the current active directory.
func (p *Partition) ActiveDir() string {
	p.rw.RLock()
	defer p.rw.RUnlock()
	return p.activeDir
}

// Column returns the named column, if present.
func (p *Partition) Column(name string) (column.Column, bool) {
	p.rw.RLock()
	defer p.rw.RUnlock()
	c, ok := p.columns[name]
	return c, ok
}

// ColumnType implements parser.Schema: looks up a column's logical type by
// name.
func (p *Partition) ColumnType(name string) (column.ColumnType, bool) {
	c, ok := p.Column(name)
	if !ok {
		return 0, false
	}
	return c.Type(), true
}

// ColumnBounds implements parser.BoundsSchema: a column's cached [min, max],
// letting parser.Amplify propagate join-range constraints across partitions
// that share a join key.
func (p *Partition) ColumnBounds(name string) (float64, float64, bool) {
	c, ok := p.Column(name)
	if !ok {
		return 0, 0, false
	}
	return c.Bounds()
}

// AddColumnDef registers col under the partition (used by schema load and
// by AddColumn after evaluating an arithmetic expression).
func (p *Partition) AddColumnDef(col column.Column) {
	p.rw.Lock()
	defer p.rw.Unlock()
	if _, exists := p.columns[col.Name()]; !exists {
		p.order = append(p.order, col.Name())
	}
	p.columns[col.Name()] = col
}

// Amask returns the partition's active-row mask.
func (p *Partition) Amask() bitvector.BitVector {
	p.rw.RLock()
	defer p.rw.RUnlock()
	return p.amask
}

// Rids returns the partition's row-identifier list, or nil if absent.
func (p *Partition) Rids() *ridset.RidSet {
	p.rw.RLock()
	defer p.rw.RUnlock()
	return p.rids
}

func (p *Partition) setState(s State) {
	p.state = s
}

// checkInvariants is a cheap internal consistency check exercised by tests
// and callers that want an explicit assertion point, per spec.md §3.2.
func (p *Partition) checkInvariants() error {
	if p.amask.Size() != p.nRows {
		return fmt.Errorf("partition %s: amask size %d != n_rows %d", p.Name, p.amask.Size(), p.nRows)
	}
	if p.rids != nil && uint32(p.rids.Len()) != p.nRows {
		return fmt.Errorf("partition %s: rids length %d != n_rows %d", p.Name, p.rids.Len(), p.nRows)
	}
	for _, c := range p.columns {
		if c.NullMask() != nil && c.NullMask().Size() != p.nRows {
			return fmt.Errorf("partition %s: column %s null mask size %d != n_rows %d", p.Name, c.Name(), c.NullMask().Size(), p.nRows)
		}
	}
	return nil
}

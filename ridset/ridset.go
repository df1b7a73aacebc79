// Package ridset provides RidSet, an ordered collection of row identifiers.
//
// A Rid pairs a run number with an event number within that run, the
// two-part row identifier used throughout a partition's -rids file. RidSet
// holds rids in row order, so that row order in -rids matches row order in
// every column's data file; NewRidSetFromSlice and Sort order them by
// (Run, Event), while Append and Permute keep the order they are given.
package ridset

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// insertionSortThreshold is the cutover point below which insertion sort
// outperforms quicksort's overhead for nearly-sorted or small inputs.
const insertionSortThreshold = 33

// Rid is a row identifier: a run number and an event number within the run.
type Rid struct {
	Run   uint32
	Event uint32
}

// Less reports whether r sorts before o, ordering first by Run and then by
// Event.
func (r Rid) Less(o Rid) bool {
	if r.Run != o.Run {
		return r.Run < o.Run
	}
	return r.Event < o.Event
}

// RidSet is a slice of Rid values in row order, sorted after
// NewRidSetFromSlice or Sort.
type RidSet struct {
	rids []Rid
}

// NewRidSet creates an empty RidSet.
func NewRidSet() *RidSet {
	return &RidSet{}
}

// NewRidSetFromSlice builds a RidSet from an existing slice, sorting it in
// place via Sort.
func NewRidSetFromSlice(rids []Rid) *RidSet {
	rs := &RidSet{rids: rids}
	rs.Sort()
	return rs
}

// Len returns the number of rids in the set.
func (rs *RidSet) Len() int {
	return len(rs.rids)
}

// At returns the rid at position i.
func (rs *RidSet) At(i int) (Rid, error) {
	if i < 0 || i >= len(rs.rids) {
		return Rid{}, fmt.Errorf("ridset: index %d out of range (size %d)", i, len(rs.rids))
	}
	return rs.rids[i], nil
}

// Append adds a rid to the end of the set without re-sorting; callers
// appending in already-sorted order (the common case, new rows appended
// with monotonically increasing event numbers) should call Sort once after
// a batch of appends rather than after each one.
func (rs *RidSet) Append(r Rid) {
	rs.rids = append(rs.rids, r)
}

// Sort orders the set in place. Uses insertion sort below
// insertionSortThreshold elements and quicksort (via sort.Slice, which Go's
// runtime implements as an introsort hybrid) above it, matching the
// original source's dual-strategy sort for small RID lists. The insertion
// sort path is stable; the quicksort path is not.
func (rs *RidSet) Sort() {
	if len(rs.rids) < insertionSortThreshold {
		insertionSort(rs.rids)
		return
	}
	sort.Slice(rs.rids, func(i, j int) bool { return rs.rids[i].Less(rs.rids[j]) })
}

func insertionSort(rids []Rid) {
	for i := 1; i < len(rids); i++ {
		cur := rids[i]
		j := i - 1
		for j >= 0 && cur.Less(rids[j]) {
			rids[j+1] = rids[j]
			j--
		}
		rids[j+1] = cur
	}
}

// Slice returns the underlying rids. The caller must not retain it across a
// subsequent mutating call to rs.
func (rs *RidSet) Slice() []Rid {
	return rs.rids
}

// Write serializes the set as raw 8-byte little-endian (run, event) pairs,
// one per rid, matching the -rids on-disk format.
func (rs *RidSet) Write(w io.Writer) error {
	buf := make([]byte, 8)
	for _, r := range rs.rids {
		binary.LittleEndian.PutUint32(buf[0:4], r.Run)
		binary.LittleEndian.PutUint32(buf[4:8], r.Event)
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("ridset: write: %w", err)
		}
	}
	return nil
}

// Read replaces the set's contents by reading n rids of raw 8-byte
// little-endian (run, event) pairs from r.
func (rs *RidSet) Read(r io.Reader, n int) error {
	rids := make([]Rid, n)
	buf := make([]byte, 8)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("ridset: read rid %d: %w", i, err)
		}
		rids[i] = Rid{
			Run:   binary.LittleEndian.Uint32(buf[0:4]),
			Event: binary.LittleEndian.Uint32(buf[4:8]),
		}
	}
	rs.rids = rids
	return nil
}

// Slice of rids in the order given by perm: result[i] = rids[perm[i]].
// Used by the partition engine after computing a reorder permutation.
func (rs *RidSet) Permute(perm []int) (*RidSet, error) {
	if len(perm) != len(rs.rids) {
		return nil, fmt.Errorf("ridset: permutation length %d does not match rid count %d", len(perm), len(rs.rids))
	}
	out := make([]Rid, len(perm))
	for i, p := range perm {
		if p < 0 || p >= len(rs.rids) {
			return nil, fmt.Errorf("ridset: permutation index %d out of range", p)
		}
		out[i] = rs.rids[p]
	}
	return &RidSet{rids: out}, nil
}

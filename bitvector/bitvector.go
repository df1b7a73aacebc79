// Package bitvector defines the BitVector contract the rest of the core
// depends on and a concrete implementation backed by a compressed Roaring
// bitmap. Per the physical bitmap index being an external collaborator, the
// core never hand-rolls container-conversion or run-length logic itself; it
// wraps github.com/RoaringBitmap/roaring/v2 behind this interface.
package bitvector

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
)

// Run is a maximal contiguous span of set bits, [Start, Start+Length).
type Run struct {
	Start  uint32
	Length uint32
}

// BitVector is the compressed bitmap contract consumed by the rest of the
// core: population count, logical size, single-bit mutation, the four
// bitwise combinators, resizing, persistence, and run-aware iteration.
type BitVector interface {
	// Cnt returns the number of set bits.
	Cnt() uint64
	// Size returns the logical length of the vector, including any
	// trailing zero bits past the highest set bit.
	Size() uint32
	// Set marks bit i. Returns an error if i >= Size().
	Set(i uint32) error
	// Clear unmarks bit i. Returns an error if i >= Size().
	Clear(i uint32) error
	// Test reports whether bit i is set. Returns an error if i >= Size().
	Test(i uint32) (bool, error)
	// And returns the bitwise intersection of the receiver and other.
	And(other BitVector) BitVector
	// Or returns the bitwise union of the receiver and other.
	Or(other BitVector) BitVector
	// Xor returns the bitwise symmetric difference of the receiver and other.
	Xor(other BitVector) BitVector
	// Minus returns the bitwise difference (receiver AND NOT other).
	Minus(other BitVector) BitVector
	// AdjustSize changes the logical size. Bits at or beyond newSize are
	// cleared when shrinking; no bits are implicitly set when growing.
	AdjustSize(newSize uint32)
	// Write serializes the vector.
	Write(w io.Writer) error
	// Read replaces the vector's content by deserializing from r.
	Read(r io.Reader) error
	// Iterate returns the maximal runs of set bits in ascending order.
	Iterate() []Run
}

// RoaringBitVector implements BitVector over a *roaring.Bitmap.
type RoaringBitVector struct {
	bm   *roaring.Bitmap
	size uint32
}

// New creates an empty BitVector of the given logical size.
func New(size uint32) *RoaringBitVector {
	return &RoaringBitVector{bm: roaring.New(), size: size}
}

// NewAllOnes creates a BitVector of the given logical size with every bit set.
func NewAllOnes(size uint32) *RoaringBitVector {
	rv := New(size)
	if size > 0 {
		rv.bm.AddRange(0, uint64(size))
	}
	return rv
}

// FromRoaring wraps an existing roaring.Bitmap, taking ownership of it.
func FromRoaring(bm *roaring.Bitmap, size uint32) *RoaringBitVector {
	return &RoaringBitVector{bm: bm, size: size}
}

// Cnt implements BitVector.
func (rv *RoaringBitVector) Cnt() uint64 { return rv.bm.GetCardinality() }

// Size implements BitVector.
func (rv *RoaringBitVector) Size() uint32 { return rv.size }

func (rv *RoaringBitVector) checkRange(i uint32) error {
	if i >= rv.size {
		return fmt.Errorf("bitvector: index %d out of range (size %d)", i, rv.size)
	}
	return nil
}

// Set implements BitVector.
func (rv *RoaringBitVector) Set(i uint32) error {
	if err := rv.checkRange(i); err != nil {
		return err
	}
	rv.bm.Add(i)
	return nil
}

// Clear implements BitVector.
func (rv *RoaringBitVector) Clear(i uint32) error {
	if err := rv.checkRange(i); err != nil {
		return err
	}
	rv.bm.Remove(i)
	return nil
}

// Test implements BitVector.
func (rv *RoaringBitVector) Test(i uint32) (bool, error) {
	if err := rv.checkRange(i); err != nil {
		return false, err
	}
	return rv.bm.Contains(i), nil
}

func (rv *RoaringBitVector) otherBitmap(other BitVector) (*roaring.Bitmap, uint32) {
	if o, ok := other.(*RoaringBitVector); ok {
		return o.bm, o.size
	}
	// Fall back to materializing any other BitVector implementation via
	// its run iterator; this keeps the combinators usable across
	// implementations that satisfy the interface without sharing the
	// concrete Roaring type.
	bm := roaring.New()
	for _, run := range other.Iterate() {
		bm.AddRange(uint64(run.Start), uint64(run.Start+run.Length))
	}
	return bm, other.Size()
}

func maxSize(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// And implements BitVector.
func (rv *RoaringBitVector) And(other BitVector) BitVector {
	ob, osz := rv.otherBitmap(other)
	return FromRoaring(roaring.And(rv.bm, ob), maxSize(rv.size, osz))
}

// Or implements BitVector.
func (rv *RoaringBitVector) Or(other BitVector) BitVector {
	ob, osz := rv.otherBitmap(other)
	return FromRoaring(roaring.Or(rv.bm, ob), maxSize(rv.size, osz))
}

// Xor implements BitVector.
func (rv *RoaringBitVector) Xor(other BitVector) BitVector {
	ob, osz := rv.otherBitmap(other)
	return FromRoaring(roaring.Xor(rv.bm, ob), maxSize(rv.size, osz))
}

// Minus implements BitVector: receiver AND NOT other.
func (rv *RoaringBitVector) Minus(other BitVector) BitVector {
	ob, _ := rv.otherBitmap(other)
	return FromRoaring(roaring.AndNot(rv.bm, ob), rv.size)
}

// AdjustSize implements BitVector.
func (rv *RoaringBitVector) AdjustSize(newSize uint32) {
	if newSize < rv.size {
		rv.bm.RemoveRange(uint64(newSize), uint64(rv.size))
	}
	rv.size = newSize
}

// Write implements BitVector: a 4-byte little-endian size prefix followed
// by the bitmap's native Roaring serialization.
func (rv *RoaringBitVector) Write(w io.Writer) error {
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], rv.size)
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return fmt.Errorf("bitvector: write size: %w", err)
	}
	if _, err := rv.bm.WriteTo(w); err != nil {
		return fmt.Errorf("bitvector: write bitmap: %w", err)
	}
	return nil
}

// Read implements BitVector.
func (rv *RoaringBitVector) Read(r io.Reader) error {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return fmt.Errorf("bitvector: read size: %w", err)
	}
	rv.size = binary.LittleEndian.Uint32(sizeBuf[:])
	rv.bm = roaring.New()
	if _, err := rv.bm.ReadFrom(r); err != nil {
		return fmt.Errorf("bitvector: read bitmap: %w", err)
	}
	return nil
}

// Iterate implements BitVector, coalescing consecutive set bits into runs.
func (rv *RoaringBitVector) Iterate() []Run {
	var runs []Run
	it := rv.bm.Iterator()
	var cur *Run
	for it.HasNext() {
		v := it.Next()
		if cur != nil && v == cur.Start+cur.Length {
			cur.Length++
			continue
		}
		if cur != nil {
			runs = append(runs, *cur)
		}
		cur = &Run{Start: v, Length: 1}
	}
	if cur != nil {
		runs = append(runs, *cur)
	}
	return runs
}

// Clone returns a deep copy of the vector.
func (rv *RoaringBitVector) Clone() *RoaringBitVector {
	return &RoaringBitVector{bm: rv.bm.Clone(), size: rv.size}
}

// Empty reports whether no bits are set.
func (rv *RoaringBitVector) Empty() bool { return rv.bm.IsEmpty() }

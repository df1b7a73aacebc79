// Package column implements the on-disk column layout of spec.md §4.C: a
// typed, named attribute with a null mask, optional start-position and
// dictionary side files, and append/commit/rollback-level primitives
// consumed by the partition engine.
//
// The on-disk codec style (little-endian encoding/binary,
// length-prefixed variable data) is grounded on
// _examples/original_source/src/category.{h,cpp} for the text/category
// specializations and generalized from
// _teacher_full/weaviate/storage/storage.go's Serialize/Deserialize idiom.
package column

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gingi/ibis/bitvector"
	"github.com/gingi/ibis/filemanager"
)

// ColumnType is a logical column type (spec.md §3.1).
type ColumnType int

const (
	TypeByte ColumnType = iota
	TypeUByte
	TypeShort
	TypeUShort
	TypeInt
	TypeUInt
	TypeLong
	TypeULong
	TypeFloat
	TypeDouble
	TypeOID
	TypeCategory
	TypeText
	TypeBlob
)

func (t ColumnType) String() string {
	switch t {
	case TypeByte:
		return "byte"
	case TypeUByte:
		return "ubyte"
	case TypeShort:
		return "short"
	case TypeUShort:
		return "ushort"
	case TypeInt:
		return "int"
	case TypeUInt:
		return "uint"
	case TypeLong:
		return "long"
	case TypeULong:
		return "ulong"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeOID:
		return "oid"
	case TypeCategory:
		return "category"
	case TypeText:
		return "text"
	case TypeBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// IsVariableLength reports whether values are stored with a .sp side file
// (text, blob, category).
func (t ColumnType) IsVariableLength() bool {
	return t == TypeText || t == TypeBlob || t == TypeCategory
}

// IsUnsigned reports whether the type's range bounds are clamped at zero
// (spec.md §3.2, unsigned negative-bound normalization).
func (t ColumnType) IsUnsigned() bool {
	switch t {
	case TypeUByte, TypeUShort, TypeUInt, TypeULong, TypeOID:
		return true
	default:
		return false
	}
}

// Column is the contract every column specialization satisfies
// (spec.md §4.C "Operations").
type Column interface {
	Name() string
	Description() string
	Type() ColumnType
	// Dir returns the directory this column's files currently live in.
	Dir() string
	// SetDir rebinds the column to a new directory, used by the
	// partition engine after an active/backup directory swap.
	SetDir(dir string)

	// GetValues reads rows where mask is set. Returns []T for fixed-width
	// types, []string for text/category, [][]byte for blob.
	GetValues(mask bitvector.BitVector) (any, error)

	// Append copies n_new new rows from srcDir (rows [nOld, nOld+nNew))
	// to the end of destDir's copy of this column, returning the number
	// of rows appended or a negative code on failure.
	Append(destDir, srcDir string, nOld, nNew uint32) (int64, error)

	// PurgeIndexes deletes this column's cached bitmap index file.
	PurgeIndexes(dir string, fm filemanager.FileManager) error

	// WriteMetadata emits the "Begin Column ... End Column" stanza.
	WriteMetadata(w io.Writer) error

	// SaveSelected writes only rows marked 1 in mask to a fresh copy of
	// the column's files in dir (used by partition purge).
	SaveSelected(mask bitvector.BitVector, dir string) (int64, error)

	// SavePermuted writes every row to a fresh copy of the column's files
	// in dir, in the order given by ind (row k of the new files holds what
	// used to be row ind[k]); used by the partition reorder operation.
	SavePermuted(ind []int, dir string) (int64, error)

	// NullMask returns the column's null bitmap (bit i = 1 iff row i is
	// non-null); never nil.
	NullMask() bitvector.BitVector

	// Bounds returns the column's cached [min, max], and whether they
	// have been computed at least once.
	Bounds() (min, max float64, ok bool)

	// Sorted reports whether the column is currently known to be sorted
	// ascending (set by the partition reorder operation).
	Sorted() bool
	SetSorted(bool)
}

// base holds the fields common to every specialization.
type base struct {
	name, description string
	dir                string
	sorted             bool
	nullMask           bitvector.BitVector
	min, max           float64
	hasBounds          bool
}

func (b *base) Name() string        { return b.name }
func (b *base) Description() string { return b.description }
func (b *base) Dir() string         { return b.dir }
func (b *base) SetDir(dir string)   { b.dir = dir }
func (b *base) Sorted() bool        { return b.sorted }
func (b *base) SetSorted(v bool)    { b.sorted = v }

func (b *base) NullMask() bitvector.BitVector { return b.nullMask }

func (b *base) Bounds() (float64, float64, bool) { return b.min, b.max, b.hasBounds }

// setBounds installs bounds read back from a schema stanza, bypassing the
// usual incremental updateBounds accumulation.
func (b *base) setBounds(min, max float64) {
	b.min, b.max, b.hasBounds = min, max, true
}

func (b *base) updateBounds(v float64) {
	if !b.hasBounds {
		b.min, b.max, b.hasBounds = v, v, true
		return
	}
	if v < b.min {
		b.min = v
	}
	if v > b.max {
		b.max = v
	}
}

// dataPath returns dir/name for a column's primary data file.
func dataPath(dir, name string) string { return filepath.Join(dir, name) }

// sidePath returns dir/name.ext for a side file.
func sidePath(dir, name, ext string) string { return filepath.Join(dir, name+ext) }

// PurgeIndexes implements the shared ".idx deletion + cache flush" behavior
// any specialization can embed.
func purgeIndexes(dir, name string, fm filemanager.FileManager) error {
	idx := sidePath(dir, name, ".idx")
	if err := os.Remove(idx); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("column: purge index %s: %w", idx, err)
	}
	if fm != nil {
		_ = fm.FlushFile(idx)
	}
	return nil
}

// writeMetadataStanza writes the "Begin Column ... End Column" block shared
// by every specialization (spec.md §6.1 per-column keys).
func writeMetadataStanza(w io.Writer, c Column) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Begin Column\n")
	fmt.Fprintf(bw, "name = %s\n", c.Name())
	if c.Description() != "" {
		fmt.Fprintf(bw, "description = %s\n", c.Description())
	}
	fmt.Fprintf(bw, "data_type = %s\n", c.Type())
	if min, max, ok := c.Bounds(); ok {
		fmt.Fprintf(bw, "minimum = %g\n", min)
		fmt.Fprintf(bw, "maximum = %g\n", max)
	}
	fmt.Fprintf(bw, "End Column\n")
	return bw.Flush()
}

// copyFileRange copies src's entire contents to the end of dst, creating
// dst if it does not exist, and returns the number of bytes copied.
func copyFileRange(dstPath, srcPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("column: open %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("column: open %s: %w", dstPath, err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return 0, fmt.Errorf("column: copy %s -> %s: %w", srcPath, dstPath, err)
	}
	return n, nil
}

func fileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return fi.Size(), nil
}

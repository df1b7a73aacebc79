package column

import (
	"fmt"
	"io"
	"os"

	"github.com/gingi/ibis/bitvector"
	"github.com/gingi/ibis/filemanager"
)

// Blob is a variable-length byte-string column: identical .sp structural
// invariants to Text, but values are opaque byte arrays and offsets are
// carried forward from the source's .sp rather than rescanned for NULs
// (spec.md §4.C "for blob, by appending adjusted start positions from the
// source's .sp").
type Blob struct {
	base
}

func NewBlob(name, description, dir string) *Blob {
	return &Blob{base: base{name: name, description: description, dir: dir}}
}

func (c *Blob) Type() ColumnType { return TypeBlob }

// GetValues returns the selected rows as [][]byte.
func (c *Blob) GetValues(mask bitvector.BitVector) (any, error) {
	sp, err := readStartPositions(c.dir, c.name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(dataPath(c.dir, c.name))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("column %s: read data: %w", c.name, err)
	}
	var out [][]byte
	emit := func(i uint32) {
		if int(i)+1 >= len(sp) {
			return
		}
		start, end := sp[i], sp[i+1]
		if start < 0 || end > int64(len(data)) || start > end {
			out = append(out, nil)
			return
		}
		v := make([]byte, end-start)
		copy(v, data[start:end])
		out = append(out, v)
	}
	if mask == nil {
		for i := uint32(0); i+1 < uint32(len(sp)); i++ {
			emit(i)
		}
		return out, nil
	}
	for _, run := range mask.Iterate() {
		for i := run.Start; i < run.Start+run.Length; i++ {
			emit(i)
		}
	}
	return out, nil
}

// Append copies raw payload bytes [nOld, nOld+nNew) from srcDir, then
// appends the source's own .sp offsets for that range, shifted by the
// destination's current data-file size (no NUL rescan, since blob payloads
// may legitimately contain zero bytes).
func (c *Blob) Append(destDir, srcDir string, nOld, nNew uint32) (int64, error) {
	srcSP, err := readStartPositions(srcDir, c.name)
	if err != nil {
		return -1, err
	}
	if uint32(len(srcSP)) < nOld+nNew+1 {
		return -1, fmt.Errorf("column %s: source .sp too short for rows [%d,%d)", c.name, nOld, nOld+nNew)
	}

	destSize, err := fileSize(dataPath(destDir, c.name))
	if err != nil {
		return -1, err
	}

	srcData, err := os.Open(dataPath(srcDir, c.name))
	if err != nil {
		return -1, fmt.Errorf("column %s: open source data: %w", c.name, err)
	}
	defer srcData.Close()

	start, end := srcSP[nOld], srcSP[nOld+nNew]
	if _, err := srcData.Seek(start, io.SeekStart); err != nil {
		return -1, err
	}
	dst, err := os.OpenFile(dataPath(destDir, c.name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return -1, fmt.Errorf("column %s: open dest data: %w", c.name, err)
	}
	if _, err := io.CopyN(dst, srcData, end-start); err != nil {
		dst.Close()
		return -1, fmt.Errorf("column %s: short copy: %w", c.name, err)
	}
	dst.Close()

	destSP, err := readStartPositions(destDir, c.name)
	if err != nil {
		return -1, err
	}
	if len(destSP) == 0 {
		destSP = []int64{0}
	}
	shift := destSize - start
	for _, off := range srcSP[nOld+1 : nOld+nNew+1] {
		destSP = append(destSP, off+shift)
	}
	if err := writeStartPositions(destDir, c.name, destSP); err != nil {
		return -1, err
	}
	return int64(nNew), nil
}

func (c *Blob) PurgeIndexes(dir string, fm filemanager.FileManager) error {
	return purgeIndexes(dir, c.name, fm)
}

func (c *Blob) WriteMetadata(w io.Writer) error { return writeMetadataStanza(w, c) }

// SaveSelected writes only the selected rows' payloads (and a freshly
// rebuilt .sp) to dir.
func (c *Blob) SaveSelected(mask bitvector.BitVector, dir string) (int64, error) {
	values, err := c.GetValues(mask)
	if err != nil {
		return -1, err
	}
	blobs := values.([][]byte)

	dataFile, err := os.Create(dataPath(dir, c.name))
	if err != nil {
		return -1, fmt.Errorf("column %s: create: %w", c.name, err)
	}
	defer dataFile.Close()

	sp := make([]int64, 0, len(blobs)+1)
	sp = append(sp, 0)
	var pos int64
	for _, b := range blobs {
		n, err := dataFile.Write(b)
		if err != nil {
			return -1, fmt.Errorf("column %s: short write: %w", c.name, err)
		}
		pos += int64(n)
		sp = append(sp, pos)
	}
	if err := writeStartPositions(dir, c.name, sp); err != nil {
		return -1, err
	}
	return int64(len(blobs)), nil
}

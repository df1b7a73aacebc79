package column

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gingi/ibis/bitvector"
	"github.com/gingi/ibis/filemanager"
)

// Text is a variable-length string column without a dictionary: raw
// concatenated NUL-terminated bytes plus a `.sp` side file of N+1 64-bit
// start offsets, per spec.md §3.1 and grounded on
// _examples/original_source/src/category.cpp's startPositions scanning
// (Category embeds the same .sp machinery over its raw text data file).
type Text struct {
	base
}

func NewText(name, description, dir string) *Text {
	return &Text{base: base{name: name, description: description, dir: dir}}
}

func (c *Text) Type() ColumnType { return TypeText }

// readStartPositions reads the .sp file of dir/name, or nil if absent.
func readStartPositions(dir, name string) ([]int64, error) {
	f, err := os.Open(sidePath(dir, name, ".sp"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("column %s: open .sp: %w", name, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	n := fi.Size() / 8
	out := make([]int64, n)
	if err := binary.Read(f, binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("column %s: short read .sp: %w", name, err)
	}
	return out, nil
}

func writeStartPositions(dir, name string, sp []int64) error {
	f, err := os.Create(sidePath(dir, name, ".sp"))
	if err != nil {
		return fmt.Errorf("column %s: create .sp: %w", name, err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, sp); err != nil {
		return fmt.Errorf("column %s: short write .sp: %w", name, err)
	}
	return nil
}

// rebuildTextStartPositions implements spec.md §4.C's "Text/blob .sp
// reconstruction" for NUL-delimited text: resume from the existing .sp's
// trailing valid offset (or 0), scan forward for NUL terminators, append a
// final offset equal to the data file's size, pad short data with the final
// offset when fewer rows were recorded than expected, and truncate both
// files when more rows were recorded than expected.
//
// Scenario from spec.md §8: data "a\0bb\0\0ccc\0" (10 bytes), 4 logical rows
// -> .sp = [0, 2, 5, 6, 10].
func rebuildTextStartPositions(dataPath string, existing []int64, expectedRows uint32) ([]int64, error) {
	f, err := os.Open(dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return truncateOrPadSP([]int64{0}, 0, expectedRows), nil
		}
		return nil, fmt.Errorf("column: open data for .sp rebuild: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()

	resumeFrom := int64(0)
	var sp []int64
	if n := len(existing); n > 0 && existing[n-1] <= size {
		resumeFrom = existing[n-1]
		sp = append(sp, existing...)
	}
	if len(sp) == 0 {
		sp = append(sp, 0)
	}

	if _, err := f.Seek(resumeFrom, io.SeekStart); err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	pos := resumeFrom
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("column: scan .sp: %w", err)
		}
		pos++
		if b == 0 {
			// pos is now one past the NUL's index: the start offset
			// of the next row.
			sp = append(sp, pos)
		}
	}
	if sp[len(sp)-1] != size {
		sp = append(sp, size)
	}

	out := truncateOrPadSP(sp, size, expectedRows)
	if last := out[len(out)-1]; last < size {
		if err := os.Truncate(dataPath, last); err != nil {
			return nil, fmt.Errorf("column: truncate data for .sp rebuild: %w", err)
		}
	}
	return out, nil
}

// truncateOrPadSP enforces spec.md §4.C step 4/5: pad with the final offset
// if fewer rows were recorded than expected, truncate (the .sp slice here;
// rebuildTextStartPositions truncates the data file) if more were recorded.
func truncateOrPadSP(sp []int64, size int64, expectedRows uint32) []int64 {
	nRecorded := uint32(len(sp) - 1)
	switch {
	case nRecorded < expectedRows:
		for nRecorded < expectedRows {
			sp = append(sp, size)
			nRecorded++
		}
	case nRecorded > expectedRows:
		sp = sp[:expectedRows+1]
	}
	return sp
}

// GetValues decodes NUL-terminated strings for rows marked in mask.
func (c *Text) GetValues(mask bitvector.BitVector) (any, error) {
	sp, err := readStartPositions(c.dir, c.name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(dataPath(c.dir, c.name))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("column %s: read data: %w", c.name, err)
	}
	var out []string
	if mask == nil {
		for i := 0; i+1 < len(sp); i++ {
			out = append(out, extractString(data, sp[i], sp[i+1]))
		}
		return out, nil
	}
	for _, run := range mask.Iterate() {
		for i := run.Start; i < run.Start+run.Length; i++ {
			if int(i)+1 >= len(sp) {
				continue
			}
			out = append(out, extractString(data, sp[i], sp[i+1]))
		}
	}
	return out, nil
}

func extractString(data []byte, start, end int64) string {
	if start < 0 || end > int64(len(data)) || start >= end {
		return ""
	}
	s := data[start:end]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

// Append copies raw bytes for rows [nOld, nOld+nNew) from srcDir to the end
// of destDir's data file, then rebuilds destDir's .sp by scanning the newly
// appended bytes for NUL terminators (spec.md §4.C "Append").
func (c *Text) Append(destDir, srcDir string, nOld, nNew uint32) (int64, error) {
	srcSP, err := readStartPositions(srcDir, c.name)
	if err != nil {
		return -1, err
	}
	if uint32(len(srcSP)) < nOld+nNew+1 {
		return -1, fmt.Errorf("column %s: source .sp too short for rows [%d,%d)", c.name, nOld, nOld+nNew)
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

	existingSP, err := readStartPositions(destDir, c.name)
	if err != nil {
		return -1, err
	}
	newSP, err := rebuildTextStartPositions(dataPath(destDir, c.name), existingSP, nOld+nNew)
	if err != nil {
		return -1, err
	}
	if err := writeStartPositions(destDir, c.name, newSP); err != nil {
		return -1, err
	}
	return int64(nNew), nil
}

func (c *Text) PurgeIndexes(dir string, fm filemanager.FileManager) error {
	return purgeIndexes(dir, c.name, fm)
}

func (c *Text) WriteMetadata(w io.Writer) error { return writeMetadataStanza(w, c) }

// SaveSelected writes only the selected rows' strings (and a freshly
// rebuilt .sp) to dir.
func (c *Text) SaveSelected(mask bitvector.BitVector, dir string) (int64, error) {
	values, err := c.GetValues(mask)
	if err != nil {
		return -1, err
	}
	strs := values.([]string)

	dataFile, err := os.Create(dataPath(dir, c.name))
	if err != nil {
		return -1, fmt.Errorf("column %s: create: %w", c.name, err)
	}
	defer dataFile.Close()

	sp := make([]int64, 0, len(strs)+1)
	var pos int64
	sp = append(sp, 0)
	for _, s := range strs {
		n, err := dataFile.WriteString(s)
		if err != nil {
			return -1, fmt.Errorf("column %s: short write: %w", c.name, err)
		}
		if err := dataFile.WriteByte(0); err != nil {
			return -1, err
		}
		pos += int64(n) + 1
		sp = append(sp, pos)
	}
	if err := writeStartPositions(dir, c.name, sp); err != nil {
		return -1, err
	}
	return int64(len(strs)), nil
}

// SavePermuted writes every row's string to dir in the order given by ind.
func (c *Text) SavePermuted(ind []int, dir string) (int64, error) {
	values, err := c.GetValues(nil)
	if err != nil {
		return -1, err
	}
	strs := values.([]string)
	permuted := make([]string, len(ind))
	for k, orig := range ind {
		if orig < 0 || orig >= len(strs) {
			return -1, fmt.Errorf("column %s: permutation index %d out of range", c.name, orig)
		}
		permuted[k] = strs[orig]
	}
	return writeStringsWithSP(c.name, dir, permuted)
}

// writeStringsWithSP writes strs NUL-terminated to dir/name's data file and
// rebuilds the matching .sp, used by Text.SavePermuted.
func writeStringsWithSP(name, dir string, strs []string) (int64, error) {
	dataFile, err := os.Create(dataPath(dir, name))
	if err != nil {
		return -1, fmt.Errorf("column %s: create: %w", name, err)
	}
	defer dataFile.Close()

	sp := make([]int64, 0, len(strs)+1)
	var pos int64
	sp = append(sp, 0)
	for _, s := range strs {
		n, err := dataFile.WriteString(s)
		if err != nil {
			return -1, fmt.Errorf("column %s: short write: %w", name, err)
		}
		if err := dataFile.WriteByte(0); err != nil {
			return -1, err
		}
		pos += int64(n) + 1
		sp = append(sp, pos)
	}
	if err := writeStartPositions(dir, name, sp); err != nil {
		return -1, err
	}
	return int64(len(strs)), nil
}

// KeywordSearch scans the data file once, using .sp to locate string
// boundaries, returning a bit per row (1 iff match). exact requests
// case-insensitive exact match; otherwise pattern is matched with
// strMatch glob semantics ('*' any run, '?' any one character).
func (c *Text) KeywordSearch(pattern string, exact bool) (bitvector.BitVector, error) {
	sp, err := readStartPositions(c.dir, c.name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(dataPath(c.dir, c.name))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	nRows := uint32(0)
	if len(sp) > 0 {
		nRows = uint32(len(sp) - 1)
	}
	result := bitvector.New(nRows)
	lowerPattern := strings.ToLower(pattern)
	for i := uint32(0); i < nRows; i++ {
		s := extractString(data, sp[i], sp[i+1])
		var match bool
		if exact {
			match = strings.ToLower(s) == lowerPattern
		} else {
			match = strMatch(s, pattern)
		}
		if match {
			_ = result.Set(i)
		}
	}
	return result, nil
}

// strMatch implements glob-style matching with '*' (any run) and '?' (any
// one character), case-insensitive.
func strMatch(s, pattern string) bool {
	return globMatch(strings.ToLower(s), strings.ToLower(pattern))
}

func globMatch(s, pattern string) bool {
	if pattern == "" {
		return s == ""
	}
	switch pattern[0] {
	case '*':
		for i := 0; i <= len(s); i++ {
			if globMatch(s[i:], pattern[1:]) {
				return true
			}
		}
		return false
	case '?':
		if len(s) == 0 {
			return false
		}
		return globMatch(s[1:], pattern[1:])
	default:
		if len(s) == 0 || s[0] != pattern[0] {
			return false
		}
		return globMatch(s[1:], pattern[1:])
	}
}

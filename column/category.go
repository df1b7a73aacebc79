package column

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/gingi/ibis/bitvector"
	"github.com/gingi/ibis/dictionary"
	"github.com/gingi/ibis/filemanager"
)

// Category is a text column whose distinct values are mapped through a
// Dictionary to small integer ids; stored on disk as three files: the raw
// text data file, a .int file of ids, and a .dic dictionary file
// (spec.md §3.1), grounded on
// _examples/original_source/src/category.{h,cpp}'s fillIndex/readDictionary
// (here BuildBitmapIndex/loadDictionary).
type Category struct {
	base
	dict *dictionary.Dictionary
}

func NewCategory(name, description, dir string) *Category {
	return &Category{base: base{name: name, description: description, dir: dir}, dict: dictionary.New()}
}

func (c *Category) Type() ColumnType { return TypeCategory }

// Dictionary returns the column's dictionary, loading it from the .dic file
// on first access if not already populated.
func (c *Category) Dictionary() (*dictionary.Dictionary, error) {
	if c.dict.Size() > 0 {
		return c.dict, nil
	}
	if err := c.loadDictionary(); err != nil {
		return nil, err
	}
	return c.dict, nil
}

func (c *Category) loadDictionary() error {
	f, err := os.Open(sidePath(c.dir, c.name, ".dic"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("column %s: open .dic: %w", c.name, err)
	}
	defer f.Close()

	ids, err := c.readIDs()
	if err != nil {
		return err
	}
	maxID := uint32(0)
	for _, id := range ids {
		if id > maxID {
			maxID = id
		}
	}
	return c.dict.Read(f, int(maxID))
}

func (c *Category) saveDictionary(dir string) error {
	f, err := os.Create(sidePath(dir, c.name, ".dic"))
	if err != nil {
		return fmt.Errorf("column %s: create .dic: %w", c.name, err)
	}
	defer f.Close()
	return c.dict.Write(f)
}

func (c *Category) readIDs() ([]uint32, error) {
	f, err := os.Open(sidePath(c.dir, c.name, ".int"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("column %s: open .int: %w", c.name, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	n := fi.Size() / 4
	ids := make([]uint32, n)
	if err := binary.Read(f, binary.LittleEndian, ids); err != nil {
		return nil, fmt.Errorf("column %s: short read .int: %w", c.name, err)
	}
	return ids, nil
}

func writeIDs(dir, name string, ids []uint32) error {
	f, err := os.Create(sidePath(dir, name, ".int"))
	if err != nil {
		return fmt.Errorf("column %s: create .int: %w", name, err)
	}
	defer f.Close()
	return binary.Write(f, binary.LittleEndian, ids)
}

// GetValues decodes the selected rows' strings via the dictionary.
func (c *Category) GetValues(mask bitvector.BitVector) (any, error) {
	dict, err := c.Dictionary()
	if err != nil {
		return nil, err
	}
	ids, err := c.readIDs()
	if err != nil {
		return nil, err
	}
	var out []string
	emit := func(i uint32) {
		if int(i) >= len(ids) {
			return
		}
		s, _ := dict.Reverse(ids[i])
		out = append(out, s)
	}
	if mask == nil {
		for i := range ids {
			emit(uint32(i))
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

// Append reads the new rows' raw text from srcDir (using the source
// column's own text/.sp layout), inserts each distinct value into the
// dictionary (updating it in place), and appends the resulting ids to
// destDir's .int file.
func (c *Category) Append(destDir, srcDir string, nOld, nNew uint32) (int64, error) {
	if _, err := c.Dictionary(); err != nil {
		return -1, err
	}

	sp, err := readStartPositions(srcDir, c.name)
	if err != nil {
		return -1, err
	}
	if uint32(len(sp)) < nOld+nNew+1 {
		return -1, fmt.Errorf("column %s: source .sp too short for rows [%d,%d)", c.name, nOld, nOld+nNew)
	}
	data, err := os.ReadFile(dataPath(srcDir, c.name))
	if err != nil && !os.IsNotExist(err) {
		return -1, fmt.Errorf("column %s: read source data: %w", c.name, err)
	}

	newIDs := make([]uint32, 0, nNew)
	for i := nOld; i < nOld+nNew; i++ {
		s := extractString(data, sp[i], sp[i+1])
		newIDs = append(newIDs, c.dict.Insert(s))
	}

	existing, err := readIDsIn(destDir, c.name)
	if err != nil {
		return -1, err
	}
	existing = append(existing, newIDs...)
	if err := writeIDs(destDir, c.name, existing); err != nil {
		return -1, err
	}

	// Also carry the raw text + .sp forward, so GetValues/KeywordSearch
	// over the raw column still work even before the dictionary/.int
	// cache is rebuilt (BuildBitmapIndex derives per-id bitmaps from the
	// .int ids; it writes no .idx file).
	text := NewText(c.name, c.description, destDir)
	if _, err := text.Append(destDir, srcDir, nOld, nNew); err != nil {
		return -1, err
	}
	if err := c.saveDictionary(destDir); err != nil {
		return -1, err
	}
	return int64(nNew), nil
}

func readIDsIn(dir, name string) ([]uint32, error) {
	tmp := &Category{base: base{name: name, dir: dir}, dict: dictionary.New()}
	return tmp.readIDs()
}

func (c *Category) PurgeIndexes(dir string, fm filemanager.FileManager) error {
	return purgeIndexes(dir, c.name, fm)
}

func (c *Category) WriteMetadata(w io.Writer) error { return writeMetadataStanza(w, c) }

// SaveSelected writes only the selected rows' ids, dictionary, and raw text
// to dir.
func (c *Category) SaveSelected(mask bitvector.BitVector, dir string) (int64, error) {
	if _, err := c.Dictionary(); err != nil {
		return -1, err
	}
	ids, err := c.readIDs()
	if err != nil {
		return -1, err
	}
	var out []uint32
	for _, run := range mask.Iterate() {
		for i := run.Start; i < run.Start+run.Length; i++ {
			if int(i) < len(ids) {
				out = append(out, ids[i])
			}
		}
	}
	if err := writeIDs(dir, c.name, out); err != nil {
		return -1, err
	}
	if err := c.saveDictionary(dir); err != nil {
		return -1, err
	}
	text := NewText(c.name, c.description, c.dir)
	if _, err := text.SaveSelected(mask, dir); err != nil {
		return -1, err
	}
	return int64(len(out)), nil
}

// BuildBitmapIndex returns, for every distinct dictionary id present in the
// column, a bitmap of the rows holding that id — the trivial one-bit-
// per-row index described in spec.md §8 for a single-entry dictionary,
// generalized to N entries. External BitmapIndex implementations typically
// supersede this; it exists as the fallback the partition engine uses when
// no external index is cached.
func (c *Category) BuildBitmapIndex() (map[uint32]bitvector.BitVector, error) {
	ids, err := c.readIDs()
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]bitvector.BitVector)
	n := uint32(len(ids))
	for i, id := range ids {
		bv, ok := out[id]
		if !ok {
			bv = bitvector.New(n)
			out[id] = bv
		}
		_ = bv.Set(uint32(i))
	}
	return out, nil
}

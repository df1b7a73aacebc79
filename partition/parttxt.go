package partition

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gingi/ibis/bitvector"
	"github.com/gingi/ibis/ridset"
)

// partTxtName, ridsName and maskName are the fixed filenames spec.md §6.1
// gives a partition's metadata, row-identifier, and active-mask files.
const (
	partTxtName = "-part.txt"
	ridsName    = "-rids"
	maskName    = "-part.msk"
)

// meta is the parsed contents of a -part.txt file: a flat key=value map,
// read with bufio.Scanner one "key = value" line at a time (spec.md §6.1).
type meta struct {
	name, description string
	nRows              uint32
}

func partTxtPath(dir string) string { return filepath.Join(dir, partTxtName) }
func ridsPath(dir string) string    { return filepath.Join(dir, ridsName) }
func maskPath(dir string) string    { return filepath.Join(dir, maskName) }

// readMeta parses dir's -part.txt. Returns (nil, nil) if the file is absent
// (a brand-new, empty partition directory).
func readMeta(dir string) (*meta, error) {
	f, err := os.Open(partTxtPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("partition: open %s: %w", partTxtPath(dir), err)
	}
	defer f.Close()

	m := &meta{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "name":
			m.name = value
		case "description":
			m.description = value
		case "number_of_rows":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("partition: %s: bad number_of_rows %q: %w", partTxtPath(dir), value, err)
			}
			m.nRows = uint32(n)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("partition: scan %s: %w", partTxtPath(dir), err)
	}
	return m, nil
}

// writeMeta writes dir's -part.txt. note, when non-empty, is appended as a
// description suffix (the reorder operation's timestamped note, spec.md
// §4.D step 7).
func writeMeta(dir string, m *meta, note string) error {
	f, err := os.Create(partTxtPath(dir))
	if err != nil {
		return fmt.Errorf("partition: create %s: %w", partTxtPath(dir), err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "name = %s\n", m.name)
	desc := m.description
	if note != "" {
		if desc != "" {
			desc += " "
		}
		desc += note
	}
	fmt.Fprintf(w, "description = %s\n", desc)
	fmt.Fprintf(w, "number_of_rows = %d\n", m.nRows)
	return w.Flush()
}

// loadRids reads dir/-rids (n entries, n = nRows), returning an empty
// RidSet if the file is absent.
func loadRids(dir string, nRows uint32) (*ridset.RidSet, error) {
	f, err := os.Open(ridsPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return ridset.NewRidSet(), nil
		}
		return nil, fmt.Errorf("partition: open %s: %w", ridsPath(dir), err)
	}
	defer f.Close()
	rs := ridset.NewRidSet()
	if err := rs.Read(f, int(nRows)); err != nil {
		return nil, fmt.Errorf("partition: read %s: %w", ridsPath(dir), err)
	}
	return rs, nil
}

func writeRids(dir string, rs *ridset.RidSet) error {
	f, err := os.Create(ridsPath(dir))
	if err != nil {
		return fmt.Errorf("partition: create %s: %w", ridsPath(dir), err)
	}
	defer f.Close()
	return rs.Write(f)
}

// loadMask reads dir/-part.msk, defaulting to all-ones of size nRows when
// the file is absent (every row active, the common case for a freshly
// appended partition).
func loadMask(dir string, nRows uint32) (bitvector.BitVector, error) {
	f, err := os.Open(maskPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return bitvector.NewAllOnes(nRows), nil
		}
		return nil, fmt.Errorf("partition: open %s: %w", maskPath(dir), err)
	}
	defer f.Close()
	bv := bitvector.New(0)
	if err := bv.Read(f); err != nil {
		return nil, fmt.Errorf("partition: read %s: %w", maskPath(dir), err)
	}
	return bv, nil
}

// writeMask persists dir/-part.msk iff amask has inactive rows; an
// all-active mask is represented by the file's absence (spec.md §4.D
// "persist -part.msk if cnt < size, else delete the file").
func writeMask(dir string, amask bitvector.BitVector) error {
	if amask.Cnt() == uint64(amask.Size()) {
		if err := os.Remove(maskPath(dir)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("partition: remove %s: %w", maskPath(dir), err)
		}
		return nil
	}
	f, err := os.Create(maskPath(dir))
	if err != nil {
		return fmt.Errorf("partition: create %s: %w", maskPath(dir), err)
	}
	defer f.Close()
	return amask.Write(f)
}

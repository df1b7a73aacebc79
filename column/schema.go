package column

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// NewByType constructs an empty, unpopulated Column of the given logical
// type bound to dir, dispatching fixed-width types to the right FixedWidth
// generic instantiation. Used by schema loading and by AddColumn.
func NewByType(typ ColumnType, name, description, dir string) (Column, error) {
	switch typ {
	case TypeByte:
		return NewFixedWidth[int8](name, description, typ, dir), nil
	case TypeUByte:
		return NewFixedWidth[uint8](name, description, typ, dir), nil
	case TypeShort:
		return NewFixedWidth[int16](name, description, typ, dir), nil
	case TypeUShort:
		return NewFixedWidth[uint16](name, description, typ, dir), nil
	case TypeInt:
		return NewFixedWidth[int32](name, description, typ, dir), nil
	case TypeUInt:
		return NewFixedWidth[uint32](name, description, typ, dir), nil
	case TypeLong:
		return NewFixedWidth[int64](name, description, typ, dir), nil
	case TypeULong, TypeOID:
		return NewFixedWidth[uint64](name, description, typ, dir), nil
	case TypeFloat:
		return NewFixedWidth[float32](name, description, typ, dir), nil
	case TypeDouble:
		return NewFixedWidth[float64](name, description, typ, dir), nil
	case TypeCategory:
		return NewCategory(name, description, dir), nil
	case TypeText:
		return NewText(name, description, dir), nil
	case TypeBlob:
		return NewBlob(name, description, dir), nil
	default:
		return nil, fmt.Errorf("column: unknown type %v", typ)
	}
}

func typeFromString(s string) (ColumnType, bool) {
	for t := TypeByte; t <= TypeBlob; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// schemaFileName is the fixed filename a partition directory stores its
// column-stanza schema under (concatenated "Begin Column ... End Column"
// blocks, one per column, written via WriteMetadata).
const schemaFileName = "-schema.txt"

// WriteSchema writes every column's WriteMetadata stanza, in order, to
// dir/-schema.txt.
func WriteSchema(dir string, cols []Column) error {
	f, err := os.Create(dir + string(os.PathSeparator) + schemaFileName)
	if err != nil {
		return fmt.Errorf("column: create schema file: %w", err)
	}
	defer f.Close()
	for _, c := range cols {
		if err := c.WriteMetadata(f); err != nil {
			return fmt.Errorf("column: write metadata for %s: %w", c.Name(), err)
		}
	}
	return nil
}

// ReadSchema parses dir/-schema.txt and constructs the Column for each
// stanza, bound to dir. Returns (nil, nil) if the schema file is absent.
func ReadSchema(dir string) ([]Column, error) {
	f, err := os.Open(dir + string(os.PathSeparator) + schemaFileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("column: open schema file: %w", err)
	}
	defer f.Close()
	return parseSchema(f, dir)
}

func parseSchema(r io.Reader, dir string) ([]Column, error) {
	var cols []Column
	var name, description, typStr string
	var min, max float64
	var hasBounds bool
	inStanza := false

	flush := func() error {
		if !inStanza {
			return nil
		}
		typ, ok := typeFromString(typStr)
		if !ok {
			return fmt.Errorf("column: unknown data_type %q for column %q", typStr, name)
		}
		col, err := NewByType(typ, name, description, dir)
		if err != nil {
			return err
		}
		if hasBounds {
			if b, ok := col.(interface{ setBounds(min, max float64) }); ok {
				b.setBounds(min, max)
			}
		}
		cols = append(cols, col)
		name, description, typStr = "", "", ""
		min, max, hasBounds = 0, 0, false
		inStanza = false
		return nil
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "Begin Column":
			inStanza = true
		case line == "End Column":
			if err := flush(); err != nil {
				return nil, err
			}
		case strings.Contains(line, "="):
			key, value, _ := strings.Cut(line, "=")
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			switch key {
			case "name":
				name = value
			case "description":
				description = value
			case "data_type":
				typStr = value
			case "minimum":
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					min, hasBounds = v, true
				}
			case "maximum":
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					max, hasBounds = v, true
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("column: scan schema file: %w", err)
	}
	return cols, nil
}

package result

import (
	"fmt"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type cellKind uint8

const (
	nullCell cellKind = iota
	numberCell
	textCell
)

// Cell is one table value: an exact number, a text or null.
type Cell struct {
	kind cellKind
	num  decimal.Decimal
	text string
}

// Null is the empty cell.
var Null = Cell{}

// Num returns a number cell.
func Num(d decimal.Decimal) Cell { return Cell{kind: numberCell, num: d} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{kind: textCell, text: s} }

// Decimal returns the number held by c.
func (c Cell) Decimal() (decimal.Decimal, bool) {
	return c.num, c.kind == numberCell
}

// IsNull reports whether c is empty.
func (c Cell) IsNull() bool { return c.kind == nullCell }

func (c Cell) String() string {
	switch c.kind {
	case numberCell:
		return c.num.String()
	case textCell:
		return c.text
	}
	return ""
}

// MarshalJSON writes numbers as bare decimal literals so that no float
// conversion happens on the way out.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case numberCell:
		return []byte(c.num.String()), nil
	case textCell:
		return json.Marshal(c.text)
	}
	return []byte("null"), nil
}

// Row is one keyed line of a table.
type Row struct {
	Key   string `json:"key"`
	Cells []Cell `json:"cells"`
}

// Table is a keyed frame. Index names the key column ("date" or "bond").
type Table struct {
	Index   string   `json:"index"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable returns an empty table with the given key and columns.
func NewTable(index string, columns ...string) *Table {
	return &Table{Index: index, Columns: columns, Rows: []Row{}}
}

// Column returns the position of name, or -1.
func (t *Table) Column(name string) int {
	return slices.Index(t.Columns, name)
}

// Get returns the cell at key and column, the last one when the key
// repeats.
func (t *Table) Get(key, column string) (Cell, bool) {
	c := t.Column(column)
	if c < 0 {
		return Null, false
	}
	for i := len(t.Rows) - 1; i >= 0; i-- {
		if t.Rows[i].Key == key {
			return t.Rows[i].Cells[c], true
		}
	}
	return Null, false
}

// Keys lists the row keys in row order.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = r.Key
	}
	return keys
}

// DropColumns returns a copy of t without the named columns. Unknown
// names are ignored.
func DropColumns(t *Table, names ...string) *Table {
	var keep []int
	var cols []string
	for i, c := range t.Columns {
		if !slices.Contains(names, c) {
			keep = append(keep, i)
			cols = append(cols, c)
		}
	}
	out := NewTable(t.Index, cols...)
	for _, r := range t.Rows {
		cells := make([]Cell, len(keep))
		for j, i := range keep {
			cells[j] = r.Cells[i]
		}
		out.Rows = append(out.Rows, Row{Key: r.Key, Cells: cells})
	}
	return out
}

// Join outer-joins tables on their keys. Columns are renamed
// "<entity>.<column>" and laid out entity by entity in name order; rows
// are sorted by key and cells absent from an entity are null. Every table
// must share one index and have unique keys.
func Join(tables map[string]*Table) (*Table, error) {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	slices.Sort(names)
	if len(names) == 0 {
		return NewTable("date"), nil
	}

	index := tables[names[0]].Index
	var cols []string
	offsets := make(map[string]int, len(names))
	keySet := map[string]struct{}{}
	for _, n := range names {
		t := tables[n]
		if t.Index != index {
			return nil, fmt.Errorf("join %s: index %q, want %q", n, t.Index, index)
		}
		offsets[n] = len(cols)
		for _, c := range t.Columns {
			cols = append(cols, n+"."+c)
		}
		seen := make(map[string]struct{}, len(t.Rows))
		for _, r := range t.Rows {
			if _, dup := seen[r.Key]; dup {
				return nil, fmt.Errorf("join %s: key %s appears more than once", n, r.Key)
			}
			seen[r.Key] = struct{}{}
			keySet[r.Key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	pos := make(map[string]int, len(keys))
	out := NewTable(index, cols...)
	for i, k := range keys {
		pos[k] = i
		out.Rows = append(out.Rows, Row{Key: k, Cells: make([]Cell, len(cols))})
	}
	for _, n := range names {
		for _, r := range tables[n].Rows {
			copy(out.Rows[pos[r.Key]].Cells[offsets[n]:], r.Cells)
		}
	}
	return out, nil
}

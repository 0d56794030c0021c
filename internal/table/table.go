// Package table holds the in-memory tabular model shared by the reconciler,
// the presenter and the sheet codec: ordered column names and rows of untyped
// values.
package table

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the dynamic type of a cell value.
type Kind uint8

const (
	Null Kind = iota
	Text
	Number
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	default:
		return "null"
	}
}

// Value is a single cell. The zero Value is Null.
type Value struct {
	kind Kind
	text string
	num  float64
}

// NullValue returns an empty cell.
func NullValue() Value { return Value{} }

// TextValue returns a text cell. An empty string is kept as text, not null.
func TextValue(s string) Value { return Value{kind: Text, text: s} }

// NumberValue returns a numeric cell.
func NumberValue(f float64) Value { return Value{kind: Number, num: f} }

// Kind returns the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is an empty cell.
func (v Value) IsNull() bool { return v.kind == Null }

// IsBlank reports whether the cell is null or holds an empty string.
func (v Value) IsBlank() bool {
	return v.kind == Null || (v.kind == Text && v.text == "")
}

// Float returns the numeric payload of a Number cell.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == Number
}

// String renders the value as text. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case Text:
		return v.text
	case Number:
		return FormatNumber(v.num)
	default:
		return ""
	}
}

// FormatNumber renders f in plain decimal notation, never with an exponent,
// so 1.2345678901e10 becomes "12345678901".
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// IsFinite reports whether f can be rendered as a plain decimal.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Table is an ordered set of columns and the rows beneath them. Every row
// holds exactly len(Columns) values.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Build creates a table from loosely typed rows: nil is Null, string is
// Text and any Go numeric type is Number.
func Build(columns []string, rows ...[]any) (*Table, error) {
	t := New(columns...)
	for i, raw := range rows {
		if len(raw) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(raw), len(columns))
		}
		row := make([]Value, len(raw))
		for j, cell := range raw {
			v, err := valueOf(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, columns[j], err)
			}
			row[j] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func valueOf(cell any) (Value, error) {
	switch c := cell.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return c, nil
	case string:
		return TextValue(c), nil
	case float64:
		return NumberValue(c), nil
	case float32:
		return NumberValue(float64(c)), nil
	case int:
		return NumberValue(float64(c)), nil
	case int64:
		return NumberValue(float64(c)), nil
	case int32:
		return NumberValue(float64(c)), nil
	case uint:
		return NumberValue(float64(c)), nil
	case uint64:
		return NumberValue(float64(c)), nil
	case uint32:
		return NumberValue(float64(c)), nil
	default:
		return Value{}, fmt.Errorf("unsupported cell type %T", cell)
	}
}

// FromStrings builds a table from decoded text rows. Empty cells become
// Null; short rows are padded with Null and long rows are truncated to the
// header width.
func FromStrings(headers []string, rows [][]string) *Table {
	t := New(headers...)
	t.Rows = make([][]Value, 0, len(rows))
	for _, raw := range rows {
		row := make([]Value, len(headers))
		for j := range row {
			if j < len(raw) && raw[j] != "" {
				row[j] = TextValue(raw[j])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Missing returns the names from want that are not columns of t, in the
// order given.
func (t *Table) Missing(want ...string) []string {
	var missing []string
	for _, w := range want {
		if !t.Has(w) {
			missing = append(missing, w)
		}
	}
	return missing
}

// AppendRow adds a row, rejecting it if its width does not match.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d values, want %d", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Clone returns a deep copy; callers may mutate it freely.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := New(t.Columns...)
	c.Rows = make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]Value(nil), row...)
	}
	return c
}

// Select returns a new table holding only the given columns, in that order.
func (t *Table) Select(columns ...string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, name := range columns {
		idx[i] = t.Index(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("unknown column %q", name)
		}
	}
	out := New(columns...)
	out.Rows = make([][]Value, len(t.Rows))
	for r, row := range t.Rows {
		sel := make([]Value, len(idx))
		for i, j := range idx {
			sel[i] = row[j]
		}
		out.Rows[r] = sel
	}
	return out, nil
}

// Strings renders every row as text, for codecs and previews.
func (t *Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		line := make([]string, len(row))
		for j, v := range row {
			line[j] = v.String()
		}
		out[i] = line
	}
	return out
}

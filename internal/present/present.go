// Package present computes the review styling of a reconciled table: banded
// rows, highlighted CPF cells that are empty, and an emphasized header. The
// styling is a layer beside the data and never changes a value, so encoders
// that cannot style (CSV, plain text) simply ignore it.
package present

import (
	"github.com/nconklindev/planilha/internal/reconcile"
	"github.com/nconklindev/planilha/internal/table"
)

// Band is the alternating row group a data row belongs to.
type Band string

const (
	BandA Band = "A"
	BandB Band = "B"
)

// BandFor returns the band of the data row at index i (0 is the first data
// row): even rows are A, odd rows are B.
func BandFor(i int) Band {
	if i%2 == 0 {
		return BandA
	}
	return BandB
}

// HeaderStyle is the single style applied to every column header.
type HeaderStyle struct {
	Fill string
	Font string
	Bold bool
}

// CellStyle is the resolved style of one data cell.
type CellStyle struct {
	Fill string
	Font string
	Bold bool
}

// Annotated pairs a table with its style layer. Bands has one entry per row
// and Highlight has the same shape as Table.Rows.
type Annotated struct {
	Table            *table.Table
	Bands            []Band
	Highlight        [][]bool
	Header           HeaderStyle
	IdentifierColumn int
	Palette          Palette
}

// Annotate computes the style layer for t using the default palette.
func Annotate(t *table.Table) *Annotated {
	return AnnotateWith(t, DefaultPalette())
}

// AnnotateWith computes the style layer for t. It accepts nil and empty
// tables and never fails.
func AnnotateWith(t *table.Table, p Palette) *Annotated {
	if t == nil {
		t = table.New()
	}

	a := &Annotated{
		Table:            t,
		Bands:            make([]Band, len(t.Rows)),
		Highlight:        make([][]bool, len(t.Rows)),
		Header:           HeaderStyle{Fill: p.HeaderFill, Font: p.HeaderFont, Bold: true},
		IdentifierColumn: t.Index(reconcile.IdentifierColumn),
		Palette:          p,
	}

	for i, row := range t.Rows {
		a.Bands[i] = BandFor(i)
		flags := make([]bool, len(row))
		if a.IdentifierColumn >= 0 && a.IdentifierColumn < len(row) {
			flags[a.IdentifierColumn] = row[a.IdentifierColumn].IsBlank()
		}
		a.Highlight[i] = flags
	}
	return a
}

// IsHighlighted reports whether the cell at (row, col) is flagged.
func (a *Annotated) IsHighlighted(row, col int) bool {
	if row < 0 || row >= len(a.Highlight) || col < 0 || col >= len(a.Highlight[row]) {
		return false
	}
	return a.Highlight[row][col]
}

// RowStyle is the band style shared by every cell of a data row.
func (a *Annotated) RowStyle(row int) CellStyle {
	style := CellStyle{Fill: a.Palette.BandA, Font: a.Palette.BandFont}
	if row >= 0 && row < len(a.Bands) && a.Bands[row] == BandB {
		style.Fill = a.Palette.BandB
	}
	return style
}

// StyleAt resolves the concrete style of a data cell. A highlight replaces
// the band fill but keeps the band font.
func (a *Annotated) StyleAt(row, col int) CellStyle {
	style := a.RowStyle(row)
	if a.IsHighlighted(row, col) {
		style.Fill = a.Palette.Highlight
	}
	return style
}

// Summary counts what the reviewer will see.
type Summary struct {
	Rows        int
	Columns     int
	Highlighted int
}

// Summary tallies rows, columns and highlighted cells.
func (a *Annotated) Summary() Summary {
	s := Summary{Rows: len(a.Table.Rows), Columns: len(a.Table.Columns)}
	for _, flags := range a.Highlight {
		for _, on := range flags {
			if on {
				s.Highlighted++
			}
		}
	}
	return s
}

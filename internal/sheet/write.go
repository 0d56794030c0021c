package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/planilha/internal/present"
	"github.com/nconklindev/planilha/internal/table"
)

// DefaultSheetName is the name of the single sheet in written workbooks.
const DefaultSheetName = "Planilha"

const (
	minColWidth = 8
	maxColWidth = 60
)

// WriteOptions controls encoding.
type WriteOptions struct {
	SheetName string

	// Progress, when set, receives the fraction of rows written. Sends never
	// block; updates are dropped if the receiver is behind.
	Progress chan<- float64
}

// Write encodes a to filePath. The extension picks the format: .xlsx keeps
// the style layer, .csv writes values only. The file is written next to its
// destination and renamed into place, so a failed write leaves any existing
// file untouched.
func Write(filePath string, a *present.Annotated, opts WriteOptions) error {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".xlsx", ".csv":
	default:
		return fmt.Errorf("unsupported file type: %s", ext)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".planilha-*"+ext)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer tmp.Close()

	if ext == ".csv" {
		err = WriteCSV(tmp, a.Table, opts.Progress)
	} else {
		err = WriteXLSX(tmp, a, opts)
	}
	if err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, filePath)
}

// WriteCSV writes the header and every row as text.
func WriteCSV(w io.Writer, t *table.Table, progress chan<- float64) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns); err != nil {
		return err
	}
	total := len(t.Rows)
	for i, line := range t.Strings() {
		if err := writer.Write(line); err != nil {
			return err
		}
		reportProgress(progress, i+1, total)
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes a single-sheet workbook with the header, band and
// highlight styles of a applied.
func WriteXLSX(w io.Writer, a *present.Annotated, opts WriteOptions) error {
	f, err := buildWorkbook(a, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

func buildWorkbook(a *present.Annotated, opts WriteOptions) (*excelize.File, error) {
	sheetName := opts.SheetName
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		f.Close()
		return nil, err
	}

	if err := fillWorkbook(f, sheetName, a, opts.Progress); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fillWorkbook(f *excelize.File, sheetName string, a *present.Annotated, progress chan<- float64) error {
	t := a.Table
	if len(t.Columns) == 0 {
		return nil
	}

	styles := newStyleCache(f)
	lastCol, err := excelize.ColumnNumberToName(len(t.Columns))
	if err != nil {
		return err
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	headerStyle, err := styles.id(a.Header.Fill, a.Header.Font, a.Header.Bold)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}

	total := len(t.Rows)
	for r, row := range t.Rows {
		excelRow := r + 2
		values := make([]interface{}, len(row))
		for c, v := range row {
			values[c] = cellOf(v)
			if n := utf8.RuneCountInString(v.String()); n > widths[c] {
				widths[c] = n
			}
		}

		start, _ := excelize.CoordinatesToCellName(1, excelRow)
		end, _ := excelize.CoordinatesToCellName(len(t.Columns), excelRow)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return err
		}

		band := a.RowStyle(r)
		bandStyle, err := styles.id(band.Fill, band.Font, band.Bold)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, start, end, bandStyle); err != nil {
			return err
		}

		for c := range row {
			if !a.IsHighlighted(r, c) {
				continue
			}
			style := a.StyleAt(r, c)
			id, err := styles.id(style.Fill, style.Font, style.Bold)
			if err != nil {
				return err
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, excelRow)
			if err := f.SetCellStyle(sheetName, cell, cell, id); err != nil {
				return err
			}
		}

		reportProgress(progress, r+1, total)
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, float64(clamp(w+2, minColWidth, maxColWidth))); err != nil {
			return err
		}
	}

	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellOf maps a value to what excelize stores: text stays a string cell so
// CPFs keep their leading zeros, numbers stay numeric and nulls stay empty.
func cellOf(v table.Value) interface{} {
	switch v.Kind() {
	case table.Text:
		return v.String()
	case table.Number:
		f, _ := v.Float()
		return f
	default:
		return nil
	}
}

type styleKey struct {
	fill, font string
	bold       bool
}

type styleCache struct {
	f   *excelize.File
	ids map[styleKey]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, ids: make(map[styleKey]int)}
}

func (s *styleCache) id(fill, font string, bold bool) (int, error) {
	key := styleKey{fill: fill, font: font, bold: bold}
	if id, ok := s.ids[key]; ok {
		return id, nil
	}

	style := &excelize.Style{Font: &excelize.Font{Bold: bold, Color: font}}
	if fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}}
	}
	id, err := s.f.NewStyle(style)
	if err != nil {
		return 0, err
	}
	s.ids[key] = id
	return id, nil
}

func reportProgress(progressChan chan<- float64, current, total int) {
	if progressChan == nil || total <= 0 {
		return
	}
	select {
	case progressChan <- float64(current) / float64(total):
	default:
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

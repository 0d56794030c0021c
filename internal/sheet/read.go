// Package sheet decodes spreadsheet files into tables and encodes annotated
// tables back into spreadsheets.
package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/planilha/internal/table"
)

// DefaultHeaderSearchRows is how many leading rows are scanned for the header.
const DefaultHeaderSearchRows = 20

// ReadOptions controls header detection.
type ReadOptions struct {
	// HeaderSearchRows limits how many leading rows may hold the header.
	HeaderSearchRows int

	// Required names columns the header row is expected to contain. The
	// first row holding all of them wins; without a match the most
	// populated text row is used.
	Required []string
}

// Read loads the first sheet of an .xlsx file or a .csv file.
func Read(filePath string, opts ReadOptions) (*table.Table, error) {
	if opts.HeaderSearchRows <= 0 {
		opts.HeaderSearchRows = DefaultHeaderSearchRows
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".csv":
		return readCSV(filePath, opts)
	case ".xlsx":
		return readXLSX(filePath, opts)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func readCSV(filePath string, opts ReadOptions) (*table.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(filePath), err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty file: %s", filepath.Base(filePath))
	}

	headerRowIdx := findHeaderRow(records, opts)
	if headerRowIdx == -1 {
		return nil, fmt.Errorf("could not find header row in %s", filepath.Base(filePath))
	}

	headers := normalizeHeaders(records[headerRowIdx])
	return table.FromStrings(headers, dropEmptyRows(records[headerRowIdx+1:])), nil
}

func readXLSX(filePath string, opts ReadOptions) (*table.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file: %s", filepath.Base(filePath))
	}

	headerRowIdx := findHeaderRow(rows, opts)
	if headerRowIdx == -1 {
		return nil, fmt.Errorf("could not find header row in %s", filepath.Base(filePath))
	}

	headers := normalizeHeaders(rows[headerRowIdx])
	t := table.New(headers...)
	for r := headerRowIdx + 1; r < len(rows); r++ {
		if isRowEmpty(rows[r]) {
			continue
		}
		row := make([]table.Value, len(headers))
		for c := range row {
			if c >= len(rows[r]) || rows[r][c] == "" {
				continue
			}
			var rawCell string
			if r < len(raw) && c < len(raw[r]) {
				rawCell = raw[r][c]
			}
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, err
			}
			isDate := false
			if isNumericType(typ) && rows[r][c] != rawCell {
				if isDate, err = hasDateFormat(f, sheetName, cellName); err != nil {
					return nil, err
				}
			}
			row[c] = cellValue(typ, rows[r][c], rawCell, isDate)
		}
		if err := t.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func isNumericType(typ excelize.CellType) bool {
	return typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset
}

// cellValue keeps number cells numeric whatever their display format, so
// amounts shown as "1,234.50" or "R$ 10,00" stay summable. Only dates keep
// their displayed text, since the raw value is a serial day count. Numbers
// are read from the raw value so scientific notation loses no digits.
func cellValue(typ excelize.CellType, formatted, raw string, isDate bool) table.Value {
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || isDate {
			return table.TextValue(formatted)
		}
		return table.NumberValue(n)
	case excelize.CellTypeBool:
		if raw == "1" {
			return table.TextValue("TRUE")
		}
		return table.TextValue("FALSE")
	default:
		return table.TextValue(formatted)
	}
}

// hasDateFormat reports whether the number format of cell renders a date or
// a time of day.
func hasDateFormat(f *excelize.File, sheet, cell string) (bool, error) {
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false, err
	}
	style, err := f.GetStyle(idx)
	if err != nil {
		return false, err
	}
	if style.CustomNumFmt != nil {
		return isDateLayout(*style.CustomNumFmt), nil
	}
	return isBuiltInDateFormat(style.NumFmt), nil
}

// isBuiltInDateFormat covers the built-in ids for dates and times, including
// the locale specific ranges.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateLayout looks for date or time tokens in a custom format code,
// ignoring quoted literals, escaped characters and bracketed sections such
// as [Red] or [$R$-416].
func isDateLayout(code string) bool {
	inQuote, inBracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		default:
			switch unicode.ToLower(r) {
			case 'd', 'm', 'y', 'h', 's':
				return true
			}
		}
	}
	return false
}

// findHeaderRow returns the first row holding every required column. Failing
// that, it picks the row with the most non-empty text cells.
func findHeaderRow(rows [][]string, opts ReadOptions) int {
	searchLimit := len(rows)
	if opts.HeaderSearchRows > 0 && searchLimit > opts.HeaderSearchRows {
		searchLimit = opts.HeaderSearchRows
	}

	if len(opts.Required) > 0 {
		for i := 0; i < searchLimit; i++ {
			if hasAll(rows[i], opts.Required) {
				return i
			}
		}
	}

	maxNonEmpty := 0
	headerIdx := -1
	for i := 0; i < searchLimit; i++ {
		nonEmptyCount := 0
		hasText := false

		for _, cell := range rows[i] {
			trimmed := strings.TrimSpace(cell)
			if trimmed != "" {
				nonEmptyCount++
				if containsLetters(trimmed) {
					hasText = true
				}
			}
		}

		if hasText && nonEmptyCount > maxNonEmpty {
			maxNonEmpty = nonEmptyCount
			headerIdx = i
		}
	}

	return headerIdx
}

func hasAll(row []string, want []string) bool {
	for _, w := range want {
		found := false
		for _, cell := range row {
			if cell == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// containsLetters checks if a string contains any alphabetic characters
func containsLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// normalizeHeaders names blank headers "Unnamed: N" and suffixes repeated
// names with ".1", ".2", ... so every column name is unique.
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	suffix := make(map[string]int)
	for i, h := range raw {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			suffix[h]++
			name = fmt.Sprintf("%s.%d", h, suffix[h])
		}
		used[name] = true
		headers[i] = name
	}
	return headers
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func dropEmptyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if !isRowEmpty(row) {
			out = append(out, row)
		}
	}
	return out
}

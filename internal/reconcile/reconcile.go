// Package reconcile merges a charges table with a name-to-CPF lookup table.
//
// The pipeline runs in a fixed order: validate the lookup columns, coerce
// identifiers to text, drop duplicate identifiers (first one wins), validate
// the charges columns, left join on the student name, drop the lookup name
// column and move CPF right after ALUNO. Nothing is returned unless every
// step succeeds.
package reconcile

import (
	"fmt"

	"github.com/nconklindev/planilha/internal/table"
)

// Column names shared with the spreadsheets produced upstream. They are
// matched exactly, case included.
const (
	NameColumn       = "ALUNO"
	LookupNameColumn = "PESSOA"
	IdentifierColumn = "CPF"
)

// Suffixes applied when a lookup column has the same name as a charges column.
const (
	ChargesSuffix = "_x"
	LookupSuffix  = "_y"
)

// Result is the reconciled table plus the counters shown to the reviewer.
type Result struct {
	Table *table.Table

	// DuplicatesRemoved is the number of lookup rows dropped because an
	// earlier row had the same CPF. Zero means none were found.
	DuplicatesRemoved int

	// Unmatched counts charges rows that found no lookup row.
	Unmatched int
}

// Reconcile runs the whole pipeline. The inputs are not modified.
func Reconcile(charges, lookup *table.Table) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &TransformError{Stage: "reconcile", Err: fmt.Errorf("%v", r)}
		}
	}()

	if missing := lookup.Missing(LookupNameColumn, IdentifierColumn); len(missing) > 0 {
		return nil, &ValidationError{Table: LookupTable, Columns: missing}
	}

	coerced, err := CoerceIdentifiers(lookup, IdentifierColumn)
	if err != nil {
		return nil, err
	}

	deduped, removed, err := Dedupe(coerced, IdentifierColumn)
	if err != nil {
		return nil, err
	}

	if missing := charges.Missing(NameColumn); len(missing) > 0 {
		return nil, &ValidationError{Table: ChargesTable, Columns: missing}
	}

	joined, unmatched, err := Join(charges, deduped)
	if err != nil {
		return nil, err
	}

	ordered, err := PlaceAfter(joined, IdentifierColumn, NameColumn)
	if err != nil {
		return nil, err
	}

	return &Result{
		Table:             ordered,
		DuplicatesRemoved: removed,
		Unmatched:         unmatched,
	}, nil
}

// CoerceIdentifiers returns a copy of t where every value in column is text.
// Numbers are written in plain decimal notation; nulls stay null.
func CoerceIdentifiers(t *table.Table, column string) (*table.Table, error) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, &TransformError{Stage: "coerce", Err: fmt.Errorf("unknown column %q", column)}
	}

	out := t.Clone()
	for r, row := range out.Rows {
		if len(row) != len(out.Columns) {
			return nil, &TransformError{Stage: "coerce", Err: fmt.Errorf("lookup row %d has %d values, want %d", r+1, len(row), len(out.Columns))}
		}
		f, ok := row[idx].Float()
		if !ok {
			continue
		}
		if !table.IsFinite(f) {
			return nil, &TransformError{Stage: "coerce", Err: fmt.Errorf("lookup row %d: %s is not a valid %s", r+1, table.FormatNumber(f), column)}
		}
		row[idx] = table.TextValue(table.FormatNumber(f))
	}
	return out, nil
}

type dedupeKey struct {
	kind table.Kind
	text string
}

// Dedupe keeps the first row for every distinct value of column, preserving
// the original order, and reports how many rows were dropped. Null values
// count as one value. Row slices are shared with t.
func Dedupe(t *table.Table, column string) (*table.Table, int, error) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, 0, &TransformError{Stage: "dedupe", Err: fmt.Errorf("unknown column %q", column)}
	}

	seen := make(map[dedupeKey]struct{}, len(t.Rows))
	out := table.New(t.Columns...)
	out.Rows = make([][]table.Value, 0, len(t.Rows))
	for _, row := range t.Rows {
		v := row[idx]
		key := dedupeKey{kind: v.Kind(), text: v.String()}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out, len(t.Rows) - len(out.Rows), nil
}

// Join left joins charges onto lookup on ALUNO == PESSOA. A charges row is
// repeated once per matching lookup row, in lookup order; a row without a
// match is kept once with every lookup column null. The lookup name column
// is not part of the result. It also returns the number of unmatched rows.
func Join(charges, lookup *table.Table) (*table.Table, int, error) {
	nameIdx := charges.Index(NameColumn)
	keyIdx := lookup.Index(LookupNameColumn)
	if nameIdx < 0 || keyIdx < 0 {
		return nil, 0, &TransformError{Stage: "join", Err: fmt.Errorf("join columns %q/%q not found", NameColumn, LookupNameColumn)}
	}
	if charges.Has(IdentifierColumn) {
		return nil, 0, &TransformError{Stage: "join", Err: fmt.Errorf("charges table already has a %s column", IdentifierColumn)}
	}

	columns, carried, err := joinColumns(charges, lookup, keyIdx)
	if err != nil {
		return nil, 0, err
	}

	matches := make(map[string][]int, len(lookup.Rows))
	for r, row := range lookup.Rows {
		if len(row) != len(lookup.Columns) {
			return nil, 0, &TransformError{Stage: "join", Err: fmt.Errorf("lookup row %d has %d values, want %d", r+1, len(row), len(lookup.Columns))}
		}
		if row[keyIdx].IsNull() {
			continue
		}
		k := row[keyIdx].String()
		matches[k] = append(matches[k], r)
	}

	out := table.New(columns...)
	out.Rows = make([][]table.Value, 0, len(charges.Rows))
	unmatched := 0
	for r, row := range charges.Rows {
		if len(row) != len(charges.Columns) {
			return nil, 0, &TransformError{Stage: "join", Err: fmt.Errorf("charges row %d has %d values, want %d", r+1, len(row), len(charges.Columns))}
		}

		var hits []int
		if !row[nameIdx].IsNull() {
			hits = matches[row[nameIdx].String()]
		}
		if len(hits) == 0 {
			unmatched++
			merged := make([]table.Value, len(columns))
			copy(merged, row)
			out.Rows = append(out.Rows, merged)
			continue
		}
		for _, h := range hits {
			merged := make([]table.Value, 0, len(columns))
			merged = append(merged, row...)
			for _, c := range carried {
				merged = append(merged, lookup.Rows[h][c])
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out, unmatched, nil
}

// joinColumns lists the output columns: every charges column followed by
// every lookup column except the name key. Names present on both sides get
// the _x/_y suffixes.
func joinColumns(charges, lookup *table.Table, keyIdx int) ([]string, []int, error) {
	var carried []int
	for i := range lookup.Columns {
		if i != keyIdx {
			carried = append(carried, i)
		}
	}

	shared := make(map[string]bool)
	for _, c := range carried {
		if charges.Has(lookup.Columns[c]) {
			shared[lookup.Columns[c]] = true
		}
	}

	columns := make([]string, 0, len(charges.Columns)+len(carried))
	for _, name := range charges.Columns {
		if shared[name] {
			name += ChargesSuffix
		}
		columns = append(columns, name)
	}
	for _, c := range carried {
		name := lookup.Columns[c]
		if shared[name] {
			name += LookupSuffix
		}
		columns = append(columns, name)
	}

	unique := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		if _, dup := unique[name]; dup {
			return nil, nil, &TransformError{Stage: "join", Err: fmt.Errorf("duplicate column %q after merge", name)}
		}
		unique[name] = struct{}{}
	}
	return columns, carried, nil
}

// PlaceAfter moves column so it sits immediately after anchor. All other
// columns keep their relative order.
func PlaceAfter(t *table.Table, column, anchor string) (*table.Table, error) {
	if !t.Has(column) || !t.Has(anchor) {
		return nil, &TransformError{Stage: "reorder", Err: fmt.Errorf("columns %q and %q are both required", column, anchor)}
	}

	order := make([]string, 0, len(t.Columns))
	for _, name := range t.Columns {
		if name == column {
			continue
		}
		order = append(order, name)
		if name == anchor {
			order = append(order, column)
		}
	}

	out, err := t.Select(order...)
	if err != nil {
		return nil, &TransformError{Stage: "reorder", Err: err}
	}
	return out, nil
}

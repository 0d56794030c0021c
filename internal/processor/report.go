package processor

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nconklindev/planilha/internal/reconcile"
	"github.com/nconklindev/planilha/internal/types"
)

// ColumnHint is shown after a validation failure.
var ColumnHint = fmt.Sprintf("Check that the column names ('%s', '%s', '%s') are exact.",
	reconcile.NameColumn, reconcile.LookupNameColumn, reconcile.IdentifierColumn)

// DataHint is shown when the columns exist but their contents could not be
// reconciled.
const DataHint = "Check that the charges sheet has no CPF column of its own and that every CPF is a plain number or text."

// FileHint is shown after any other failure.
const FileHint = "Check that the files are the right ones and are valid .xlsx or .csv spreadsheets."

// Report formats run results for people, with locale-aware numbers.
type Report struct {
	printer *message.Printer
}

func NewReport(tag language.Tag) *Report {
	return &Report{printer: message.NewPrinter(tag)}
}

// Count formats n with the locale's digit grouping.
func (r *Report) Count(n int) string {
	return r.printer.Sprintf("%d", n)
}

// Duplicates describes the deduplication outcome. Zero is reported as
// "nothing found", not as an absent check.
func (r *Report) Duplicates(n int) string {
	if n == 0 {
		return "No duplicate CPF was found."
	}
	return fmt.Sprintf("Removed %s record(s) with a duplicate CPF.", r.Count(n))
}

// Lines summarizes a finished run, one fact per line.
func (r *Report) Lines(res *types.ProcessResult) []string {
	return []string{
		fmt.Sprintf("Charges rows:   %s", r.Count(res.ChargesRows)),
		fmt.Sprintf("Lookup rows:    %s", r.Count(res.LookupRows)),
		fmt.Sprintf("Rows written:   %s", r.Count(res.RowsWritten)),
		fmt.Sprintf("Without CPF:    %s", r.Count(res.Unmatched)),
		fmt.Sprintf("Highlighted:    %s", r.Count(res.Highlighted)),
	}
}

// Failure splits an error into a headline and a hint; missing columns get
// the hint about exact column names and bad column contents the data hint.
func Failure(err error) (headline, hint string) {
	switch {
	case reconcile.IsValidation(err):
		return "Error: " + err.Error(), ColumnHint
	case reconcile.IsTransform(err):
		return fmt.Sprintf("The spreadsheets could not be reconciled: %v", err), DataHint
	}
	return fmt.Sprintf("An unexpected error occurred while processing: %v", err), FileHint
}

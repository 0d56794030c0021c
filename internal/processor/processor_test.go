package processor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/nconklindev/planilha/internal/config"
	"github.com/nconklindev/planilha/internal/reconcile"
	"github.com/nconklindev/planilha/internal/sheet"
	"github.com/nconklindev/planilha/internal/types"
)

func writeCSV(t *testing.T, path string, records [][]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(records))
	require.NoError(t, f.Close())
}

func fixtures(t *testing.T, lookupHeader []string) (dir, charges, lookup string) {
	t.Helper()
	dir = t.TempDir()
	charges = filepath.Join(dir, "cobrancas.csv")
	lookup = filepath.Join(dir, "cpfs.csv")

	writeCSV(t, charges, [][]string{
		{"MES", "ALUNO", "VALOR"},
		{"jan", "Ana", "100"},
		{"jan", "Bob", "80"},
		{"fev", "Ana", "100"},
	})
	writeCSV(t, lookup, [][]string{
		lookupHeader,
		{"Ana", "01234567890"},
		{"Ana Paula", "01234567890"},
		{"Caio", "98765432100"},
	})
	return dir, charges, lookup
}

func TestRun_EndToEnd(t *testing.T) {
	dir, charges, lookup := fixtures(t, []string{"PESSOA", "CPF"})
	progress := make(chan float64, 64)

	res, err := New(nil).Run(context.Background(), types.Request{
		ChargesFile: charges,
		LookupFile:  lookup,
	}, progress)
	require.NoError(t, err)
	close(progress)

	assert.Equal(t, filepath.Join(dir, config.DefaultOutputFile), res.OutputFile)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.ChargesRows)
	assert.Equal(t, 3, res.LookupRows)
	assert.Equal(t, 1, res.DuplicatesRemoved)
	assert.Equal(t, 3, res.RowsWritten)
	assert.Equal(t, 1, res.Unmatched)
	assert.Equal(t, 1, res.Highlighted)
	assert.Equal(t, []string{"MES", "ALUNO", "CPF", "VALOR"}, res.Columns)

	var seen []float64
	for p := range progress {
		seen = append(seen, p)
	}
	require.NotEmpty(t, seen)
	assert.InDelta(t, 1.0, seen[len(seen)-1], 1e-9)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}

	out, err := sheet.Read(res.OutputFile, sheet.ReadOptions{Required: []string{"ALUNO"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"jan", "Ana", "01234567890", "100"},
		{"jan", "Bob", "", "80"},
		{"fev", "Ana", "01234567890", "100"},
	}, out.Strings())
}

func TestRun_CSVOutput(t *testing.T) {
	dir, charges, lookup := fixtures(t, []string{"PESSOA", "CPF"})
	outPath := filepath.Join(dir, "revisao.csv")

	_, err := New(config.Default()).Run(context.Background(), types.Request{
		ChargesFile: charges,
		LookupFile:  lookup,
		OutputFile:  outPath,
	}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "MES,ALUNO,CPF,VALOR\njan,Ana,01234567890,100\njan,Bob,,80\nfev,Ana,01234567890,100\n", string(data))
}

func TestRun_ValidationErrorWritesNothing(t *testing.T) {
	dir, charges, lookup := fixtures(t, []string{"PESSOA", "DOCUMENTO"})

	res, err := New(nil).Run(context.Background(), types.Request{
		ChargesFile: charges,
		LookupFile:  lookup,
	}, nil)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, reconcile.IsValidation(err))
	assert.Contains(t, err.Error(), "missing required lookup columns")

	_, statErr := os.Stat(filepath.Join(dir, config.DefaultOutputFile))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRun_MissingFile(t *testing.T) {
	_, err := New(nil).Run(context.Background(), types.Request{
		ChargesFile: filepath.Join(t.TempDir(), "missing.xlsx"),
		LookupFile:  filepath.Join(t.TempDir(), "missing.xlsx"),
	}, nil)
	require.Error(t, err)
	assert.False(t, reconcile.IsValidation(err))
	assert.Contains(t, err.Error(), "failed to read charges file")
}

func TestRun_CanceledContext(t *testing.T) {
	_, charges, lookup := fixtures(t, []string{"PESSOA", "CPF"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).Run(ctx, types.Request{ChargesFile: charges, LookupFile: lookup}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReport(t *testing.T) {
	pt := NewReport(language.BrazilianPortuguese)
	assert.Equal(t, "1.234", pt.Count(1234))
	assert.Equal(t, "No duplicate CPF was found.", pt.Duplicates(0))
	assert.Equal(t, "Removed 1.500 record(s) with a duplicate CPF.", pt.Duplicates(1500))

	en := NewReport(language.AmericanEnglish)
	assert.Equal(t, "1,234", en.Count(1234))

	lines := en.Lines(&types.ProcessResult{ChargesRows: 2, RowsWritten: 3, Unmatched: 1})
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[2], "3")
}

func TestFailure(t *testing.T) {
	headline, hint := Failure(&reconcile.ValidationError{Table: reconcile.ChargesTable, Columns: []string{"ALUNO"}})
	assert.Equal(t, "Error: missing required charges column: ALUNO", headline)
	assert.Equal(t, ColumnHint, hint)

	headline, hint = Failure(fmt.Errorf("wrapped: %w", &reconcile.TransformError{Stage: "join", Err: errors.New("charges table already has a CPF column")}))
	assert.Equal(t, "The spreadsheets could not be reconciled: wrapped: join: charges table already has a CPF column", headline)
	assert.Equal(t, DataHint, hint)

	headline, hint = Failure(errors.New("zip: not a valid zip file"))
	assert.Contains(t, headline, "unexpected error")
	assert.Equal(t, FileHint, hint)
}

func TestRun_ChargesWithCPFIsTransformError(t *testing.T) {
	dir := t.TempDir()
	charges := filepath.Join(dir, "cobrancas.csv")
	lookup := filepath.Join(dir, "cpfs.csv")
	writeCSV(t, charges, [][]string{{"ALUNO", "CPF"}, {"Ana", "000"}})
	writeCSV(t, lookup, [][]string{{"PESSOA", "CPF"}, {"Ana", "111"}})

	_, err := New(nil).Run(context.Background(), types.Request{ChargesFile: charges, LookupFile: lookup}, nil)
	require.Error(t, err)
	assert.True(t, reconcile.IsTransform(err))

	_, hint := Failure(err)
	assert.Equal(t, DataHint, hint)
}

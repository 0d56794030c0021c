package reconcile

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/planilha/internal/table"
)

func build(t *testing.T, columns []string, rows ...[]any) *table.Table {
	t.Helper()
	tbl, err := table.Build(columns, rows...)
	require.NoError(t, err)
	return tbl
}

func TestReconcile_MatchedRow(t *testing.T) {
	charges := build(t, []string{"ALUNO"}, []any{"Ana"})
	lookup := build(t, []string{"PESSOA", "CPF"}, []any{"Ana", "111"})

	res, err := Reconcile(charges, lookup)
	require.NoError(t, err)

	assert.Equal(t, []string{"ALUNO", "CPF"}, res.Table.Columns)
	assert.Equal(t, [][]string{{"Ana", "111"}}, res.Table.Strings())
	assert.Equal(t, 0, res.DuplicatesRemoved)
	assert.Equal(t, 0, res.Unmatched)
}

func TestReconcile_DuplicateIdentifierKeepsFirst(t *testing.T) {
	lookup := build(t, []string{"PESSOA", "CPF"},
		[]any{"Ana", "111"},
		[]any{"Ana Maria", "111"},
	)

	deduped, removed, err := Dedupe(lookup, IdentifierColumn)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, [][]string{{"Ana", "111"}}, deduped.Strings())

	charges := build(t, []string{"ALUNO"}, []any{"Ana Maria"})
	res, err := Reconcile(charges, lookup)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DuplicatesRemoved)
	assert.True(t, res.Table.Rows[0][1].IsNull(), "the second name was dropped with its duplicate CPF")
}

func TestReconcile_UnmatchedRowKeepsNullIdentifier(t *testing.T) {
	charges := build(t, []string{"ALUNO", "VALOR"}, []any{"Bob", 150.5})
	lookup := build(t, []string{"PESSOA", "CPF"}, []any{"Ana", "111"})

	res, err := Reconcile(charges, lookup)
	require.NoError(t, err)

	require.Len(t, res.Table.Rows, 1)
	assert.Equal(t, []string{"ALUNO", "CPF", "VALOR"}, res.Table.Columns)
	assert.Equal(t, "Bob", res.Table.Rows[0][0].String())
	assert.True(t, res.Table.Rows[0][1].IsNull())
	assert.Equal(t, "150.5", res.Table.Rows[0][2].String())
	assert.Equal(t, 1, res.Unmatched)
}

func TestReconcile_LookupMissingColumns(t *testing.T) {
	charges := build(t, []string{"ALUNO"}, []any{"Ana"})
	lookup := build(t, []string{"PESSOA"}, []any{"Ana"})

	res, err := Reconcile(charges, lookup)
	require.Error(t, err)
	assert.Nil(t, res)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, LookupTable, verr.Table)
	assert.Equal(t, []string{"CPF"}, verr.Columns)
	assert.Contains(t, err.Error(), "missing required lookup columns")
	assert.True(t, IsValidation(err))
	assert.False(t, IsTransform(err))
}

func TestReconcile_ChargesMissingColumn(t *testing.T) {
	charges := build(t, []string{"NOME"}, []any{"Ana"})
	lookup := build(t, []string{"PESSOA", "CPF"}, []any{"Ana", "111"})

	res, err := Reconcile(charges, lookup)
	require.Error(t, err)
	assert.Nil(t, res)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ChargesTable, verr.Table)
	assert.Equal(t, []string{"ALUNO"}, verr.Columns)
	assert.Contains(t, err.Error(), "missing required charges column")
}

func TestReconcile_LookupValidatedBeforeCharges(t *testing.T) {
	_, err := Reconcile(table.New("NOME"), table.New("NOME"))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, LookupTable, verr.Table)
	assert.Equal(t, []string{"PESSOA", "CPF"}, verr.Columns)
}

func TestReconcile_NilInputs(t *testing.T) {
	_, err := Reconcile(nil, nil)
	assert.True(t, IsValidation(err))
}

func TestReconcile_RowMultiplication(t *testing.T) {
	charges := build(t, []string{"ALUNO", "MES"},
		[]any{"Ana", "jan"},
		[]any{"Bob", "jan"},
	)
	lookup := build(t, []string{"PESSOA", "CPF"},
		[]any{"Ana", "111"},
		[]any{"Ana", "222"},
	)

	res, err := Reconcile(charges, lookup)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Ana", "111", "jan"},
		{"Ana", "222", "jan"},
		{"Bob", "", "jan"},
	}, res.Table.Strings())
	assert.Equal(t, 0, res.DuplicatesRemoved)
}

func TestReconcile_CaseSensitiveExactMatch(t *testing.T) {
	charges := build(t, []string{"ALUNO"}, []any{"ana"}, []any{"Ana "})
	lookup := build(t, []string{"PESSOA", "CPF"}, []any{"Ana", "111"})

	res, err := Reconcile(charges, lookup)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Unmatched)
	for _, row := range res.Table.Rows {
		assert.True(t, row[1].IsNull())
	}
}

func TestReconcile_NumericIdentifiersBecomeText(t *testing.T) {
	charges := build(t, []string{"ALUNO"}, []any{"Ana"}, []any{"Bia"})
	lookup := build(t, []string{"PESSOA", "CPF"},
		[]any{"Ana", 1.2345678901e10},
		[]any{"Bia", 98765432100},
	)

	res, err := Reconcile(charges, lookup)
	require.NoError(t, err)
	for _, row := range res.Table.Rows {
		assert.Equal(t, table.Text, row[1].Kind())
	}
	assert.Equal(t, "12345678901", res.Table.Rows[0][1].String())
	assert.Equal(t, "98765432100", res.Table.Rows[1][1].String())
}

func TestReconcile_NumberAndTextIdentifiersDedupeTogether(t *testing.T) {
	lookup := build(t, []string{"PESSOA", "CPF"},
		[]any{"Ana", 111},
		[]any{"Bia", "111"},
	)
	res, err := Reconcile(build(t, []string{"ALUNO"}), lookup)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DuplicatesRemoved)
}

func TestReconcile_InvalidNumericIdentifier(t *testing.T) {
	lookup := build(t, []string{"PESSOA", "CPF"}, []any{"Ana", math.NaN()})

	_, err := Reconcile(build(t, []string{"ALUNO"}, []any{"Ana"}), lookup)
	require.Error(t, err)
	assert.True(t, IsTransform(err))

	var terr *TransformError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "coerce", terr.Stage)
}

func TestReconcile_ExtraLookupColumnsAreCarried(t *testing.T) {
	charges := build(t, []string{"MES", "ALUNO", "TURMA"}, []any{"jan", "Ana", "7A"})
	lookup := build(t, []string{"CPF", "TURMA", "PESSOA"}, []any{"111", "8B", "Ana"})

	res, err := Reconcile(charges, lookup)
	require.NoError(t, err)
	assert.Equal(t, []string{"MES", "ALUNO", "CPF", "TURMA_x", "TURMA_y"}, res.Table.Columns)
	assert.Equal(t, [][]string{{"jan", "Ana", "111", "7A", "8B"}}, res.Table.Strings())
}

func TestReconcile_ChargesAlreadyHasIdentifier(t *testing.T) {
	charges := build(t, []string{"ALUNO", "CPF"}, []any{"Ana", "000"})
	lookup := build(t, []string{"PESSOA", "CPF"}, []any{"Ana", "111"})

	_, err := Reconcile(charges, lookup)
	assert.True(t, IsTransform(err))
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	charges := build(t, []string{"ALUNO"}, []any{"Ana"})
	lookup := build(t, []string{"PESSOA", "CPF"}, []any{"Ana", 111})
	before := lookup.Clone()

	_, err := Reconcile(charges, lookup)
	require.NoError(t, err)
	assert.Equal(t, before, lookup)
	assert.Equal(t, []string{"ALUNO"}, charges.Columns)
}

func TestReconcile_RaggedRowIsTransformError(t *testing.T) {
	charges := &table.Table{
		Columns: []string{"ALUNO", "MES"},
		Rows:    [][]table.Value{{table.TextValue("Ana")}},
	}
	lookup := build(t, []string{"PESSOA", "CPF"}, []any{"Ana", "111"})

	_, err := Reconcile(charges, lookup)
	assert.True(t, IsTransform(err))
}

func TestDedupe_Idempotent(t *testing.T) {
	lookup := build(t, []string{"PESSOA", "CPF"},
		[]any{"Ana", "111"},
		[]any{"Bia", "222"},
		[]any{"Caio", "111"},
		[]any{"Duda", nil},
		[]any{"Eva", nil},
		[]any{"Fabi", "222"},
	)

	once, removed, err := Dedupe(lookup, IdentifierColumn)
	require.NoError(t, err)
	twice, removedAgain, err := Dedupe(once, IdentifierColumn)
	require.NoError(t, err)

	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, removedAgain)
	assert.Equal(t, once.Strings(), twice.Strings())
	assert.Equal(t, [][]string{{"Ana", "111"}, {"Bia", "222"}, {"Duda", ""}}, once.Strings())
}

func TestDedupe_CountMatchesDistinctIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		cpfs []any
	}{
		{"Empty", nil},
		{"All distinct", []any{"1", "2", "3"}},
		{"All equal", []any{"1", "1", "1", "1"}},
		{"Mixed", []any{"1", "2", "1", "3", "2", nil, nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows [][]any
			distinct := make(map[any]bool)
			for i, c := range tt.cpfs {
				rows = append(rows, []any{string(rune('a' + i)), c})
				distinct[c] = true
			}
			lookup := build(t, []string{"PESSOA", "CPF"}, rows...)

			deduped, removed, err := Dedupe(lookup, IdentifierColumn)
			require.NoError(t, err)
			assert.Equal(t, len(distinct), deduped.Len())
			assert.Equal(t, len(tt.cpfs)-len(distinct), removed)
		})
	}
}

func TestJoin_EveryChargesRowSurvives(t *testing.T) {
	charges := build(t, []string{"ALUNO"},
		[]any{"Ana"}, []any{nil}, []any{"Bob"}, []any{"Ana"}, []any{""},
	)
	lookup := build(t, []string{"PESSOA", "CPF"},
		[]any{"Ana", "111"}, []any{nil, "999"}, []any{"", "000"},
	)

	res, err := Reconcile(charges, lookup)
	require.NoError(t, err)
	require.Len(t, res.Table.Rows, 5)

	got := res.Table.Strings()
	assert.Equal(t, []string{"Ana", "111"}, got[0])
	assert.Equal(t, []string{"", ""}, got[1], "a null name never matches")
	assert.Equal(t, []string{"Bob", ""}, got[2])
	assert.Equal(t, []string{"Ana", "111"}, got[3])
	assert.Equal(t, []string{"", "000"}, got[4], "an empty name matches an empty name")
	assert.Equal(t, 2, res.Unmatched)
}

func TestPlaceAfter(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		expected []string
	}{
		{"Already in place", []string{"ALUNO", "CPF", "X"}, []string{"ALUNO", "CPF", "X"}},
		{"Identifier last", []string{"A", "ALUNO", "B", "CPF"}, []string{"A", "ALUNO", "CPF", "B"}},
		{"Identifier first", []string{"CPF", "A", "ALUNO"}, []string{"A", "ALUNO", "CPF"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlaceAfter(table.New(tt.columns...), "CPF", "ALUNO")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Columns)
			assert.Equal(t, got.Index("ALUNO")+1, got.Index("CPF"))
		})
	}

	_, err := PlaceAfter(table.New("ALUNO"), "CPF", "ALUNO")
	assert.True(t, IsTransform(err))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "missing required lookup columns: PESSOA, CPF",
		(&ValidationError{Table: LookupTable, Columns: []string{"PESSOA", "CPF"}}).Error())
	assert.Equal(t, "missing required charges column: ALUNO",
		(&ValidationError{Table: ChargesTable, Columns: []string{"ALUNO"}}).Error())

	cause := errors.New("boom")
	terr := &TransformError{Stage: "join", Err: cause}
	assert.Equal(t, "join: boom", terr.Error())
	assert.ErrorIs(t, terr, cause)
	assert.ErrorIs(t, terr, ErrTransform)
}

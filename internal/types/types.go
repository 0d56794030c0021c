package types

import "github.com/nconklindev/planilha/internal/present"

type Request struct {
	ChargesFile string
	LookupFile  string
	OutputFile  string
}

type ProcessResult struct {
	RunID             string
	ChargesFile       string
	LookupFile        string
	OutputFile        string
	ChargesRows       int
	LookupRows        int
	DuplicatesRemoved int
	RowsWritten       int
	Unmatched         int
	Highlighted       int
	Columns           []string
	Annotated         *present.Annotated
}

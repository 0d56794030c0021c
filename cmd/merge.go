package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nconklindev/planilha/internal/logging"
	"github.com/nconklindev/planilha/internal/processor"
	"github.com/nconklindev/planilha/internal/types"
)

var (
	chargesFile string
	lookupFile  string
	outputFile  string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Reconcile two spreadsheets without the terminal UI",
	Long: `Merge reads the charges spreadsheet (column ALUNO) and the lookup
spreadsheet (columns PESSOA and CPF), inserts the CPF after ALUNO and writes
the formatted result.

The output defaults to the config's output_file next to the charges file.
An .xlsx output gets banded rows and highlighted missing CPFs; a .csv output
carries the values only.`,
	Example: `  planilha merge --charges cobrancas.xlsx --lookup cpfs.xlsx
  planilha merge --charges cobrancas.csv --lookup cpfs.csv --out revisao.csv`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVar(&chargesFile, "charges", "", "charges spreadsheet (.xlsx or .csv)")
	mergeCmd.Flags().StringVar(&lookupFile, "lookup", "", "names and CPFs spreadsheet (.xlsx or .csv)")
	mergeCmd.Flags().StringVarP(&outputFile, "out", "o", "", "output file (default from config)")
	_ = mergeCmd.MarkFlagRequired("charges")
	_ = mergeCmd.MarkFlagRequired("lookup")
}

func runMerge(cmd *cobra.Command, _ []string) error {
	logger := logging.New(os.Stderr, level())
	if cfg.LogFile != "" {
		fileLogger, closer, err := logging.Open(cfg.LogFile, level())
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = fileLogger
	}
	ctx := logging.WithLogger(cmd.Context(), &logger)

	out := cmd.OutOrStdout()
	report := processor.NewReport(cfg.Language())

	res, err := processor.New(cfg).Run(ctx, types.Request{
		ChargesFile: chargesFile,
		LookupFile:  lookupFile,
		OutputFile:  outputFile,
	}, nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		headline, hint := processor.Failure(err)
		fmt.Fprintln(cmd.ErrOrStderr(), headline)
		fmt.Fprintln(cmd.ErrOrStderr(), hint)
		return exitError{err}
	}

	fmt.Fprintln(out, report.Duplicates(res.DuplicatesRemoved))
	for _, line := range report.Lines(res) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Output:         %s\n", res.OutputFile)
	return nil
}

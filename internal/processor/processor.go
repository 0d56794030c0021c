// Package processor runs one reconciliation from input files to the output
// file: read both sheets, reconcile, annotate, write.
package processor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nconklindev/planilha/internal/config"
	"github.com/nconklindev/planilha/internal/logging"
	"github.com/nconklindev/planilha/internal/present"
	"github.com/nconklindev/planilha/internal/reconcile"
	"github.com/nconklindev/planilha/internal/sheet"
	"github.com/nconklindev/planilha/internal/types"
)

// Share of the progress bar reached once inputs are read and once the
// reconciliation is done; writing fills the rest.
const (
	progressRead      = 0.1
	progressReconcile = 0.2
)

// Processor holds the settings shared by every run. It keeps no state
// between runs.
type Processor struct {
	cfg *config.Config
}

// New returns a processor using cfg, or the defaults when cfg is nil.
func New(cfg *config.Config) *Processor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Processor{cfg: cfg}
}

// Run processes one request. Progress, when not nil, receives values in
// [0, 1]; sends never block. ctx is checked between stages.
func (p *Processor) Run(ctx context.Context, req types.Request, progress chan<- float64) (*types.ProcessResult, error) {
	ctx, runID := logging.WithRunID(ctx)
	log := logging.FromContext(ctx)

	if req.OutputFile == "" {
		req.OutputFile = p.cfg.OutputPath(req.ChargesFile)
	}

	log.Info().
		Str("charges", req.ChargesFile).
		Str("lookup", req.LookupFile).
		Str("output", req.OutputFile).
		Msg("Processing spreadsheets")

	charges, err := sheet.Read(req.ChargesFile, sheet.ReadOptions{
		HeaderSearchRows: p.cfg.HeaderSearchRows,
		Required:         []string{reconcile.NameColumn},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read charges file %s: %w", filepath.Base(req.ChargesFile), err)
	}

	lookup, err := sheet.Read(req.LookupFile, sheet.ReadOptions{
		HeaderSearchRows: p.cfg.HeaderSearchRows,
		Required:         []string{reconcile.LookupNameColumn, reconcile.IdentifierColumn},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup file %s: %w", filepath.Base(req.LookupFile), err)
	}

	log.Debug().
		Int("charges_rows", charges.Len()).
		Strs("charges_columns", charges.Columns).
		Int("lookup_rows", lookup.Len()).
		Strs("lookup_columns", lookup.Columns).
		Msg("Inputs loaded")
	send(progress, progressRead)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := reconcile.Reconcile(charges, lookup)
	if err != nil {
		log.Warn().
			Err(err).
			Bool("validation", reconcile.IsValidation(err)).
			Bool("transform", reconcile.IsTransform(err)).
			Msg("Reconciliation failed")
		return nil, err
	}

	if res.DuplicatesRemoved > 0 {
		log.Info().Int("removed", res.DuplicatesRemoved).Msg("Removed duplicate CPF records")
	} else {
		log.Info().Msg("No duplicate CPF found")
	}

	annotated := present.AnnotateWith(res.Table, p.cfg.Palette)
	summary := annotated.Summary()
	send(progress, progressReconcile)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := p.write(req.OutputFile, annotated, progress); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", filepath.Base(req.OutputFile), err)
	}
	send(progress, 1)

	log.Info().
		Int("rows", summary.Rows).
		Int("unmatched", res.Unmatched).
		Int("highlighted", summary.Highlighted).
		Str("output", req.OutputFile).
		Msg("Spreadsheet written")

	return &types.ProcessResult{
		RunID:             runID,
		ChargesFile:       req.ChargesFile,
		LookupFile:        req.LookupFile,
		OutputFile:        req.OutputFile,
		ChargesRows:       charges.Len(),
		LookupRows:        lookup.Len(),
		DuplicatesRemoved: res.DuplicatesRemoved,
		RowsWritten:       summary.Rows,
		Unmatched:         res.Unmatched,
		Highlighted:       summary.Highlighted,
		Columns:           res.Table.Columns,
		Annotated:         annotated,
	}, nil
}

// write forwards the writer's row progress onto the remaining part of the bar.
func (p *Processor) write(path string, a *present.Annotated, progress chan<- float64) error {
	opts := sheet.WriteOptions{SheetName: p.cfg.SheetName}
	if progress == nil {
		return sheet.Write(path, a, opts)
	}

	rows := make(chan float64, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for f := range rows {
			send(progress, progressReconcile+(1-progressReconcile)*f)
		}
	}()

	opts.Progress = rows
	err := sheet.Write(path, a, opts)
	close(rows)
	<-done
	return err
}

func send(progress chan<- float64, v float64) {
	if progress == nil {
		return
	}
	select {
	case progress <- v:
	default:
	}
}

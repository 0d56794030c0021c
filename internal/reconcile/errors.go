package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrTransform matches any *TransformError.
	ErrTransform = errors.New("transform failed")
)

// Which input a ValidationError refers to.
const (
	ChargesTable = "charges"
	LookupTable  = "lookup"
)

// ValidationError reports required columns missing from one of the input
// tables. It is raised before any row is processed.
type ValidationError struct {
	Table   string
	Columns []string
}

func (e *ValidationError) Error() string {
	cols := strings.Join(e.Columns, ", ")
	if e.Table == LookupTable {
		return fmt.Sprintf("missing required lookup columns: %s", cols)
	}
	return fmt.Sprintf("missing required %s column: %s", e.Table, cols)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransformError wraps an unexpected failure in one stage of the pipeline.
type TransformError struct {
	Stage string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

func (e *TransformError) Is(target error) bool {
	return target == ErrTransform
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTransform reports whether err is, or wraps, a *TransformError.
func IsTransform(err error) bool {
	return errors.Is(err, ErrTransform)
}

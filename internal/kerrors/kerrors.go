// Package kerrors provides sentinel errors for the ksymtools CLIs.
package kerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for known conditions.
var (
	// ErrMalformedRecord indicates a symtypes line with bad quoting, an
	// unknown prefix, or an empty identifier.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDuplicateExport indicates the same export name appearing in two
	// files of one corpus.
	ErrDuplicateExport = errors.New("duplicate export")

	// ErrInvalidConsolidated indicates a consolidated file with a dangling
	// reference or a variant index beyond range.
	ErrInvalidConsolidated = errors.New("invalid consolidated file")

	// ErrMalformedSymvers indicates a symvers line with a wrong column count
	// or a non-hex CRC.
	ErrMalformedSymvers = errors.New("malformed symvers")

	// ErrMalformedRule indicates a rule line with an unknown severity or a
	// bad glob pattern.
	ErrMalformedRule = errors.New("malformed rule")

	// ErrOutput indicates a failed write to an output destination.
	ErrOutput = errors.New("output error")
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int

	// Printed marks that the command layer already wrote the diagnostic.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// RecordError decorates a sentinel with the file and line it originates from.
func RecordError(sentinel error, path string, line int, msg string) error {
	return fmt.Errorf("%s:%d: %w: %s", path, line, sentinel, msg)
}

// PathError decorates a sentinel with the path it originates from.
func PathError(sentinel error, path string, msg string) error {
	return fmt.Errorf("%s: %w: %s", path, sentinel, msg)
}

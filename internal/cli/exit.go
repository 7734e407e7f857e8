// Package cli provides the command implementations for the ksymtypes and
// ksymvers executables.
package cli

import (
	"errors"

	"github.com/ksymtools/ksymtools/internal/kerrors"
)

// Exit codes shared by both executables.
const (
	// ExitSuccess means success with no material difference.
	ExitSuccess = 0

	// ExitDifferences means a compare command found differences. Not an
	// error.
	ExitDifferences = 1

	// ExitError means any error: I/O, malformed input, bad options.
	ExitError = 2
)

// ExitCodeFromError maps an error to the appropriate exit code.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *kerrors.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitError
}

// DifferencesFound builds the ExitError a compare command returns when the
// comparison itself succeeded but differences remain. The diagnostic is
// already on the selected output stream, so nothing further is printed.
func DifferencesFound() error {
	return &kerrors.ExitError{
		Err:     errors.New("differences found"),
		Code:    ExitDifferences,
		Printed: true,
	}
}

// Package main is the entry point for the ksymvers CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ksymtools/ksymtools/internal/cli"
	"github.com/ksymtools/ksymtools/internal/kerrors"
)

func main() {
	rootCmd := cli.NewKsymversCmd()

	if err := rootCmd.Execute(); err != nil {
		// Check if the error carries an explicit exit code
		var exitErr *kerrors.ExitError
		if errors.As(err, &exitErr) {
			// Only print if the command layer hasn't already reported it
			if !exitErr.Printed {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCodeFromError(err))
	}
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksymtools/ksymtools/internal/version"
)

// NewKsymtypesCmd creates the root command for the ksymtypes CLI.
func NewKsymtypesCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ksymtypes",
		Short: "Work with kernel symtypes corpora",
		Long: `ksymtypes consolidates, splits, and compares the symtypes files a kernel
build produces.

It provides commands to:
  - Consolidate a directory of per-object symtypes files into one file,
    deduplicating identical type definitions across files
  - Split a consolidated file back into per-file symtypes files
  - Compare two corpora and report structural type differences`,
		Version:           version.GetInfo().Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initializeGlobals,
	}

	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"Enable debug output")

	rootCmd.AddCommand(NewConsolidateCmd())
	rootCmd.AddCommand(NewSplitCmd())
	rootCmd.AddCommand(NewCompareCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

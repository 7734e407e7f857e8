package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/rules"
	"github.com/ksymtools/ksymtools/internal/symvers"
	"github.com/ksymtools/ksymtools/internal/version"
)

// NewKsymversCmd creates the root command for the ksymvers CLI.
func NewKsymversCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ksymvers",
		Short: "Work with kernel symvers files",
		Long: `ksymvers compares the symvers files a kernel build produces: exported
symbol names, their CRCs, and provenance.

Changes are classified through severity rules, so known-tolerable
differences can be waved through while everything else fails the check.`,
		Version:           version.GetInfo().Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initializeGlobals,
	}

	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"Enable debug output")

	rootCmd.AddCommand(NewSymversCompareCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// symversCompareOptions holds the flags for the symvers compare command.
type symversCompareOptions struct {
	ruleFiles []string
	format    string
}

// NewSymversCompareCmd creates the symvers compare command.
func NewSymversCompareCmd() *cobra.Command {
	opts := &symversCompareOptions{}

	c := &cobra.Command{
		Use:   "compare FILE1 FILE2",
		Short: "Compare two symvers files",
		Long: `Diffs two symvers files and classifies each change — added or removed
symbols, CRC mismatches, module or export-kind moves — through the
severity rules.

A rule file holds one '<glob> <severity>' rule per line; the first
matching rule wins and unmatched symbols fail. Without rules, any
difference fails.

Exit codes:
  0 - No differences, or every difference matched a pass rule
  1 - Differences remained
  2 - Any error`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSymversCompare(cmd, opts, args[0], args[1])
		},
	}

	c.Flags().StringArrayVarP(&opts.ruleFiles, "rules", "r", nil,
		"Severity rule file (can be repeated)")
	addFormatFlag(c, &opts.format)

	return c
}

// runSymversCompare executes the symvers compare logic.
func runSymversCompare(cmd *cobra.Command, opts *symversCompareOptions, path1, path2 string) error {
	format, err := resolveFormat(cmd, opts.format)
	if err != nil {
		return err
	}

	ruleSet, err := rules.LoadAll(opts.ruleFiles)
	if err != nil {
		return err
	}

	// One interner serves both files so entries compare by handle.
	table := intern.NewTable()

	fileA, err := symvers.Load(table, path1)
	if err != nil {
		return err
	}
	fileB, err := symvers.Load(table, path2)
	if err != nil {
		return err
	}

	result := symvers.Compare(fileA, fileB, ruleSet)

	dest, err := format.Open()
	if err != nil {
		return err
	}
	defer dest.Close()

	if err := symvers.Render(dest, result, format.Kind); err != nil {
		return err
	}
	if err := dest.Close(); err != nil {
		return err
	}

	if result.Failing() {
		return DifferencesFound()
	}
	return nil
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/rules"
	"github.com/ksymtools/ksymtools/internal/symtypes"
)

// compareOptions holds the flags for the symtypes compare command.
type compareOptions struct {
	jobs       int
	format     string
	filterList string
}

// NewCompareCmd creates the symtypes compare command.
func NewCompareCmd() *cobra.Command {
	opts := &compareOptions{}

	c := &cobra.Command{
		Use:   "compare PATH1 PATH2",
		Short: "Compare two symtypes corpora",
		Long: `Loads two corpora — each a directory of symtypes files or a single
consolidated file — and compares the type graphs reachable from their
common exports.

Exit codes:
  0 - No differences found
  1 - Differences found
  2 - Any error`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, opts, args[0], args[1])
		},
	}

	addJobsFlag(c, &opts.jobs)
	addFormatFlag(c, &opts.format)
	c.Flags().StringVar(&opts.filterList, "filter-symbol-list", "",
		"File of symbol-name globs restricting the comparison")

	return c
}

// runCompare executes the symtypes compare logic.
func runCompare(cmd *cobra.Command, opts *compareOptions, path1, path2 string) error {
	format, err := resolveFormat(cmd, opts.format)
	if err != nil {
		return err
	}

	var filter *rules.SymbolFilter
	if opts.filterList != "" {
		filter, err = rules.LoadFilter(opts.filterList)
		if err != nil {
			return err
		}
	}

	jobs := resolveJobs(cmd, opts.jobs)

	// One interner serves both corpora so token handles compare directly.
	table := intern.NewTable()

	corpusA, err := symtypes.Load(table, path1, jobs)
	if err != nil {
		return err
	}
	corpusB, err := symtypes.Load(table, path2, jobs)
	if err != nil {
		return err
	}

	result, err := symtypes.Compare(corpusA, corpusB, filter, jobs)
	if err != nil {
		return err
	}

	dest, err := format.Open()
	if err != nil {
		return err
	}
	defer dest.Close()

	if err := symtypes.Render(dest, result, format.Kind); err != nil {
		return err
	}
	if err := dest.Close(); err != nil {
		return err
	}

	if !result.Empty() {
		return DifferencesFound()
	}
	return nil
}

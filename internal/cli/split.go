package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/output"
	"github.com/ksymtools/ksymtools/internal/symtypes"
)

// splitOptions holds the flags for the split command.
type splitOptions struct {
	out  string
	jobs int
}

// NewSplitCmd creates the split command.
func NewSplitCmd() *cobra.Command {
	opts := &splitOptions{}

	c := &cobra.Command{
		Use:   "split -o DIR PATH",
		Short: "Regenerate per-file symtypes files from a consolidated file",
		Long: `Parses the consolidated file at PATH and writes one base-format symtypes
file per F# record beneath DIR. Each output file carries every type
transitively reachable from the file's exports, resolved to that file's
variants.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, opts, args[0])
		},
	}

	c.Flags().StringVarP(&opts.out, "output", "o", "", "Output directory (required)")
	_ = c.MarkFlagRequired("output")
	addJobsFlag(c, &opts.jobs)

	return c
}

// runSplit executes the split logic.
func runSplit(cmd *cobra.Command, opts *splitOptions, path string) error {
	jobs := resolveJobs(cmd, opts.jobs)
	table := intern.NewTable()

	corpus, err := symtypes.LoadConsolidated(table, path)
	if err != nil {
		return err
	}

	if err := symtypes.Split(corpus, opts.out, jobs); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, output.FormatCheckmark(fmt.Sprintf(
		"split %d files into %s", corpus.NumFiles(), output.FormatNoun(opts.out))))
	return nil
}

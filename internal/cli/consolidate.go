package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/kerrors"
	"github.com/ksymtools/ksymtools/internal/output"
	"github.com/ksymtools/ksymtools/internal/symtypes"
)

// consolidateOptions holds the flags for the consolidate command.
type consolidateOptions struct {
	out  string
	jobs int
}

// NewConsolidateCmd creates the consolidate command.
func NewConsolidateCmd() *cobra.Command {
	opts := &consolidateOptions{}

	c := &cobra.Command{
		Use:   "consolidate -o FILE PATH",
		Short: "Merge a directory of symtypes files into one consolidated file",
		Long: `Parses every *.symtypes file beneath PATH, deduplicates identical type
definitions across files, and writes a single consolidated file.

Identical definitions of one type share a variant; differing definitions
get @0, @1, ... suffixes. F# records bind each file to its exports and to
the variants its types resolve to. Output is byte-stable for a given
input set, regardless of --jobs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsolidate(cmd, opts, args[0])
		},
	}

	c.Flags().StringVarP(&opts.out, "output", "o", "", "Output file (required)")
	_ = c.MarkFlagRequired("output")
	addJobsFlag(c, &opts.jobs)

	return c
}

// runConsolidate executes the consolidate logic.
func runConsolidate(cmd *cobra.Command, opts *consolidateOptions, path string) error {
	jobs := resolveJobs(cmd, opts.jobs)
	table := intern.NewTable()

	corpus, err := symtypes.LoadDirectory(table, path, jobs)
	if err != nil {
		return err
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return kerrors.PathError(kerrors.ErrOutput, opts.out, err.Error())
	}
	defer f.Close()

	if err := symtypes.WriteConsolidated(corpus, f); err != nil {
		return kerrors.PathError(kerrors.ErrOutput, opts.out, err.Error())
	}
	if err := f.Close(); err != nil {
		return kerrors.PathError(kerrors.ErrOutput, opts.out, err.Error())
	}

	fmt.Fprintln(os.Stderr, output.FormatCheckmark(fmt.Sprintf(
		"consolidated %d files into %s", corpus.NumFiles(), output.FormatNoun(opts.out))))
	return nil
}

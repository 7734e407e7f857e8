package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksymtools/ksymtools/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.GetInfo())
			return err
		},
	}
}

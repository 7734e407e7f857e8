package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksymtools/ksymtools/internal/config"
	"github.com/ksymtools/ksymtools/internal/output"
	"github.com/ksymtools/ksymtools/internal/pool"
)

// Global flags shared by both root commands.
var (
	debugFlag bool

	// cfg is the configuration loaded during PersistentPreRunE.
	cfg *config.Config
)

// initializeGlobals sets up logging and loads configuration. Wired as the
// PersistentPreRunE of both root commands.
func initializeGlobals(cmd *cobra.Command, _ []string) error {
	output.SetupLogging(output.LogConfig{Debug: debugFlag})

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// addJobsFlag registers the -j/--jobs flag on a command.
func addJobsFlag(cmd *cobra.Command, jobs *int) {
	cmd.Flags().IntVarP(jobs, "jobs", "j", 0,
		"Number of parallel workers (default: cpu count, capped at 16)")
}

// resolveJobs applies the flag > env/config > default precedence.
func resolveJobs(cmd *cobra.Command, flagValue int) int {
	if cmd.Flags().Changed("jobs") && flagValue > 0 {
		return flagValue
	}
	if cfg != nil && cfg.Jobs > 0 {
		return cfg.Jobs
	}
	return pool.DefaultJobs()
}

// addFormatFlag registers the -f/--format flag on a compare command.
func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "format", "f", "",
		"Output format, TYPE[:FILE] (null, pretty, short, symbols, mod-symbols)")
}

// resolveFormat applies the flag > env/config > default precedence and
// parses the result.
func resolveFormat(cmd *cobra.Command, flagValue string) (output.Format, error) {
	value := flagValue
	if !cmd.Flags().Changed("format") || value == "" {
		value = "pretty"
		if cfg != nil && cfg.Format != "" {
			value = cfg.Format
		}
	}
	return output.ParseFormat(value)
}

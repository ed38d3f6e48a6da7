package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/westrun/internal/resultfile"
	"github.com/roach88/westrun/internal/shell"
	"github.com/roach88/westrun/internal/tools"
	"github.com/roach88/westrun/internal/westenv"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "text" | "json" | "csv"
	ConfigPath  string
	Root        string
	EnvScript   string
	Journal     string
	MetricsFile string

	// Runner, Opener, Lookup and IDs replace the real shell, HDF5 reader,
	// process environment and UUID source. Nil uses the real ones.
	Runner shell.Runner
	Opener resultfile.Opener
	Lookup westenv.LookupFunc
	IDs    tools.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "csv"}

// NewRootCommand creates the root command for the westrun CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(&RootOptions{})
}

// NewRootCommandWith creates the root command around opts.
func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "westrun",
		Short: "Run WESTPA tools and read WESTPA result files",
		Long: `westrun wraps the WESTPA weighted-ensemble toolsuite.

It sources westpa.sh to build the tool environment, runs the w_* tools against
a simulation root, and reads west.h5 and direct.h5 while a simulation may
still be writing them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json|csv)")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	flags.StringVarP(&opts.Root, "root", "r", "", "simulation root (overrides sim_root)")
	flags.StringVar(&opts.EnvScript, "env-script", "", "path to westpa.sh (overrides env_script)")
	flags.StringVar(&opts.Journal, "journal", "", "SQLite invocation journal (overrides journal)")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics here on exit")

	cmd.AddCommand(NewEnvCommand(opts))
	cmd.AddCommand(NewToolsCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewBinsCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewHistCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewIterationCommand(opts))
	cmd.AddCommand(NewFluxCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"

	"github.com/roach88/westrun/internal/analysis"
	"github.com/roach88/westrun/internal/resultfile"
)

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	var tail int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the per-iteration summary from west.h5",
		Long: `Print the summary table of west.h5, one row per iteration numbered from 1.
A file locked by a running simulation is read through a temporary copy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				run, err := s.run(cmd.Context(), false)
				if err != nil {
					return err
				}
				df, err := run.Summary()
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read summary", err)
				}
				return s.out.Table(FrameTable(lastRows(df, tail)))
			})
		},
	}
	cmd.Flags().IntVar(&tail, "tail", 0, "only the last N iterations (0 for all)")
	return cmd
}

func lastRows(df dataframe.DataFrame, n int) dataframe.DataFrame {
	total := df.Nrow()
	if n <= 0 || n >= total {
		return df
	}
	idx := make([]int, 0, n)
	for i := total - n; i < total; i++ {
		idx = append(idx, i)
	}
	return df.Subset(idx)
}

// NewIterationCommand creates the iteration command.
func NewIterationCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "iteration <n>",
		Short: "Print the segments of one iteration",
		Long: `Print seg_index of iteration n with the gmx_performance, SOD_index and
SOD_distance auxiliary columns. Auxiliary data that was not recorded shows
as NaN.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid iteration %q", args[0]))
			}
			return withSession(cmd, rootOpts, func(s *session) error {
				run, err := s.run(cmd.Context(), false)
				if err != nil {
					return err
				}
				df, err := run.Iteration(n)
				if err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("failed to read iteration %d", n), err)
				}
				return s.out.Table(FrameTable(df))
			})
		},
	}
}

// NewFluxCommand creates the flux command.
func NewFluxCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "flux <dataset>",
		Short:     "Print a flux dataset from direct.h5 in long form",
		Long:      "Datasets: " + fmt.Sprint(resultfile.FluxDatasets),
		Args:      cobra.ExactArgs(1),
		ValidArgs: resultfile.FluxDatasets,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(resultfile.FluxDatasets, args[0]) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("unknown flux dataset %q: must be one of %v", args[0], resultfile.FluxDatasets))
			}
			return withSession(cmd, rootOpts, func(s *session) error {
				run, err := s.run(cmd.Context(), false)
				if err != nil {
					return err
				}
				arr, err := run.Flux(args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read "+args[0], err)
				}
				df, err := analysis.FluxFrame(arr, analysis.FluxAxes(len(arr.Dims))...)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to tabulate "+args[0], err)
				}
				return s.out.Table(FrameTable(df))
			})
		},
	}
}

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/westrun/internal/analysis"
	"github.com/roach88/westrun/internal/tools"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Kwargs []string
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <tool> [args...]",
		Short: "Run a WESTPA tool against the simulation root",
		Long: `Run one WESTPA tool as "cd <root> ; <WEST_BIN>/<tool> <args...> <flags...>".

Flags for the tool are given with --kwarg: a one-letter key becomes "-k value",
a longer key becomes "--key value", and a key without a value becomes the bare
"--key". Arguments after "--" are passed through unchanged.

Example:
  westrun exec w_succ -r /data/nacl
  westrun exec w_direct -r /data/nacl -k first-iter=10 -- all`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				kwargs, err := parseKwargs(opts.Kwargs)
				if err != nil {
					return err
				}
				run, err := s.run(cmd.Context(), true)
				if err != nil {
					return err
				}
				res, err := run.Exec(cmd.Context(), args[0], tools.Invocation{Args: args[1:], Kwargs: kwargs})
				return report(s, args[0], res, err)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Kwargs, "kwarg", "k", nil, "tool flag as key=value, or key for a bare flag (repeatable)")

	return cmd
}

// parseKwargs turns "key=value" and "key" into keyword arguments.
func parseKwargs(raw []string) ([]tools.Kwarg, error) {
	kwargs := make([]tools.Kwarg, 0, len(raw))
	for _, item := range raw {
		key, value, hasValue := strings.Cut(item, "=")
		key = strings.TrimLeft(strings.TrimSpace(key), "-")
		if key == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --kwarg %q", item))
		}
		if !hasValue {
			kwargs = append(kwargs, tools.KW(key, true))
			continue
		}
		kwargs = append(kwargs, tools.KW(key, value))
	}
	return kwargs, nil
}

type resultView struct {
	InvocationID string `json:"invocation_id"`
	Tool         string `json:"tool"`
	CommandLine  string `json:"command_line"`
	ExitCode     int    `json:"exit_code"`
	DurationMS   int64  `json:"duration_ms"`
	Stdout       string `json:"stdout"`
	Stderr       string `json:"stderr"`
	Image        string `json:"image,omitempty"`
}

// report prints a tool result and maps a non-zero exit to ExitFailure.
func report(s *session, tool string, res *tools.Result, err error) error {
	if err != nil {
		if res == nil && !errors.Is(err, analysis.ErrToolFailed) {
			return WrapExitError(ExitCommandError, "failed to run "+tool, err)
		}
		return WrapExitError(ExitFailure, "failed to run "+tool, err)
	}

	if s.out.Format == "json" {
		view := resultView{
			InvocationID: res.InvocationID,
			Tool:         res.Tool,
			CommandLine:  res.CommandLine,
			ExitCode:     res.ExitCode,
			DurationMS:   res.Duration.Milliseconds(),
			Stdout:       string(res.Stdout),
			Stderr:       string(res.Stderr),
		}
		if res.Image != nil {
			b := res.Image.Bounds()
			view.Image = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
		}
		if err := s.out.Success(view); err != nil {
			return err
		}
	} else {
		s.out.VerboseLog("%s", res.CommandLine)
		if _, err := s.out.Writer.Write(res.Stdout); err != nil {
			return err
		}
		if _, err := s.out.GetErrWriter().Write(res.Stderr); err != nil {
			return err
		}
	}

	if !res.Success() {
		return NewExitError(ExitFailure, fmt.Sprintf("%s exited with status %d", res.Tool, res.ExitCode))
	}
	s.logger.Debug("tool result reported", "tool", res.Tool, "duration", res.Duration.Round(time.Millisecond))
	return nil
}

// NewBinsCommand creates the bins command.
func NewBinsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		mapper int
		detail bool
	)
	cmd := &cobra.Command{
		Use:   "bins",
		Short: "Show bin mapper information (w_bins info)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				run, err := s.run(cmd.Context(), true)
				if err != nil {
					return err
				}
				res, err := run.Bins(cmd.Context(), mapper, detail)
				return report(s, tools.BinsTool, res, err)
			})
		},
	}
	cmd.Flags().IntVarP(&mapper, "mapper", "n", 0, "bin mapper index (1 is not accepted)")
	cmd.Flags().BoolVar(&detail, "detail", false, "per-bin detail")
	return cmd
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <iter:seg>",
		Short: "Trace a segment's history (w_trace)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iter, seg, err := parseSegmentRef(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(s *session) error {
				run, err := s.run(cmd.Context(), true)
				if err != nil {
					return err
				}
				res, err := run.Trace(cmd.Context(), iter, seg)
				return report(s, tools.TraceTool, res, err)
			})
		},
	}
}

func parseSegmentRef(ref string) (int, int, error) {
	a, b, ok := strings.Cut(ref, ":")
	iter, err1 := strconv.Atoi(a)
	seg, err2 := strconv.Atoi(b)
	if !ok || err1 != nil || err2 != nil {
		return 0, 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid segment %q: want <iteration>:<segment>", ref))
	}
	return iter, seg, nil
}

// NewHistCommand creates the hist command.
func NewHistCommand(rootOpts *RootOptions) *cobra.Command {
	var opts analysis.HistogramOptions
	cmd := &cobra.Command{
		Use:       "hist <instant|average|evolution>",
		Short:     "Plot a progress-coordinate histogram (plothist)",
		Long:      "Run plothist, running w_pdist first when pdist.h5 does not exist yet.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: analysis.HistogramModes,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				run, err := s.run(cmd.Context(), true)
				if err != nil {
					return err
				}
				res, err := run.Histogram(cmd.Context(), args[0], opts)
				return report(s, tools.PlotTool, res, err)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Input, "input", "", "pdist file (default pdist.h5, generated when missing)")
	cmd.Flags().StringVar(&opts.Dimension, "dimension", analysis.DefaultDimension, "dimension expression")
	cmd.Flags().StringVar(&opts.Title, "title", "", "plot title (default: the mode)")
	return cmd
}

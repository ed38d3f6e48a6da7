package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/westrun/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Tool  string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded tool invocations, newest first",
		Long: `List the invocations recorded in the journal. Only runs made with
--journal (or journal in the config) are recorded. When a simulation root is
set, only its invocations are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				if s.journal == nil {
					return NewExitError(ExitCommandError, "no journal configured (use --journal)")
				}
				entries, err := s.journal.List(cmd.Context(), journal.Filter{
					SimRoot: s.cfg.SimRoot,
					Tool:    opts.Tool,
					Limit:   opts.Limit,
				})
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read journal", err)
				}
				return s.out.Table(historyTable(entries))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Tool, "tool", "", "only this tool")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum entries (0 for all)")

	return cmd
}

func historyTable(entries []journal.Entry) Table {
	t := Table{
		Header:  []string{"seq", "id", "tool", "exit_code", "started_at", "duration", "command_line"},
		Records: []map[string]any{},
	}
	for _, e := range entries {
		started := e.StartedAt.UTC().Format(time.RFC3339)
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(e.Seq, 10),
			e.ID,
			e.Tool,
			strconv.Itoa(e.ExitCode),
			started,
			e.Duration.String(),
			e.CommandLine,
		})
		t.Records = append(t.Records, map[string]any{
			"seq":          e.Seq,
			"id":           e.ID,
			"tool":         e.Tool,
			"sim_root":     e.SimRoot,
			"exit_code":    e.ExitCode,
			"started_at":   started,
			"duration_ms":  e.Duration.Milliseconds(),
			"command_line": e.CommandLine,
		})
	}
	return t
}

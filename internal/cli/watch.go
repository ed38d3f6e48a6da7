package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/westrun/internal/analysis"
	"github.com/roach88/westrun/internal/resultfile"
	"github.com/roach88/westrun/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the latest summary row whenever west.h5 changes",
		Long: `Watch west.h5 under the simulation root and print the newest summary
row after each burst of writes. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				return runWatch(cmd, s)
			})
		},
	}
}

func runWatch(cmd *cobra.Command, s *session) error {
	run, err := s.run(cmd.Context(), false)
	if err != nil {
		return err
	}

	// Use the command's context if set (tests cancel it), else background.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			s.logger.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	onChange := func(context.Context) error { return printLatest(s, run) }
	if err := onChange(ctx); err != nil {
		s.logger.Warn("initial summary unavailable", "error", err)
	}

	w := watch.New(filepath.Join(run.Root(), resultfile.WestFile), s.cfg.Debounce(), s.logger)
	if err := w.Run(ctx, onChange); err != nil {
		return WrapExitError(ExitFailure, "watch failed", err)
	}
	return nil
}

func printLatest(s *session, run *analysis.Run) error {
	df, err := run.Summary()
	if err != nil {
		return err
	}
	return s.out.Table(FrameTable(lastRows(df, 1)))
}

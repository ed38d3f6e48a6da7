package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/westrun/internal/analysis"
	"github.com/roach88/westrun/internal/config"
	"github.com/roach88/westrun/internal/journal"
	"github.com/roach88/westrun/internal/logging"
	"github.com/roach88/westrun/internal/metrics"
	"github.com/roach88/westrun/internal/resultfile/h5file"
	"github.com/roach88/westrun/internal/tools"
	"github.com/roach88/westrun/internal/westenv"
)

// session is the per-command state built from config, flags and overrides.
type session struct {
	opts    *RootOptions
	cfg     config.Config
	logger  *slog.Logger
	out     *OutputFormatter
	journal *journal.Journal
}

func newSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Root != "" {
		cfg.SimRoot = opts.Root
	}
	if opts.EnvScript != "" {
		cfg.EnvScript = opts.EnvScript
	}
	if opts.Journal != "" {
		cfg.Journal = opts.Journal
	}
	if opts.MetricsFile != "" {
		cfg.MetricsFile = opts.MetricsFile
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if cfg.SimRoot != "" {
		// The journal records and filters on this exact string.
		abs, err := filepath.Abs(cfg.SimRoot)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid simulation root", err)
		}
		cfg.SimRoot = abs
	}

	profile := logging.ProfileRuntime
	if opts.Verbose {
		profile = logging.ProfileVerbose
	}
	s := &session{
		opts: opts,
		cfg:  cfg,
		logger: logging.Configure(profile, logging.Options{
			Writer: cmd.ErrOrStderr(),
			Level:  cfg.LogLevel,
		}),
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}
	metrics.Register()

	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		s.journal = j
	}
	return s, nil
}

// close writes the metrics textfile and closes the journal.
func (s *session) close() error {
	var errs []error
	if s.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	return errors.Join(errs...)
}

// withSession runs fn with a session and folds the close error into fn's.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(*session) error) (err error) {
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = WrapExitError(ExitFailure, "cleanup failed", cerr)
		}
	}()
	return fn(s)
}

func (s *session) loader() westenv.Loader {
	return westenv.Loader{Shell: s.cfg.Shell, Runner: s.opts.Runner, Logger: s.logger}
}

// initEnv sources the setup script into the process environment when one is
// configured. Without a script the environment must already be set.
func (s *session) initEnv(ctx context.Context) error {
	if s.cfg.EnvScript == "" {
		return nil
	}
	if _, err := westenv.Init(ctx, s.cfg.EnvScript, s.loader()); err != nil {
		return WrapExitError(ExitCommandError, "failed to load WESTPA environment", err)
	}
	return nil
}

func (s *session) lookup() westenv.LookupFunc {
	if s.opts.Lookup != nil {
		return s.opts.Lookup
	}
	return os.LookupEnv
}

func (s *session) registry(ctx context.Context) (*tools.Registry, error) {
	if err := s.initEnv(ctx); err != nil {
		return nil, err
	}
	paths, err := westenv.PathsFromEnv(s.lookup())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "WESTPA environment incomplete", err)
	}

	prober := tools.ShellProber{Bin: paths.Bin, Shell: s.cfg.Shell, Runner: s.opts.Runner}
	reg, err := tools.Load(ctx, s.cfg.Tools, prober, tools.LoadOptions{
		Concurrency: s.cfg.ProbeConcurrency,
		Logger:      s.logger,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load tools", err)
	}
	return reg, nil
}

func (s *session) requireRoot() error {
	if s.cfg.SimRoot == "" {
		return NewExitError(ExitCommandError, "simulation root not set (use --root or sim_root)")
	}
	info, err := os.Stat(s.cfg.SimRoot)
	if err != nil {
		return WrapExitError(ExitCommandError, "simulation root not accessible", err)
	}
	if !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("simulation root %s is not a directory", s.cfg.SimRoot))
	}
	return nil
}

// run binds the run for tool commands; withTools loads the registry first.
func (s *session) run(ctx context.Context, withTools bool) (*analysis.Run, error) {
	if err := s.requireRoot(); err != nil {
		return nil, err
	}
	var reg *tools.Registry
	if withTools {
		var err error
		if reg, err = s.registry(ctx); err != nil {
			return nil, err
		}
	}

	cmdOpts := []tools.Option{
		tools.WithShell(s.cfg.Shell),
		tools.WithLookup(s.lookup()),
	}
	if s.opts.Runner != nil {
		cmdOpts = append(cmdOpts, tools.WithRunner(s.opts.Runner))
	}
	if s.opts.IDs != nil {
		cmdOpts = append(cmdOpts, tools.WithIDGenerator(s.opts.IDs))
	}
	if s.journal != nil {
		cmdOpts = append(cmdOpts, tools.WithRecorder(s.journal))
	}

	opener := s.opts.Opener
	if opener == nil {
		opener = h5file.Opener{}
	}
	return analysis.New(s.cfg.SimRoot, reg, analysis.Options{
		Opener:         opener,
		Logger:         s.logger,
		CommandOptions: cmdOpts,
	}), nil
}

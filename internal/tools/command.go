package tools

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/westrun/internal/metrics"
	"github.com/roach88/westrun/internal/shell"
	"github.com/roach88/westrun/internal/westenv"
)

// PlotOutput is the file plothist is told to write, relative to the
// simulation root.
const PlotOutput = "hist.png"

// Result is the outcome of one tool invocation.
type Result struct {
	InvocationID string
	Tool         string
	SimRoot      string
	CommandLine  string
	Stdout       []byte
	Stderr       []byte
	ExitCode     int
	StartedAt    time.Time
	Duration     time.Duration

	// Image holds the decoded plot for the plotting tool; nil otherwise.
	Image image.Image
}

// Success reports whether the external process exited with status zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Recorder persists completed invocations.
type Recorder interface {
	RecordInvocation(ctx context.Context, r *Result) error
}

// Command runs one WESTPA tool against one simulation root.
type Command struct {
	tool    string
	simRoot string
	paths   westenv.Paths

	shell    string
	runner   shell.Runner
	logger   *slog.Logger
	recorder Recorder
	ids      IDGenerator
	now      func() time.Time
	lookup   westenv.LookupFunc
}

// Option configures a Command.
type Option func(*Command)

func WithRunner(r shell.Runner) Option { return func(c *Command) { c.runner = r } }

func WithShell(name string) Option { return func(c *Command) { c.shell = name } }

func WithLogger(l *slog.Logger) Option { return func(c *Command) { c.logger = l } }

func WithRecorder(r Recorder) Option { return func(c *Command) { c.recorder = r } }

func WithIDGenerator(g IDGenerator) Option { return func(c *Command) { c.ids = g } }

// WithLookup replaces os.LookupEnv as the source of WEST_* paths.
func WithLookup(fn westenv.LookupFunc) Option { return func(c *Command) { c.lookup = fn } }

// WithClock replaces time.Now for start timestamps and durations.
func WithClock(now func() time.Time) Option { return func(c *Command) { c.now = now } }

// NewCommand binds tool to simRoot. The WEST_PYTHON, WEST_ROOT and WEST_BIN
// variables are read here; if any is missing construction fails and nothing
// is ever executed.
func NewCommand(tool, simRoot string, opts ...Option) (*Command, error) {
	if strings.TrimSpace(tool) == "" {
		return nil, fmt.Errorf("tool name is required")
	}

	c := &Command{
		tool:    tool,
		simRoot: filepath.Clean(simRoot),
		runner:  shell.ExecRunner{},
		ids:     UUIDv7Generator{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	paths, err := westenv.PathsFromEnv(c.lookup)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", tool, err)
	}
	c.paths = paths
	return c, nil
}

func (c *Command) Tool() string { return c.tool }
func (c *Command) SimRoot() string { return c.simRoot }
func (c *Command) Paths() westenv.Paths { return c.paths }
func (c *Command) Binary() string { return filepath.Join(c.paths.Bin, c.tool) }

// CommandLine assembles the shell command for inv:
//
//	cd <root> ; <bin>/<tool> <args...> <flags...>
func (c *Command) CommandLine(inv Invocation) string {
	inv = c.prepare(inv)

	words := []string{"cd", shell.Quote(c.simRoot), ";", shell.Quote(c.Binary())}
	for _, arg := range inv.Args {
		words = append(words, shell.Quote(arg))
	}
	for _, f := range Normalize(inv.Kwargs) {
		for _, tok := range f.Tokens() {
			words = append(words, shell.Quote(tok))
		}
	}
	return strings.Join(words, " ")
}

// prepare applies per-tool defaults.
func (c *Command) prepare(inv Invocation) Invocation {
	switch c.tool {
	case BinsTool:
		if len(inv.Args) == 0 {
			inv.Args = []string{"info"}
		}
	case PlotTool:
		if !HasFlag(inv.Kwargs, "o", "output") {
			kwargs := make([]Kwarg, 0, len(inv.Kwargs)+1)
			kwargs = append(kwargs, inv.Kwargs...)
			inv.Kwargs = append(kwargs, KW("o", PlotOutput))
		}
	}
	return inv
}

// Run executes inv and blocks until the process exits or ctx is done. A
// non-zero exit status is reported in Result.ExitCode, not as an error. For
// the plotting tool a successful run also decodes the written image.
func (c *Command) Run(ctx context.Context, inv Invocation) (*Result, error) {
	shellPath, err := shell.Locate(c.shell)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", c.tool, err)
	}

	line := c.CommandLine(inv)
	res := &Result{
		InvocationID: c.ids.Generate(),
		Tool:         c.tool,
		SimRoot:      c.simRoot,
		CommandLine:  line,
		StartedAt:    c.now(),
	}

	c.logger.Debug("running tool", "tool", c.tool, "id", res.InvocationID, "cmd", line)
	out, err := c.runner.Run(ctx, shellPath, line)
	res.Duration = c.now().Sub(res.StartedAt)
	res.Stdout = out.Stdout
	res.Stderr = out.Stderr
	res.ExitCode = out.ExitCode
	if err != nil {
		return res, fmt.Errorf("run %s: %w", c.tool, err)
	}

	metrics.RecordInvocation(c.tool, res.ExitCode, res.Duration)
	if res.Success() {
		c.logger.Info("tool finished", "tool", c.tool, "id", res.InvocationID, "duration", res.Duration)
	} else {
		c.logger.Warn("tool exited non-zero", "tool", c.tool, "id", res.InvocationID, "exit_code", res.ExitCode)
	}

	if c.recorder != nil {
		if err := c.recorder.RecordInvocation(ctx, res); err != nil {
			c.logger.Warn("failed to record invocation", "id", res.InvocationID, "error", err)
		}
	}

	if c.tool == PlotTool && res.Success() {
		img, err := c.decodePlot(inv)
		if err != nil {
			return res, fmt.Errorf("run %s: %w", c.tool, err)
		}
		res.Image = img
	}

	return res, nil
}

func (c *Command) decodePlot(inv Invocation) (image.Image, error) {
	name := PlotOutput
	for _, kw := range inv.Kwargs {
		if (kw.Key == "o" || kw.Key == "output") && kw.Value != nil {
			name = formatValue(kw.Value)
		}
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(c.simRoot, name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open plot: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode plot %s: %w", name, err)
	}
	return img, nil
}

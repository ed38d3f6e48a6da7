package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/westrun/internal/metrics"
	"github.com/roach88/westrun/internal/shell"
)

// ErrNoTools is returned when not a single tool could be registered.
var ErrNoTools = errors.New("no WESTPA tool could be loaded")

// LoadingError reports a registry that ended up empty, with the per-tool
// causes.
type LoadingError struct {
	Probes []Probe
}

func (e *LoadingError) Error() string {
	return fmt.Sprintf("%v (%d probed)", ErrNoTools, len(e.Probes))
}

func (e *LoadingError) Unwrap() error {
	return ErrNoTools
}

// Tool describes one registered external command.
type Tool struct {
	Name        string
	DisplayName string
}

// Bind creates a Command for this tool rooted at simRoot.
func (t Tool) Bind(simRoot string, opts ...Option) (*Command, error) {
	return NewCommand(t.Name, simRoot, opts...)
}

// Probe is the availability result for one tool name.
type Probe struct {
	Name      string
	Available bool
	Err       error
}

// Prober checks whether a tool can be invoked.
type Prober interface {
	Probe(ctx context.Context, name string) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, name string) error

func (f ProberFunc) Probe(ctx context.Context, name string) error { return f(ctx, name) }

// ShellProber runs "<bin>/<name> --help" and treats a zero exit as available.
// With an empty Bin the name is resolved through PATH.
type ShellProber struct {
	Bin    string
	Shell  string
	Runner shell.Runner
}

func (p ShellProber) Probe(ctx context.Context, name string) error {
	shellPath, err := shell.Locate(p.Shell)
	if err != nil {
		return err
	}
	runner := p.Runner
	if runner == nil {
		runner = shell.ExecRunner{}
	}

	bin := name
	if p.Bin != "" {
		bin = filepath.Join(p.Bin, name)
	}
	out, err := runner.Run(ctx, shellPath, shell.Quote(bin)+" --help")
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		msg := strings.TrimSpace(string(out.Stderr))
		if msg == "" {
			return fmt.Errorf("%s --help exited with status %d", name, out.ExitCode)
		}
		return fmt.Errorf("%s --help exited with status %d: %s", name, out.ExitCode, msg)
	}
	return nil
}

// LoadOptions tunes registry loading.
type LoadOptions struct {
	// Concurrency bounds parallel probes; <= 0 means 4.
	Concurrency int
	Logger      *slog.Logger
}

// Registry maps tool names to descriptors and keeps every probe outcome.
type Registry struct {
	tools  map[string]Tool
	probes []Probe
}

// Load probes every name and registers those that respond. A nil prober
// accepts every name. Load fails only if no tool at all is available.
func Load(ctx context.Context, names []string, prober Prober, opts LoadOptions) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}

	probes := make([]Probe, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, name := range names {
		g.Go(func() error {
			p := Probe{Name: name, Available: true}
			if prober != nil {
				if err := prober.Probe(gctx, name); err != nil {
					p.Available = false
					p.Err = err
				}
			}
			probes[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &Registry{tools: make(map[string]Tool), probes: probes}
	for _, p := range probes {
		metrics.RecordProbe(p.Name, p.Available)
		if !p.Available {
			logger.Debug("tool unavailable", "tool", p.Name, "error", p.Err)
			continue
		}
		r.tools[p.Name] = Tool{Name: p.Name, DisplayName: DisplayName(p.Name)}
	}
	if len(r.tools) == 0 {
		return nil, &LoadingError{Probes: probes}
	}

	logger.Debug("tool registry loaded", "available", len(r.tools), "probed", len(probes))
	return r, nil
}

// Get returns an available tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns available tools sorted by name.
func (r *Registry) Tools() []Tool {
	list := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Probes returns every probe outcome in the order the names were given.
func (r *Registry) Probes() []Probe {
	out := make([]Probe, len(r.probes))
	copy(out, r.probes)
	return out
}

// Unavailable maps each tool that failed its probe to the reason.
func (r *Registry) Unavailable() map[string]error {
	out := make(map[string]error)
	for _, p := range r.probes {
		if !p.Available {
			out[p.Name] = p.Err
		}
	}
	return out
}

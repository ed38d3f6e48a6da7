// Package analysis binds the WESTPA tools and result files of one simulation
// root into a single Run.
package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/westrun/internal/resultfile"
	"github.com/roach88/westrun/internal/resultfile/h5file"
	"github.com/roach88/westrun/internal/tools"
)

// ErrToolUnavailable is returned for a tool that was not bound to the run.
var ErrToolUnavailable = errors.New("tool unavailable")

// Options configures New.
type Options struct {
	// Opener reads result files; defaults to the HDF5 backend.
	Opener resultfile.Opener
	Logger *slog.Logger
	// CommandOptions are passed to every bound tool.
	CommandOptions []tools.Option
}

// Run is one simulation directory with its bound tools.
type Run struct {
	root     string
	accessor *resultfile.Accessor
	commands map[string]*tools.Command
	missing  map[string]error
	logger   *slog.Logger
}

// New binds every tool in registry to root. Tools that fail to bind (for
// instance because WEST_BIN is unset) are listed by Missing; they never fail
// construction. A nil registry binds nothing.
func New(root string, registry *tools.Registry, opts Options) *Run {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Opener == nil {
		opts.Opener = h5file.Opener{}
	}
	root = filepath.Clean(root)

	r := &Run{
		root:     root,
		accessor: resultfile.NewAccessor(root, opts.Opener, opts.Logger),
		commands: make(map[string]*tools.Command),
		missing:  make(map[string]error),
		logger:   opts.Logger,
	}
	if registry == nil {
		return r
	}

	for name, err := range registry.Unavailable() {
		r.missing[name] = err
	}
	cmdOpts := append([]tools.Option{tools.WithLogger(opts.Logger)}, opts.CommandOptions...)
	for _, t := range registry.Tools() {
		cmd, err := t.Bind(root, cmdOpts...)
		if err != nil {
			r.missing[t.Name] = err
			continue
		}
		r.commands[t.Name] = cmd
	}
	if len(r.missing) > 0 {
		r.logger.Debug("tools missing from run", "root", root, "count", len(r.missing))
	}
	return r
}

// Root returns the simulation root.
func (r *Run) Root() string { return r.root }

// Name is the final element of the root without its extension.
func (r *Run) Name() string {
	base := filepath.Base(r.root)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Accessor returns the run's result-file accessor.
func (r *Run) Accessor() *resultfile.Accessor { return r.accessor }

// Available lists the bound tool names in sorted order.
func (r *Run) Available() []string {
	out := make([]string, 0, len(r.commands))
	for name := range r.commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Missing returns each unbound tool with the reason.
func (r *Run) Missing() map[string]error {
	out := make(map[string]error, len(r.missing))
	for k, v := range r.missing {
		out[k] = v
	}
	return out
}

// Command returns the bound command for name.
func (r *Run) Command(name string) (*tools.Command, error) {
	if cmd, ok := r.commands[name]; ok {
		return cmd, nil
	}
	if reason, ok := r.missing[name]; ok && reason != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, ErrToolUnavailable, reason)
	}
	return nil, fmt.Errorf("%s: %w", name, ErrToolUnavailable)
}

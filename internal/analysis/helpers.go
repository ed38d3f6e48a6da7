package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/westrun/internal/resultfile"
	"github.com/roach88/westrun/internal/tools"
)

var (
	// ErrInvalidArgument is returned for helper arguments the tool rejects.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrToolFailed is returned when a prerequisite tool exits non-zero.
	ErrToolFailed = errors.New("tool failed")
)

// DefaultDimension is the plothist dimension used when none is given.
const DefaultDimension = "0::pcoord"

// HistogramModes are the plothist subcommands.
var HistogramModes = []string{"instant", "average", "evolution"}

// Exec runs any bound tool.
func (r *Run) Exec(ctx context.Context, tool string, inv tools.Invocation) (*tools.Result, error) {
	cmd, err := r.Command(tool)
	if err != nil {
		return nil, err
	}
	return cmd.Run(ctx, inv)
}

// Bins runs "w_bins info". n is the bin mapper index (0 leaves it unset; 1 is
// rejected). detail lists per-bin details.
func (r *Run) Bins(ctx context.Context, n int, detail bool, kwargs ...tools.Kwarg) (*tools.Result, error) {
	if n == 1 || n < 0 {
		return nil, fmt.Errorf("w_bins -n %d: %w", n, ErrInvalidArgument)
	}
	inv := tools.Invocation{Args: []string{"info"}, Kwargs: kwargs}
	if n > 0 {
		inv.Kwargs = append([]tools.Kwarg{tools.KW("n", n)}, inv.Kwargs...)
	}
	if detail {
		inv.Kwargs = append(inv.Kwargs, tools.KW("detail", true))
	}
	return r.Exec(ctx, tools.BinsTool, inv)
}

// Trace runs "w_trace iter:seg".
func (r *Run) Trace(ctx context.Context, iteration, segment int, kwargs ...tools.Kwarg) (*tools.Result, error) {
	if iteration < 1 || segment < 0 {
		return nil, fmt.Errorf("w_trace %d:%d: %w", iteration, segment, ErrInvalidArgument)
	}
	inv := tools.Invocation{
		Args:   []string{fmt.Sprintf("%d:%d", iteration, segment)},
		Kwargs: kwargs,
	}
	return r.Exec(ctx, tools.TraceTool, inv)
}

// HistogramOptions configures Histogram.
type HistogramOptions struct {
	// Input is the pdist file; empty means pdist.h5 in the root, produced by
	// w_pdist first if it does not exist yet.
	Input string
	// Dimension defaults to DefaultDimension.
	Dimension string
	// Title defaults to the mode.
	Title  string
	Kwargs []tools.Kwarg
}

// Histogram runs "plothist <mode> <input> <dimension>" and returns the result
// with the decoded image.
func (r *Run) Histogram(ctx context.Context, mode string, opts HistogramOptions) (*tools.Result, error) {
	if !slices.Contains(HistogramModes, mode) {
		return nil, fmt.Errorf("plothist mode %q: %w", mode, ErrInvalidArgument)
	}
	if opts.Dimension == "" {
		opts.Dimension = DefaultDimension
	}
	if opts.Title == "" {
		opts.Title = mode
	}

	input := opts.Input
	if input == "" {
		input = resultfile.PdistFile
		if err := r.ensurePdist(ctx); err != nil {
			return nil, err
		}
	}

	kwargs := append([]tools.Kwarg{tools.KW("title", opts.Title)}, opts.Kwargs...)
	return r.Exec(ctx, tools.PlotTool, tools.Invocation{
		Args:   []string{mode, input, opts.Dimension},
		Kwargs: kwargs,
	})
}

func (r *Run) ensurePdist(ctx context.Context) error {
	_, err := os.Stat(filepath.Join(r.root, resultfile.PdistFile))
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", resultfile.PdistFile, err)
	}

	r.logger.Info("pdist.h5 missing, running w_pdist", "root", r.root)
	res, err := r.Exec(ctx, tools.PdistTool, tools.Invocation{})
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("w_pdist exited %d: %w", res.ExitCode, ErrToolFailed)
	}
	return nil
}

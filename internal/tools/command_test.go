package tools

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/westrun/internal/logging"
	"github.com/roach88/westrun/internal/shell"
	"github.com/roach88/westrun/internal/testutil"
	"github.com/roach88/westrun/internal/westenv"
)

type recordedResults struct {
	results []*Result
	err     error
}

func (r *recordedResults) RecordInvocation(_ context.Context, res *Result) error {
	r.results = append(r.results, res)
	return r.err
}

func newTestCommand(t *testing.T, tool, root string, runner shell.Runner, extra ...Option) *Command {
	t.Helper()
	opts := []Option{
		WithShell("sh"),
		WithRunner(runner),
		WithLookup(testutil.WestEnv("/opt/westpa")),
		WithLogger(logging.Discard()),
		WithIDGenerator(NewFixedGenerator("inv-1", "inv-2", "inv-3")),
	}
	cmd, err := NewCommand(tool, root, append(opts, extra...)...)
	require.NoError(t, err)
	return cmd
}

func TestNewCommandMissingEnvironment(t *testing.T) {
	runner := testutil.NewRecordingRunner()
	lookup := func(k string) (string, bool) {
		if k == westenv.VarBin {
			return "/opt/westpa/bin", true
		}
		return "", false
	}

	cmd, err := NewCommand("w_pdist", "/sim", WithRunner(runner), WithLookup(lookup))
	require.Error(t, err)
	assert.Nil(t, cmd)

	var me *westenv.MissingVariablesError
	require.True(t, errors.As(err, &me))
	assert.ElementsMatch(t, []string{westenv.VarPython, westenv.VarRoot}, me.Names)
	assert.Empty(t, runner.Calls(), "no process may be spawned")
}

func TestNewCommandRequiresToolName(t *testing.T) {
	_, err := NewCommand(" ", "/sim", WithLookup(testutil.WestEnv("/opt/westpa")))
	require.Error(t, err)
}

func TestCommandLine(t *testing.T) {
	cmd := newTestCommand(t, "w_pdist", "/data/sim1", testutil.NewRecordingRunner())

	line := cmd.CommandLine(Invocation{Kwargs: []Kwarg{KW("W", "west.h5"), KW("bins", 100), KW("detail", true), KW("o", nil)}})
	assert.Equal(t, "cd /data/sim1 ; /opt/westpa/bin/w_pdist -W west.h5 --bins 100 --detail", line)
}

func TestCommandLineQuotesUnsafeTokens(t *testing.T) {
	cmd := newTestCommand(t, "w_succ", "/data/my sim", testutil.NewRecordingRunner())

	line := cmd.CommandLine(Invocation{Kwargs: []Kwarg{KW("title", "Rate; evolution")}})
	assert.Equal(t, "cd '/data/my sim' ; /opt/westpa/bin/w_succ --title 'Rate; evolution'", line)
}

func TestCommandLineBinsDefaultsToInfo(t *testing.T) {
	cmd := newTestCommand(t, BinsTool, "/sim", testutil.NewRecordingRunner())

	assert.Equal(t, "cd /sim ; /opt/westpa/bin/w_bins info -n 3", cmd.CommandLine(Invocation{Kwargs: []Kwarg{KW("n", 3)}}))
	assert.Equal(t, "cd /sim ; /opt/westpa/bin/w_bins rebin", cmd.CommandLine(Invocation{Args: []string{"rebin"}}))
}

func TestCommandLinePlotForcesOutput(t *testing.T) {
	cmd := newTestCommand(t, PlotTool, "/sim", testutil.NewRecordingRunner())

	line := cmd.CommandLine(Invocation{Args: []string{"average", "pdist.h5", "0::pcoord"}})
	assert.Equal(t, "cd /sim ; /opt/westpa/bin/plothist average pdist.h5 0::pcoord -o hist.png", line)

	line = cmd.CommandLine(Invocation{Args: []string{"average"}, Kwargs: []Kwarg{KW("output", "mine.png")}})
	assert.Equal(t, "cd /sim ; /opt/westpa/bin/plothist average --output mine.png", line)
}

func TestRunReturnsProcessResult(t *testing.T) {
	runner := testutil.NewRecordingRunner().On("w_succ", testutil.Response{
		Output: shell.Output{Stdout: []byte("ok\n"), Stderr: []byte("warn\n"), ExitCode: 0},
	})
	clock := testutil.NewStepClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), 2*time.Second)
	rec := &recordedResults{}
	cmd := newTestCommand(t, "w_succ", "/sim", runner, WithClock(clock.Now), WithRecorder(rec))

	res, err := cmd.Run(context.Background(), Invocation{})
	require.NoError(t, err)

	assert.Equal(t, "inv-1", res.InvocationID)
	assert.Equal(t, "w_succ", res.Tool)
	assert.Equal(t, "cd /sim ; /opt/westpa/bin/w_succ", res.CommandLine)
	assert.Equal(t, "ok\n", string(res.Stdout))
	assert.Equal(t, "warn\n", string(res.Stderr))
	assert.True(t, res.Success())
	assert.Equal(t, 2*time.Second, res.Duration)
	assert.Nil(t, res.Image)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, res.CommandLine, calls[0].Script)
	assert.True(t, strings.HasSuffix(calls[0].Shell, "sh"))

	require.Len(t, rec.results, 1)
	assert.Same(t, res, rec.results[0])
}

func TestRunNonZeroExitIsSurfacedNotSwallowed(t *testing.T) {
	runner := testutil.NewRecordingRunner().On("w_fluxanl", testutil.Response{
		Output: shell.Output{Stderr: []byte("no such file west.h5"), ExitCode: 1},
	})
	rec := &recordedResults{err: errors.New("journal down")}
	cmd := newTestCommand(t, "w_fluxanl", "/sim", runner, WithRecorder(rec))

	res, err := cmd.Run(context.Background(), Invocation{})
	require.NoError(t, err, "a journal failure does not fail the run")
	assert.False(t, res.Success())
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, "no such file west.h5", string(res.Stderr))
	assert.Len(t, rec.results, 1)
}

func TestRunRunnerFailure(t *testing.T) {
	boom := errors.New("fork failed")
	runner := testutil.NewRecordingRunner().On("w_ipa", testutil.Response{Err: boom})
	cmd := newTestCommand(t, "w_ipa", "/sim", runner)

	res, err := cmd.Run(context.Background(), Invocation{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, res)
	assert.Equal(t, "inv-1", res.InvocationID)
}

func TestRunMissingShell(t *testing.T) {
	runner := testutil.NewRecordingRunner()
	cmd := newTestCommand(t, "w_ipa", "/sim", runner, WithShell("no-such-shell-westrun"))

	_, err := cmd.Run(context.Background(), Invocation{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shell.ErrShellNotFound)
	assert.Empty(t, runner.Calls())
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestRunPlotDecodesImage(t *testing.T) {
	root := t.TempDir()
	runner := testutil.NewRecordingRunner().On("plothist", testutil.Response{
		Effect: func(string) { writePNG(t, filepath.Join(root, PlotOutput)) },
	})
	cmd := newTestCommand(t, PlotTool, root, runner)

	res, err := cmd.Run(context.Background(), Invocation{Args: []string{"evolution", "pdist.h5"}})
	require.NoError(t, err)
	require.NotNil(t, res.Image)
	assert.Equal(t, image.Rect(0, 0, 4, 3), res.Image.Bounds())
}

func TestRunPlotMissingImage(t *testing.T) {
	root := t.TempDir()
	cmd := newTestCommand(t, PlotTool, root, testutil.NewRecordingRunner())

	res, err := cmd.Run(context.Background(), Invocation{Args: []string{"average"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.NotNil(t, res)
	assert.Nil(t, res.Image)
}

func TestRunPlotFailureSkipsDecode(t *testing.T) {
	root := t.TempDir()
	runner := testutil.NewRecordingRunner().On("plothist", testutil.Response{Output: shell.Output{ExitCode: 2}})
	cmd := newTestCommand(t, PlotTool, root, runner)

	res, err := cmd.Run(context.Background(), Invocation{Args: []string{"average"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitCode)
	assert.Nil(t, res.Image)
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, UUIDv7Generator{}.Generate())
}

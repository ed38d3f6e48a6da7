package westenv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/westrun/internal/shell"
)

// Variable names captured from the setup script.
const (
	VarRoot          = "WEST_ROOT"
	VarPython        = "WEST_PYTHON"
	VarBin           = "WEST_BIN"
	VarPath          = "PATH"
	VarLDLibraryPath = "LD_LIBRARY_PATH"
)

const sentinel = "___"

// Variables is the fixed, ordered list of names Load captures.
var Variables = []string{VarRoot, VarPython, VarBin, VarPath, VarLDLibraryPath}

// Environment is an ordered set of captured variables.
type Environment struct {
	Names  []string
	Values map[string]string
}

// Get returns the captured value of name.
func (e Environment) Get(name string) (string, bool) {
	v, ok := e.Values[name]
	return v, ok
}

// Apply copies every captured variable into the process environment.
func (e Environment) Apply() error {
	for _, name := range e.Names {
		if err := os.Setenv(name, e.Values[name]); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

// Loader sources a setup script and reads variables back out of it.
type Loader struct {
	// Shell is the shell name or path; empty means bash.
	Shell string
	// Runner executes the sourcing commands; nil means shell.ExecRunner.
	Runner shell.Runner
	Logger *slog.Logger
}

// Load sources script once per variable and captures each value. The value
// is echoed between sentinels so an empty value can be told apart from noise
// the script itself prints.
func (l Loader) Load(ctx context.Context, script string) (Environment, error) {
	shellPath, err := shell.Locate(l.Shell)
	if err != nil {
		return Environment{}, &LoadingError{Script: script, Err: err}
	}
	// A bare name would be looked up on PATH by the shell's "." builtin.
	abs, err := filepath.Abs(script)
	if err != nil {
		return Environment{}, &LoadingError{Script: script, Err: err}
	}
	script = abs
	if _, err := os.Stat(script); err != nil {
		return Environment{}, &LoadingError{Script: script, Err: err}
	}

	runner := l.Runner
	if runner == nil {
		runner = shell.ExecRunner{}
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	env := Environment{
		Names:  make([]string, 0, len(Variables)),
		Values: make(map[string]string, len(Variables)),
	}
	for _, name := range Variables {
		out, err := runner.Run(ctx, shellPath, sourceCommand(script, name))
		if err != nil {
			return Environment{}, &LoadingError{Script: script, Variable: name, Err: err}
		}
		if out.ExitCode != 0 {
			return Environment{}, &LoadingError{
				Script:   script,
				Variable: name,
				Err:      fmt.Errorf("exit status %d: %s", out.ExitCode, strings.TrimSpace(string(out.Stderr))),
			}
		}
		value, ok := extractValue(string(out.Stdout))
		if !ok {
			return Environment{}, &LoadingError{Script: script, Variable: name, Err: ErrSentinelMissing}
		}
		env.Names = append(env.Names, name)
		env.Values[name] = value
		logger.Debug("captured environment variable", "name", name, "script", script)
	}

	return env, nil
}

// Init loads script and applies the captured variables to the process
// environment.
func Init(ctx context.Context, script string, l Loader) (Environment, error) {
	env, err := l.Load(ctx, script)
	if err != nil {
		return Environment{}, err
	}
	if err := env.Apply(); err != nil {
		return Environment{}, &LoadingError{Script: script, Err: err}
	}
	return env, nil
}

func sourceCommand(script, name string) string {
	return fmt.Sprintf(". %s && echo %s${%s}%s", shell.Quote(script), sentinel, name, sentinel)
}

// extractValue returns the text between the last pair of sentinels.
func extractValue(out string) (string, bool) {
	out = strings.TrimRight(out, "\r\n")
	end := strings.LastIndex(out, sentinel)
	if end < 0 {
		return "", false
	}
	start := strings.LastIndex(out[:end], sentinel)
	if start < 0 {
		return "", false
	}
	return out[start+len(sentinel) : end], true
}

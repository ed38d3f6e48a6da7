package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultShell is the shell the WESTPA setup script is written for.
const DefaultShell = "bash"

// ErrShellNotFound is returned when the requested shell is not on PATH.
var ErrShellNotFound = errors.New("shell not found")

// Output is the captured result of one shell invocation.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes a command string in a shell. A nil error means the process
// ran to completion, whatever its exit status; errors are reserved for
// failures to start or wait on the process.
type Runner interface {
	Run(ctx context.Context, shellPath, script string) (Output, error)
}

// KillGrace bounds how long Run waits for output pipes to close after the
// process group has been killed.
const KillGrace = 2 * time.Second

// ExecRunner runs scripts on the local host via os/exec. The shell runs in
// its own process group; cancelling ctx kills the whole group, so tools the
// script started do not keep Run blocked.
type ExecRunner struct {
	// Dir is the working directory of the spawned shell. Empty means the
	// current directory.
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, shellPath, script string) (Output, error) {
	cmd := exec.CommandContext(ctx, shellPath, "-c", script)
	cmd.Dir = r.Dir
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = KillGrace
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}

	out.ExitCode = 1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		out.ExitCode = 127
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, fmt.Errorf("%w: %v", ctxErr, err)
	}
	return out, err
}

// Locate resolves a shell name (or absolute path) to an executable path.
func Locate(name string) (string, error) {
	if name == "" {
		name = DefaultShell
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrShellNotFound, name, err)
	}
	return path, nil
}

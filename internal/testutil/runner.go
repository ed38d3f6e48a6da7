package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/roach88/westrun/internal/shell"
)

// Call is one script a RecordingRunner was asked to run.
type Call struct {
	Shell  string
	Script string
}

// Response is what a RecordingRunner returns for matching scripts.
type Response struct {
	Output shell.Output
	Err    error
	// Effect runs before the response is returned, e.g. to write the file a
	// real tool would have produced.
	Effect func(script string)
}

// RecordingRunner is a shell.Runner that never spawns a process. It records
// every call and answers with the first response whose key is a substring of
// the script, or with a zero Output.
//
// Thread-safety: safe for concurrent use; registry probes run in parallel.
type RecordingRunner struct {
	mu        sync.Mutex
	calls     []Call
	responses []keyedResponse
}

type keyedResponse struct {
	key  string
	resp Response
}

// NewRecordingRunner creates a runner that succeeds silently by default.
func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{}
}

// On registers resp for scripts containing key. Earlier registrations win.
func (r *RecordingRunner) On(key string, resp Response) *RecordingRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, keyedResponse{key: key, resp: resp})
	return r
}

func (r *RecordingRunner) Run(_ context.Context, shellPath, script string) (shell.Output, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Shell: shellPath, Script: script})
	var match *Response
	for i := range r.responses {
		if strings.Contains(script, r.responses[i].key) {
			match = &r.responses[i].resp
			break
		}
	}
	r.mu.Unlock()

	if match == nil {
		return shell.Output{}, nil
	}
	if match.Effect != nil {
		match.Effect(script)
	}
	return match.Output, match.Err
}

// Calls returns a snapshot of recorded calls.
func (r *RecordingRunner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Scripts returns just the recorded scripts.
func (r *RecordingRunner) Scripts() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Script
	}
	return out
}

// WestEnv returns a lookup function serving the three WEST_* paths rooted at
// base, for tools.WithLookup.
func WestEnv(base string) func(string) (string, bool) {
	env := map[string]string{
		"WEST_PYTHON": base + "/env/bin/python",
		"WEST_ROOT":   base,
		"WEST_BIN":    base + "/bin",
	}
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

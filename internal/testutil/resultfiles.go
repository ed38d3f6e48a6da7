package testutil

import (
	"fmt"
	"io/fs"
	"os"
	"sync"
	"syscall"
	"testing"

	"github.com/roach88/westrun/internal/resultfile"
)

// ResultFiles is a resultfile.Opener backed by MemFiles. Place writes a small
// marker file to disk and Open serves the MemFile whose marker it reads, so a
// byte copy of a placed file opens to the same content.
//
// Thread-safety: safe for concurrent use.
type ResultFiles struct {
	mu      sync.Mutex
	byMark  map[string]*resultfile.MemFile
	locked  map[string]bool
	opens   []string
	counter int
}

// NewResultFiles returns an empty opener.
func NewResultFiles() *ResultFiles {
	return &ResultFiles{
		byMark: make(map[string]*resultfile.MemFile),
		locked: make(map[string]bool),
	}
}

// Place writes a marker for f at path.
func (r *ResultFiles) Place(t testing.TB, path string, f *resultfile.MemFile) {
	t.Helper()
	r.mu.Lock()
	r.counter++
	mark := fmt.Sprintf("memfile-%d", r.counter)
	r.byMark[mark] = f
	r.mu.Unlock()

	if err := os.WriteFile(path, []byte(mark), 0o644); err != nil {
		t.Fatalf("place %s: %v", path, err)
	}
}

// Lock makes Open fail for path the way HDF5 does for a file held by a writer.
func (r *ResultFiles) Lock(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked[path] = true
}

// Unlock reverses Lock.
func (r *ResultFiles) Unlock(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locked, path)
}

func (r *ResultFiles) Open(path string) (resultfile.File, error) {
	r.mu.Lock()
	r.opens = append(r.opens, path)
	locked := r.locked[path]
	r.mu.Unlock()

	if locked {
		return nil, &fs.PathError{Op: "open", Path: path, Err: syscall.EAGAIN}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byMark[string(raw)]
	if !ok {
		return nil, fmt.Errorf("open %s: not a placed result file", path)
	}
	return f, nil
}

// Opens returns the paths passed to Open, in order.
func (r *ResultFiles) Opens() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.opens))
	copy(out, r.opens)
	return out
}

package resultfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/westrun/internal/metrics"
)

// CopySuffix is inserted before the extension of a locked file's duplicate.
const CopySuffix = "_COPY"

// Accessor opens result files under one simulation root.
type Accessor struct {
	root   string
	opener Opener
	logger *slog.Logger

	// mu keeps at most one duplicate per root and file in existence within
	// this process. Other processes reading the same root are not excluded.
	mu sync.Mutex
}

// NewAccessor returns an accessor for root. A nil logger uses slog.Default.
func NewAccessor(root string, opener Opener, logger *slog.Logger) *Accessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accessor{root: filepath.Clean(root), opener: opener, logger: logger}
}

// Root returns the simulation root.
func (a *Accessor) Root() string { return a.root }

// Path returns the location of a result file under the root.
func (a *Accessor) Path(name string) string { return filepath.Join(a.root, name) }

// CopyPath returns where the duplicate of a locked file is written.
func (a *Accessor) CopyPath(name string) string {
	ext := filepath.Ext(name)
	return filepath.Join(a.root, strings.TrimSuffix(name, ext)+CopySuffix+ext)
}

// With opens name read-only and passes the handle to fn. If the primary file
// cannot be opened it is copied to CopyPath and the copy is read instead.
// The handle is always closed and the copy always removed, including when fn
// fails or panics; cleanup failures are joined to fn's error.
func (a *Accessor) With(name string, fn func(File) error) (err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	primary := a.Path(name)
	f, openErr := a.opener.Open(primary)
	copied := false
	dup := a.CopyPath(name)
	if openErr != nil {
		a.logger.Warn("result file not readable, reading a copy",
			"file", primary,
			"copy", dup,
			"error", openErr,
		)
		if err := copyFile(primary, dup); err != nil {
			return fmt.Errorf("open %s: %w; copy fallback: %w", primary, openErr, err)
		}
		f, err = a.opener.Open(dup)
		if err != nil {
			return errors.Join(fmt.Errorf("open copy of %s: %w", primary, err), removeCopy(dup))
		}
		copied = true
	}

	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", name, cerr))
		}
		if copied {
			err = errors.Join(err, removeCopy(dup))
		}
	}()

	metrics.RecordResultFileRead(name, copied)
	a.logger.Debug("result file opened", "file", name, "copied", copied)
	return fn(f)
}

func removeCopy(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove copy: %w", err)
	}
	return nil
}

// copyFile writes a byte-for-byte duplicate of src to dst, replacing any
// stale duplicate. A partial dst is removed on failure.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

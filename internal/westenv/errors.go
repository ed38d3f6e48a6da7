package westenv

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSentinelMissing is returned when a sourcing command produced no
// sentinel-wrapped value.
var ErrSentinelMissing = errors.New("sentinel not found in shell output")

// LoadingError reports a failure to build the WESTPA environment.
type LoadingError struct {
	Script   string
	Variable string // empty when the failure happened before any variable was read
	Err      error
}

func (e *LoadingError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("failed to load WESTPA environment from %s (reading %s): %v", e.Script, e.Variable, e.Err)
	}
	return fmt.Sprintf("failed to load WESTPA environment from %s: %v", e.Script, e.Err)
}

func (e *LoadingError) Unwrap() error {
	return e.Err
}

// MissingVariablesError lists required variables absent from the environment.
type MissingVariablesError struct {
	Names []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("%s not found in environment", strings.Join(e.Names, ", "))
}

// IsLoadingError reports whether err is (or wraps) a LoadingError.
func IsLoadingError(err error) bool {
	var le *LoadingError
	return errors.As(err, &le)
}

package resultfile

import (
	"errors"
	"fmt"
)

// Result file names under a simulation root.
const (
	WestFile   = "west.h5"
	AssignFile = "assign.h5"
	DirectFile = "direct.h5"
	PdistFile  = "pdist.h5"
)

var (
	// ErrNotFound is returned for a dataset path or field that does not exist.
	ErrNotFound = errors.New("dataset not found")
	// ErrWrongKind is returned when a path holds a different kind of object
	// than the read asked for.
	ErrWrongKind = errors.New("unexpected object kind")
)

// Kind classifies the object stored at a path.
type Kind int

const (
	KindMissing Kind = iota
	KindGroup
	KindNumeric  // integer or floating-point dataset
	KindCompound // dataset of records
	KindOther    // strings, opaque data and anything else
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindNumeric:
		return "numeric"
	case KindCompound:
		return "compound"
	case KindOther:
		return "other"
	default:
		return "missing"
	}
}

// Array is a dense row-major numeric dataset.
type Array struct {
	Dims []int
	Data []float64
}

// Len is the size of the first dimension (1 for scalars).
func (a *Array) Len() int {
	if len(a.Dims) == 0 {
		return 1
	}
	return a.Dims[0]
}

// RowSize is the number of elements per index of the first dimension.
func (a *Array) RowSize() int {
	n := 1
	for _, d := range a.Dims[min(1, len(a.Dims)):] {
		n *= d
	}
	return n
}

// Column returns element j of every row of a 2-D array, or the data itself
// for a 1-D array when j is 0.
func (a *Array) Column(j int) ([]float64, error) {
	switch {
	case len(a.Dims) == 1 && j == 0:
		out := make([]float64, len(a.Data))
		copy(out, a.Data)
		return out, nil
	case len(a.Dims) == 2 && j >= 0 && j < a.Dims[1]:
		out := make([]float64, a.Dims[0])
		for i := range out {
			out[i] = a.Data[i*a.Dims[1]+j]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %d of array with dims %v: %w", j, a.Dims, ErrWrongKind)
	}
}

// Records is a compound dataset decoded into named numeric columns. Members
// that are not scalar numbers (hash strings, nested arrays) are skipped.
type Records struct {
	Dims    []int
	Fields  []string
	Columns map[string][]float64
}

// Len is the number of records.
func (r *Records) Len() int {
	n := 1
	for _, d := range r.Dims {
		n *= d
	}
	return n
}

// Column returns the values of one field.
func (r *Records) Column(name string) ([]float64, bool) {
	col, ok := r.Columns[name]
	return col, ok
}

// Field extracts one member as an Array shaped like the dataset.
func (r *Records) Field(name string) (*Array, error) {
	col, ok := r.Columns[name]
	if !ok {
		return nil, fmt.Errorf("field %q: %w", name, ErrNotFound)
	}
	dims := make([]int, len(r.Dims))
	copy(dims, r.Dims)
	return &Array{Dims: dims, Data: col}, nil
}

// File is an open, read-only result file.
type File interface {
	// Kind reports what is stored at path; KindMissing if nothing is.
	Kind(path string) Kind
	ReadArray(path string) (*Array, error)
	ReadField(path, field string) (*Array, error)
	ReadRecords(path string) (*Records, error)
	Close() error
}

// Exists reports whether anything is stored at path.
func Exists(f File, path string) bool {
	return f.Kind(path) != KindMissing
}

// Opener opens a result file read-only.
type Opener interface {
	Open(path string) (File, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (File, error)

func (fn OpenerFunc) Open(path string) (File, error) { return fn(path) }

// IterationGroup returns the group path of iteration n.
func IterationGroup(n int) string {
	return fmt.Sprintf("iterations/iter_%08d", n)
}

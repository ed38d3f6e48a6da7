package resultfile

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemFile is an in-memory File. Paths use the same slash-separated keys as
// HDF5; any prefix of a stored path is a group.
type MemFile struct {
	mu      sync.Mutex
	arrays  map[string]*Array
	records map[string]*Records
	closes  int
}

// NewMemFile returns an empty MemFile.
func NewMemFile() *MemFile {
	return &MemFile{
		arrays:  make(map[string]*Array),
		records: make(map[string]*Records),
	}
}

// PutArray stores a numeric dataset.
func (m *MemFile) PutArray(path string, dims []int, data []float64) *MemFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arrays[path] = &Array{Dims: append([]int(nil), dims...), Data: append([]float64(nil), data...)}
	return m
}

// PutRecords stores a compound dataset of len(dims) dimensions. Every column
// must hold one value per record.
func (m *MemFile) PutRecords(path string, dims []int, fields []string, columns map[string][]float64) *MemFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := &Records{
		Dims:    append([]int(nil), dims...),
		Fields:  append([]string(nil), fields...),
		Columns: make(map[string][]float64, len(columns)),
	}
	for _, name := range fields {
		recs.Columns[name] = append([]float64(nil), columns[name]...)
	}
	m.records[path] = recs
	return m
}

// Paths lists the stored dataset paths in sorted order.
func (m *MemFile) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.arrays)+len(m.records))
	for p := range m.arrays {
		out = append(out, p)
	}
	for p := range m.records {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Closes reports how many times Close was called.
func (m *MemFile) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

func (m *MemFile) Kind(path string) Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.arrays[path]; ok {
		return KindNumeric
	}
	if _, ok := m.records[path]; ok {
		return KindCompound
	}
	prefix := strings.TrimSuffix(path, "/") + "/"
	for p := range m.arrays {
		if strings.HasPrefix(p, prefix) {
			return KindGroup
		}
	}
	for p := range m.records {
		if strings.HasPrefix(p, prefix) {
			return KindGroup
		}
	}
	return KindMissing
}

func (m *MemFile) ReadArray(path string) (*Array, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	arr, ok := m.arrays[path]
	if !ok {
		if _, isRec := m.records[path]; isRec {
			return nil, fmt.Errorf("%s is compound: %w", path, ErrWrongKind)
		}
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return &Array{Dims: append([]int(nil), arr.Dims...), Data: append([]float64(nil), arr.Data...)}, nil
}

func (m *MemFile) ReadRecords(path string) (*Records, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs, ok := m.records[path]
	if !ok {
		if _, isArr := m.arrays[path]; isArr {
			return nil, fmt.Errorf("%s is numeric: %w", path, ErrWrongKind)
		}
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	out := &Records{
		Dims:    append([]int(nil), recs.Dims...),
		Fields:  append([]string(nil), recs.Fields...),
		Columns: make(map[string][]float64, len(recs.Columns)),
	}
	for k, v := range recs.Columns {
		out.Columns[k] = append([]float64(nil), v...)
	}
	return out, nil
}

func (m *MemFile) ReadField(path, field string) (*Array, error) {
	recs, err := m.ReadRecords(path)
	if err != nil {
		return nil, err
	}
	arr, err := recs.Field(field)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return arr, nil
}

func (m *MemFile) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

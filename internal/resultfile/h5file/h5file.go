// Package h5file implements resultfile.File on HDF5 files through the HDF5 C
// library. Element bytes are read in the file's own datatype and decoded as
// little-endian scalars, which covers result files written on x86 and arm64
// hosts.
package h5file

import (
	"fmt"
	"strings"

	"gonum.org/v1/hdf5"

	"github.com/roach88/westrun/internal/resultfile"
)

// File is an HDF5 file opened read-only.
type File struct {
	path string
	h5   *hdf5.File
}

// Open opens path read-only. HDF5 refuses files another process holds open
// for writing, which the accessor treats as locked.
func Open(path string) (*File, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open hdf5 %s: %w", path, err)
	}
	return &File{path: path, h5: f}, nil
}

// Opener opens HDF5 files for a resultfile.Accessor.
type Opener struct{}

func (Opener) Open(path string) (resultfile.File, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Close() error {
	return f.h5.Close()
}

// exists checks every prefix of path; LinkExists fails on a missing
// intermediate group.
func (f *File) exists(path string) bool {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := range parts {
		if parts[i] == "" || !f.h5.LinkExists(strings.Join(parts[:i+1], "/")) {
			return false
		}
	}
	return true
}

func (f *File) Kind(path string) resultfile.Kind {
	if !f.exists(path) {
		return resultfile.KindMissing
	}
	ds, err := f.h5.OpenDataset(path)
	if err != nil {
		g, gerr := f.h5.OpenGroup(path)
		if gerr != nil {
			return resultfile.KindOther
		}
		_ = g.Close()
		return resultfile.KindGroup
	}
	defer ds.Close()

	dt, err := ds.Datatype()
	if err != nil {
		return resultfile.KindOther
	}
	defer dt.Close()
	switch dt.Class() {
	case hdf5.T_COMPOUND:
		return resultfile.KindCompound
	case hdf5.T_INTEGER, hdf5.T_FLOAT:
		return resultfile.KindNumeric
	default:
		return resultfile.KindOther
	}
}

// dataset is the raw content of one dataset.
type dataset struct {
	dims  []int
	class hdf5.TypeClass
	size  int
	raw   []byte
	// members is set for compound datasets.
	members []resultfile.Member
}

func (f *File) read(path string) (*dataset, error) {
	if !f.exists(path) {
		return nil, fmt.Errorf("%s: %w", path, resultfile.ErrNotFound)
	}
	ds, err := f.h5.OpenDataset(path)
	if err != nil {
		return nil, fmt.Errorf("%s is not a dataset: %w", path, resultfile.ErrWrongKind)
	}
	defer ds.Close()

	space := ds.Space()
	defer space.Close()
	udims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("%s: dims: %w", path, err)
	}
	dims := make([]int, len(udims))
	for i, d := range udims {
		dims[i] = int(d)
	}

	dt, err := ds.Datatype()
	if err != nil {
		return nil, fmt.Errorf("%s: datatype: %w", path, err)
	}
	defer dt.Close()

	out := &dataset{
		dims:  dims,
		class: dt.Class(),
		size:  int(dt.Size()),
	}
	if out.class == hdf5.T_COMPOUND {
		if out.members, err = compoundMembers(dt); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	n := space.SimpleExtentNPoints()
	out.raw = make([]byte, n*out.size)
	if n > 0 {
		if err := ds.Read(&out.raw); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return out, nil
}

func compoundMembers(dt *hdf5.Datatype) ([]resultfile.Member, error) {
	ct := &hdf5.CompoundType{Datatype: *dt}
	members := make([]resultfile.Member, 0, ct.NMembers())
	for i := 0; i < ct.NMembers(); i++ {
		mt, err := ct.MemberType(i)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		members = append(members, resultfile.Member{
			Name:   ct.MemberName(i),
			Offset: ct.MemberOffset(i),
			Size:   int(mt.Size()),
			Kind:   numKind(mt.Class()),
		})
		_ = mt.Close()
	}
	return members, nil
}

// numKind maps an HDF5 class to a scalar kind. HDF5 integer signedness is
// not exposed by the binding; integers decode as signed, which is exact for
// the index and count fields WESTPA writes.
func numKind(c hdf5.TypeClass) resultfile.NumKind {
	switch c {
	case hdf5.T_FLOAT:
		return resultfile.NumFloat
	case hdf5.T_INTEGER:
		return resultfile.NumInt
	default:
		return resultfile.NumOther
	}
}

func (f *File) ReadArray(path string) (*resultfile.Array, error) {
	ds, err := f.read(path)
	if err != nil {
		return nil, err
	}
	kind := numKind(ds.class)
	if kind == resultfile.NumOther {
		return nil, fmt.Errorf("%s has class %v: %w", path, ds.class, resultfile.ErrWrongKind)
	}
	arr, err := resultfile.DecodeArray(kind, ds.size, ds.dims, ds.raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return arr, nil
}

func (f *File) ReadRecords(path string) (*resultfile.Records, error) {
	ds, err := f.read(path)
	if err != nil {
		return nil, err
	}
	if ds.class != hdf5.T_COMPOUND {
		return nil, fmt.Errorf("%s is not compound: %w", path, resultfile.ErrWrongKind)
	}
	recs, err := resultfile.DecodeRecords(ds.members, ds.size, ds.dims, ds.raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

func (f *File) ReadField(path, field string) (*resultfile.Array, error) {
	recs, err := f.ReadRecords(path)
	if err != nil {
		return nil, err
	}
	arr, err := recs.Field(field)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return arr, nil
}

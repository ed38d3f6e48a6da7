package resultfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// NumKind is the scalar encoding of a dataset element or record member.
type NumKind int

const (
	NumOther NumKind = iota
	NumFloat
	NumInt
	NumUint
)

// Member describes one field of a compound element.
type Member struct {
	Name   string
	Offset int
	Size   int
	Kind   NumKind
}

// DecodeArray decodes n little-endian scalars of one kind and size.
func DecodeArray(kind NumKind, size int, dims []int, raw []byte) (*Array, error) {
	n := 1
	for _, d := range dims {
		n *= d
	}
	if len(raw) != n*size {
		return nil, fmt.Errorf("decode array: have %d bytes, want %d (%d x %d)", len(raw), n*size, n, size)
	}

	data := make([]float64, n)
	for i := range data {
		v, ok := decodeScalar(kind, raw[i*size:(i+1)*size])
		if !ok {
			return nil, fmt.Errorf("decode array: unsupported element (kind %d, size %d): %w", kind, size, ErrWrongKind)
		}
		data[i] = v
	}
	return &Array{Dims: append([]int(nil), dims...), Data: data}, nil
}

// DecodeRecords decodes compound elements of recordSize bytes each. Members
// whose kind or size cannot be represented as a float64 are skipped.
func DecodeRecords(members []Member, recordSize int, dims []int, raw []byte) (*Records, error) {
	n := 1
	for _, d := range dims {
		n *= d
	}
	if recordSize <= 0 || len(raw) != n*recordSize {
		return nil, fmt.Errorf("decode records: have %d bytes, want %d (%d x %d)", len(raw), n*recordSize, n, recordSize)
	}

	recs := &Records{
		Dims:    append([]int(nil), dims...),
		Columns: make(map[string][]float64),
	}
	for _, m := range members {
		if !scalarSupported(m.Kind, m.Size) || m.Offset < 0 || m.Offset+m.Size > recordSize {
			continue
		}
		col := make([]float64, n)
		for i := range col {
			start := i*recordSize + m.Offset
			col[i], _ = decodeScalar(m.Kind, raw[start:start+m.Size])
		}
		recs.Fields = append(recs.Fields, m.Name)
		recs.Columns[m.Name] = col
	}
	return recs, nil
}

func scalarSupported(kind NumKind, size int) bool {
	switch kind {
	case NumFloat:
		return size == 4 || size == 8
	case NumInt, NumUint:
		return size == 1 || size == 2 || size == 4 || size == 8
	default:
		return false
	}
}

func decodeScalar(kind NumKind, b []byte) (float64, bool) {
	if !scalarSupported(kind, len(b)) {
		return 0, false
	}
	le := binary.LittleEndian
	switch kind {
	case NumFloat:
		if len(b) == 4 {
			return float64(math.Float32frombits(le.Uint32(b))), true
		}
		return math.Float64frombits(le.Uint64(b)), true
	case NumInt:
		switch len(b) {
		case 1:
			return float64(int8(b[0])), true
		case 2:
			return float64(int16(le.Uint16(b))), true
		case 4:
			return float64(int32(le.Uint32(b))), true
		default:
			return float64(int64(le.Uint64(b))), true
		}
	default:
		switch len(b) {
		case 1:
			return float64(b[0]), true
		case 2:
			return float64(le.Uint16(b)), true
		case 4:
			return float64(le.Uint32(b)), true
		default:
			return float64(le.Uint64(b)), true
		}
	}
}

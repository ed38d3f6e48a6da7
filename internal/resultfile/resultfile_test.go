package resultfile

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterationGroup(t *testing.T) {
	assert.Equal(t, "iterations/iter_00000001", IterationGroup(1))
	assert.Equal(t, "iterations/iter_00012345", IterationGroup(12345))
}

func TestDecodeArray(t *testing.T) {
	raw := make([]byte, 0, 24)
	for _, v := range []float64{1.5, -2, 3.25} {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}

	arr, err := DecodeArray(NumFloat, 8, []int{3}, raw)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2, 3.25}, arr.Data)
	assert.Equal(t, []int{3}, arr.Dims)

	_, err = DecodeArray(NumFloat, 8, []int{4}, raw)
	assert.Error(t, err)

	_, err = DecodeArray(NumOther, 8, []int{3}, raw)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestDecodeArrayIntegers(t *testing.T) {
	raw := binary.LittleEndian.AppendUint32(nil, uint32(0xFFFFFFFF))
	raw = binary.LittleEndian.AppendUint32(raw, 7)

	signed, err := DecodeArray(NumInt, 4, []int{2}, raw)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 7}, signed.Data)

	unsigned, err := DecodeArray(NumUint, 4, []int{2}, raw)
	require.NoError(t, err)
	assert.Equal(t, []float64{math.MaxUint32, 7}, unsigned.Data)
}

func TestDecodeRecordsSkipsNonNumericMembers(t *testing.T) {
	// weight f8 @0, parent_id i8 @8, status u1 @16, hash [4]byte @17; 21 bytes
	members := []Member{
		{Name: "weight", Offset: 0, Size: 8, Kind: NumFloat},
		{Name: "parent_id", Offset: 8, Size: 8, Kind: NumInt},
		{Name: "status", Offset: 16, Size: 1, Kind: NumUint},
		{Name: "hash", Offset: 17, Size: 4, Kind: NumOther},
	}
	record := func(w float64, parent int64, status byte) []byte {
		b := binary.LittleEndian.AppendUint64(nil, math.Float64bits(w))
		b = binary.LittleEndian.AppendUint64(b, uint64(parent))
		b = append(b, status)
		return append(b, 'a', 'b', 'c', 'd')
	}
	raw := append(record(0.75, -1, 2), record(0.25, 0, 1)...)

	recs, err := DecodeRecords(members, 21, []int{2}, raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"weight", "parent_id", "status"}, recs.Fields)
	assert.Equal(t, 2, recs.Len())
	assert.Equal(t, []float64{0.75, 0.25}, recs.Columns["weight"])
	assert.Equal(t, []float64{-1, 0}, recs.Columns["parent_id"])
	assert.Equal(t, []float64{2, 1}, recs.Columns["status"])
	_, ok := recs.Column("hash")
	assert.False(t, ok)
}

func TestDecodeRecordsRejectsShortBuffer(t *testing.T) {
	_, err := DecodeRecords(nil, 8, []int{2}, make([]byte, 8))
	assert.Error(t, err)
}

func TestArrayColumn(t *testing.T) {
	arr := &Array{Dims: []int{3, 2}, Data: []float64{1, 10, 2, 20, 3, 30}}

	col, err := arr.Column(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, col)
	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, 2, arr.RowSize())

	_, err = arr.Column(2)
	assert.ErrorIs(t, err, ErrWrongKind)

	flat := &Array{Dims: []int{2}, Data: []float64{4, 5}}
	col, err = flat.Column(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5}, col)
}

func TestMemFileKinds(t *testing.T) {
	f := NewMemFile().
		PutArray("iterations/iter_00000001/auxdata/performance", []int{2}, []float64{1, 2}).
		PutRecords("summary", []int{1}, []string{"n_particles"}, map[string][]float64{"n_particles": {4}})

	assert.Equal(t, KindCompound, f.Kind("summary"))
	assert.Equal(t, KindGroup, f.Kind("iterations"))
	assert.Equal(t, KindGroup, f.Kind("iterations/iter_00000001/auxdata"))
	assert.Equal(t, KindNumeric, f.Kind("iterations/iter_00000001/auxdata/performance"))
	assert.Equal(t, KindMissing, f.Kind("iterations/iter_00000002"))
	assert.Equal(t, KindMissing, f.Kind("iter"))

	_, err := f.ReadArray("summary")
	assert.ErrorIs(t, err, ErrWrongKind)
	_, err = f.ReadField("summary", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadFluxShapesAreEquivalent(t *testing.T) {
	dims := []int{3, 2, 2}
	expected := []float64{0, 0.1, 0.2, 0, 0, 0.3, 0.4, 0, 0, 0.5, 0.6, 0}
	ci := make([]float64, len(expected))

	bare := NewMemFile().PutArray(ConditionalFluxes, dims, expected)
	compound := NewMemFile().PutRecords(ConditionalFluxes, dims,
		[]string{"expected", "ci_lbound", "ci_ubound"},
		map[string][]float64{"expected": expected, "ci_lbound": ci, "ci_ubound": ci})
	grouped := NewMemFile().
		PutArray(ConditionalFluxes+"/expected", dims, expected).
		PutArray(ConditionalFluxes+"/ci_lbound", dims, ci)

	want, err := ReadFlux(bare, ConditionalFluxes)
	require.NoError(t, err)
	assert.Equal(t, dims, want.Dims)
	assert.Equal(t, expected, want.Data)

	for name, f := range map[string]File{"compound": compound, "group": grouped} {
		got, err := ReadFlux(f, ConditionalFluxes)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestReadFluxMissing(t *testing.T) {
	_, err := ReadFlux(NewMemFile(), RateEvolution)
	assert.ErrorIs(t, err, ErrNotFound)

	f := NewMemFile().PutArray(RateEvolution+"/ci_lbound", []int{1}, []float64{0})
	_, err = ReadFlux(f, RateEvolution)
	assert.ErrorIs(t, err, ErrNotFound)
}

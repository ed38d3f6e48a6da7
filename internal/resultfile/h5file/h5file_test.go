package h5file

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"

	"github.com/roach88/westrun/internal/logging"
	"github.com/roach88/westrun/internal/resultfile"
)

type summaryRow struct {
	NParticles int64   `hdf5:"n_particles"`
	NormFactor float64 `hdf5:"norm"`
	Walltime   float64 `hdf5:"walltime"`
}

func writeFixture(t *testing.T, path string) {
	t.Helper()
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	defer f.Close()

	rows := []summaryRow{{24, 1, 3.5}, {26, 1, 4.25}}
	dt, err := hdf5.NewDatatypeFromValue(rows[0])
	require.NoError(t, err)
	defer dt.Close()
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(rows))}, nil)
	require.NoError(t, err)
	defer space.Close()
	ds, err := f.CreateDataset("summary", dt, space)
	require.NoError(t, err)
	require.NoError(t, ds.Write(&rows))
	require.NoError(t, ds.Close())

	g, err := f.CreateGroup("iterations")
	require.NoError(t, err)
	defer g.Close()
	it, err := g.CreateGroup("iter_00000001")
	require.NoError(t, err)
	defer it.Close()

	perf := []float64{10, 20, 30}
	pspace, err := hdf5.CreateSimpleDataspace([]uint{3}, nil)
	require.NoError(t, err)
	defer pspace.Close()
	pds, err := it.CreateDataset("performance", hdf5.T_NATIVE_DOUBLE, pspace)
	require.NoError(t, err)
	require.NoError(t, pds.Write(&perf))
	require.NoError(t, pds.Close())
}

func TestReadHDF5(t *testing.T) {
	path := filepath.Join(t.TempDir(), resultfile.WestFile)
	writeFixture(t, path)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, resultfile.KindCompound, f.Kind("summary"))
	assert.Equal(t, resultfile.KindGroup, f.Kind("iterations/iter_00000001"))
	assert.Equal(t, resultfile.KindNumeric, f.Kind("iterations/iter_00000001/performance"))
	assert.Equal(t, resultfile.KindMissing, f.Kind("iterations/iter_00000002/seg_index"))

	recs, err := f.ReadRecords("summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"n_particles", "norm", "walltime"}, recs.Fields)
	assert.Equal(t, []float64{24, 26}, recs.Columns["n_particles"])
	assert.Equal(t, []float64{3.5, 4.25}, recs.Columns["walltime"])

	arr, err := f.ReadArray("iterations/iter_00000001/performance")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, arr.Dims)
	assert.Equal(t, []float64{10, 20, 30}, arr.Data)

	_, err = f.ReadArray("summary")
	assert.ErrorIs(t, err, resultfile.ErrWrongKind)
	_, err = f.ReadArray("nope")
	assert.ErrorIs(t, err, resultfile.ErrNotFound)
}

func TestAccessorOverHDF5(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, resultfile.WestFile))
	acc := resultfile.NewAccessor(dir, Opener{}, logging.Discard())

	err := acc.With(resultfile.WestFile, func(f resultfile.File) error {
		col, err := f.ReadField("summary", "norm")
		if err != nil {
			return err
		}
		assert.Equal(t, []float64{1, 1}, col.Data)
		return nil
	})
	require.NoError(t, err)
	assert.NoFileExists(t, acc.CopyPath(resultfile.WestFile))
}

package analysis

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/roach88/westrun/internal/resultfile"
)

// Dataset paths inside west.h5.
const (
	SummaryDataset     = "summary"
	SegIndexDataset    = "seg_index"
	PerformanceDataset = "auxdata/performance"
	NaDistanceDataset  = "auxdata/Na_distance"
)

// Iteration table columns added to the seg_index fields.
const (
	ColIteration      = "iteration"
	ColSegment        = "segment"
	ColGmxPerformance = "gmx_performance"
	ColSODIndex       = "SOD_index"
	ColSODDistance    = "SOD_distance"
)

// Summary reads the per-iteration summary table. Rows are numbered from 1 in
// the iteration column.
func (r *Run) Summary() (dataframe.DataFrame, error) {
	var recs *resultfile.Records
	err := r.accessor.With(resultfile.WestFile, func(f resultfile.File) error {
		var err error
		recs, err = f.ReadRecords(SummaryDataset)
		return err
	})
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("summary: %w", err)
	}

	n := recs.Len()
	iters := make([]int, n)
	for i := range iters {
		iters[i] = i + 1
	}
	cols := []series.Series{series.New(iters, series.Int, ColIteration)}
	for _, name := range recs.Fields {
		cols = append(cols, series.New(recs.Columns[name], series.Float, name))
	}
	return frame(cols)
}

// Iteration reads the segments of iteration n. Missing auxiliary datasets
// yield NaN columns.
func (r *Run) Iteration(n int) (dataframe.DataFrame, error) {
	group := resultfile.IterationGroup(n)

	var (
		index *resultfile.Records
		perf  []float64
		naIdx []float64
		naDst []float64
	)
	err := r.accessor.With(resultfile.WestFile, func(f resultfile.File) error {
		var err error
		if index, err = f.ReadRecords(group + "/" + SegIndexDataset); err != nil {
			return err
		}
		segs := index.Len()

		if perf, err = optionalColumn(f, group+"/"+PerformanceDataset, 0, segs); err != nil {
			return err
		}
		if naIdx, err = optionalColumn(f, group+"/"+NaDistanceDataset, 0, segs); err != nil {
			return err
		}
		for i, v := range naIdx {
			naIdx[i] = math.RoundToEven(v)
		}
		naDst, err = optionalColumn(f, group+"/"+NaDistanceDataset, 1, segs)
		return err
	})
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("iteration %d: %w", n, err)
	}

	segs := index.Len()
	iters := make([]int, segs)
	segIDs := make([]int, segs)
	for i := range iters {
		iters[i] = n
		segIDs[i] = i
	}
	cols := []series.Series{
		series.New(iters, series.Int, ColIteration),
		series.New(segIDs, series.Int, ColSegment),
	}
	for _, name := range index.Fields {
		cols = append(cols, series.New(index.Columns[name], series.Float, name))
	}
	cols = append(cols,
		series.New(perf, series.Float, ColGmxPerformance),
		series.New(naIdx, series.Float, ColSODIndex),
		series.New(naDst, series.Float, ColSODDistance),
	)
	return frame(cols)
}

// optionalColumn reads column j of a per-segment dataset, or NaNs when the
// dataset does not exist.
func optionalColumn(f resultfile.File, path string, j, segs int) ([]float64, error) {
	if !resultfile.Exists(f, path) {
		return nanColumn(segs), nil
	}
	arr, err := f.ReadArray(path)
	if err != nil {
		return nil, err
	}
	if arr.Len() != segs {
		return nil, fmt.Errorf("%s has %d rows for %d segments", path, arr.Len(), segs)
	}
	col := arr.Data
	if len(arr.Dims) > 1 {
		if len(arr.Dims) > 2 {
			arr = &resultfile.Array{Dims: []int{arr.Dims[0], arr.RowSize()}, Data: arr.Data}
		}
		if col, err = arr.Column(j); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	} else if j != 0 {
		return nil, fmt.Errorf("%s: column %d of 1-D dataset: %w", path, j, resultfile.ErrWrongKind)
	}
	return col, nil
}

func nanColumn(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Flux reads one flux dataset from direct.h5 in any of its stored shapes.
func (r *Run) Flux(dataset string) (*resultfile.Array, error) {
	var arr *resultfile.Array
	err := r.accessor.With(resultfile.DirectFile, func(f resultfile.File) error {
		var err error
		arr, err = resultfile.ReadFlux(f, dataset)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("flux %s: %w", dataset, err)
	}
	return arr, nil
}

func (r *Run) ConditionalFluxes() (*resultfile.Array, error) {
	return r.Flux(resultfile.ConditionalFluxes)
}

func (r *Run) ConditionalFluxEvolution() (*resultfile.Array, error) {
	return r.Flux(resultfile.ConditionalFluxEvolution)
}

func (r *Run) TotalFluxes() (*resultfile.Array, error) {
	return r.Flux(resultfile.TotalFluxes)
}

func (r *Run) TargetFluxEvolution() (*resultfile.Array, error) {
	return r.Flux(resultfile.TargetFluxEvolution)
}

func (r *Run) RateEvolution() (*resultfile.Array, error) {
	return r.Flux(resultfile.RateEvolution)
}

// FluxFrame flattens a flux array into long form. The leading axes become
// integer columns named by axes (outermost first) and the elements become
// the value column; a scalar yields one row with only a value.
func FluxFrame(arr *resultfile.Array, axes ...string) (dataframe.DataFrame, error) {
	if len(axes) != len(arr.Dims) {
		return dataframe.DataFrame{}, fmt.Errorf("flux frame: %d axis names for dims %v", len(axes), arr.Dims)
	}

	idx := make([][]int, len(arr.Dims))
	for i := range idx {
		idx[i] = make([]int, len(arr.Data))
	}
	for flat := range arr.Data {
		rem := flat
		for ax := len(arr.Dims) - 1; ax >= 0; ax-- {
			idx[ax][flat] = rem % arr.Dims[ax]
			rem /= arr.Dims[ax]
		}
	}

	cols := make([]series.Series, 0, len(axes)+1)
	for i, name := range axes {
		cols = append(cols, series.New(idx[i], series.Int, name))
	}
	cols = append(cols, series.New(arr.Data, series.Float, "value"))
	return frame(cols)
}

// FluxAxes names the axes of the flux datasets w_direct writes.
func FluxAxes(dims int) []string {
	switch dims {
	case 0:
		return nil
	case 1:
		return []string{"state"}
	case 2:
		return []string{"from", "to"}
	case 3:
		return []string{ColIteration, "from", "to"}
	default:
		out := make([]string, dims)
		for i := range out {
			out[i] = fmt.Sprintf("axis%d", i)
		}
		return out
	}
}

func frame(cols []series.Series) (dataframe.DataFrame, error) {
	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

package elevation

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/banshee-data/sidewalk.report/internal/fsutil"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGrid = `ncols 3
nrows 2
xllcorner 100
yllcorner 200
cellsize 1
NODATA_value -9999
1 2 3
4 5 -9999
`

func TestDecodeGrid(t *testing.T) {
	g, err := DecodeGrid(strings.NewReader(sampleGrid))
	require.NoError(t, err)

	assert.Equal(t, orb.Bound{Min: orb.Point{100, 200}, Max: orb.Point{103, 202}}, g.Bound())
	// Cell centres return their own value.
	assert.InDelta(t, 1.0, g.At(orb.Point{100.5, 201.5}), 1e-12)
	assert.InDelta(t, 4.0, g.At(orb.Point{100.5, 200.5}), 1e-12)
	// Midway between the four western centres.
	assert.InDelta(t, 3.0, g.At(orb.Point{101, 201}), 1e-12)
	// A no-data cell and anything outside the grid are NaN.
	assert.True(t, math.IsNaN(g.At(orb.Point{102.5, 200.5})))
	assert.True(t, math.IsNaN(g.At(orb.Point{99, 201})))
}

func TestDecodeGrid_CentreRegistration(t *testing.T) {
	in := "ncols 1\nnrows 1\nxllcenter 0.5\nyllcenter 0.5\ncellsize 1\n7\n"
	g, err := DecodeGrid(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 0.0, g.XLL)
	assert.Equal(t, 0.0, g.YLL)
	assert.Equal(t, 7.0, g.At(orb.Point{0.2, 0.9}))
}

func TestDecodeGrid_Errors(t *testing.T) {
	tests := map[string]string{
		"missing ncols":  "nrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"missing corner": "ncols 1\nnrows 1\ncellsize 1\n1\n",
		"short data":     "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n",
		"bad value":      "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nabc\n",
		"negative rows":  "ncols 2\nnrows -1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n",
		"zero cols":      "ncols 0\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"fractional":     "ncols 1.5\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"huge":           "ncols 100000\nnrows 100000\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"nan rows":       "ncols 1\nnrows nan\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeGrid(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestReadGrid(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("dtm_1_1.asc", []byte(sampleGrid), 0644))
	g, err := ReadGrid(fsys, "dtm_1_1.asc")
	require.NoError(t, err)
	assert.Equal(t, 1.0, g.CellSize)

	_, err = ReadGrid(fsys, "missing.asc")
	assert.Error(t, err)
}

func TestTileSet_Interpolate(t *testing.T) {
	g, err := NewGridSurface(0, 0, 1, -9999, 2, 2, []float64{1, 1, 1, 1})
	require.NoError(t, err)
	ts := NewTileSet()
	ts.Add("0_0", "dtm", g)

	pts := []orb.Point{{0.5, 0.5}, {1.5, 1.5}, {10, 10}}

	got, err := ts.Interpolate("0_0", pts, []bool{true, false, true}, "dtm")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1.0, got[0])
	assert.True(t, Invalid(got[1]), "masked out")
	assert.True(t, Invalid(got[2]), "outside coverage")

	all, err := ts.Interpolate("0_0", pts, nil, "dtm")
	require.NoError(t, err)
	assert.Equal(t, 1.0, all[1])
}

func TestTileSet_UnknownTileIsAllNaN(t *testing.T) {
	ts := NewTileSet()
	got, err := ts.Interpolate("9_9", []orb.Point{{0, 0}, {1, 1}}, nil, "dtm")
	require.NoError(t, err)
	for _, v := range got {
		assert.True(t, Invalid(v))
	}
}

func TestTileSet_MaskLengthMismatch(t *testing.T) {
	_, err := NewTileSet().Interpolate("0_0", []orb.Point{{0, 0}}, []bool{true, false}, "dtm")
	assert.Error(t, err)
}

func TestTileSet_ConcurrentUse(t *testing.T) {
	g, err := NewGridSurface(0, 0, 1, -9999, 1, 1, []float64{3})
	require.NoError(t, err)
	ts := NewTileSet()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts.Add("0_0", "dtm", g)
			_, _ = ts.Interpolate("0_0", []orb.Point{{0.5, 0.5}}, nil, "dtm")
		}()
	}
	wg.Wait()
}

func TestNewGridSurface_Errors(t *testing.T) {
	_, err := NewGridSurface(0, 0, 1, -9999, 0, 1, nil)
	assert.Error(t, err)
	_, err = NewGridSurface(0, 0, 0, -9999, 1, 1, []float64{1})
	assert.Error(t, err)
	_, err = NewGridSurface(0, 0, 1, -9999, 1, 2, []float64{1})
	assert.Error(t, err)
}

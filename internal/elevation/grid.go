package elevation

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/sidewalk.report/internal/fsutil"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/mat"
)

// GridSurface is a regular raster of ground heights. Row 0 is the
// northern edge, as in ESRI ASCII grids.
type GridSurface struct {
	XLL, YLL float64 // lower-left corner of the lower-left cell
	CellSize float64
	NoData   float64
	values   *mat.Dense
}

// NewGridSurface builds a surface from row-major values (north row first).
func NewGridSurface(xll, yll, cellSize, noData float64, rows, cols int, values []float64) (*GridSurface, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid must have at least one cell, got %dx%d", rows, cols)
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("grid %dx%d needs %d values, got %d", rows, cols, rows*cols, len(values))
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %f", cellSize)
	}
	return &GridSurface{
		XLL:      xll,
		YLL:      yll,
		CellSize: cellSize,
		NoData:   noData,
		values:   mat.NewDense(rows, cols, append([]float64(nil), values...)),
	}, nil
}

// Bound returns the area covered by the grid.
func (g *GridSurface) Bound() orb.Bound {
	rows, cols := g.values.Dims()
	return orb.Bound{
		Min: orb.Point{g.XLL, g.YLL},
		Max: orb.Point{g.XLL + float64(cols)*g.CellSize, g.YLL + float64(rows)*g.CellSize},
	}
}

// cell returns the value at row r, column c, or NaN when out of range or
// no-data.
func (g *GridSurface) cell(r, c int) float64 {
	rows, cols := g.values.Dims()
	if r < 0 || c < 0 || r >= rows || c >= cols {
		return math.NaN()
	}
	v := g.values.At(r, c)
	if v == g.NoData {
		return math.NaN()
	}
	return v
}

// At returns the ground height at p. Inside the grid it interpolates
// bilinearly between the four surrounding cell centres; where one of them
// is missing it falls back to the containing cell. Outside coverage, or
// on a no-data cell, it returns NaN.
func (g *GridSurface) At(p orb.Point) float64 {
	if !g.Bound().Contains(p) {
		return math.NaN()
	}
	rows, _ := g.values.Dims()

	// Continuous column/row of p measured from cell centres.
	fc := (p[0]-g.XLL)/g.CellSize - 0.5
	fr := float64(rows) - (p[1]-g.YLL)/g.CellSize - 0.5

	own := g.cell(int(math.Floor(fr+0.5)), int(math.Floor(fc+0.5)))
	if math.IsNaN(own) {
		return math.NaN()
	}

	c0, r0 := int(math.Floor(fc)), int(math.Floor(fr))
	tx, ty := fc-float64(c0), fr-float64(r0)
	v00, v01 := g.cell(r0, c0), g.cell(r0, c0+1)
	v10, v11 := g.cell(r0+1, c0), g.cell(r0+1, c0+1)
	if math.IsNaN(v00) || math.IsNaN(v01) || math.IsNaN(v10) || math.IsNaN(v11) {
		return own
	}
	top := v00*(1-tx) + v01*tx
	bottom := v10*(1-tx) + v11*tx
	return top*(1-ty) + bottom*ty
}

// ReadGrid loads an ESRI ASCII grid file.
func ReadGrid(fsys fsutil.FileSystem, path string) (*GridSurface, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grid: %w", err)
	}
	defer f.Close()
	g, err := DecodeGrid(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// maxGridCells bounds the raster size accepted from a header.
const maxGridCells = 1 << 26

// gridDims checks the nrows and ncols headers before anything is sized
// from them.
func gridDims(nrows, ncols float64) (rows, cols int, err error) {
	for _, d := range []struct {
		name string
		v    float64
	}{{"nrows", nrows}, {"ncols", ncols}} {
		if !(d.v >= 1) || d.v != math.Trunc(d.v) || d.v > maxGridCells {
			return 0, 0, fmt.Errorf("%s must be a positive integer up to %d, got %v", d.name, maxGridCells, d.v)
		}
	}
	if nrows*ncols > maxGridCells {
		return 0, 0, fmt.Errorf("grid %vx%v exceeds %d cells", nrows, ncols, maxGridCells)
	}
	return int(nrows), int(ncols), nil
}

// DecodeGrid parses an ESRI ASCII grid. Corner and centre registration
// are both accepted; NODATA_value defaults to -9999.
func DecodeGrid(r io.Reader) (*GridSurface, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	header := map[string]float64{"nodata_value": -9999}
	var first string
	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if key == "" {
			continue
		}
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = key
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("header %q has no value", key)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", key, err)
		}
		header[key] = v
	}

	for _, req := range []string{"ncols", "nrows", "cellsize"} {
		if _, ok := header[req]; !ok {
			return nil, fmt.Errorf("missing %s header", req)
		}
	}
	rows, cols, err := gridDims(header["nrows"], header["ncols"])
	if err != nil {
		return nil, err
	}
	size := header["cellsize"]
	xll, okX := header["xllcorner"]
	yll, okY := header["yllcorner"]
	if xc, ok := header["xllcenter"]; ok && !okX {
		xll, okX = xc-size/2, true
	}
	if yc, ok := header["yllcenter"]; ok && !okY {
		yll, okY = yc-size/2, true
	}
	if !okX || !okY {
		return nil, fmt.Errorf("missing lower-left corner headers")
	}

	values := make([]float64, 0, rows*cols)
	if first != "" {
		v, _ := strconv.ParseFloat(first, 64)
		values = append(values, v)
	}
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", len(values), err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewGridSurface(xll, yll, size, header["nodata_value"], rows, cols, values)
}

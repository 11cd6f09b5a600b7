package pointcloud

import (
	"fmt"

	"github.com/paulmach/orb"
)

// NoiseLabel marks points that belong to no cluster.
const NoiseLabel = -1

// Point is a single return in the projected CRS (metres).
type Point struct {
	X, Y, Z float64
}

// XY drops the elevation.
func (p Point) XY() orb.Point { return orb.Point{p.X, p.Y} }

// PointSet is an ordered sequence of points with an optional class label
// per point. When Labels is non-nil it has the same length as Points.
type PointSet struct {
	Points []Point
	Labels []int
}

// Len returns the number of points.
func (ps PointSet) Len() int { return len(ps.Points) }

// HasLabels reports whether per-point labels are present.
func (ps PointSet) HasLabels() bool { return ps.Labels != nil }

// Validate checks that Labels, when present, parallels Points.
func (ps PointSet) Validate() error {
	if ps.Labels != nil && len(ps.Labels) != len(ps.Points) {
		return fmt.Errorf("point set has %d points but %d labels", len(ps.Points), len(ps.Labels))
	}
	return nil
}

// XY projects the points at indices to 2D. A nil indices slice projects
// every point.
func (ps PointSet) XY(indices []int) []orb.Point {
	if indices == nil {
		out := make([]orb.Point, len(ps.Points))
		for i, p := range ps.Points {
			out[i] = p.XY()
		}
		return out
	}
	out := make([]orb.Point, len(indices))
	for k, i := range indices {
		out[k] = ps.Points[i].XY()
	}
	return out
}

// Bound returns the 2D bounding box of the set.
func (ps PointSet) Bound() orb.Bound {
	if len(ps.Points) == 0 {
		return orb.Bound{}
	}
	b := orb.Bound{Min: ps.Points[0].XY(), Max: ps.Points[0].XY()}
	for _, p := range ps.Points[1:] {
		b = b.Extend(p.XY())
	}
	return b
}

// Selected returns the indices where mask is true. A nil mask selects
// every point; any other mask yields a non-nil slice.
func Selected(mask []bool, n int) []int {
	if mask == nil {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := []int{}
	for i, ok := range mask {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

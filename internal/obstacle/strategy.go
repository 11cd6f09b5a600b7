package obstacle

import (
	"fmt"

	"github.com/banshee-data/sidewalk.report/internal/geom"
	"github.com/paulmach/orb"
)

// Strategy builds the outline of one cluster from its points and their
// convex hull.
type Strategy interface {
	Outline(points []orb.Point, hull orb.Ring) (orb.MultiPolygon, error)
	String() string
}

// Convex keeps the convex hull.
type Convex struct{}

// Outline implements Strategy.
func (Convex) Outline(_ []orb.Point, hull orb.Ring) (orb.MultiPolygon, error) {
	return orb.MultiPolygon{{hull}}, nil
}

func (Convex) String() string { return "convex" }

// Concave replaces the hull with an alpha shape. Disjoint parts become
// separate polygons.
type Concave struct {
	Alpha float64
}

// Outline implements Strategy.
func (c Concave) Outline(points []orb.Point, _ orb.Ring) (orb.MultiPolygon, error) {
	return geom.AlphaShape(points, c.Alpha)
}

func (c Concave) String() string { return fmt.Sprintf("concave(alpha=%g)", c.Alpha) }

// Reconstruction selects a Strategy for a cluster. Concave outlines are
// only attempted for clusters whose hull area reaches MinArea.
type Reconstruction struct {
	Concave bool
	Alpha   float64
	MinArea float64
}

// Resolve picks the strategy for a cluster with the given hull area.
func (r Reconstruction) Resolve(hullArea float64) Strategy {
	if r.Concave && hullArea >= r.MinArea {
		return Concave{Alpha: r.Alpha}
	}
	return Convex{}
}

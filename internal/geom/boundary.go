package geom

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Boundary returns the shell and every hole of p as one line collection.
func Boundary(p orb.Polygon) orb.MultiLineString {
	out := make(orb.MultiLineString, 0, len(p))
	for _, r := range p {
		out = append(out, orb.LineString(r))
	}
	return out
}

// DistanceToBoundary is the shortest planar distance from pt to any
// segment of boundary.
func DistanceToBoundary(boundary orb.MultiLineString, pt orb.Point) float64 {
	return planar.DistanceFrom(boundary, pt)
}

// PolygonsFromGeometry flattens a decoded Polygon or MultiPolygon into its
// polygon parts.
func PolygonsFromGeometry(g orb.Geometry) ([]orb.Polygon, error) {
	switch g := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}, nil
	case orb.MultiPolygon:
		return []orb.Polygon(g), nil
	}
	return nil, fmt.Errorf("unsupported polygon geometry %T", g)
}

// Area is the planar area of p with holes removed.
func Area(p orb.Polygon) float64 {
	return planar.Area(p)
}

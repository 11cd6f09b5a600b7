package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// ConvexHull returns the convex hull of points as a closed
// counter-clockwise ring. Fewer than three distinct points, or points that
// are all collinear, yield a DegenerateGeometryError.
func ConvexHull(points []orb.Point) (orb.Ring, error) {
	pts := uniquePoints(points)
	if len(pts) < 3 {
		return nil, degenerate("convex_hull", "%d distinct points, need at least 3", len(pts))
	}
	poly, ok := toSFMultiPoint(pts).ConvexHull().AsPolygon()
	if !ok {
		return nil, degenerate("convex_hull", "points are collinear")
	}
	ring := fromSFRing(poly.ExteriorRing())
	if len(ring) < 4 || math.Abs(ringArea(ring)) < areaEpsilon {
		return nil, degenerate("convex_hull", "points are collinear")
	}
	return orient(ring, orb.CCW), nil
}

func uniquePoints(points []orb.Point) []orb.Point {
	seen := make(map[orb.Point]struct{}, len(points))
	out := make([]orb.Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultSkeletonSpacing is the boundary densification step in metres.
const DefaultSkeletonSpacing = 0.5

// minRidgeLength drops ridges between near-identical circumcentres, which
// cocircular samples produce on regular boundaries.
const minRidgeLength = 1e-9

// Skeleton approximates the medial axis of p. The boundary is densified
// every spacing metres, triangulated, and the Voronoi ridges between
// neighbouring triangles are kept when they lie inside p. The result is a
// set of two-vertex ridges; callers merge them into pieces. Invalid
// polygons, or polygons too small to produce a ridge, fail with a
// DegenerateGeometryError.
func Skeleton(p orb.Polygon, spacing float64) (orb.MultiLineString, error) {
	if spacing <= 0 {
		spacing = DefaultSkeletonSpacing
	}
	if err := ValidatePolygon(p); err != nil {
		return nil, degenerate("skeleton", "%v", err)
	}

	var samples []orb.Point
	for _, r := range p {
		samples = append(samples, densify(r, spacing)...)
	}
	t, err := triangulate("skeleton", samples)
	if err != nil {
		return nil, err
	}

	centres := make([]orb.Point, t.count())
	for k := range centres {
		a, b, c := t.vertices(k)
		centres[k], _ = circumcircle(a, b, c)
	}

	var ridges orb.MultiLineString
	for e, o := range t.tri.Halfedges {
		if o < e {
			continue // hull edge (-1) or already visited from the twin
		}
		c1, c2 := centres[e/3], centres[o/3]
		if math.IsNaN(c1[0]) || math.IsNaN(c2[0]) || planar.Distance(c1, c2) < minRidgeLength {
			continue
		}
		mid := orb.Point{(c1[0] + c2[0]) / 2, (c1[1] + c2[1]) / 2}
		if planar.PolygonContains(p, c1) && planar.PolygonContains(p, c2) && planar.PolygonContains(p, mid) {
			ridges = append(ridges, orb.LineString{c1, c2})
		}
	}
	if len(ridges) == 0 {
		return nil, degenerate("skeleton", "no interior ridges for polygon")
	}
	return ridges, nil
}

// densify returns the ring's vertices plus extra points every spacing
// metres along each edge. The closing vertex is not repeated.
func densify(r orb.Ring, spacing float64) []orb.Point {
	var out []orb.Point
	for i := 0; i+1 < len(r); i++ {
		a, b := r[i], r[i+1]
		out = append(out, a)
		n := int(planar.Distance(a, b) / spacing)
		for k := 1; k < n; k++ {
			out = append(out, lerp(a, b, float64(k)/float64(n)))
		}
	}
	return out
}

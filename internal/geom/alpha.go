package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// AlphaShape reconstructs a concave outline of points. Delaunay triangles
// with a circumradius below 1/alpha are kept and their outer boundary is
// traced into rings. Disjoint groups of triangles come back as separate
// polygons. An alpha of zero or less falls back to the convex hull.
func AlphaShape(points []orb.Point, alpha float64) (orb.MultiPolygon, error) {
	if alpha <= 0 {
		hull, err := ConvexHull(points)
		if err != nil {
			return nil, err
		}
		return orb.MultiPolygon{{hull}}, nil
	}

	t, err := triangulate("alpha_shape", points)
	if err != nil {
		return nil, err
	}

	maxRadius := 1 / alpha
	kept := make([]bool, t.count())
	ccw := make([]bool, t.count())
	found := false
	for k := range kept {
		a, b, c := t.vertices(k)
		if _, r := circumcircle(a, b, c); r < maxRadius {
			kept[k] = true
			ccw[k] = cross(a, b, c) > 0
			found = true
		}
	}
	if !found {
		return nil, degenerate("alpha_shape", "no triangle passes alpha=%g", alpha)
	}

	// Boundary half-edges of the kept region, directed so the kept side
	// is on the left. Shells then trace counter-clockwise, holes clockwise.
	next := make(map[orb.Point][]orb.Point)
	for e := 0; e < len(t.tri.Triangles); e++ {
		k := e / 3
		if !kept[k] {
			continue
		}
		if o := t.opposite(e); o >= 0 && kept[o/3] {
			continue
		}
		from, to := t.edge(e)
		if !ccw[k] {
			from, to = to, from
		}
		next[from] = append(next[from], to)
	}

	var shells, holes []orb.Ring
	for _, ring := range traceRings(next) {
		switch area := ringArea(ring); {
		case math.Abs(area) < areaEpsilon:
			continue
		case area > 0:
			shells = append(shells, ring)
		default:
			holes = append(holes, ring)
		}
	}
	if len(shells) == 0 {
		return nil, degenerate("alpha_shape", "kept triangles have no outer boundary")
	}

	out := make(orb.MultiPolygon, len(shells))
	for i, s := range shells {
		out[i] = orb.Polygon{s}
	}
	for _, h := range holes {
		inner := interiorPoint(h)
		for i := range out {
			if planar.RingContains(out[i][0], inner) {
				out[i] = append(out[i], h)
				break
			}
		}
	}
	return out, nil
}

// traceRings consumes a directed edge map into closed rings.
func traceRings(next map[orb.Point][]orb.Point) []orb.Ring {
	var rings []orb.Ring
	for len(next) > 0 {
		var start orb.Point
		first := true
		for p := range next {
			if first || p[0] < start[0] || (p[0] == start[0] && p[1] < start[1]) {
				start, first = p, false
			}
		}
		ring := orb.Ring{start}
		cur := start
		for {
			outs := next[cur]
			if len(outs) == 0 {
				break
			}
			to := outs[len(outs)-1]
			if len(outs) == 1 {
				delete(next, cur)
			} else {
				next[cur] = outs[:len(outs)-1]
			}
			ring = append(ring, to)
			cur = to
			if cur == start {
				break
			}
		}
		if len(ring) >= 4 && ring[0] == ring[len(ring)-1] {
			rings = append(rings, ring)
		}
	}
	return rings
}

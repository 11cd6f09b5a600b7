package geom

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// areaEpsilon is the smallest ring area (square metres) treated as non-zero.
const areaEpsilon = 1e-12

// maxRepairSplits bounds the number of self-intersection splits per ring.
const maxRepairSplits = 4096

// ValidatePolygon reports whether p is a valid polygon: every ring closed
// with at least four vertices and non-zero area, rings simple and
// non-crossing, holes inside the shell and the interior connected. The
// returned error wraps ErrInvalidPolygon.
func ValidatePolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return invalid("empty polygon")
	}
	for i, r := range p {
		if len(r) < 4 || !r.Closed() {
			return invalid("ring %d not closed", i)
		}
		if math.Abs(ringArea(r)) < areaEpsilon {
			return invalid("ring %d has zero area", i)
		}
	}
	if err := toSFPolygon(p).Validate(); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// MakeValid returns p as one or more valid polygons. Valid input is
// returned normalised (shell counter-clockwise, holes clockwise). Invalid
// input is repaired by splitting self-intersecting rings into simple loops
// and keeping the loops that agree with the dominant winding, which is what
// a zero-width buffer does. A polygon that is still invalid afterwards is
// reported as a DegenerateGeometryError.
func MakeValid(p orb.Polygon) (orb.MultiPolygon, error) {
	if err := ValidatePolygon(p); err == nil {
		return orb.MultiPolygon{normalize(p)}, nil
	}

	repaired, err := repair(p)
	if err != nil {
		return nil, err
	}
	for _, part := range repaired {
		if err := ValidatePolygon(part); err != nil {
			return nil, degenerate("make_valid", "still invalid after repair: %v", err)
		}
	}
	return repaired, nil
}

func repair(p orb.Polygon) (orb.MultiPolygon, error) {
	if len(p) == 0 {
		return nil, degenerate("make_valid", "empty polygon")
	}

	shells, err := simpleLoops(p[0])
	if err != nil {
		return nil, err
	}
	shells = dominantWinding(shells)
	if len(shells) == 0 {
		return nil, degenerate("make_valid", "shell collapses to zero area")
	}

	out := make(orb.MultiPolygon, 0, len(shells))
	for _, s := range shells {
		out = append(out, orb.Polygon{orient(s, orb.CCW)})
	}
	// Largest part first so callers that want one polygon take the main one.
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(ringArea(out[i][0])) > math.Abs(ringArea(out[j][0]))
	})

	for _, h := range p[1:] {
		loops, err := simpleLoops(h)
		if err != nil {
			return nil, err
		}
		for _, loop := range loops {
			for k := range out {
				if planar.RingContains(out[k][0], interiorPoint(loop)) {
					out[k] = append(out[k], orient(loop, orb.CW))
					break
				}
			}
		}
	}
	return out, nil
}

// simpleLoops cleans r (closing it and dropping repeated vertices) and
// splits it at self-intersections until every loop is simple. Loops with
// zero area are dropped.
func simpleLoops(r orb.Ring) ([]orb.Ring, error) {
	pending := []orb.Ring{clean(r)}
	var out []orb.Ring
	for splits := 0; len(pending) > 0; splits++ {
		if splits > maxRepairSplits {
			return nil, degenerate("make_valid", "too many self-intersections")
		}
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if len(cur) < 4 || math.Abs(ringArea(cur)) < areaEpsilon {
			continue
		}
		i, j, x, ok := firstSelfIntersection(cur)
		if !ok {
			out = append(out, cur)
			continue
		}
		n := len(cur)
		a := orb.Ring{x}
		a = append(a, cur[i+1:j+1]...)
		a = append(a, x)
		b := orb.Ring{x}
		b = append(b, cur[j+1:n-1]...)
		b = append(b, cur[:i+1]...)
		b = append(b, x)
		pending = append(pending, clean(a), clean(b))
	}
	return out, nil
}

// dominantWinding keeps the loops whose orientation matches the loop with
// the largest absolute area.
func dominantWinding(loops []orb.Ring) []orb.Ring {
	if len(loops) == 0 {
		return nil
	}
	best := 0
	for i := range loops {
		if math.Abs(ringArea(loops[i])) > math.Abs(ringArea(loops[best])) {
			best = i
		}
	}
	sign := math.Signbit(ringArea(loops[best]))
	var out []orb.Ring
	for _, l := range loops {
		if math.Signbit(ringArea(l)) == sign {
			out = append(out, l)
		}
	}
	return out
}

func normalize(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	out[0] = orient(p[0], orb.CCW)
	for i := 1; i < len(p); i++ {
		out[i] = orient(p[i], orb.CW)
	}
	return out
}

func orient(r orb.Ring, o orb.Orientation) orb.Ring {
	c := r.Clone()
	if c.Orientation() != o {
		c.Reverse()
	}
	return c
}

func clean(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r)+1)
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 0 && out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out
}

// interiorPoint returns a point strictly inside a simple loop, used to place
// repaired holes.
func interiorPoint(r orb.Ring) orb.Point {
	c, _ := planar.CentroidArea(r)
	if planar.RingContains(r, c) {
		return c
	}
	return r[0]
}

// ringArea returns the signed shoelace area (positive when
// counter-clockwise).
func ringArea(r orb.Ring) float64 {
	var sum float64
	for i := 0; i+1 < len(r); i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return sum / 2
}

// firstSelfIntersection finds the first pair of non-adjacent edges (i < j)
// of a closed ring that touch, returning the contact point.
func firstSelfIntersection(r orb.Ring) (int, int, orb.Point, bool) {
	n := len(r) - 1 // number of edges
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if x, ok := segmentIntersection(r[i], r[i+1], r[j], r[j+1]); ok {
				return i, j, x, true
			}
		}
	}
	return 0, 0, orb.Point{}, false
}

// segmentIntersection returns a contact point of segments ab and cd.
// Collinear overlaps report the first overlapping endpoint.
func segmentIntersection(a, b, c, d orb.Point) (orb.Point, bool) {
	rx, ry := b[0]-a[0], b[1]-a[1]
	sx, sy := d[0]-c[0], d[1]-c[1]
	den := rx*sy - ry*sx
	if den != 0 {
		qx, qy := c[0]-a[0], c[1]-a[1]
		t := (qx*sy - qy*sx) / den
		u := (qx*ry - qy*rx) / den
		if t < 0 || t > 1 || u < 0 || u > 1 {
			return orb.Point{}, false
		}
		return orb.Point{a[0] + t*rx, a[1] + t*ry}, true
	}

	if cross(a, b, c) != 0 {
		return orb.Point{}, false
	}
	for _, p := range []orb.Point{c, d} {
		if inBox(a, b, p) {
			return p, true
		}
	}
	for _, p := range []orb.Point{a, b} {
		if inBox(c, d, p) {
			return p, true
		}
	}
	return orb.Point{}, false
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// inBox reports whether p, known to be collinear with ab, lies on ab.
func inBox(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}

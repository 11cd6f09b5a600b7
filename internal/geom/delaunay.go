package geom

import (
	"math"

	"github.com/fogleman/delaunay"
	"github.com/paulmach/orb"
)

// triangulation wraps a Delaunay triangulation with helpers shared by the
// alpha shape and the skeleton.
type triangulation struct {
	points []orb.Point
	tri    *delaunay.Triangulation
}

func triangulate(op string, points []orb.Point) (*triangulation, error) {
	pts := uniquePoints(points)
	if len(pts) < 3 {
		return nil, degenerate(op, "%d distinct points, need at least 3", len(pts))
	}
	in := make([]delaunay.Point, len(pts))
	for i, p := range pts {
		in[i] = delaunay.Point{X: p[0], Y: p[1]}
	}
	t, err := delaunay.Triangulate(in)
	if err != nil {
		return nil, degenerate(op, "triangulation failed: %v", err)
	}
	if len(t.Triangles) == 0 {
		return nil, degenerate(op, "points are collinear")
	}
	return &triangulation{points: pts, tri: t}, nil
}

func (t *triangulation) count() int { return len(t.tri.Triangles) / 3 }

// vertices returns the three corners of triangle k.
func (t *triangulation) vertices(k int) (orb.Point, orb.Point, orb.Point) {
	tr := t.tri.Triangles
	return t.points[tr[3*k]], t.points[tr[3*k+1]], t.points[tr[3*k+2]]
}

// edge returns the start and end vertex of half-edge e.
func (t *triangulation) edge(e int) (orb.Point, orb.Point) {
	tr := t.tri.Triangles
	return t.points[tr[e]], t.points[tr[nextHalfEdge(e)]]
}

// opposite returns the twin of half-edge e, or -1 on the hull.
func (t *triangulation) opposite(e int) int { return t.tri.Halfedges[e] }

func nextHalfEdge(e int) int {
	if e%3 == 2 {
		return e - 2
	}
	return e + 1
}

// circumcircle returns the centre and radius of the circle through a, b, c.
// Degenerate (collinear) triangles report an infinite radius.
func circumcircle(a, b, c orb.Point) (orb.Point, float64) {
	bx, by := b[0]-a[0], b[1]-a[1]
	cx, cy := c[0]-a[0], c[1]-a[1]
	d := 2 * (bx*cy - by*cx)
	if d == 0 {
		return orb.Point{math.NaN(), math.NaN()}, math.Inf(1)
	}
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	ux := (cy*b2 - by*c2) / d
	uy := (bx*c2 - cx*b2) / d
	return orb.Point{a[0] + ux, a[1] + uy}, math.Hypot(ux, uy)
}

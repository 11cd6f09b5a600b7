package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/sidewalk.report/internal/testutil"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCut_IdentityOutsideInterior(t *testing.T) {
	ls := orb.LineString{{0, 0}, {3, 0}, {3, 4}}
	for _, d := range []float64{-1, 0, 7, 7.5, 100} {
		head, tail := Cut(ls, d)
		assert.Equal(t, ls, head, "d=%v", d)
		assert.Nil(t, tail, "d=%v", d)
	}
}

func TestCut_ReconstructsLine(t *testing.T) {
	lines := []orb.LineString{
		{{0, 0}, {10, 0}},
		{{0, 0}, {3, 0}, {3, 4}},
		{{1, 1}, {2, 2}, {4, 2}, {4, -3}, {0, -3}},
	}
	for _, ls := range lines {
		total := planar.Length(ls)
		for _, frac := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
			d := total * frac
			head, tail := Cut(ls, d)
			require.NotNil(t, tail)
			assert.InDelta(t, d, planar.Length(head), 1e-9)
			assert.InDelta(t, total-d, planar.Length(tail), 1e-9)
			assert.Equal(t, head[len(head)-1], tail[0], "pieces share the cut vertex")

			joined := append(append(orb.LineString{}, head...), tail[1:]...)
			var original []orb.Point
			for _, p := range joined {
				if p != head[len(head)-1] || containsPoint(ls, p) {
					original = append(original, p)
				}
			}
			assert.Equal(t, []orb.Point(ls), original)
		}
	}
}

func containsPoint(ls orb.LineString, p orb.Point) bool {
	for _, q := range ls {
		if q == p {
			return true
		}
	}
	return false
}

func TestCut_AtVertexDoesNotInsert(t *testing.T) {
	ls := orb.LineString{{0, 0}, {3, 0}, {3, 4}}
	head, tail := Cut(ls, 3)
	assert.Equal(t, orb.LineString{{0, 0}, {3, 0}}, head)
	assert.Equal(t, orb.LineString{{3, 0}, {3, 4}}, tail)
}

func TestCut_Diagonal(t *testing.T) {
	head, tail := Cut(orb.LineString{{0, 0}, {3, 4}}, 2)
	testutil.AssertLineInDelta(t, orb.LineString{{0, 0}, {1.2, 1.6}}, head, 1e-12)
	testutil.AssertLineInDelta(t, orb.LineString{{1.2, 1.6}, {3, 4}}, tail, 1e-12)
}

func TestInterpolate(t *testing.T) {
	ls := orb.LineString{{0, 0}, {3, 0}, {3, 4}}
	assert.Equal(t, orb.Point{0, 0}, Interpolate(ls, -2))
	assert.Equal(t, orb.Point{1.5, 0}, Interpolate(ls, 1.5))
	assert.Equal(t, orb.Point{3, 2}, Interpolate(ls, 5))
	assert.Equal(t, orb.Point{3, 4}, Interpolate(ls, 50))
}

func TestLine_Variants(t *testing.T) {
	single := NewSingle(orb.LineString{{0, 0}, {4, 0}})
	assert.Equal(t, Single, single.Kind)
	assert.Len(t, single.Pieces(), 1)
	assert.Equal(t, 4.0, single.Length())

	multi := NewMulti(orb.MultiLineString{{{0, 0}, {1, 0}}, nil, {{5, 5}, {5, 7}}})
	assert.Equal(t, Multi, multi.Kind)
	assert.Len(t, multi.Pieces(), 2, "empty pieces are skipped")
	assert.Equal(t, 3.0, multi.Length())

	_, err := LineFromGeometry(orb.Point{1, 1})
	assert.Error(t, err)
	l, err := LineFromGeometry(orb.MultiLineString{{{0, 0}, {1, 1}}})
	require.NoError(t, err)
	assert.Equal(t, Multi, l.Kind)
}

func TestConvexHull(t *testing.T) {
	pts := []orb.Point{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {2, 2}, {1, 3}, {4, 0}}
	ring, err := ConvexHull(pts)
	require.NoError(t, err)
	assert.True(t, ring.Closed())
	assert.Len(t, ring, 5)
	assert.Equal(t, orb.CCW, ring.Orientation())
	assert.InDelta(t, 16.0, planar.Area(ring), 1e-9)
}

func TestConvexHull_Degenerate(t *testing.T) {
	cases := map[string][]orb.Point{
		"collinear":  {{0, 0}, {1, 1}, {2, 2}, {3, 3}},
		"two points": {{0, 0}, {1, 0}},
		"duplicates": {{1, 1}, {1, 1}, {1, 1}},
	}
	for name, pts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ConvexHull(pts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDegenerateGeometry))
			var dge *DegenerateGeometryError
			assert.True(t, errors.As(err, &dge))
			assert.Equal(t, "convex_hull", dge.Op)
		})
	}
}

func TestValidatePolygon(t *testing.T) {
	shell := orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}
	cases := map[string]struct {
		p     orb.Polygon
		valid bool
	}{
		"square":             {orb.Polygon{shell}, true},
		"hole inside":        {orb.Polygon{shell, {{1, 1}, {1, 2}, {2, 2}, {2, 1}, {1, 1}}}, true},
		"open ring":          {orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}}}, false},
		"bowtie":             {orb.Polygon{{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}}, false},
		"hole outside shell": {orb.Polygon{shell, {{5, 5}, {5, 6}, {6, 6}, {6, 5}, {5, 5}}}, false},
		// Starts inside the shell but crosses it.
		"hole crossing shell": {orb.Polygon{shell, {{1, 1}, {1, 2}, {5, 2}, {5, 1}, {1, 1}}}, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidatePolygon(tc.p)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidPolygon)
		})
	}
}

func TestMakeValid_ValidPolygonNormalised(t *testing.T) {
	cw := orb.Polygon{{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {0, 0}}}
	out, err := MakeValid(cw)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, orb.CCW, out[0][0].Orientation())
	assert.InDelta(t, 4.0, planar.Area(out[0]), 1e-9)
}

func TestMakeValid_RepairsBowtie(t *testing.T) {
	bowtie := orb.Polygon{{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}}
	require.ErrorIs(t, ValidatePolygon(bowtie), ErrInvalidPolygon)

	out, err := MakeValid(bowtie)
	require.NoError(t, err)
	require.Len(t, out, 1, "zero-width repair keeps one lobe")
	assert.InDelta(t, 1.0, planar.Area(out[0]), 1e-9)
	assert.NoError(t, ValidatePolygon(out[0]))
}

func TestMakeValid_ClosesOpenRing(t *testing.T) {
	open := orb.Polygon{{{0, 0}, {3, 0}, {3, 3}, {0, 3}}}
	out, err := MakeValid(open)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0][0].Closed())
}

func TestMakeValid_ZeroAreaIsDegenerate(t *testing.T) {
	flat := orb.Polygon{{{0, 0}, {1, 0}, {2, 0}, {0, 0}}}
	_, err := MakeValid(flat)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func gridPoints(x0, y0 float64, n int, step float64) []orb.Point {
	var pts []orb.Point
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			// Small jitter keeps the triangulation free of cocircular quads.
			jx := 0.001 * math.Sin(float64(i*n+j))
			jy := 0.001 * math.Cos(float64(i*n+j))
			pts = append(pts, orb.Point{x0 + float64(i)*step + jx, y0 + float64(j)*step + jy})
		}
	}
	return pts
}

func TestAlphaShape_SplitsDisjointGroups(t *testing.T) {
	pts := append(gridPoints(0, 0, 5, 0.2), gridPoints(10, 0, 5, 0.2)...)
	shape, err := AlphaShape(pts, 2) // max circumradius 0.5 m
	require.NoError(t, err)
	require.Len(t, shape, 2)
	for _, poly := range shape {
		assert.InDelta(t, 0.64, planar.Area(poly), 0.05)
	}
	assert.Less(t, shape[0].Bound().Max[0], 5.0)
	assert.Greater(t, shape[1].Bound().Min[0], 5.0)
}

func TestAlphaShape_ZeroAlphaIsConvexHull(t *testing.T) {
	pts := append(gridPoints(0, 0, 3, 1), gridPoints(10, 0, 3, 1)...)
	shape, err := AlphaShape(pts, 0)
	require.NoError(t, err)
	require.Len(t, shape, 1)
	assert.InDelta(t, 24.0, planar.Area(shape[0]), 0.1)
}

func TestAlphaShape_Collinear(t *testing.T) {
	_, err := AlphaShape([]orb.Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}}, 1)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestSkeleton_RectangleFollowsMidline(t *testing.T) {
	p := testutil.Rect(0, 0, 10, 2)
	ridges, err := Skeleton(p, 0.5)
	require.NoError(t, err)
	require.NotEmpty(t, ridges)

	var midline float64
	for _, r := range ridges {
		require.Len(t, r, 2)
		for _, pt := range r {
			assert.True(t, planar.PolygonContains(p, pt))
		}
		if math.Abs(r[0][1]-1) < 1e-6 && math.Abs(r[1][1]-1) < 1e-6 {
			midline += planar.Length(r)
		}
	}
	// The medial axis of a 10x2 rectangle runs along y=1 from x=1 to x=9.
	assert.Greater(t, midline, 6.0)
	assert.LessOrEqual(t, midline, 10.0)
}

func TestSkeleton_InvalidPolygon(t *testing.T) {
	bowtie := orb.Polygon{{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}}
	_, err := Skeleton(bowtie, 0.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestDistanceToBoundary_IncludesHoles(t *testing.T) {
	p := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {4, 6}, {6, 6}, {6, 4}, {4, 4}},
	}
	b := Boundary(p)
	require.Len(t, b, 2)
	assert.InDelta(t, 1.0, DistanceToBoundary(b, orb.Point{3, 5}), 1e-9)
	assert.InDelta(t, 2.0, DistanceToBoundary(b, orb.Point{2, 5}), 1e-9)
}

func TestPolygonsFromGeometry(t *testing.T) {
	parts, err := PolygonsFromGeometry(orb.MultiPolygon{testutil.Rect(0, 0, 1, 1), testutil.Rect(2, 2, 1, 1)})
	require.NoError(t, err)
	assert.Len(t, parts, 2)
	_, err = PolygonsFromGeometry(orb.LineString{{0, 0}, {1, 1}})
	assert.Error(t, err)
	assert.InDelta(t, 1.0, Area(parts[0]), 1e-12)
}

package segment

import (
	"math"
	"testing"

	"github.com/banshee-data/sidewalk.report/internal/geom"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomic(t *testing.T) {
	pieces := []orb.LineString{
		{{0, 0}, {1, 0}, {1, 0}, {1, 2}},
		{{5, 5}, {6, 6}},
	}
	want := []orb.LineString{
		{{0, 0}, {1, 0}},
		{{1, 0}, {1, 2}},
		{{5, 5}, {6, 6}},
	}
	if diff := cmp.Diff(want, Atomic(pieces)); diff != "" {
		t.Errorf("Atomic() mismatch (-want +got):\n%s", diff)
	}
}

func TestSplit_RectangleCenterline(t *testing.T) {
	// The midline of the (0,0)-(10,2) rectangle cut at 5 m.
	got := Split(orb.LineString{{0, 1}, {10, 1}}, 5, DefaultSnapTolerance)
	want := []orb.LineString{
		{{0, 1}, {5, 1}},
		{{5, 1}, {10, 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split() mismatch (-want +got):\n%s", diff)
	}
}

func TestSplit_LengthsBounded(t *testing.T) {
	lines := []orb.LineString{
		{{0, 0}, {7.3, 0}},
		{{0, 0}, {3, 0}, {3, 4}, {10, 4}},
		{{0, 0}, {0.5, 0.5}},
	}
	for _, ls := range lines {
		for _, maxLen := range []float64{0.7, 1, 2, 5} {
			parts := Split(ls, maxLen, DefaultSnapTolerance)
			require.NotEmpty(t, parts)

			var total float64
			for i, p := range parts {
				l := planar.Length(p)
				total += l
				assert.LessOrEqual(t, l, maxLen+DefaultSnapTolerance, "piece %d of %v at %v", i, ls, maxLen)
				if i > 0 {
					assert.Equal(t, parts[i-1][len(parts[i-1])-1], p[0], "pieces are contiguous")
				}
			}
			assert.InDelta(t, planar.Length(ls), total, 1e-9)
			assert.Equal(t, ls[0], parts[0][0])
			assert.Equal(t, ls[len(ls)-1], parts[len(parts)-1][len(parts[len(parts)-1])-1])
		}
	}
}

func TestSplit_SnapsToVertex(t *testing.T) {
	// The cut at 3 falls 0.0005 from the corner vertex and is moved onto it.
	ls := orb.LineString{{0, 0}, {3.0005, 0}, {3.0005, 2}}
	parts := Split(ls, 3, DefaultSnapTolerance)
	require.Len(t, parts, 2)
	assert.Equal(t, orb.LineString{{0, 0}, {3.0005, 0}}, parts[0])
	assert.Equal(t, orb.LineString{{3.0005, 0}, {3.0005, 2}}, parts[1])
}

func TestSplit_DropsCutNearEnd(t *testing.T) {
	parts := Split(orb.LineString{{0, 0}, {4.0004, 0}}, 2, DefaultSnapTolerance)
	require.Len(t, parts, 2)
	assert.InDelta(t, 2.0004, planar.Length(parts[1]), 1e-12)
}

func TestSplit_Degenerate(t *testing.T) {
	assert.Nil(t, Split(orb.LineString{{0, 0}}, 1, DefaultSnapTolerance))
	ls := orb.LineString{{0, 0}, {3, 0}}
	assert.Equal(t, []orb.LineString{ls}, Split(ls, 0, DefaultSnapTolerance))
	assert.Equal(t, []orb.LineString{ls}, Split(ls, 10, DefaultSnapTolerance))
}

func TestSegmentize(t *testing.T) {
	line := geom.NewMulti(orb.MultiLineString{
		{{0, 1}, {10, 1}},
		{{10, 1}, {10, 4}},
	})
	long, segs := Segmentize(7, line, 5, DefaultSnapTolerance)
	require.Len(t, long, 2)
	require.Len(t, segs, 3)
	for _, s := range append(long, segs...) {
		assert.Equal(t, int64(7), s.SidewalkID)
	}
	assert.InDelta(t, 5.0, segs[0].Length(), 1e-12)
	assert.InDelta(t, 5.0, segs[1].Length(), 1e-12)
	assert.InDelta(t, 3.0, segs[2].Length(), 1e-12)
}

func zigzag(n int, step float64) orb.LineString {
	ls := make(orb.LineString, n)
	for i := range ls {
		ls[i] = orb.Point{float64(i) * step, float64(i%2) * 0.01}
	}
	return ls
}

func TestBoundLengths(t *testing.T) {
	// A 40 m multi-vertex piece, a 25 m atomic piece and a 3 m piece.
	pieces := []Segment{
		{SidewalkID: 1, Line: zigzag(41, 1)},
		{SidewalkID: 2, Line: orb.LineString{{0, 0}, {25, 0}}},
		{SidewalkID: 3, Line: zigzag(4, 1)},
	}
	out := BoundLengths(pieces, 10)

	var total, want float64
	for _, p := range pieces {
		want += p.Length()
	}
	for _, s := range out {
		total += s.Length()
		if len(s.Line) > 2 {
			assert.LessOrEqual(t, s.Length(), 10.0)
		}
	}
	assert.InDelta(t, want, total, 1e-9, "cutting conserves length")

	// Ordered by input piece then along it.
	var ids []int64
	for _, s := range out {
		ids = append(ids, s.SidewalkID)
	}
	for i := 1; i < len(ids); i++ {
		assert.LessOrEqual(t, ids[i-1], ids[i])
	}
	for i := 1; i < len(out); i++ {
		if out[i].SidewalkID == 1 && out[i-1].SidewalkID == 1 {
			assert.Equal(t, out[i-1].Line[len(out[i-1].Line)-1], out[i].Line[0])
		}
	}

	var atomic []Segment
	for _, s := range out {
		if s.SidewalkID == 2 {
			atomic = append(atomic, s)
		}
	}
	require.Len(t, atomic, 1, "two-vertex piece is never subdivided")
	assert.Equal(t, 25.0, atomic[0].Length())
}

func TestBoundLengths_CutsAtMiddleVertex(t *testing.T) {
	ls := orb.LineString{{0, 0}, {4, 0}, {6, 0}, {12, 0}}
	out := BoundLengths([]Segment{{Line: ls}}, 8)
	require.Len(t, out, 2)
	assert.Equal(t, orb.LineString{{0, 0}, {4, 0}, {6, 0}}, out[0].Line)
	assert.Equal(t, orb.LineString{{6, 0}, {12, 0}}, out[1].Line)
}

func TestBoundLengths_Empty(t *testing.T) {
	assert.Empty(t, BoundLengths(nil, 10))
	one := []Segment{{Line: orb.LineString{{0, 0}, {1, 0}}}}
	assert.Equal(t, one, BoundLengths(one, math.Inf(1)))
}

package width

import (
	"testing"

	"github.com/banshee-data/sidewalk.report/internal/segment"
	"github.com/banshee-data/sidewalk.report/internal/testutil"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample_RectangleSegments(t *testing.T) {
	segs := []segment.Segment{
		{SidewalkID: 3, Line: orb.LineString{{0, 1}, {5, 1}}},
		{SidewalkID: 3, Line: orb.LineString{{5, 1}, {10, 1}}},
	}
	recs, err := Sampler{Resolution: 1, Precision: 1}.Sample(testutil.Rect(0, 0, 10, 2), segs)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, int64(3), r.SidewalkID)
		assert.Equal(t, 2.0, r.AvgWidth)
		assert.Equal(t, 2.0, r.MinWidth)
		assert.Equal(t, 4, r.Stations)
	}
}

func TestStations(t *testing.T) {
	s := Sampler{Resolution: 1}
	assert.Equal(t, []orb.Point{{1, 0}, {2, 0}}, s.Stations(orb.LineString{{0, 0}, {3, 0}}))
	assert.Equal(t, []orb.Point{{0.25, 0}}, s.Stations(orb.LineString{{0, 0}, {0.5, 0}}), "short segment: midpoint")
	assert.Equal(t, []orb.Point{{0.5, 0}}, s.Stations(orb.LineString{{0, 0}, {1, 0}}), "no station strictly inside")
	assert.Equal(t, []orb.Point{{2, 0}}, Sampler{}.Stations(orb.LineString{{0, 0}, {4, 0}}))
}

func TestSample_HolesCountAsBoundary(t *testing.T) {
	p := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {4, 6}, {6, 6}, {6, 4}, {4, 4}},
	}
	segs := []segment.Segment{{SidewalkID: 1, Line: orb.LineString{{2, 4}, {2, 6}}}}
	recs, err := Sampler{Resolution: 1, Precision: 2}.Sample(p, segs)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	// Station (2,5) is 2 m from both the shell and the hole.
	assert.Equal(t, 4.0, recs[0].AvgWidth)
}

func TestSample_MinNeverExceedsAvg(t *testing.T) {
	// A corridor that narrows from 4 m to 1 m.
	p := orb.Polygon{{{0, 0}, {20, 1.5}, {20, 2.5}, {0, 4}, {0, 0}}}
	var segs []segment.Segment
	for x := 0.0; x < 20; x += 2.5 {
		segs = append(segs, segment.Segment{Line: orb.LineString{{x, 2}, {x + 2.5, 2}}})
	}
	for _, prec := range []int{0, 1, 3} {
		recs, err := Sampler{Resolution: 0.5, Precision: prec}.Sample(p, segs)
		require.NoError(t, err)
		for _, r := range recs {
			assert.LessOrEqual(t, r.MinWidth, r.AvgWidth)
		}
	}
}

func TestSample_Rounding(t *testing.T) {
	p := orb.Polygon{{{0, 0}, {10, 0}, {10, 1.234}, {0, 1.234}, {0, 0}}}
	segs := []segment.Segment{{Line: orb.LineString{{2, 0.617}, {8, 0.617}}}}
	recs, err := Sampler{Resolution: 1, Precision: 1}.Sample(p, segs)
	require.NoError(t, err)
	assert.Equal(t, 1.2, recs[0].AvgWidth)
	assert.Equal(t, 1.2, recs[0].MinWidth)
}

func TestSample_DegenerateSegment(t *testing.T) {
	_, err := Sampler{Resolution: 1}.Sample(testutil.Rect(0, 0, 10, 2), []segment.Segment{{Line: orb.LineString{{1, 1}}}})
	assert.Error(t, err)
}

// Package width measures corridor width along centerline segments.
package width

import (
	"fmt"

	"github.com/banshee-data/sidewalk.report/internal/geom"
	"github.com/banshee-data/sidewalk.report/internal/monitoring"
	"github.com/banshee-data/sidewalk.report/internal/segment"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

var logs = monitoring.NewStreams("width")

// stationEpsilon keeps a station from landing on the far end through
// floating-point accumulation.
const stationEpsilon = 1e-9

// Record is the width summary of one segment.
type Record struct {
	SidewalkID int64
	AvgWidth   float64
	MinWidth   float64
	Stations   int
}

// Sampler measures the distance from stations along a segment to the
// polygon boundary. Each distance is taken as half the local width, which
// holds when the segment follows the medial axis.
type Sampler struct {
	Resolution float64 // station spacing in metres
	Precision  int     // decimals kept on reported widths
}

// Stations returns the sample points of ls: every Resolution metres
// strictly between its ends, or its midpoint when none fit.
func (s Sampler) Stations(ls orb.LineString) []orb.Point {
	length := geom.NewSingle(ls).Length()
	var out []orb.Point
	if s.Resolution > 0 {
		for k := 1; float64(k)*s.Resolution < length-stationEpsilon; k++ {
			out = append(out, geom.Interpolate(ls, float64(k)*s.Resolution))
		}
	}
	if len(out) == 0 {
		out = append(out, geom.Interpolate(ls, length/2))
	}
	return out
}

// Sample returns one Record per segment, in order. The boundary is the
// polygon's shell together with all of its holes.
func (s Sampler) Sample(p orb.Polygon, segments []segment.Segment) ([]Record, error) {
	boundary := geom.Boundary(p)
	out := make([]Record, 0, len(segments))
	for i, seg := range segments {
		if len(seg.Line) < 2 {
			return nil, fmt.Errorf("segment %d of sidewalk %d has %d vertices", i, seg.SidewalkID, len(seg.Line))
		}
		stations := s.Stations(seg.Line)
		dist := make([]float64, len(stations))
		for k, st := range stations {
			dist[k] = geom.DistanceToBoundary(boundary, st)
		}
		rec := Record{
			SidewalkID: seg.SidewalkID,
			AvgWidth:   scalar.Round(2*stat.Mean(dist, nil), s.Precision),
			MinWidth:   scalar.Round(2*floats.Min(dist), s.Precision),
			Stations:   len(stations),
		}
		logs.Tracef("sidewalk %d segment %d: %d stations avg=%.2f min=%.2f",
			seg.SidewalkID, i, rec.Stations, rec.AvgWidth, rec.MinWidth)
		out = append(out, rec)
	}
	return out, nil
}

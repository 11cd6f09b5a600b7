package centerline

import (
	"github.com/banshee-data/sidewalk.report/internal/geom"
	"github.com/banshee-data/sidewalk.report/internal/monitoring"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

var logs = monitoring.NewStreams("centerline")

// Sanitize drops short spurs. A piece is pruned when one of its endpoints
// touches no other piece and it is shorter than minLength. The test runs
// once against the input set; pieces exposed by a removal are not
// revisited. A single piece is returned as is.
func Sanitize(pieces orb.MultiLineString, minLength float64) (kept, pruned orb.MultiLineString) {
	if len(pieces) <= 1 {
		return pieces, nil
	}
	n := NewNetwork(pieces)
	for e, ed := range n.Edges {
		if n.DeadEnd(e) && planar.Length(ed.Line) < minLength {
			pruned = append(pruned, ed.Line)
			continue
		}
		kept = append(kept, ed.Line)
	}
	return kept, pruned
}

// Simplify applies Douglas-Peucker to every piece. Endpoints are always
// kept, so pieces that met before still meet.
func Simplify(pieces orb.MultiLineString, tolerance float64) orb.MultiLineString {
	if tolerance <= 0 {
		return pieces
	}
	dp := simplify.DouglasPeucker(tolerance)
	out := make(orb.MultiLineString, 0, len(pieces))
	for _, ls := range pieces {
		out = append(out, dp.LineString(ls.Clone()))
	}
	return out
}

// Options configures Extract.
type Options struct {
	Spacing           float64 // boundary densification for the skeleton
	MinSELength       float64 // dead-end pieces shorter than this are pruned
	SimplifyTolerance float64
}

// Stats describes one Extract run.
type Stats struct {
	Ridges int
	Merged int
	Pruned int
}

// Extract computes the cleaned centerline of a valid polygon: skeleton,
// line merge, single-pass pruning and simplification. Skeleton failures
// come back as geom.DegenerateGeometryError.
func Extract(p orb.Polygon, o Options) (geom.Line, Stats, error) {
	ridges, err := geom.Skeleton(p, o.Spacing)
	if err != nil {
		return geom.Line{}, Stats{}, err
	}
	merged := LineMerge(ridges)
	kept, pruned := Sanitize(merged, o.MinSELength)
	lines := Simplify(kept, o.SimplifyTolerance)

	st := Stats{Ridges: len(ridges), Merged: len(merged), Pruned: len(pruned)}
	logs.Tracef("skeleton: %d ridges, %d merged pieces, %d pruned", st.Ridges, st.Merged, st.Pruned)

	if len(lines) == 1 {
		return geom.NewSingle(lines[0]), st, nil
	}
	return geom.NewMulti(lines), st, nil
}

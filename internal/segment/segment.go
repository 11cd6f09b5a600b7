package segment

import (
	"math"

	"github.com/banshee-data/sidewalk.report/internal/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultSnapTolerance merges cut points that fall this close to a vertex
// or to the end of a piece.
const DefaultSnapTolerance = 0.001

// Segment is a length-bounded piece of centerline owned by one sidewalk
// polygon.
type Segment struct {
	SidewalkID int64
	Line       orb.LineString
}

// Length returns the planar length of the segment.
func (s Segment) Length() float64 { return planar.Length(s.Line) }

// Atomic splits every piece into consecutive two-vertex pieces. Repeated
// vertices are skipped.
func Atomic(pieces []orb.LineString) []orb.LineString {
	var out []orb.LineString
	for _, ls := range pieces {
		for i := 1; i < len(ls); i++ {
			if ls[i-1] == ls[i] {
				continue
			}
			out = append(out, orb.LineString{ls[i-1], ls[i]})
		}
	}
	return out
}

// cutDistances lists k*maxLen for k >= 1 that fall more than tol before
// the end of a line of the given length.
func cutDistances(length, maxLen, tol float64) []float64 {
	if maxLen <= 0 {
		return nil
	}
	var cuts []float64
	for k := 1; ; k++ {
		d := float64(k) * maxLen
		if d >= length-tol {
			return cuts
		}
		cuts = append(cuts, d)
	}
}

// Split cuts piece at every multiple of maxLen along it. A cut within tol
// of an interior vertex is made at that vertex; cuts within tol of the
// end are dropped. The pieces share their cut vertices and together
// reproduce piece.
func Split(piece orb.LineString, maxLen, tol float64) []orb.LineString {
	if len(piece) < 2 {
		return nil
	}
	vd := geom.VertexDistances(piece)
	cuts := cutDistances(vd[len(vd)-1], maxLen, tol)
	if len(cuts) == 0 {
		return []orb.LineString{piece}
	}

	var out []orb.LineString
	cur := orb.LineString{piece[0]}
	ci := 0
	for i := 1; i < len(piece); i++ {
		a, b := vd[i-1], vd[i]
		for ci < len(cuts) && cuts[ci] < b-tol {
			if cuts[ci] > a+tol {
				p := geom.Interpolate(piece[i-1:i+1], cuts[ci]-a)
				cur = append(cur, p)
				out = append(out, cur)
				cur = orb.LineString{p}
			}
			ci++
		}
		cur = append(cur, piece[i])
		if i < len(piece)-1 && ci < len(cuts) && math.Abs(cuts[ci]-b) <= tol {
			out = append(out, cur)
			cur = orb.LineString{piece[i]}
			ci++
		}
	}
	return append(out, cur)
}

// Segmentize decomposes a centerline into atomic pieces and cuts each to
// maxLen. It returns both the atomic pieces and the final segments, all
// tagged with sidewalkID.
func Segmentize(sidewalkID int64, line geom.Line, maxLen, tol float64) (long, segments []Segment) {
	for _, a := range Atomic(line.Pieces()) {
		long = append(long, Segment{SidewalkID: sidewalkID, Line: a})
		for _, s := range Split(a, maxLen, tol) {
			segments = append(segments, Segment{SidewalkID: sidewalkID, Line: s})
		}
	}
	return long, segments
}

package segment

import (
	"container/heap"
	"math"
	"sort"

	"github.com/banshee-data/sidewalk.report/internal/geom"
	"github.com/banshee-data/sidewalk.report/internal/monitoring"
)

var logs = monitoring.NewStreams("segment")

type boundItem struct {
	seg    Segment
	length float64
	origin int     // index in the input collection
	offset float64 // distance of seg's start along the original piece
}

// lengthHeap is a max-heap on length; ties go to the earlier piece.
type lengthHeap []boundItem

func (h lengthHeap) Len() int { return len(h) }
func (h lengthHeap) Less(i, j int) bool {
	if h[i].length != h[j].length {
		return h[i].length > h[j].length
	}
	if h[i].origin != h[j].origin {
		return h[i].origin < h[j].origin
	}
	return h[i].offset < h[j].offset
}
func (h lengthHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *lengthHeap) Push(x any)   { *h = append(*h, x.(boundItem)) }
func (h *lengthHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// BoundLengths repeatedly takes the longest piece of the whole collection
// and cuts it at the interior vertex closest to its midpoint, until no
// piece is longer than limit. Two-vertex pieces are atomic and are kept
// whole whatever their length. The result lists pieces in input order,
// each original piece's parts in order along it.
func BoundLengths(pieces []Segment, limit float64) []Segment {
	h := make(lengthHeap, 0, len(pieces))
	for i, s := range pieces {
		h = append(h, boundItem{seg: s, length: s.Length(), origin: i})
	}
	heap.Init(&h)

	var done []boundItem
	cuts := 0
	for h.Len() > 0 {
		it := heap.Pop(&h).(boundItem)
		if it.length <= limit {
			done = append(done, it)
			done = append(done, h...)
			break
		}
		if len(it.seg.Line) <= 2 {
			done = append(done, it)
			continue
		}

		head, tail := geom.Cut(it.seg.Line, midVertex(it))
		if tail == nil {
			done = append(done, it)
			continue
		}
		cuts++
		hl := Segment{SidewalkID: it.seg.SidewalkID, Line: head}.Length()
		heap.Push(&h, boundItem{
			seg:    Segment{SidewalkID: it.seg.SidewalkID, Line: head},
			length: hl,
			origin: it.origin,
			offset: it.offset,
		})
		tl := Segment{SidewalkID: it.seg.SidewalkID, Line: tail}
		heap.Push(&h, boundItem{seg: tl, length: tl.Length(), origin: it.origin, offset: it.offset + hl})
	}

	sort.Slice(done, func(i, j int) bool {
		if done[i].origin != done[j].origin {
			return done[i].origin < done[j].origin
		}
		return done[i].offset < done[j].offset
	})
	out := make([]Segment, len(done))
	for i, it := range done {
		out[i] = it.seg
	}
	logs.Diagf("bounded %d pieces to %d with %d cuts (limit %.1f m)", len(pieces), len(out), cuts, limit)
	return out
}

// midVertex returns the distance of the interior vertex nearest half the
// item's length.
func midVertex(it boundItem) float64 {
	vd := geom.VertexDistances(it.seg.Line)
	half := vd[len(vd)-1] / 2
	best, bestGap := vd[1], math.Inf(1)
	for _, d := range vd[1 : len(vd)-1] {
		if gap := math.Abs(d - half); gap < bestGap {
			best, bestGap = d, gap
		}
	}
	return best
}

package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/banshee-data/sidewalk.report/internal/centerline"
	"github.com/banshee-data/sidewalk.report/internal/geom"
	"github.com/banshee-data/sidewalk.report/internal/segment"
	"github.com/paulmach/orb"
)

// Sidewalk is one input polygon of the width branch.
type Sidewalk struct {
	ID       int64
	Geometry orb.Geometry // orb.Polygon or orb.MultiPolygon
}

// SegmentRecord is one measured, classified segment.
type SegmentRecord struct {
	SidewalkID int64
	Line       orb.LineString
	AvgWidth   float64
	MinWidth   float64
	Severity   string
	Impassable bool // MinWidth below the minimum path width
	Coverage   bool // intersects a point-cloud tile
}

// SidewalkResult is the width branch output for one polygon.
type SidewalkResult struct {
	SidewalkID int64
	Area       float64
	Centerline geom.Line
	Long       []segment.Segment // atomic pieces before cutting
	Segments   []SegmentRecord
	Stats      centerline.Stats
}

// WidthReport is the outcome of RunWidths.
type WidthReport struct {
	Results []SidewalkResult
	// Network holds every centerline piece of the batch cut so that no
	// multi-vertex piece exceeds the maximum linestring length.
	Network []segment.Segment
	Skipped []Skipped
}

// Segments flattens the segment records of every result in order.
func (w *WidthReport) Segments() []SegmentRecord {
	var out []SegmentRecord
	for _, r := range w.Results {
		out = append(out, r.Segments...)
	}
	return out
}

type widthOutcome struct {
	result  SidewalkResult
	ok      bool
	skipped []Skipped
}

// RunWidths processes sidewalks concurrently. Results keep input order.
// When ctx is done no further polygons are started; those left are listed
// in Skipped and ctx's error is returned with the partial report.
func (r *Runner) RunWidths(ctx context.Context, sidewalks []Sidewalk) (*WidthReport, error) {
	outcomes, ran := forEach(ctx, r.workers, sidewalks, r.processSidewalk)

	rep := &WidthReport{}
	var pieces []segment.Segment
	for i, o := range outcomes {
		if !ran[i] {
			rep.Skipped = append(rep.Skipped, Skipped{ID: sidewalkKey(sidewalks[i].ID), Stage: StageCancelled, Err: ctx.Err()})
			continue
		}
		for _, s := range o.skipped {
			logs.Opsf("sidewalk %s skipped at %s: %v", s.ID, s.Stage, s.Err)
		}
		rep.Skipped = append(rep.Skipped, o.skipped...)
		if !o.ok {
			continue
		}
		rep.Results = append(rep.Results, o.result)
		for _, p := range o.result.Centerline.Pieces() {
			pieces = append(pieces, segment.Segment{SidewalkID: o.result.SidewalkID, Line: p})
		}
	}
	rep.Network = segment.BoundLengths(pieces, r.cfg.GetMaxLSLength())

	logs.Opsf("widths: %d sidewalks, %d processed, %d skipped, %d segments",
		len(sidewalks), len(rep.Results), len(rep.Skipped), len(rep.Segments()))
	return rep, ctx.Err()
}

func sidewalkKey(id int64) string { return strconv.FormatInt(id, 10) }

func skip(id, stage string, err error) widthOutcome {
	return widthOutcome{skipped: []Skipped{{ID: id, Stage: stage, Err: err}}}
}

// partResult is the output of one polygon part of a sidewalk.
type partResult struct {
	area     float64
	lines    orb.MultiLineString
	long     []segment.Segment
	segments []SegmentRecord
	stats    centerline.Stats
}

// processSidewalk handles each polygon part on its own. A failing part of
// a multi-part sidewalk is skipped as "<id>/part-<k>" and the other parts
// still produce output.
func (r *Runner) processSidewalk(sw Sidewalk) widthOutcome {
	key := sidewalkKey(sw.ID)
	parts, err := geom.PolygonsFromGeometry(sw.Geometry)
	if err != nil {
		return skip(key, StageInput, err)
	}

	var out widthOutcome
	res := SidewalkResult{SidewalkID: sw.ID}
	var lines orb.MultiLineString
	for k, p := range parts {
		pr, stage, err := r.processPart(sw.ID, p)
		if err != nil {
			id := key
			if len(parts) > 1 {
				id = fmt.Sprintf("%s/part-%d", key, k)
			}
			out.skipped = append(out.skipped, Skipped{ID: id, Stage: stage, Err: err})
			continue
		}
		res.Area += pr.area
		res.Long = append(res.Long, pr.long...)
		res.Segments = append(res.Segments, pr.segments...)
		res.Stats.Ridges += pr.stats.Ridges
		res.Stats.Merged += pr.stats.Merged
		res.Stats.Pruned += pr.stats.Pruned
		lines = append(lines, pr.lines...)
	}
	if len(lines) == 0 {
		return out
	}
	if len(lines) == 1 {
		res.Centerline = geom.NewSingle(lines[0])
	} else {
		res.Centerline = geom.NewMulti(lines)
	}

	logs.Diagf("sidewalk %d: %d of %d parts, area %.1f m2, %d centerline pieces, %d segments",
		sw.ID, len(parts)-len(out.skipped), len(parts), res.Area, len(lines), len(res.Segments))
	out.result, out.ok = res, true
	return out
}

// processPart runs one polygon part through the area filter, repair,
// centerline extraction, segmentation and width sampling. On failure it
// returns the stage that failed.
func (r *Runner) processPart(id int64, p orb.Polygon) (partResult, string, error) {
	var pr partResult
	pr.area = geom.Area(p)
	if minArea := r.cfg.GetMinAreaSize(); !(pr.area > minArea) {
		return pr, StageFilter, fmt.Errorf("area %.2f m2 not above minimum %.2f m2", pr.area, minArea)
	}

	valid, err := geom.MakeValid(p)
	if err != nil {
		return pr, StageRepair, err
	}

	opts := centerline.Options{
		Spacing:           r.cfg.GetSkeletonSpacing(),
		MinSELength:       r.cfg.GetMinSELength(),
		SimplifyTolerance: r.cfg.GetSimplifyTolerance(),
	}
	for _, v := range valid {
		line, st, err := centerline.Extract(v, opts)
		if err != nil {
			return pr, StageCenterline, err
		}
		pr.stats.Ridges += st.Ridges
		pr.stats.Merged += st.Merged
		pr.stats.Pruned += st.Pruned
		pr.lines = append(pr.lines, line.Pieces()...)

		long, segs := segment.Segmentize(id, line, r.cfg.GetMaxSegLength(), segment.DefaultSnapTolerance)
		pr.long = append(pr.long, long...)
		recs, err := r.sampler.Sample(v, segs)
		if err != nil {
			return pr, StageWidth, err
		}
		for k, rec := range recs {
			pr.segments = append(pr.segments, r.record(segs[k], rec.AvgWidth, rec.MinWidth))
		}
	}
	if len(pr.lines) == 0 {
		return pr, StageCenterline, fmt.Errorf("empty centerline: %w", geom.ErrDegenerateGeometry)
	}
	return pr, "", nil
}

func (r *Runner) record(s segment.Segment, avgWidth, minWidth float64) SegmentRecord {
	rec := SegmentRecord{
		SidewalkID: s.SidewalkID,
		Line:       s.Line,
		AvgWidth:   avgWidth,
		MinWidth:   minWidth,
		Severity:   r.classifier.Classify(minWidth),
		Impassable: minWidth < r.cfg.GetMinPathWidth(),
	}
	if r.coverage != nil {
		rec.Coverage = r.coverage.Covers(s.Line)
	}
	return rec
}

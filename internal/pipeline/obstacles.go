package pipeline

import (
	"context"
	"fmt"

	"github.com/banshee-data/sidewalk.report/internal/obstacle"
	"github.com/banshee-data/sidewalk.report/internal/pointcloud"
	"github.com/paulmach/orb"
)

// Tile is one input unit of the accessibility branch.
type Tile struct {
	ID        string
	Points    pointcloud.PointSet
	Sidewalks []orb.Polygon // sidewalk polygons overlapping the tile
}

// TileResult is the accessibility branch output for one tile. Both masks
// are indexed over the tile's full point set.
type TileResult struct {
	TileID       string
	Footprints   []obstacle.Footprint
	SidewalkMask []bool
	ObstacleMask []bool
	Noise        int
}

// ObstacleReport is the outcome of RunObstacles. Clusters that could not
// be outlined appear in Skipped next to any whole tiles that failed.
type ObstacleReport struct {
	Results []TileResult
	Skipped []Skipped
}

// Footprints flattens the footprints of every tile with their tile ids.
func (o *ObstacleReport) Footprints() (ids []string, fps []obstacle.Footprint) {
	for _, r := range o.Results {
		for _, f := range r.Footprints {
			ids = append(ids, r.TileID)
			fps = append(fps, f)
		}
	}
	return ids, fps
}

type tileOutcome struct {
	result  TileResult
	partial []Skipped
	skipped *Skipped
}

// RunObstacles processes tiles concurrently. Results keep input order.
func (r *Runner) RunObstacles(ctx context.Context, tiles []Tile) (*ObstacleReport, error) {
	outcomes, ran := forEach(ctx, r.workers, tiles, r.processTile)

	rep := &ObstacleReport{}
	for i, o := range outcomes {
		if !ran[i] {
			rep.Skipped = append(rep.Skipped, Skipped{ID: tiles[i].ID, Stage: StageCancelled, Err: ctx.Err()})
			continue
		}
		if o.skipped != nil {
			logs.Opsf("tile %s skipped at %s: %v", o.skipped.ID, o.skipped.Stage, o.skipped.Err)
			rep.Skipped = append(rep.Skipped, *o.skipped)
			continue
		}
		for _, s := range o.partial {
			logs.Opsf("%s skipped at %s: %v", s.ID, s.Stage, s.Err)
		}
		rep.Skipped = append(rep.Skipped, o.partial...)
		rep.Results = append(rep.Results, o.result)
	}

	_, fps := rep.Footprints()
	logs.Opsf("obstacles: %d tiles, %d processed, %d footprints, %d skipped",
		len(tiles), len(rep.Results), len(fps), len(rep.Skipped))
	return rep, ctx.Err()
}

func (r *Runner) processTile(t Tile) tileOutcome {
	fail := func(stage string, err error) tileOutcome {
		return tileOutcome{skipped: &Skipped{ID: t.ID, Stage: stage, Err: err}}
	}
	ps := t.Points
	if err := ps.Validate(); err != nil {
		return fail(StageInput, err)
	}

	var pre []bool
	include, exclude := r.cfg.TargetLabels, r.cfg.ExcludeLabels
	if len(include) > 0 || len(exclude) > 0 {
		if !ps.HasLabels() {
			return fail(StageLabels, fmt.Errorf("label filter configured but tile has no labels"))
		}
		m, err := pointcloud.LabelMask(ps.Labels, include, exclude)
		if err != nil {
			return fail(StageLabels, err)
		}
		pre = m
	}

	var band *obstacle.HeightBand
	if r.elevation != nil {
		band = &obstacle.HeightBand{
			Service:   r.elevation,
			TileID:    t.ID,
			Surface:   r.cfg.GetElevationSurface(),
			MaxHeight: r.cfg.GetMaxObstacleHeight(),
		}
	}
	sw, err := obstacle.SidewalkMask(ps, pre, t.Sidewalks, band)
	if err != nil {
		return fail(StageMask, err)
	}
	if band != nil {
		logs.Diagf("tile %s height band: %d checked, %d kept, %d below ground, %d above, %d without elevation",
			t.ID, band.Checked, band.Kept, band.BelowGround, band.AboveBand, band.NoElevation)
	}

	ext := r.extractor.Extract(ps, sw)
	out := tileOutcome{result: TileResult{TileID: t.ID, Footprints: ext.Footprints, SidewalkMask: sw, Noise: ext.Noise}}
	for _, sc := range ext.Skipped {
		out.partial = append(out.partial, Skipped{
			ID:    fmt.Sprintf("%s/cluster-%d", t.ID, sc.Cluster),
			Stage: StageOutline,
			Err:   sc.Err,
		})
	}

	om, err := obstacle.Mask(ps, sw, ext.Polygons(), nil)
	if err != nil {
		return fail(StageMask, err)
	}
	out.result.ObstacleMask = om
	return out
}

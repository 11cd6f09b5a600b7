package obstacle

import (
	"fmt"

	"github.com/banshee-data/sidewalk.report/internal/elevation"
	"github.com/banshee-data/sidewalk.report/internal/pointcloud"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
)

// HeightBand restricts a mask to points in (ground, ground+MaxHeight],
// with ground taken from Service for the tile. Points without a ground
// sample stay in the mask.
type HeightBand struct {
	Service   elevation.Service
	TileID    string
	Surface   string
	MaxHeight float64

	// Statistics of the last Apply call.
	Checked     int
	Kept        int
	BelowGround int
	AboveBand   int
	NoElevation int
}

// Apply filters mask in place.
func (h *HeightBand) Apply(ps pointcloud.PointSet, mask []bool) error {
	h.Checked, h.Kept, h.BelowGround, h.AboveBand, h.NoElevation = 0, 0, 0, 0, 0

	ground, err := h.Service.Interpolate(h.TileID, ps.XY(nil), mask, h.Surface)
	if err != nil {
		return fmt.Errorf("elevation lookup for tile %s: %w", h.TileID, err)
	}
	if len(ground) != len(mask) {
		return fmt.Errorf("elevation service returned %d samples for %d points", len(ground), len(mask))
	}

	for i, in := range mask {
		if !in {
			continue
		}
		h.Checked++
		g := ground[i]
		z := ps.Points[i].Z
		switch {
		case elevation.Invalid(g):
			h.NoElevation++
		case z <= g:
			h.BelowGround++
			mask[i] = false
		case z > g+h.MaxHeight:
			h.AboveBand++
			mask[i] = false
		}
		if mask[i] {
			h.Kept++
		}
	}
	if h.NoElevation > 0 {
		logs.Diagf("tile %s: %d points kept without ground elevation", h.TileID, h.NoElevation)
	}
	return nil
}

type indexed struct {
	p orb.Point
	i int
}

func (x indexed) Point() orb.Point { return x.p }

// Mask marks the points of ps that fall inside any polygon. Only points
// selected by pre are considered (nil selects all). When band is non-nil
// the result is further restricted by height above ground. An empty
// polygon list yields an all-false mask. The mask has one entry per point
// of ps.
func Mask(ps pointcloud.PointSet, pre []bool, polygons []orb.Polygon, band *HeightBand) ([]bool, error) {
	if pre != nil && len(pre) != ps.Len() {
		return nil, fmt.Errorf("pre-mask has %d entries for %d points", len(pre), ps.Len())
	}
	mask := make([]bool, ps.Len())
	if len(polygons) == 0 {
		return mask, nil
	}

	candidates := pointcloud.Selected(pre, ps.Len())
	if len(candidates) == 0 {
		return mask, nil
	}

	bound := ps.Points[candidates[0]].XY().Bound()
	for _, i := range candidates[1:] {
		bound = bound.Extend(ps.Points[i].XY())
	}
	qt := quadtree.New(bound.Pad(1))
	for _, i := range candidates {
		if err := qt.Add(indexed{p: ps.Points[i].XY(), i: i}); err != nil {
			return nil, fmt.Errorf("indexing point %d: %w", i, err)
		}
	}

	var buf []orb.Pointer
	for _, poly := range polygons {
		pb := poly.Bound()
		if !pb.Intersects(bound) {
			continue
		}
		buf = qt.InBound(buf[:0], pb)
		for _, item := range buf {
			x := item.(indexed)
			if !mask[x.i] && planar.PolygonContains(poly, x.p) {
				mask[x.i] = true
			}
		}
	}

	if band != nil {
		if err := band.Apply(ps, mask); err != nil {
			return nil, err
		}
	}
	return mask, nil
}

// SidewalkMask selects the points of a tile that lie on sidewalk polygons
// and within the height band above ground.
func SidewalkMask(ps pointcloud.PointSet, pre []bool, sidewalks []orb.Polygon, band *HeightBand) ([]bool, error) {
	if len(sidewalks) == 0 {
		logs.Opsf("no sidewalk polygons for tile; nothing to clip")
	}
	return Mask(ps, pre, sidewalks, band)
}

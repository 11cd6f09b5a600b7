package obstacle

import (
	"fmt"

	"github.com/banshee-data/sidewalk.report/internal/geom"
	"github.com/banshee-data/sidewalk.report/internal/monitoring"
	"github.com/banshee-data/sidewalk.report/internal/pointcloud"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var logs = monitoring.NewStreams("obstacle")

// TagObstacle is the type tag of every footprint. Only one class exists
// today; the tag travels with each polygon so more can be added.
const TagObstacle = "obstacle"

// minHullPoints is the smallest cluster that can form a polygon.
const minHullPoints = 3

// Footprint is one obstacle outline.
type Footprint struct {
	Polygon orb.Polygon
	Tag     string
	Cluster int // connectivity label of the source cluster
	Points  int // points in the source cluster
	// Indices of the source cluster's points in the set given to Extract.
	// Nil for footprints loaded back from storage.
	Indices []int
}

// SkippedCluster records a cluster that produced no footprint.
type SkippedCluster struct {
	Cluster int
	Points  int
	Err     error
}

// Extraction is the outcome of one Extract call.
type Extraction struct {
	Footprints []Footprint
	Skipped    []SkippedCluster
	Noise      int // points labelled noise
}

// Polygons returns the footprint polygons, parallel to Tags.
func (e Extraction) Polygons() []orb.Polygon {
	out := make([]orb.Polygon, len(e.Footprints))
	for i, f := range e.Footprints {
		out[i] = f.Polygon
	}
	return out
}

// Tags returns the footprint type tags, parallel to Polygons.
func (e Extraction) Tags() []string {
	out := make([]string, len(e.Footprints))
	for i, f := range e.Footprints {
		out[i] = f.Tag
	}
	return out
}

// Extractor converts point clusters into footprint polygons.
type Extractor struct {
	Labeler        pointcloud.Labeler
	Reconstruction Reconstruction
}

// NewExtractor returns an extractor using a grid labeler.
func NewExtractor(gridSize float64, minSize int, r Reconstruction) *Extractor {
	return &Extractor{
		Labeler:        pointcloud.NewGridLabeler(gridSize, minSize),
		Reconstruction: r,
	}
}

// Extract clusters the points selected by mask (nil selects all) and
// outlines every surviving cluster. Noise and clusters that cannot form a
// polygon are left out; the latter are reported in Skipped rather than
// failing the call.
func (e *Extractor) Extract(ps pointcloud.PointSet, mask []bool) Extraction {
	subset := pointcloud.Selected(mask, ps.Len())
	xy := ps.XY(subset)
	labels := e.Labeler.Label(xy)
	clusters, noise := pointcloud.Partition(labels)

	out := Extraction{Noise: len(noise)}
	for _, c := range clusters {
		pts := make([]orb.Point, len(c.Indices))
		for k, i := range c.Indices {
			pts[k] = xy[i]
		}
		members := c.Remap(subset)
		polys, err := e.outline(pts)
		if err != nil {
			logs.Diagf("cluster %d (%d points) skipped: %v", c.Label, len(pts), err)
			out.Skipped = append(out.Skipped, SkippedCluster{Cluster: c.Label, Points: len(pts), Err: err})
			continue
		}
		for _, p := range polys {
			out.Footprints = append(out.Footprints, Footprint{
				Polygon: p,
				Tag:     TagObstacle,
				Cluster: c.Label,
				Points:  len(pts),
				Indices: members.Indices,
			})
		}
	}

	logs.Diagf("%d points: %d clusters, %d footprints, %d skipped, %d noise",
		len(subset), len(clusters), len(out.Footprints), len(out.Skipped), out.Noise)
	return out
}

// outline resolves the strategy once for the cluster and applies it.
func (e *Extractor) outline(pts []orb.Point) (orb.MultiPolygon, error) {
	if len(pts) < minHullPoints {
		return nil, fmt.Errorf("%d points cannot form a hull: %w", len(pts), geom.ErrDegenerateGeometry)
	}
	hull, err := geom.ConvexHull(pts)
	if err != nil {
		return nil, err
	}
	area := planar.Area(hull)
	s := e.Reconstruction.Resolve(area)
	logs.Tracef("cluster of %d points, hull area %.2f m2, strategy %s", len(pts), area, s)

	polys, err := s.Outline(pts, hull)
	if err != nil {
		return nil, fmt.Errorf("%s outline: %w", s, err)
	}
	return polys, nil
}

// Package vector reads and writes the polygon and line collections of both
// branches as GeoJSON feature collections. Each collection carries its
// coordinate reference system as a named "crs" member.
package vector

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/banshee-data/sidewalk.report/internal/fsutil"
	"github.com/banshee-data/sidewalk.report/internal/obstacle"
	"github.com/banshee-data/sidewalk.report/internal/pipeline"
	"github.com/banshee-data/sidewalk.report/internal/segment"
	"github.com/paulmach/orb/geojson"
)

// DefaultIDProperty is the feature property holding a sidewalk id.
const DefaultIDProperty = "id"

// maxInputSize bounds the size of a collection read into memory.
const maxInputSize = 512 << 20

func crsMember(crs string) map[string]any {
	return map[string]any{
		"type":       "name",
		"properties": map[string]any{"name": crs},
	}
}

// CRS returns the named coordinate reference system of fc, if any.
func CRS(fc *geojson.FeatureCollection) string {
	m, ok := fc.ExtraMembers["crs"].(map[string]any)
	if !ok {
		return ""
	}
	props, ok := m["properties"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := props["name"].(string)
	return name
}

func newCollection(crs string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if crs != "" {
		fc.ExtraMembers = geojson.Properties{"crs": crsMember(crs)}
	}
	return fc
}

func write(fsys fsutil.FileSystem, path string, fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// featureID reads an integer id from the named property, falling back to
// the feature's own id member.
func featureID(f *geojson.Feature, prop string) (int64, error) {
	v, ok := f.Properties[prop]
	if !ok || v == nil {
		v = f.ID
	}
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("id %v is not an integer", x)
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	case nil:
		return 0, fmt.Errorf("no %q property or feature id", prop)
	}
	return 0, fmt.Errorf("unsupported id type %T", v)
}

// ReadSidewalks loads sidewalk polygons keyed by idProperty. Features with
// non-polygon geometry are returned as-is so the width branch can report
// them.
func ReadSidewalks(fsys fsutil.FileSystem, path, idProperty string) ([]pipeline.Sidewalk, string, error) {
	if idProperty == "" {
		idProperty = DefaultIDProperty
	}
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxInputSize {
		return nil, "", fmt.Errorf("%s is %d bytes, limit %d", path, info.Size(), maxInputSize)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}

	out := make([]pipeline.Sidewalk, 0, len(fc.Features))
	seen := make(map[int64]bool, len(fc.Features))
	for i, f := range fc.Features {
		id, err := featureID(f, idProperty)
		if err != nil {
			return nil, "", fmt.Errorf("%s feature %d: %w", path, i, err)
		}
		if seen[id] {
			return nil, "", fmt.Errorf("%s feature %d: duplicate id %d", path, i, id)
		}
		seen[id] = true
		out = append(out, pipeline.Sidewalk{ID: id, Geometry: f.Geometry})
	}
	return out, CRS(fc), nil
}

// WriteSegments stores measured segments as LineString features.
func WriteSegments(fsys fsutil.FileSystem, path, crs string, segs []pipeline.SegmentRecord) error {
	fc := newCollection(crs)
	for _, s := range segs {
		f := geojson.NewFeature(s.Line)
		f.Properties["sidewalk_id"] = s.SidewalkID
		f.Properties["avg_width"] = s.AvgWidth
		f.Properties["min_width"] = s.MinWidth
		f.Properties["severity"] = s.Severity
		f.Properties["impassable"] = s.Impassable
		f.Properties["pc_coverage"] = s.Coverage
		fc.Append(f)
	}
	return write(fsys, path, fc)
}

// WriteNetwork stores length-bounded centerline pieces.
func WriteNetwork(fsys fsutil.FileSystem, path, crs string, pieces []segment.Segment) error {
	fc := newCollection(crs)
	for _, p := range pieces {
		f := geojson.NewFeature(p.Line)
		f.Properties["sidewalk_id"] = p.SidewalkID
		f.Properties["length"] = p.Length()
		fc.Append(f)
	}
	return write(fsys, path, fc)
}

// WriteObstacles stores footprints as Polygon features. tileIDs parallels
// footprints.
func WriteObstacles(fsys fsutil.FileSystem, path, crs string, tileIDs []string, footprints []obstacle.Footprint) error {
	if len(tileIDs) != len(footprints) {
		return fmt.Errorf("%d tile ids for %d footprints", len(tileIDs), len(footprints))
	}
	fc := newCollection(crs)
	for i, fp := range footprints {
		f := geojson.NewFeature(fp.Polygon)
		f.Properties["tile"] = tileIDs[i]
		f.Properties["type"] = fp.Tag
		f.Properties["cluster"] = fp.Cluster
		f.Properties["points"] = fp.Points
		fc.Append(f)
	}
	return write(fsys, path, fc)
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/sidewalk.defaults.json"

// ErrConfiguration reports mutually exclusive or otherwise unusable options.
// Callers receive it before any work is done; no partial result is produced.
var ErrConfiguration = errors.New("configuration error")

// Reconstruction modes for obstacle footprints.
const (
	ReconstructionConvex  = "convex"
	ReconstructionConcave = "concave"
)

// SidewalkConfig holds every tunable of the obstacle and width pipelines.
// Fields are pointers so a partial JSON file only overrides what it names;
// the Get* methods supply the defaults for everything else.
type SidewalkConfig struct {
	// Obstacle extraction
	GridSize           *float64  `json:"grid_size,omitempty"`
	MinComponentSize   *int      `json:"min_component_size,omitempty"`
	Reconstruction     *string   `json:"reconstruction,omitempty"` // "convex" or "concave"
	ConcaveAlpha       *float64  `json:"concave_alpha,omitempty"`
	ConcaveMinArea     *float64  `json:"concave_min_area,omitempty"`
	MaxObstacleHeight  *float64  `json:"max_obstacle_height,omitempty"`
	TargetLabels       []int     `json:"target_labels,omitempty"`
	ExcludeLabels      []int     `json:"exclude_labels,omitempty"`
	ElevationSurface   *string   `json:"elevation_surface,omitempty"`
	TileSize           *float64  `json:"tile_size,omitempty"`
	SkeletonSpacing    *float64  `json:"skeleton_spacing,omitempty"`
	MinSELength        *float64  `json:"min_se_length,omitempty"`
	SimplifyTolerance  *float64  `json:"simplify_tolerance,omitempty"`
	MaxSegLength       *float64  `json:"max_seg_length,omitempty"`
	MaxLSLength        *float64  `json:"max_ls_length,omitempty"`
	WidthResolution    *float64  `json:"width_resolution,omitempty"`
	WidthPrecision     *int      `json:"width_precision,omitempty"`
	MinAreaSize        *float64  `json:"min_area_size,omitempty"`
	MinPathWidth       *float64  `json:"min_path_width,omitempty"`
	SeverityScheme     *int      `json:"severity_scheme,omitempty"` // 4 or 7 buckets
	SeverityThresholds []float64 `json:"severity_thresholds,omitempty"`

	// Output and execution
	CRS     *string `json:"crs,omitempty"`
	Workers *int    `json:"workers,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySidewalkConfig returns a config with every field unset, so every
// getter reports its default.
func EmptySidewalkConfig() *SidewalkConfig {
	return &SidewalkConfig{}
}

// LoadSidewalkConfig loads a SidewalkConfig from a JSON file. The path must
// have a .json extension and the file must be under 1MB. Omitted fields
// keep their defaults.
func LoadSidewalkConfig(path string) (*SidewalkConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySidewalkConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded; intended for
// test setup.
func MustLoadDefaultConfig() *SidewalkConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadSidewalkConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *SidewalkConfig) Validate() error {
	if len(c.TargetLabels) > 0 && len(c.ExcludeLabels) > 0 {
		return fmt.Errorf("%w: target_labels and exclude_labels are mutually exclusive", ErrConfiguration)
	}

	positive := []struct {
		name string
		v    *float64
	}{
		{"grid_size", c.GridSize},
		{"max_obstacle_height", c.MaxObstacleHeight},
		{"tile_size", c.TileSize},
		{"skeleton_spacing", c.SkeletonSpacing},
		{"max_seg_length", c.MaxSegLength},
		{"max_ls_length", c.MaxLSLength},
		{"width_resolution", c.WidthResolution},
	}
	for _, p := range positive {
		if p.v != nil && *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", p.name, *p.v)
		}
	}

	nonNegative := []struct {
		name string
		v    *float64
	}{
		{"concave_alpha", c.ConcaveAlpha},
		{"concave_min_area", c.ConcaveMinArea},
		{"min_se_length", c.MinSELength},
		{"simplify_tolerance", c.SimplifyTolerance},
		{"min_area_size", c.MinAreaSize},
		{"min_path_width", c.MinPathWidth},
	}
	for _, p := range nonNegative {
		if p.v != nil && *p.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", p.name, *p.v)
		}
	}

	if c.MinComponentSize != nil && *c.MinComponentSize < 1 {
		return fmt.Errorf("min_component_size must be at least 1, got %d", *c.MinComponentSize)
	}
	if c.WidthPrecision != nil && (*c.WidthPrecision < 0 || *c.WidthPrecision > 6) {
		return fmt.Errorf("width_precision must be between 0 and 6, got %d", *c.WidthPrecision)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}

	if c.Reconstruction != nil {
		switch strings.ToLower(*c.Reconstruction) {
		case ReconstructionConvex, ReconstructionConcave:
		default:
			return fmt.Errorf("reconstruction must be %q or %q, got %q",
				ReconstructionConvex, ReconstructionConcave, *c.Reconstruction)
		}
	}

	scheme := c.GetSeverityScheme()
	if scheme != 4 && scheme != 7 {
		return fmt.Errorf("severity_scheme must be 4 or 7, got %d", scheme)
	}
	if len(c.SeverityThresholds) > 0 {
		if want := scheme - 1; len(c.SeverityThresholds) != want {
			return fmt.Errorf("severity_thresholds needs %d values for a %d-bucket scheme, got %d",
				want, scheme, len(c.SeverityThresholds))
		}
		for i := 1; i < len(c.SeverityThresholds); i++ {
			if c.SeverityThresholds[i] <= c.SeverityThresholds[i-1] {
				return fmt.Errorf("severity_thresholds must be strictly increasing, got %v", c.SeverityThresholds)
			}
		}
	}
	return nil
}

// GetGridSize returns the connectivity grid cell size in metres.
func (c *SidewalkConfig) GetGridSize() float64 {
	if c.GridSize == nil {
		return 0.05
	}
	return *c.GridSize
}

// GetMinComponentSize returns the smallest point count kept as a cluster.
func (c *SidewalkConfig) GetMinComponentSize() int {
	if c.MinComponentSize == nil {
		return 100
	}
	return *c.MinComponentSize
}

// GetReconstruction returns the obstacle outline mode.
func (c *SidewalkConfig) GetReconstruction() string {
	if c.Reconstruction == nil {
		return ReconstructionConvex
	}
	return strings.ToLower(*c.Reconstruction)
}

// GetConcaveAlpha returns the alpha-shape parameter (1/max circumradius).
func (c *SidewalkConfig) GetConcaveAlpha() float64 {
	if c.ConcaveAlpha == nil {
		return 2.0
	}
	return *c.ConcaveAlpha
}

// GetConcaveMinArea returns the hull area at which concave mode engages.
func (c *SidewalkConfig) GetConcaveMinArea() float64 {
	if c.ConcaveMinArea == nil {
		return 1.0
	}
	return *c.ConcaveMinArea
}

// GetMaxObstacleHeight returns the height band above ground in metres.
func (c *SidewalkConfig) GetMaxObstacleHeight() float64 {
	if c.MaxObstacleHeight == nil {
		return 2.0
	}
	return *c.MaxObstacleHeight
}

// GetElevationSurface returns the name of the ground surface to query.
func (c *SidewalkConfig) GetElevationSurface() string {
	if c.ElevationSurface == nil {
		return "dtm"
	}
	return *c.ElevationSurface
}

// GetTileSize returns the edge length of a point-cloud tile in metres.
func (c *SidewalkConfig) GetTileSize() float64 {
	if c.TileSize == nil {
		return 50
	}
	return *c.TileSize
}

// GetSkeletonSpacing returns the boundary densification step.
func (c *SidewalkConfig) GetSkeletonSpacing() float64 {
	if c.SkeletonSpacing == nil {
		return 0.5
	}
	return *c.SkeletonSpacing
}

// GetMinSELength returns the minimum length of a dead-end centerline piece.
func (c *SidewalkConfig) GetMinSELength() float64 {
	if c.MinSELength == nil {
		return 5
	}
	return *c.MinSELength
}

// GetSimplifyTolerance returns the Douglas-Peucker tolerance in metres.
func (c *SidewalkConfig) GetSimplifyTolerance() float64 {
	if c.SimplifyTolerance == nil {
		return 0.2
	}
	return *c.SimplifyTolerance
}

// GetMaxSegLength returns the per-polygon segment length cap.
func (c *SidewalkConfig) GetMaxSegLength() float64 {
	if c.MaxSegLength == nil {
		return 2
	}
	return *c.MaxSegLength
}

// GetMaxLSLength returns the length cap of the network-wide pass.
func (c *SidewalkConfig) GetMaxLSLength() float64 {
	if c.MaxLSLength == nil {
		return 10
	}
	return *c.MaxLSLength
}

// GetWidthResolution returns the sampling step along a segment.
func (c *SidewalkConfig) GetWidthResolution() float64 {
	if c.WidthResolution == nil {
		return 1
	}
	return *c.WidthResolution
}

// GetWidthPrecision returns the decimal places kept on reported widths.
func (c *SidewalkConfig) GetWidthPrecision() int {
	if c.WidthPrecision == nil {
		return 1
	}
	return *c.WidthPrecision
}

// GetMinAreaSize returns the smallest sidewalk polygon area processed.
func (c *SidewalkConfig) GetMinAreaSize() float64 {
	if c.MinAreaSize == nil {
		return 5
	}
	return *c.MinAreaSize
}

// GetMinPathWidth returns the width below which a segment is impassable.
func (c *SidewalkConfig) GetMinPathWidth() float64 {
	if c.MinPathWidth == nil {
		return 0.4
	}
	return *c.MinPathWidth
}

// GetSeverityScheme returns the number of severity buckets.
func (c *SidewalkConfig) GetSeverityScheme() int {
	if c.SeverityScheme == nil {
		return 4
	}
	return *c.SeverityScheme
}

// GetSeverityThresholds returns the bucket boundaries for the configured
// scheme.
func (c *SidewalkConfig) GetSeverityThresholds() []float64 {
	if len(c.SeverityThresholds) > 0 {
		return append([]float64(nil), c.SeverityThresholds...)
	}
	if c.GetSeverityScheme() == 7 {
		return []float64{0.9, 1.5, 2.0, 2.2, 2.9, 3.6}
	}
	return []float64{0.9, 1.8, 2.9}
}

// GetCRS returns the coordinate reference system tag written to outputs.
func (c *SidewalkConfig) GetCRS() string {
	if c.CRS == nil {
		return "EPSG:28992"
	}
	return *c.CRS
}

// GetWorkers returns the batch worker count.
func (c *SidewalkConfig) GetWorkers() int {
	if c.Workers == nil {
		return runtime.NumCPU()
	}
	return *c.Workers
}

package pipeline

import (
	"fmt"

	"github.com/banshee-data/sidewalk.report/internal/config"
	"github.com/banshee-data/sidewalk.report/internal/elevation"
	"github.com/banshee-data/sidewalk.report/internal/monitoring"
	"github.com/banshee-data/sidewalk.report/internal/obstacle"
	"github.com/banshee-data/sidewalk.report/internal/pointcloud"
	"github.com/banshee-data/sidewalk.report/internal/severity"
	"github.com/banshee-data/sidewalk.report/internal/tile"
	"github.com/banshee-data/sidewalk.report/internal/width"
)

var logs = monitoring.NewStreams("pipeline")

// Runner holds the configured stages shared by every unit of a batch. It
// is safe for concurrent use once built.
type Runner struct {
	cfg        *config.SidewalkConfig
	classifier *severity.Classifier
	sampler    width.Sampler
	coverage   *tile.Coverage
	elevation  elevation.Service
	extractor  *obstacle.Extractor
	workers    int
}

// Option customises a Runner.
type Option func(*Runner)

// WithCoverage flags segments that intersect the given point-cloud tiles.
func WithCoverage(c *tile.Coverage) Option {
	return func(r *Runner) { r.coverage = c }
}

// WithElevation enables the height band on sidewalk masks.
func WithElevation(s elevation.Service) Option {
	return func(r *Runner) { r.elevation = s }
}

// WithLabeler replaces the grid connectivity labeler.
func WithLabeler(l pointcloud.Labeler) Option {
	return func(r *Runner) { r.extractor.Labeler = l }
}

// WithWorkers overrides the configured worker count.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// NewRunner validates cfg and builds the stages it describes.
func NewRunner(cfg *config.SidewalkConfig, opts ...Option) (*Runner, error) {
	if cfg == nil {
		cfg = config.EmptySidewalkConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cls, err := severity.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("severity: %w", err)
	}
	recon := obstacle.Reconstruction{
		Concave: cfg.GetReconstruction() == config.ReconstructionConcave,
		Alpha:   cfg.GetConcaveAlpha(),
		MinArea: cfg.GetConcaveMinArea(),
	}
	r := &Runner{
		cfg:        cfg,
		classifier: cls,
		sampler:    width.Sampler{Resolution: cfg.GetWidthResolution(), Precision: cfg.GetWidthPrecision()},
		extractor:  obstacle.NewExtractor(cfg.GetGridSize(), cfg.GetMinComponentSize(), recon),
		workers:    cfg.GetWorkers(),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

package elevation

import (
	"fmt"
	"math"
	"sync"

	"github.com/banshee-data/sidewalk.report/internal/monitoring"
	"github.com/paulmach/orb"
)

var logs = monitoring.NewStreams("elevation")

// Service interpolates ground height for points of one tile. The result
// parallels points; entries outside mask, or without coverage, are NaN.
// A nil mask queries every point.
type Service interface {
	Interpolate(tileID string, points []orb.Point, mask []bool, surface string) ([]float64, error)
}

// Invalid reports whether v is the missing-sample sentinel.
func Invalid(v float64) bool { return math.IsNaN(v) }

// TileSet is an in-memory Service over named surfaces per tile. It is safe
// for concurrent use.
type TileSet struct {
	mu    sync.RWMutex
	tiles map[string]map[string]*GridSurface
}

// NewTileSet returns an empty set.
func NewTileSet() *TileSet {
	return &TileSet{tiles: make(map[string]map[string]*GridSurface)}
}

// Add registers surface for tileID, replacing any existing one.
func (ts *TileSet) Add(tileID, surface string, g *GridSurface) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.tiles[tileID] == nil {
		ts.tiles[tileID] = make(map[string]*GridSurface)
	}
	ts.tiles[tileID][surface] = g
}

// Interpolate implements Service. A tile or surface that was never added
// yields all-NaN rather than an error.
func (ts *TileSet) Interpolate(tileID string, points []orb.Point, mask []bool, surface string) ([]float64, error) {
	if mask != nil && len(mask) != len(points) {
		return nil, fmt.Errorf("mask has %d entries for %d points", len(mask), len(points))
	}

	ts.mu.RLock()
	g := ts.tiles[tileID][surface]
	ts.mu.RUnlock()

	out := make([]float64, len(points))
	for i := range out {
		out[i] = math.NaN()
	}
	if g == nil {
		logs.Opsf("no %q surface for tile %s; %d points without elevation", surface, tileID, len(points))
		return out, nil
	}

	missing := 0
	for i, p := range points {
		if mask != nil && !mask[i] {
			continue
		}
		out[i] = g.At(p)
		if Invalid(out[i]) {
			missing++
		}
	}
	if missing > 0 {
		logs.Diagf("tile %s: %d points outside %q coverage", tileID, missing, surface)
	}
	return out, nil
}

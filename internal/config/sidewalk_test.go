package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptySidewalkConfig_Defaults(t *testing.T) {
	cfg := EmptySidewalkConfig()

	if cfg.GetGridSize() != 0.05 {
		t.Errorf("GetGridSize() = %f, want 0.05", cfg.GetGridSize())
	}
	if cfg.GetMinComponentSize() != 100 {
		t.Errorf("GetMinComponentSize() = %d, want 100", cfg.GetMinComponentSize())
	}
	if cfg.GetReconstruction() != ReconstructionConvex {
		t.Errorf("GetReconstruction() = %q, want convex", cfg.GetReconstruction())
	}
	if cfg.GetMaxSegLength() != 2 {
		t.Errorf("GetMaxSegLength() = %f, want 2", cfg.GetMaxSegLength())
	}
	if cfg.GetMaxLSLength() != 10 {
		t.Errorf("GetMaxLSLength() = %f, want 10", cfg.GetMaxLSLength())
	}
	if cfg.GetWidthPrecision() != 1 {
		t.Errorf("GetWidthPrecision() = %d, want 1", cfg.GetWidthPrecision())
	}
	if cfg.GetCRS() != "EPSG:28992" {
		t.Errorf("GetCRS() = %q, want EPSG:28992", cfg.GetCRS())
	}
	assert.Equal(t, []float64{0.9, 1.8, 2.9}, cfg.GetSeverityThresholds())
	assert.GreaterOrEqual(t, cfg.GetWorkers(), 1)
	assert.NoError(t, cfg.Validate())
}

func TestGetSeverityThresholds_SevenBuckets(t *testing.T) {
	cfg := &SidewalkConfig{SeverityScheme: ptrInt(7)}
	assert.Equal(t, []float64{0.9, 1.5, 2.0, 2.2, 2.9, 3.6}, cfg.GetSeverityThresholds())

	custom := &SidewalkConfig{SeverityThresholds: []float64{1, 2, 3}}
	got := custom.GetSeverityThresholds()
	got[0] = 99
	assert.Equal(t, 1.0, custom.SeverityThresholds[0], "getter returns a copy")
}

func TestLoadSidewalkConfig_Partial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")
	testJSON := `{
  "max_seg_length": 5,
  "reconstruction": "Concave",
  "exclude_labels": [2, 9]
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0644))

	cfg, err := LoadSidewalkConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.GetMaxSegLength())
	assert.Equal(t, ReconstructionConcave, cfg.GetReconstruction())
	assert.Equal(t, []int{2, 9}, cfg.ExcludeLabels)
	// Untouched fields keep their defaults.
	assert.Equal(t, 1.0, cfg.GetWidthResolution())
	assert.Equal(t, 0.4, cfg.GetMinPathWidth())
}

func TestLoadSidewalkConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		_, err := LoadSidewalkConfig("/nonexistent/path/to/config.json")
		assert.Error(t, err)
	})

	t.Run("wrong extension", func(t *testing.T) {
		path := filepath.Join(tmpDir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
		_, err := LoadSidewalkConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json extension")
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(tmpDir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"grid_size": "x"`), 0644))
		_, err := LoadSidewalkConfig(path)
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(tmpDir, "large.json")
		big := `{"crs": "` + strings.Repeat("a", 1024*1024) + `"}`
		require.NoError(t, os.WriteFile(path, []byte(big), 0644))
		_, err := LoadSidewalkConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("mutually exclusive labels", func(t *testing.T) {
		path := filepath.Join(tmpDir, "labels.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"target_labels":[1],"exclude_labels":[2]}`), 0644))
		_, err := LoadSidewalkConfig(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfiguration))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SidewalkConfig
		wantErr string
	}{
		{"empty", SidewalkConfig{}, ""},
		{"zero grid", SidewalkConfig{GridSize: ptrFloat64(0)}, "grid_size"},
		{"negative min area", SidewalkConfig{MinAreaSize: ptrFloat64(-1)}, "min_area_size"},
		{"bad component size", SidewalkConfig{MinComponentSize: ptrInt(0)}, "min_component_size"},
		{"bad precision", SidewalkConfig{WidthPrecision: ptrInt(9)}, "width_precision"},
		{"bad workers", SidewalkConfig{Workers: ptrInt(0)}, "workers"},
		{"bad reconstruction", SidewalkConfig{Reconstruction: ptrString("voxel")}, "reconstruction"},
		{"bad scheme", SidewalkConfig{SeverityScheme: ptrInt(5)}, "severity_scheme"},
		{"threshold count", SidewalkConfig{SeverityThresholds: []float64{1, 2}}, "needs 3 values"},
		{"threshold order", SidewalkConfig{SeverityThresholds: []float64{1, 3, 2}}, "strictly increasing"},
		{"seven bucket thresholds", SidewalkConfig{
			SeverityScheme:     ptrInt(7),
			SeverityThresholds: []float64{1, 2, 3, 4, 5, 6},
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	empty := EmptySidewalkConfig()

	// The defaults file and the getter fallbacks must agree.
	assert.Equal(t, empty.GetGridSize(), cfg.GetGridSize())
	assert.Equal(t, empty.GetMinComponentSize(), cfg.GetMinComponentSize())
	assert.Equal(t, empty.GetMinSELength(), cfg.GetMinSELength())
	assert.Equal(t, empty.GetSimplifyTolerance(), cfg.GetSimplifyTolerance())
	assert.Equal(t, empty.GetMaxSegLength(), cfg.GetMaxSegLength())
	assert.Equal(t, empty.GetMaxLSLength(), cfg.GetMaxLSLength())
	assert.Equal(t, empty.GetMinAreaSize(), cfg.GetMinAreaSize())
	assert.Equal(t, empty.GetSeverityThresholds(), cfg.GetSeverityThresholds())
	assert.Equal(t, empty.GetCRS(), cfg.GetCRS())
	assert.Equal(t, 4, cfg.GetWorkers())
}

package tile

import (
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/sidewalk.report/internal/fsutil"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse("2386_9702")
	require.NoError(t, err)
	assert.Equal(t, Code{X: 2386, Y: 9702}, c)
	assert.Equal(t, "2386_9702", c.String())

	for _, bad := range []string{"", "2386", "a_1", "1_b", "1-2"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrTileCode, "code %q", bad)
	}
}

func TestCodeBound(t *testing.T) {
	b := Code{X: 2, Y: 3}.Bound(DefaultSize)
	assert.Equal(t, orb.Bound{Min: orb.Point{100, 150}, Max: orb.Point{150, 200}}, b)
}

func TestIntersect(t *testing.T) {
	a := []Code{{1, 1}, {2, 2}, {3, 3}}
	b := []Code{{3, 3}, {4, 4}, {1, 1}, {1, 1}}
	if diff := cmp.Diff([]Code{{1, 1}, {3, 3}}, Intersect(a, b)); diff != "" {
		t.Errorf("Intersect() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadList(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("tiles.csv", []byte("run,tilecode\n1,10_20\n1,11_20\n"), 0o644))
	codes, err := ReadList(fsys, "tiles.csv")
	require.NoError(t, err)
	assert.Equal(t, []Code{{10, 20}, {11, 20}}, codes)

	_, err = DecodeList(strings.NewReader("name\nx\n"))
	assert.Error(t, err)
	_, err = DecodeList(strings.NewReader("tilecode\nbad\n"))
	assert.ErrorIs(t, err, ErrTileCode)
	_, err = ReadList(fsys, "missing.csv")
	assert.Error(t, err)
}

func TestCoverage(t *testing.T) {
	cov, err := NewCoverage([]Code{{0, 0}, {1, 0}, {1, 0}}, DefaultSize)
	require.NoError(t, err)
	assert.Equal(t, 2, cov.Len())

	tests := []struct {
		name string
		ls   orb.LineString
		want bool
	}{
		{"inside", orb.LineString{{10, 10}, {20, 10}}, true},
		{"crosses into second tile", orb.LineString{{90, 10}, {90, 60}}, true},
		{"enters from outside", orb.LineString{{-10, 25}, {5, 25}}, true},
		{"above both tiles", orb.LineString{{10, 60}, {90, 70}}, false},
		{"far away", orb.LineString{{1000, 1000}, {1010, 1000}}, false},
		{"diagonal past corner", orb.LineString{{-10, 60}, {10, 80}}, false},
		{"single point", orb.LineString{{25, 25}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cov.Covers(tt.ls))
		})
	}
}

func TestCoverage_Empty(t *testing.T) {
	cov, err := NewCoverage(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, cov.Len())
	assert.False(t, cov.Covers(orb.LineString{{0, 0}, {1, 1}}))
}

func TestCoverage_NonFiniteSize(t *testing.T) {
	_, err := NewCoverage([]Code{{0, 0}}, math.NaN())
	assert.Error(t, err)
}

func TestParseFilename(t *testing.T) {
	for _, name := range []string{"2386_9702.csv", "data/processed_2386_9702.csv", "run1/filtered_x_2386_9702.laz"} {
		c, err := ParseFilename(name)
		require.NoError(t, err, name)
		assert.Equal(t, Code{X: 2386, Y: 9702}, c, name)
	}
	_, err := ParseFilename("points.csv")
	assert.ErrorIs(t, err, ErrTileCode)
	_, err = ParseFilename("tile_final.csv")
	assert.ErrorIs(t, err, ErrTileCode)
}

// Package tile handles the fixed-size square cells that point-cloud data is
// delivered in, and the coverage those cells give to other geometry.
package tile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/sidewalk.report/internal/fsutil"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/quadtree"
)

// DefaultSize is the edge length of a tile in metres.
const DefaultSize = 50.0

// ErrTileCode is returned for codes that are not of the form "X_Y".
var ErrTileCode = errors.New("invalid tile code")

// Code identifies a tile by its column and row. Tile (X, Y) spans
// [X*size, (X+1)*size] by [Y*size, (Y+1)*size].
type Code struct {
	X, Y int
}

// Parse reads a tile code such as "2386_9702".
func Parse(s string) (Code, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), "_")
	if !ok {
		return Code{}, fmt.Errorf("%w: %q", ErrTileCode, s)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return Code{}, fmt.Errorf("%w: %q: %v", ErrTileCode, s, err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Code{}, fmt.Errorf("%w: %q: %v", ErrTileCode, s, err)
	}
	return Code{X: x, Y: y}, nil
}

// ParseFilename reads the tile code that ends a file's base name, as in
// "processed_2386_9702.csv".
func ParseFilename(path string) (Code, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return Code{}, fmt.Errorf("%w: file name %q", ErrTileCode, path)
	}
	return Parse(parts[len(parts)-2] + "_" + parts[len(parts)-1])
}

func (c Code) String() string { return fmt.Sprintf("%d_%d", c.X, c.Y) }

// Bound returns the tile's extent for the given edge length.
func (c Code) Bound(size float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{float64(c.X) * size, float64(c.Y) * size},
		Max: orb.Point{float64(c.X+1) * size, float64(c.Y+1) * size},
	}
}

// Intersect returns the codes present in both lists, sorted.
func Intersect(a, b []Code) []Code {
	in := make(map[Code]bool, len(a))
	for _, c := range a {
		in[c] = true
	}
	var out []Code
	for _, c := range b {
		if in[c] {
			out = append(out, c)
			delete(in, c)
		}
	}
	sortCodes(out)
	return out
}

func sortCodes(cs []Code) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].X != cs[j].X {
			return cs[i].X < cs[j].X
		}
		return cs[i].Y < cs[j].Y
	})
}

// ReadList reads tile codes from the "tilecode" column of a CSV file.
func ReadList(fsys fsutil.FileSystem, path string) ([]Code, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tile list: %w", err)
	}
	defer f.Close()
	codes, err := DecodeList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return codes, nil
}

// DecodeList reads the "tilecode" column of CSV data.
func DecodeList(r io.Reader) ([]Code, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "tilecode") {
			col = i
		}
	}
	if col < 0 {
		return nil, errors.New("missing tilecode column")
	}
	var out []Code
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		c, err := Parse(rec[col])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
}

type tilePointer struct {
	code  Code
	bound orb.Bound
}

func (t tilePointer) Point() orb.Point { return t.bound.Center() }

// Coverage answers whether geometry touches any of a set of tiles.
type Coverage struct {
	size  float64
	tiles *quadtree.Quadtree
	all   orb.Bound
	n     int
}

// NewCoverage indexes the given tiles. It fails when a tile cannot be
// placed in the index, as happens for a non-finite size.
func NewCoverage(codes []Code, size float64) (*Coverage, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c := &Coverage{size: size}
	if len(codes) == 0 {
		return c, nil
	}
	c.all = codes[0].Bound(size)
	for _, code := range codes[1:] {
		c.all = c.all.Union(code.Bound(size))
	}
	c.tiles = quadtree.New(c.all)
	seen := make(map[Code]bool, len(codes))
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true
		if err := c.tiles.Add(tilePointer{code: code, bound: code.Bound(size)}); err != nil {
			return nil, fmt.Errorf("index tile %s: %w", code, err)
		}
		c.n++
	}
	return c, nil
}

// Len returns the number of distinct tiles indexed.
func (c *Coverage) Len() int { return c.n }

// Covers reports whether ls intersects at least one tile.
func (c *Coverage) Covers(ls orb.LineString) bool {
	if c.n == 0 || len(ls) == 0 {
		return false
	}
	b := ls.Bound()
	if !b.Intersects(c.all) {
		return false
	}
	// Tiles are indexed by centre, so widen the query by half a tile.
	q := b.Pad(c.size / 2)
	for _, p := range c.tiles.InBound(nil, q) {
		tb := p.(tilePointer).bound
		if !tb.Intersects(b) {
			continue
		}
		if len(ls) == 1 {
			if tb.Contains(ls[0]) {
				return true
			}
			continue
		}
		if len(clip.LineString(tb, ls)) > 0 {
			return true
		}
	}
	return false
}

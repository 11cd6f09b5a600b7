package pointcloud

import (
	"math"

	"github.com/banshee-data/sidewalk.report/internal/monitoring"
	"github.com/paulmach/orb"
)

var logs = monitoring.NewStreams("pointcloud")

// Labeler assigns a connectivity label to every point, NoiseLabel for
// points outside any kept component.
type Labeler interface {
	Label(points []orb.Point) []int
}

// Defaults matching the obstacle tiles the labeler is tuned for.
const (
	DefaultGridSize         = 0.05
	DefaultMinComponentSize = 100
)

// GridLabeler rasterises points onto a square grid and labels
// 8-connected groups of occupied cells. Components with fewer than
// MinSize points are noise.
type GridLabeler struct {
	GridSize float64
	MinSize  int
}

// NewGridLabeler returns a labeler, substituting defaults for
// non-positive parameters.
func NewGridLabeler(gridSize float64, minSize int) *GridLabeler {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	if minSize <= 0 {
		minSize = DefaultMinComponentSize
	}
	return &GridLabeler{GridSize: gridSize, MinSize: minSize}
}

type cell struct {
	x, y    int64
	members []int
}

// occupancy maps a paired cell id to the points that fall in it.
type occupancy struct {
	size  float64
	cells map[int64]*cell
	order []int64 // cell ids in first-seen order
}

func newOccupancy(size float64, points []orb.Point) *occupancy {
	o := &occupancy{size: size, cells: make(map[int64]*cell, len(points)/4+1)}
	for i, p := range points {
		cx := int64(math.Floor(p[0] / size))
		cy := int64(math.Floor(p[1] / size))
		id := cellID(cx, cy)
		c, ok := o.cells[id]
		if !ok {
			c = &cell{x: cx, y: cy}
			o.cells[id] = c
			o.order = append(o.order, id)
		}
		c.members = append(c.members, i)
	}
	return o
}

// cellID pairs signed cell coordinates into one key using zigzag
// encoding and Szudzik's pairing function.
func cellID(cx, cy int64) int64 {
	a, b := zigzag(cx), zigzag(cy)
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func zigzag(v int64) int64 {
	if v >= 0 {
		return 2 * v
	}
	return -2*v - 1
}

// Label implements Labeler. Labels are assigned in order of each
// component's first point, starting at 0.
func (g *GridLabeler) Label(points []orb.Point) []int {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = NoiseLabel
	}
	if len(points) == 0 {
		return labels
	}

	occ := newOccupancy(g.GridSize, points)
	visited := make(map[int64]bool, len(occ.cells))
	next := 0
	noise := 0

	for _, start := range occ.order {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []int64{start}
		var members []int
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			c := occ.cells[id]
			members = append(members, c.members...)
			for dx := int64(-1); dx <= 1; dx++ {
				for dy := int64(-1); dy <= 1; dy++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nid := cellID(c.x+dx, c.y+dy)
					if _, ok := occ.cells[nid]; ok && !visited[nid] {
						visited[nid] = true
						queue = append(queue, nid)
					}
				}
			}
		}

		if len(members) < g.MinSize {
			noise += len(members)
			continue
		}
		for _, i := range members {
			labels[i] = next
		}
		next++
	}

	logs.Tracef("labelled %d points: %d components, %d noise points (grid=%.3f min=%d)",
		len(points), next, noise, g.GridSize, g.MinSize)
	return labels
}

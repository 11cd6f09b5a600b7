package centerline

import (
	"math"

	"github.com/paulmach/orb"
)

// nodeScale quantises coordinates to 1e-6 m when matching vertices.
const nodeScale = 1e6

type nodeKey struct{ x, y int64 }

func keyOf(p orb.Point) nodeKey {
	return nodeKey{int64(math.Round(p[0] * nodeScale)), int64(math.Round(p[1] * nodeScale))}
}

// Edge is one piece of the network between two end nodes.
type Edge struct {
	From, To int
	Line     orb.LineString
}

// Network holds pieces as edges over shared nodes. Every distinct vertex
// of every piece is a node; touches records which edges pass through or
// end at each node.
type Network struct {
	Nodes []orb.Point
	Edges []Edge

	index   map[nodeKey]int
	touches [][]int // node -> edges having that node as any vertex
	ends    [][]int // node -> edges ending there, once per end
}

// NewNetwork indexes pieces. Pieces with fewer than two vertices are
// ignored.
func NewNetwork(pieces orb.MultiLineString) *Network {
	n := &Network{index: make(map[nodeKey]int)}
	for _, ls := range pieces {
		if len(ls) < 2 {
			continue
		}
		e := len(n.Edges)
		from, to := n.node(ls[0]), n.node(ls[len(ls)-1])
		n.Edges = append(n.Edges, Edge{From: from, To: to, Line: ls})
		n.ends[from] = append(n.ends[from], e)
		n.ends[to] = append(n.ends[to], e)

		seen := make(map[int]bool, len(ls))
		for _, p := range ls {
			id := n.node(p)
			if !seen[id] {
				seen[id] = true
				n.touches[id] = append(n.touches[id], e)
			}
		}
	}
	return n
}

func (n *Network) node(p orb.Point) int {
	k := keyOf(p)
	if id, ok := n.index[k]; ok {
		return id
	}
	id := len(n.Nodes)
	n.index[k] = id
	n.Nodes = append(n.Nodes, p)
	n.touches = append(n.touches, nil)
	n.ends = append(n.ends, nil)
	return id
}

// EndDegree is the number of edge ends at node, a closed loop counting
// twice.
func (n *Network) EndDegree(node int) int { return len(n.ends[node]) }

// Incident returns the edges ending at node.
func (n *Network) Incident(node int) []int { return n.ends[node] }

// Shared reports whether any edge other than e has node as a vertex.
func (n *Network) Shared(node, e int) bool {
	for _, other := range n.touches[node] {
		if other != e {
			return true
		}
	}
	return false
}

// DeadEnd reports whether edge e has an endpoint that no other edge
// touches.
func (n *Network) DeadEnd(e int) bool {
	ed := n.Edges[e]
	return !n.Shared(ed.From, e) || !n.Shared(ed.To, e)
}

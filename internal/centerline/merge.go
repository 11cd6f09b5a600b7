package centerline

import "github.com/paulmach/orb"

// LineMerge joins pieces that meet end to end at nodes where exactly two
// piece ends meet. Junctions of three or more ends, and free ends, stay
// as piece boundaries. Each result keeps the direction of the first piece
// of its chain.
func LineMerge(pieces orb.MultiLineString) orb.MultiLineString {
	n := NewNetwork(pieces)
	used := make([]bool, len(n.Edges))
	var out orb.MultiLineString

	for e := range n.Edges {
		if used[e] {
			continue
		}
		used[e] = true
		line := append(orb.LineString(nil), n.Edges[e].Line...)

		line = n.extend(line, n.Edges[e].To, used)
		line.Reverse()
		line = n.extend(line, n.Edges[e].From, used)
		line.Reverse()

		out = append(out, line)
	}
	return out
}

// extend grows line from its last vertex, at node, through pass-through
// nodes.
func (n *Network) extend(line orb.LineString, node int, used []bool) orb.LineString {
	for n.EndDegree(node) == 2 {
		next := -1
		for _, o := range n.Incident(node) {
			if !used[o] {
				next = o
				break
			}
		}
		if next < 0 {
			return line
		}
		used[next] = true

		ed := n.Edges[next]
		if ed.From == node {
			line = append(line, ed.Line[1:]...)
			node = ed.To
			continue
		}
		for i := len(ed.Line) - 2; i >= 0; i-- {
			line = append(line, ed.Line[i])
		}
		node = ed.From
	}
	return line
}

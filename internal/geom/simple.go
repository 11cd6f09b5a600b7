package geom

import (
	"github.com/paulmach/orb"
	sf "github.com/peterstace/simplefeatures/geom"
)

// Conversions between orb values and simplefeatures values, which back
// the hull and validity checks.

func toSFLineString(ls []orb.Point) sf.LineString {
	coords := make([]float64, 0, 2*len(ls))
	for _, p := range ls {
		coords = append(coords, p[0], p[1])
	}
	return sf.NewLineString(sf.NewSequence(coords, sf.DimXY))
}

func toSFPolygon(p orb.Polygon) sf.Polygon {
	rings := make([]sf.LineString, len(p))
	for i, r := range p {
		rings[i] = toSFLineString(r)
	}
	return sf.NewPolygon(rings)
}

func toSFMultiPoint(points []orb.Point) sf.MultiPoint {
	pts := make([]sf.Point, len(points))
	for i, p := range points {
		pts[i] = sf.XY{X: p[0], Y: p[1]}.AsPoint()
	}
	return sf.NewMultiPoint(pts)
}

func fromSFRing(ls sf.LineString) orb.Ring {
	seq := ls.Coordinates()
	out := make(orb.Ring, seq.Length())
	for i := range out {
		xy := seq.GetXY(i)
		out[i] = orb.Point{xy.X, xy.Y}
	}
	return out
}

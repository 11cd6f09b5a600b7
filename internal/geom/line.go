package geom

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r2"
)

// LineKind tags the shape of a Line.
type LineKind uint8

const (
	// Single is one connected line piece.
	Single LineKind = iota
	// Multi is a collection of pieces, possibly disconnected.
	Multi
)

func (k LineKind) String() string {
	switch k {
	case Single:
		return "single"
	case Multi:
		return "multi"
	}
	return fmt.Sprintf("LineKind(%d)", uint8(k))
}

// Line is a tagged variant over a single line piece and a multi-piece
// network. Every operation matches on Kind exactly once.
type Line struct {
	Kind   LineKind
	single orb.LineString
	multi  orb.MultiLineString
}

// NewSingle wraps one line piece.
func NewSingle(ls orb.LineString) Line {
	return Line{Kind: Single, single: ls}
}

// NewMulti wraps a multi-piece network.
func NewMulti(mls orb.MultiLineString) Line {
	return Line{Kind: Multi, multi: mls}
}

// LineFromGeometry converts a decoded orb geometry into a Line. Only
// LineString and MultiLineString are accepted.
func LineFromGeometry(g orb.Geometry) (Line, error) {
	switch g := g.(type) {
	case orb.LineString:
		return NewSingle(g), nil
	case orb.MultiLineString:
		return NewMulti(g), nil
	}
	return Line{}, fmt.Errorf("unsupported line geometry %T", g)
}

// Pieces returns the line pieces of l in order.
func (l Line) Pieces() []orb.LineString {
	switch l.Kind {
	case Single:
		if len(l.single) == 0 {
			return nil
		}
		return []orb.LineString{l.single}
	case Multi:
		out := make([]orb.LineString, 0, len(l.multi))
		for _, ls := range l.multi {
			if len(ls) > 0 {
				out = append(out, ls)
			}
		}
		return out
	}
	return nil
}

// Length is the summed planar length of all pieces.
func (l Line) Length() float64 {
	switch l.Kind {
	case Single:
		return planar.Length(l.single)
	case Multi:
		return planar.Length(l.multi)
	}
	return 0
}

// Cut splits ls at distance d measured along it. The two returned pieces
// concatenate back to ls with the cut vertex inserted once. When d is not
// strictly inside (0, length) the line is returned unmodified as head and
// tail is nil.
func Cut(ls orb.LineString, d float64) (head, tail orb.LineString) {
	if len(ls) < 2 || d <= 0 || d >= planar.Length(ls) {
		return ls, nil
	}

	var walked float64
	for i := 1; i < len(ls); i++ {
		step := planar.Distance(ls[i-1], ls[i])
		switch {
		case walked+step == d:
			head = append(orb.LineString{}, ls[:i+1]...)
			tail = append(orb.LineString{}, ls[i:]...)
			return head, tail
		case walked+step > d:
			p := lerp(ls[i-1], ls[i], (d-walked)/step)
			head = append(append(orb.LineString{}, ls[:i]...), p)
			tail = append(orb.LineString{p}, ls[i:]...)
			return head, tail
		}
		walked += step
	}
	return ls, nil
}

// Interpolate returns the point at distance d along ls. d is clamped to
// the line's extent.
func Interpolate(ls orb.LineString, d float64) orb.Point {
	if len(ls) == 0 {
		return orb.Point{}
	}
	if d <= 0 {
		return ls[0]
	}
	var walked float64
	for i := 1; i < len(ls); i++ {
		step := planar.Distance(ls[i-1], ls[i])
		if walked+step >= d && step > 0 {
			return lerp(ls[i-1], ls[i], (d-walked)/step)
		}
		walked += step
	}
	return ls[len(ls)-1]
}

// VertexDistances returns the cumulative distance of every vertex of ls
// from its start.
func VertexDistances(ls orb.LineString) []float64 {
	out := make([]float64, len(ls))
	for i := 1; i < len(ls); i++ {
		out[i] = out[i-1] + planar.Distance(ls[i-1], ls[i])
	}
	return out
}

func lerp(a, b orb.Point, t float64) orb.Point {
	va := r2.Vec{X: a[0], Y: a[1]}
	vb := r2.Vec{X: b[0], Y: b[1]}
	v := r2.Add(va, r2.Scale(t, r2.Sub(vb, va)))
	return orb.Point{v.X, v.Y}
}

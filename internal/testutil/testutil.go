// Package testutil provides geometry fixtures and assertions shared by the
// package tests.
package testutil

import (
	"testing"

	"github.com/paulmach/orb"
)

// Rect returns the axis-aligned rectangle with lower-left corner (x0, y0)
// as a closed counter-clockwise polygon.
func Rect(x0, y0, w, h float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x0 + w, y0}, {x0 + w, y0 + h}, {x0, y0 + h}, {x0, y0}}}
}

// Grid returns nx*ny points spaced step apart, row by row from (x0, y0).
func Grid(x0, y0 float64, nx, ny int, step float64) []orb.Point {
	out := make([]orb.Point, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			out = append(out, orb.Point{x0 + float64(i)*step, y0 + float64(j)*step})
		}
	}
	return out
}

// AssertLineInDelta fails the test unless got has the vertices of want,
// each coordinate within delta.
func AssertLineInDelta(t testing.TB, want, got orb.LineString, delta float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("line has %d vertices, want %d: %v", len(got), len(want), got)
		return
	}
	for i := range want {
		for k := 0; k < 2; k++ {
			if d := want[i][k] - got[i][k]; d > delta || d < -delta {
				t.Errorf("vertex %d = %v, want %v (delta %g)", i, got[i], want[i], delta)
				break
			}
		}
	}
}

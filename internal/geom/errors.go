package geom

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateGeometry marks inputs that cannot produce a hull, shape
	// or skeleton (too few points, collinear points, malformed polygons).
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrInvalidPolygon marks polygons that fail the validity check
	// (unclosed or self-intersecting rings, holes outside the shell).
	ErrInvalidPolygon = errors.New("invalid polygon")
)

// DegenerateGeometryError records which operation failed and why.
// It matches ErrDegenerateGeometry with errors.Is.
type DegenerateGeometryError struct {
	Op     string
	Reason string
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrDegenerateGeometry, e.Reason)
}

func (e *DegenerateGeometryError) Unwrap() error { return ErrDegenerateGeometry }

func degenerate(op, format string, args ...interface{}) error {
	return &DegenerateGeometryError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidPolygon, fmt.Sprintf(format, args...))
}

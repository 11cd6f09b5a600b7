// Package geom holds the 2D geometry primitives shared by the obstacle
// (accessibility) branch and the sidewalk width branch.
//
// Responsibilities: tagged line variants, cutting and interpolating along
// lines, polygon validity and zero-width repair, convex hull, alpha-shape
// reconstruction, Voronoi centerline extraction, and boundary distances.
// Key types: Line, DegenerateGeometryError.
//
// All coordinates are planar (projected CRS, metres). Geometry values are
// github.com/paulmach/orb types; functions never mutate their inputs.
package geom

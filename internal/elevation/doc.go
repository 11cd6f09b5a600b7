// Package elevation answers ground-height queries for point tiles.
//
// Responsibilities: the Service contract used by obstacle masking and the
// sidewalk clip, an ESRI ASCII raster surface, and a per-tile set of named
// surfaces. Points without coverage come back as NaN; callers decide what
// a missing sample means.
package elevation

// Package obstacle turns classified obstacle points into footprint
// polygons and point-membership masks.
//
// Responsibilities: cluster-to-polygon extraction with an explicit
// reconstruction strategy per cluster, polygon masking with an optional
// ground-relative height band, and the sidewalk clip that restricts a tile
// to points on sidewalk polygons.
// Key types: Extractor, Strategy, Footprint, HeightBand.
//
// Masks are always indexed over the full point set handed in, never over
// the pre-filtered candidates.
package obstacle

// Package segment cuts centerlines into length-bounded segments.
//
// A retained centerline piece is first decomposed into atomic two-vertex
// pieces, then each atomic piece is cut at equidistant points so no
// segment exceeds the configured maximum. BoundLengths is a separate,
// network-wide pass that repeatedly cuts the longest multi-vertex piece of
// a whole collection at a vertex until every piece is under a cap.
package segment

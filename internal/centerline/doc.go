// Package centerline derives a cleaned medial line network for one
// sidewalk polygon.
//
// The raw skeleton is a bag of two-vertex ridges. It is merged into
// maximal pieces through pass-through nodes, short dead-end spurs are
// pruned in a single pass against the merged set, and the survivors are
// simplified. Shared vertices are tracked explicitly in a Network of
// nodes, edges and adjacency so dead-end checks are lookups, not scans.
package centerline

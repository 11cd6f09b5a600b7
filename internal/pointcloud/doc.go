// Package pointcloud owns the classified point data that feeds the
// obstacle branch.
//
// Responsibilities: the Point/PointSet model, label masks, grid
// connectivity labelling and the cluster partition derived from it.
// Key types: Point, PointSet, GridLabeler, Cluster.
//
// Clusters are derived per tile and discarded once the footprint
// extractor has consumed them; nothing here is persisted.
package pointcloud

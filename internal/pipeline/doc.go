// Package pipeline runs the two processing branches over batches.
//
// The width branch takes sidewalk polygons through repair, centerline
// extraction, segmentation, width sampling and severity classification.
// The accessibility branch takes point-cloud tiles through label and
// sidewalk masking, obstacle clustering and obstacle masking.
//
// Each polygon or tile is an independent unit of work. Units run on a
// bounded worker pool and results keep input order. A unit that fails is
// reported in the batch's Skipped list and never stops the batch.
package pipeline

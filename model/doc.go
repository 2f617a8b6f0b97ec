// Package model defines the geometry primitives and document structures
// shared by every stage of the reconstruction pipeline.
//
// Coordinates are absolute page points with the origin at the top-left
// corner and Y increasing down the page, matching rasterized page images
// and detector output after conversion from normalized center form.
//
// The central types are:
//
//   - BBox: a corner-form bounding box with containment and overlap tests
//   - Detection: one classified box on one page, immutable once normalized
//   - Page: page dimensions plus column boundaries for the resolver
//   - DocumentNode / DocumentTree: the reconstructed hierarchy
//   - ValidationIssue: one entry of the pipeline's quality report
//
// Stages communicate exclusively through these types: each stage consumes
// the immutable output of the previous one and produces a new structure.
package model

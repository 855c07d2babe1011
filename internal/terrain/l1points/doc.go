// Package l1points owns Layer 1 (Points) of the terrain data model.
//
// Responsibilities: decoding XYZ text and XYZB binary point streams,
// axis scaling/offset, and reproducible decimation.
// Key types: Point, Classification, Tile, PointReader.
//
// Dependency rule: L1 depends on nothing above it. Every other terrain
// layer consumes Points by value or through grid aggregation and never
// mutates them.
package l1points

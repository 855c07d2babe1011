// Package l2surface owns Layer 2 (Surface) of the terrain data model.
//
// Responsibilities: the shared raster addressing (Geometry, Grid), the
// interpolated ground elevation model (HeightMap) and the per-cell canopy
// height ("roof") grid. Every raster produced by later layers has the
// same Geometry as the ground grid built here.
// Key types: Geometry, Grid, HeightMap, Buckets.
//
// Dependency rule: L2 may depend on L1 only.
package l2surface

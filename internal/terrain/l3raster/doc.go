// Package l3raster owns Layer 3 (Raster filters) of the terrain data model.
//
// Responsibilities: block averaging and median smoothing of per-cell
// rasters. Filters allocate a fresh output grid and each output cell reads
// only the input, so rows run in parallel without locking.
//
// Dependency rule: L3 may depend on L1-L2.
package l3raster

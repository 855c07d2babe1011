// Package l4cliffs owns the cliff branch of Layer 4 (Features).
//
// Responsibilities: slope estimation on the ground lattice, per-cell cliff
// classification, polyline tracing of connected faces, Douglas-Peucker
// thinning and small-cliff suppression.
// Key types: Slope, Class, Cliff, Params, Result.
//
// Dependency rule: L4 may depend on L1-L3, never on another L4 package.
package l4cliffs

// Package l4vegetation owns the vegetation branch of Layer 4 (Features).
//
// Responsibilities: zoned, return-weighted green-hit accumulation per cell,
// the hits/ground ratio with top-weight and scan-overlap correction,
// canopy-banded green factor, discrete shades, the yellow (open land)
// flag, and the undergrowth and water masks.
// Key types: Zone, ThresholdBand, ShadeScale, Params, Result.
//
// Dependency rule: L4 may depend on L1-L3, never on another L4 package.
package l4vegetation

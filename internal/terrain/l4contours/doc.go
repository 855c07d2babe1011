// Package l4contours owns the contour branch of Layer 4 (Features).
//
// Responsibilities: isoline tracing over the ground node lattice, curvature
// aware smoothing, knoll and depression tagging, form-line derivation,
// index tagging and touching-contour removal.
// Key types: Contour, Kind, Params.
//
// Traced lines either close (first vertex repeated last) or end on the
// outermost row or column of the node lattice, at the interpolated edge
// crossing. No extrapolation past the last node is attempted.
//
// Dependency rule: L4 may depend on L1-L3, never on another L4 package.
package l4contours

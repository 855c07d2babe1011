// Package pipeline provides per-tile orchestration of the terrain layers.
//
// It wires L1 ingestion and the L2 surface model into the three L4 feature
// stages (vegetation, contours, cliffs), which run concurrently over shared
// read-only surfaces. The pipeline does not own domain logic; it delegates
// to the layer packages and wraps their failures with the tile identity.
package pipeline

// Package bitcode owns the timestamp pulse-train codec.
//
// Ownership boundary:
// - frame layout (start/end markers, payload width)
// - sample-repeat expansion and stride collapse
// - trigger-skew artifact handling
//
// The package is pure: no I/O, no clocks, no task handles.
package bitcode

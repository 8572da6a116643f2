// Package capacity sizes the keypoint encoder texture.
//
// Keypoint counts per frame are bursty but usually autocorrelated, and every
// encoder resize costs a texture reallocation plus shader reconfiguration.
// The package therefore splits sizing into two halves: CountEstimator, a
// linear-trend predictive filter that anticipates the next frame's count
// from recent measurements, and the planner functions on EncoderState, which
// map a desired capacity to the minimal square texture side that fits it
// within platform bounds.
//
// Both halves are caller-owned state objects, one per pipeline. Neither is
// safe for concurrent use: frames are sequential by design.
package capacity

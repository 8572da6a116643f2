package speedy

import "github.com/balarayen/speedy-vision/wire"

// Feature is one decoded keypoint: position, level of detail, rotation,
// score, flags and optional descriptor/extra payloads. Features are
// constructed by the decoder from raw encoder bytes (or, on the upload path,
// from caller-supplied values with descriptor and orientation reset to
// empty) and are owned by the caller after a download returns.
//
// Feature is the wire-level record type: the fields and their quantization
// are defined by the wire package's versioned layout.
type Feature = wire.Keypoint

// Flag is the per-feature bitmask carried in the flags byte.
type Flag = wire.Flag

// Feature flags.
const (
	// FlagNone marks a plain feature.
	FlagNone = wire.FlagNone

	// FlagOriented is set when the feature carries a meaningful rotation.
	FlagOriented = wire.FlagOriented

	// FlagDiscarded marks a feature a later stage has rejected. Discarded
	// features are returned by Download but excluded from the capacity
	// measurement that sizes the next frame's encoder.
	FlagDiscarded = wire.FlagDiscarded
)

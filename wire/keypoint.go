package wire

// Flag is the per-keypoint bitmask stored in the flags byte of a record.
type Flag uint8

const (
	// FlagNone marks a plain keypoint.
	FlagNone Flag = 0

	// FlagOriented is set when the rotation byte carries a meaningful value.
	FlagOriented Flag = 1 << 0

	// FlagDiscarded marks a keypoint a later stage has rejected. Discarded
	// keypoints still decode, but are excluded from capacity measurements.
	FlagDiscarded Flag = 1 << 1
)

// Oriented reports whether the orientation flag is set.
func (f Flag) Oriented() bool { return f&FlagOriented != 0 }

// Discarded reports whether the discard flag is set.
func (f Flag) Discarded() bool { return f&FlagDiscarded != 0 }

// Keypoint is one decoded feature record.
//
// Keypoints are constructed by Decode from raw encoder bytes, or by callers
// on the upload path (where descriptor and orientation are necessarily
// empty). They are immutable by convention after construction and carry no
// reference to GPU resources: the caller owns them outright.
type Keypoint struct {
	// X, Y are the sub-pixel position recovered from fixed-point storage.
	X, Y float32

	// LOD is the pyramid level of detail, or 0 when not encoded.
	LOD float32

	// Rotation is the orientation in radians in (-Pi, Pi], or 0 when the
	// orientation flag is unset.
	Rotation float32

	// Score is the detector confidence in [0, 1].
	Score float32

	// Flags is the record's bitmask.
	Flags Flag

	// Descriptor is the opaque descriptor payload, nil when the pipeline's
	// descriptor size is 0.
	Descriptor []byte

	// Extra is the opaque extra payload, nil when the extra size is 0.
	Extra []byte
}

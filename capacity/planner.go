package capacity

import (
	"math"

	"github.com/balarayen/speedy-vision/wire"
)

// Encoder texture bounds.
const (
	// MinEncoderLength is the smallest encoder texture side in texels.
	MinEncoderLength = 16

	// MaxEncoderLength is the largest encoder texture side in texels. The
	// cap keeps the texture allocatable on constrained GPUs: exceeding it
	// is how over-allocation crashes happen.
	MaxEncoderLength = 300

	// MinKeypoints is the smallest capacity the download loop ever sizes
	// for, regardless of how low the estimate drops.
	MinKeypoints = 32
)

// MinimumLength returns the minimal side length of a square encoder texture
// able to hold keypointCount records of the given payload sizes, clamped to
// [MinEncoderLength, MaxEncoderLength].
//
// MinimumLength is a pure function, non-decreasing in all three arguments.
func MinimumLength(keypointCount float64, descriptorSize, extraSize int) int {
	clamped := math.Ceil(keypointCount)
	if clamped < 0 {
		clamped = 0
	}
	if clamped > wire.MaxKeypoints {
		clamped = wire.MaxKeypoints
	}

	ppr := float64(wire.PixelsPerRecord(descriptorSize, extraSize))
	length := int(math.Ceil(math.Sqrt(clamped * ppr)))

	if length < MinEncoderLength {
		length = MinEncoderLength
	}
	if length > MaxEncoderLength {
		length = MaxEncoderLength
	}
	return length
}

// EncoderState tracks the current size of one pipeline's encoder texture:
// the square side length and the keypoint capacity that length was sized
// for. It is mutated only by Optimize and ReserveSpace and read by the
// encode and decode steps.
//
// Invariants: MinEncoderLength <= Length <= MaxEncoderLength, and
// PixelsPerRecord * Capacity <= Length^2.
type EncoderState struct {
	length   int
	capacity int
}

// NewEncoderState returns a state sized for the given keypoint capacity.
func NewEncoderState(keypointCapacity float64, descriptorSize, extraSize int) *EncoderState {
	s := &EncoderState{}
	s.Optimize(keypointCapacity, descriptorSize, extraSize)
	return s
}

// Length returns the current encoder texture side in texels.
func (s *EncoderState) Length() int { return s.length }

// Capacity returns the keypoint capacity the current length was sized for.
func (s *EncoderState) Capacity() int { return s.capacity }

// Optimize resizes the state for maxKeypointCount, overwriting both the
// length and the capacity. It can grow and shrink. The return value reports
// whether the length changed, signalling the caller to reallocate the GPU
// texture; reallocation is expensive and must be skipped when unnecessary.
func (s *EncoderState) Optimize(maxKeypointCount float64, descriptorSize, extraSize int) bool {
	oldLength := s.length
	s.length = MinimumLength(maxKeypointCount, descriptorSize, extraSize)

	count := int(math.Ceil(maxKeypointCount))
	if count < 0 {
		count = 0
	}
	if count > wire.MaxKeypoints {
		count = wire.MaxKeypoints
	}
	// The length clamp can leave fewer slots than requested; the capacity
	// never overstates what the texture actually holds.
	slots := s.length * s.length / wire.PixelsPerRecord(descriptorSize, extraSize)
	if count > slots {
		count = slots
	}
	s.capacity = count

	return s.length != oldLength
}

// ReserveSpace grows the state to hold at least keypointCount records. It
// never shrinks: the upload path calls it with an exact count and must not
// throw away headroom the download loop has provisioned. The return value
// reports whether the length changed.
func (s *EncoderState) ReserveSpace(keypointCount float64, descriptorSize, extraSize int) bool {
	if MinimumLength(keypointCount, descriptorSize, extraSize) <= s.length {
		return false
	}
	return s.Optimize(keypointCount, descriptorSize, extraSize)
}

package backend

import (
	"context"
	"fmt"

	speedy "github.com/balarayen/speedy-vision"
	"github.com/balarayen/speedy-vision/capacity"
	"github.com/balarayen/speedy-vision/wire"
)

// SoftwareEncoder is the pure-Go encoder backend. It runs the same pass
// schedule as the GPU shaders over host memory, so its output is byte
// compatible with the native backend and it serves as the reference
// implementation in tests.
//
// The zero value is not usable; construct with NewSoftwareEncoder.
type SoftwareEncoder struct {
	cfg         PassConfig
	initialized bool
	closed      bool

	length  int
	encoded []byte // current frame's encoder texture bytes

	// buffered readback keeps one page of latency
	page    []byte
	hasPage bool
}

var _ speedy.Encoder = (*SoftwareEncoder)(nil)

// NewSoftwareEncoder creates a software encoder with the default pass
// schedule.
func NewSoftwareEncoder() *SoftwareEncoder {
	return &SoftwareEncoder{cfg: DefaultPassConfig()}
}

// NewSoftwareEncoderWithConfig creates a software encoder with a custom
// pass schedule. Used by tests that exercise the pass budgets.
func NewSoftwareEncoderWithConfig(cfg PassConfig) *SoftwareEncoder {
	return &SoftwareEncoder{cfg: cfg}
}

// Name returns "software".
func (s *SoftwareEncoder) Name() string {
	return BackendSoftware
}

// Init initializes the encoder. Calling Init again is a no-op.
func (s *SoftwareEncoder) Init() error {
	if s.closed {
		return ErrEncoderClosed
	}
	s.initialized = true
	return nil
}

// Close releases the encoder's buffers. The encoder must not be used
// after Close.
func (s *SoftwareEncoder) Close() {
	s.closed = true
	s.initialized = false
	s.encoded = nil
	s.page = nil
	s.hasPage = false
}

// EncoderLength returns the current side length of the encoder texture.
func (s *SoftwareEncoder) EncoderLength() int {
	return s.length
}

// ResizeEncoder reallocates the encoder texture. The previous content is
// discarded, including any buffered readback page.
func (s *SoftwareEncoder) ResizeEncoder(length int) error {
	if s.closed {
		return ErrEncoderClosed
	}
	if !s.initialized {
		return ErrNotInitialized
	}
	if length < capacity.MinEncoderLength || length > capacity.MaxEncoderLength {
		return fmt.Errorf("%w: %d not in [%d, %d]",
			ErrInvalidLength, length, capacity.MinEncoderLength, capacity.MaxEncoderLength)
	}
	s.length = length
	s.encoded = make([]byte, length*length*wire.BytesPerPixel)
	s.page = nil
	s.hasPage = false
	return nil
}

// EncodeKeypoints runs the compaction passes over a corner mask and fills
// the encoder texture with packed records.
func (s *SoftwareEncoder) EncodeKeypoints(mask *speedy.Texture, descriptorSize, extraSize int) error {
	if s.closed {
		return ErrEncoderClosed
	}
	if !s.initialized || s.length == 0 {
		return ErrNotInitialized
	}

	slots := s.length * s.length / wire.PixelsPerRecord(descriptorSize, extraSize)
	keypoints := CompactMask(mask, s.cfg, slots)
	s.fill(keypoints, descriptorSize, extraSize, slots)
	return nil
}

// UploadKeypoints materializes packed upload floats into the encoder
// texture. Orientation and payload bytes do not travel with an upload, so
// the records carry empty rotation, flags, and payloads.
func (s *SoftwareEncoder) UploadKeypoints(packed []float32, count, descriptorSize, extraSize int) error {
	if s.closed {
		return ErrEncoderClosed
	}
	if !s.initialized || s.length == 0 {
		return ErrNotInitialized
	}
	if len(packed) < count*wire.UploadFloatsPerKeypoint {
		return fmt.Errorf("%w: %d floats for %d keypoints",
			ErrTransferFailed, len(packed), count)
	}

	keypoints := make([]wire.Keypoint, count)
	for i := 0; i < count; i++ {
		base := i * wire.UploadFloatsPerKeypoint
		keypoints[i] = wire.Keypoint{
			X:     packed[base+0],
			Y:     packed[base+1],
			LOD:   packed[base+2],
			Score: packed[base+3],
		}
	}

	slots := s.length * s.length / wire.PixelsPerRecord(descriptorSize, extraSize)
	s.fill(keypoints, descriptorSize, extraSize, slots)
	return nil
}

// fill writes records into the encoder texture, sentinel and zero tail
// included.
func (s *SoftwareEncoder) fill(keypoints []wire.Keypoint, descriptorSize, extraSize, slots int) {
	buf := wire.Encode(keypoints, descriptorSize, extraSize, slots)
	n := copy(s.encoded, buf)
	for i := n; i < len(s.encoded); i++ {
		s.encoded[i] = 0
	}
}

// ReadEncoded returns the encoder texture's bytes. With buffered set, the
// first call snapshots the current frame and returns it; every later call
// returns the previous snapshot and captures the current frame, so the
// caller sees each frame exactly one call late.
func (s *SoftwareEncoder) ReadEncoded(ctx context.Context, buffered bool) ([]byte, error) {
	if s.closed {
		return nil, ErrEncoderClosed
	}
	if !s.initialized || s.length == 0 {
		return nil, ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	snapshot := make([]byte, len(s.encoded))
	copy(snapshot, s.encoded)

	if !buffered {
		s.page = nil
		s.hasPage = false
		return snapshot, nil
	}

	if !s.hasPage {
		s.page = snapshot
		s.hasPage = true
		return snapshot, nil
	}
	out := s.page
	s.page = snapshot
	return out, nil
}

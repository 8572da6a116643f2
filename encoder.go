package speedy

import (
	"context"
	"errors"
)

// Pipeline errors.
var (
	// ErrNilEncoder is returned when NewPipeline is called without a backend.
	ErrNilEncoder = errors.New("speedy: encoder backend is nil")

	// ErrNilMask is returned when EncodeKeypoints is called without a mask.
	ErrNilMask = errors.New("speedy: corner mask is nil")

	// ErrPipelineClosed is returned when operations are called after Close.
	ErrPipelineClosed = errors.New("speedy: pipeline has been closed")
)

// Encoder is the backend surface the pipeline drives each frame. It owns the
// encoder texture and executes the compaction passes; implementations live
// in the backend packages and are selected through the backend registry.
//
// Encoders hold single-owner, frame-sequential state. The pipeline never
// invokes an encoder concurrently, and an encoder instance must not be
// shared between pipelines.
type Encoder interface {
	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Init initializes backend resources. It must be called before any
	// encoding operation; calling it again is a no-op.
	Init() error

	// Close releases all backend resources. The encoder must not be used
	// after Close.
	Close()

	// EncoderLength returns the current side length of the square encoder
	// texture in texels.
	EncoderLength() int

	// ResizeEncoder reallocates the encoder texture for a new side length.
	// The texture's previous content is discarded, so the pipeline only
	// resizes between frames, never under an in-flight transfer.
	ResizeEncoder(length int) error

	// EncodeKeypoints runs the compaction passes over a corner mask,
	// filling the encoder texture with packed keypoint records. Corners
	// beyond the texture's capacity are dropped silently.
	EncodeKeypoints(mask *Texture, descriptorSize, extraSize int) error

	// UploadKeypoints materializes caller-supplied keypoints, packed as
	// four floats each by wire.PackUpload, into the encoder texture.
	UploadKeypoints(packed []float32, count, descriptorSize, extraSize int) error

	// ReadEncoded transfers the encoder texture's bytes to the host. This
	// is the pipeline's only suspension point. With buffered set, the call
	// returns the previous frame's bytes and captures the current frame
	// for the next call, trading one frame of latency for removing the
	// transfer stall.
	ReadEncoded(ctx context.Context, buffered bool) ([]byte, error)
}

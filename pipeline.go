package speedy

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/balarayen/speedy-vision/capacity"
	"github.com/balarayen/speedy-vision/wire"
)

// DownloadFlag modifies a single Download call. Flags are independently
// combinable.
type DownloadFlag uint32

const (
	// DownloadReset discards the capacity estimator's history before this
	// download. Use it when the caller knows a discontinuity happened, such
	// as a resolution change or a scene cut.
	DownloadReset DownloadFlag = 1 << 0

	// DownloadBuffered requests the previous frame's bytes instead of
	// stalling on the current frame's transfer. One frame of extra latency,
	// no pipeline stall; individual records are unaffected.
	DownloadBuffered DownloadFlag = 1 << 1
)

// Pipeline drives the keypoint encoding loop: compact the corner mask into
// the encoder texture, transfer it to the host, decode the bytes, and feed
// the observed count back into the capacity loop that sizes the next
// frame's texture. The resize always targets the next frame, never the one
// already in flight.
//
// A Pipeline owns its Encoder, one capacity estimator and one encoder
// sizing state. It is single-owner and frame-sequential: its methods must
// not be called concurrently.
type Pipeline struct {
	enc       Encoder
	estimator *capacity.CountEstimator
	state     *capacity.EncoderState

	descriptorSize int
	extraSize      int

	closed atomic.Bool
}

// NewPipeline creates a pipeline around an encoder backend, initializes the
// backend, and sizes the encoder texture for the initial capacity guess.
func NewPipeline(enc Encoder, opts ...Option) (*Pipeline, error) {
	if enc == nil {
		return nil, ErrNilEncoder
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pipeline{
		enc:            enc,
		estimator:      capacity.NewCountEstimator(),
		state:          capacity.NewEncoderState(o.initialCapacity, o.descriptorSize, o.extraSize),
		descriptorSize: o.descriptorSize,
		extraSize:      o.extraSize,
	}

	if err := enc.Init(); err != nil {
		return nil, fmt.Errorf("speedy: init %s backend: %w", enc.Name(), err)
	}
	if err := enc.ResizeEncoder(p.state.Length()); err != nil {
		enc.Close()
		return nil, fmt.Errorf("speedy: size encoder: %w", err)
	}

	Logger().Info("pipeline created",
		"backend", enc.Name(),
		"encoderLength", p.state.Length(),
		"capacity", p.state.Capacity(),
		"descriptorSize", o.descriptorSize,
		"extraSize", o.extraSize)
	return p, nil
}

// DescriptorSize returns the pipeline-wide descriptor payload size.
func (p *Pipeline) DescriptorSize() int { return p.descriptorSize }

// ExtraSize returns the pipeline-wide extra payload size.
func (p *Pipeline) ExtraSize() int { return p.extraSize }

// EncoderLength returns the current encoder texture side in texels.
func (p *Pipeline) EncoderLength() int { return p.state.Length() }

// Capacity returns the keypoint capacity the encoder is currently sized for.
func (p *Pipeline) Capacity() int { return p.state.Capacity() }

// EncodeKeypoints compacts a corner mask into the encoder texture. The mask
// is the corner detector's output: red channel corner strength (0 = none),
// alpha channel score.
func (p *Pipeline) EncodeKeypoints(mask *Texture) error {
	if p.closed.Load() {
		return ErrPipelineClosed
	}
	if mask == nil {
		return ErrNilMask
	}
	if err := p.enc.EncodeKeypoints(mask, p.descriptorSize, p.extraSize); err != nil {
		return fmt.Errorf("speedy: encode keypoints: %w", err)
	}
	return nil
}

// Download transfers the encoder texture to the host and decodes it into
// features. It then runs the capacity loop: the number of non-discarded
// features feeds the estimator, whose prediction (with growth slack) sizes
// the encoder for the following frame.
//
// A transfer failure loses the frame's features and is returned as a single
// wrapped error; the pipeline never retries internally. Re-issuing Download
// on the next frame is the caller's job.
func (p *Pipeline) Download(ctx context.Context, flags DownloadFlag) ([]Feature, error) {
	if p.closed.Load() {
		return nil, ErrPipelineClosed
	}

	if flags&DownloadReset != 0 {
		p.estimator.Reset()
	}

	data, err := p.enc.ReadEncoded(ctx, flags&DownloadBuffered != 0)
	if err != nil {
		return nil, fmt.Errorf("speedy: keypoint transfer failed: %w", err)
	}

	features := wire.Decode(data, p.descriptorSize, p.extraSize)

	measured := 0
	for i := range features {
		if !features[i].Flags.Discarded() {
			measured++
		}
	}

	estimate := p.estimator.Estimate(measured)
	next := float64(max(estimate, capacity.MinKeypoints)) * capacity.MaxGrowth
	if p.state.Optimize(next, p.descriptorSize, p.extraSize) {
		if err := p.enc.ResizeEncoder(p.state.Length()); err != nil {
			return nil, fmt.Errorf("speedy: resize encoder: %w", err)
		}
	}

	Logger().Debug("keypoints downloaded",
		"decoded", len(features),
		"measured", measured,
		"estimate", estimate,
		"encoderLength", p.state.Length(),
		"capacity", p.state.Capacity())
	return features, nil
}

// Upload materializes caller-supplied features into the encoder texture.
// Only position, level of detail and score travel on this path; the encoded
// records carry empty descriptors and no orientation. Uploads beyond the
// hard uniform block budget fail with wire.ErrUploadCapacity before any
// work happens: there is no multi-batch fallback.
func (p *Pipeline) Upload(features []Feature) error {
	if p.closed.Load() {
		return ErrPipelineClosed
	}

	packed, err := wire.PackUpload(features)
	if err != nil {
		return fmt.Errorf("speedy: upload: %w", err)
	}

	// Size for the exact count: grow-only, the download loop's headroom
	// stays intact.
	if p.state.ReserveSpace(float64(len(features)), p.descriptorSize, p.extraSize) {
		if err := p.enc.ResizeEncoder(p.state.Length()); err != nil {
			return fmt.Errorf("speedy: resize encoder: %w", err)
		}
	}

	if err := p.enc.UploadKeypoints(packed, len(features), p.descriptorSize, p.extraSize); err != nil {
		return fmt.Errorf("speedy: upload keypoints: %w", err)
	}
	return nil
}

// Close releases the pipeline's backend. Close is idempotent.
func (p *Pipeline) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.enc.Close()
	Logger().Info("pipeline closed", "backend", p.enc.Name())
}

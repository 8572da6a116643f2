package speedy

import "github.com/balarayen/speedy-vision/capacity"

// Option configures a Pipeline during creation.
// Use functional options to customize Pipeline behavior.
//
// Example:
//
//	// Default: capacity guess of 600, no payload bytes.
//	pipe, err := speedy.NewPipeline(enc)
//
//	// 32-byte descriptors and a larger initial capacity:
//	pipe, err := speedy.NewPipeline(enc,
//	    speedy.WithDescriptorSize(32),
//	    speedy.WithInitialCapacity(2048))
type Option func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	descriptorSize  int
	extraSize       int
	initialCapacity float64
}

// defaultOptions returns the default pipeline options.
func defaultOptions() pipelineOptions {
	return pipelineOptions{
		descriptorSize:  0,
		extraSize:       0,
		initialCapacity: capacity.InitialGuess,
	}
}

// WithDescriptorSize sets the fixed descriptor payload size in bytes
// carried by every encoded record. Zero (the default) means features have
// no descriptor and decode with a nil Descriptor field.
//
// The size is a pipeline-wide parameter: it is baked into the record stride
// and must match between the encode and decode ends.
func WithDescriptorSize(bytes int) Option {
	return func(o *pipelineOptions) {
		if bytes >= 0 {
			o.descriptorSize = bytes
		}
	}
}

// WithExtraSize sets the fixed extra payload size in bytes, a second opaque
// per-record block separate from the descriptor. Zero (the default) means
// no extra bytes.
func WithExtraSize(bytes int) Option {
	return func(o *pipelineOptions) {
		if bytes >= 0 {
			o.extraSize = bytes
		}
	}
}

// WithInitialCapacity sets the keypoint capacity the encoder texture is
// sized for before the first measurement arrives. The capacity loop takes
// over from the second frame on.
func WithInitialCapacity(keypoints float64) Option {
	return func(o *pipelineOptions) {
		if keypoints > 0 {
			o.initialCapacity = keypoints
		}
	}
}

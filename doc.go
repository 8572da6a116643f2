// Package speedy encodes GPU-detected keypoints for host consumption.
//
// # Overview
//
// A corner detector running on the GPU produces a sparse mask: one texel per
// image pixel, almost all of them empty. Shipping that mask to the host every
// frame would waste nearly all of the transfer bandwidth, so speedy compacts
// it on the GPU into a small square encoder texture of fixed-layout keypoint
// records, reads that texture back, and decodes the bytes into typed
// keypoints. A predictive capacity loop resizes the encoder texture between
// frames to track the scene's keypoint count without over- or
// under-provisioning the transfer.
//
// # Quick Start
//
//	import (
//		speedy "github.com/balarayen/speedy-vision"
//		"github.com/balarayen/speedy-vision/backend"
//	)
//
//	pipe, err := speedy.NewPipeline(backend.Default())
//	if err != nil { ... }
//	defer pipe.Close()
//
//	// Per frame: compact the detector's corner mask, then download.
//	if err := pipe.EncodeKeypoints(mask); err != nil { ... }
//	keypoints, err := pipe.Download(ctx, 0)
//
// # Architecture
//
// The library is organized into:
//   - Public API: Pipeline, Encoder, Feature, Texture
//   - wire: the versioned binary record layout and host-side decoder
//   - capacity: the count estimator and encoder sizing planner
//   - backend: encoding pass execution (software CPU reference, native
//     GPU via gogpu/wgpu)
package speedy

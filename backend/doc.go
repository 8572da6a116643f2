// Package backend provides pluggable keypoint encoder backends.
//
// An encoder backend owns the encoder texture and runs the compaction
// passes that turn a sparse corner mask into a dense run of packed
// keypoint records. The software backend is pure Go and always
// available; the native backend runs the passes on the GPU via
// gogpu/wgpu.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is automatically registered on import:
//
//	import _ "github.com/balarayen/speedy-vision/backend"
//
// The native backend registers itself when its package is imported:
//
//	import _ "github.com/balarayen/speedy-vision/backend/native"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	// Get the default (best available) backend
//	enc := backend.Default()
//
//	// Or request a specific backend
//	enc := backend.Get("software")
//
// # Usage with Pipeline
//
// Encoders are normally driven through a speedy.Pipeline:
//
//	p, err := backend.NewPipeline(speedy.WithDescriptorSize(32))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
package backend

// Package native provides a Pure Go GPU-accelerated keypoint encoder
// backend using gogpu/wgpu.
//
// The encoder runs the skip-offset and fill passes as compute shaders on
// a Vulkan device. Importing the package registers it with the backend
// registry; when no usable GPU is present the registration resolves to
// nil and the registry falls back to the software encoder:
//
//	import _ "github.com/balarayen/speedy-vision/backend/native"
package native

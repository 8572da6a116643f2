package backend

import (
	"errors"
)

// Backend names.
const (
	// BackendNative is the GPU-accelerated encoder built on gogpu/wgpu.
	BackendNative = "native"
	// BackendSoftware is the pure-Go CPU encoder.
	BackendSoftware = "software"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrEncoderClosed is returned when operations are called after Close.
	ErrEncoderClosed = errors.New("backend: encoder closed")

	// ErrInvalidLength is returned when an encoder texture length is out of range.
	ErrInvalidLength = errors.New("backend: invalid encoder length")

	// ErrTransferFailed is returned when reading encoded keypoints back fails.
	ErrTransferFailed = errors.New("backend: keypoint transfer failed")
)

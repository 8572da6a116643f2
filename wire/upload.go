package wire

import (
	"errors"
	"fmt"
)

// Upload errors.
var (
	// ErrUploadCapacity is returned when an upload exceeds the hard uniform
	// block budget. The operation is not attempted and is not retryable at
	// this layer: no multi-batch fallback exists on the upload path.
	ErrUploadCapacity = errors.New("wire: upload exceeds uniform block capacity")
)

// PackUpload packs keypoints for the upload path: four 32-bit floats per
// keypoint (x, y, lod, score) destined for a uniform block bounded by
// UploadMaxBytes. Orientation, descriptor and extra payloads do not travel
// on this path; the records materialized on the GPU carry empty ones.
//
// Exceeding MaxUploadKeypoints fails with ErrUploadCapacity before anything
// is packed: there is no partial upload.
func PackUpload(keypoints []Keypoint) ([]float32, error) {
	if len(keypoints) > MaxUploadKeypoints {
		return nil, fmt.Errorf("%w: %d keypoints, limit %d",
			ErrUploadCapacity, len(keypoints), MaxUploadKeypoints)
	}

	packed := make([]float32, 0, len(keypoints)*UploadFloatsPerKeypoint)
	for _, kp := range keypoints {
		packed = append(packed, kp.X, kp.Y, kp.LOD, kp.Score)
	}
	return packed, nil
}

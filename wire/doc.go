// Package wire defines the binary layout of encoded keypoint records and
// converts between that layout and typed keypoints.
//
// One encoded record occupies 8 header bytes followed by the extra and
// descriptor payloads, padded up to a whole number of 4-byte pixels so that
// records can live in an RGBA8 texture. Coordinates are stored as 16-bit
// fixed-point values; level of detail, rotation and score are quantized to
// single bytes. See layout.go for every offset and Decode for the scan rules.
//
// The layout is versioned (LayoutVersion). Both the GPU encoding passes and
// the host-side decoder derive their offsets from this package, never from
// local constants.
package wire

package wire

// LayoutVersion identifies the encoded record layout defined by this package.
// Bump it whenever a field offset, width or decode rule changes.
const LayoutVersion = 1

// Fixed-point coordinate encoding. Positions are stored as 16-bit unsigned
// integers carrying FixBits fractional bits, so the recoverable coordinate
// range is [0, 65535/FixResolution] with 1/FixResolution sub-pixel precision.
const (
	// FixBits is the number of fractional bits in a fixed-point coordinate.
	FixBits = 3

	// FixResolution is the fixed-point scale: raw / FixResolution = pixels.
	FixResolution = 1 << FixBits
)

const (
	// MinRecordBytes is the size of the record header: x, y, lod, rotation,
	// score and flags. Every record is at least this long.
	MinRecordBytes = 8

	// BytesPerPixel is the size of one RGBA8 texel. Records are padded to a
	// whole number of pixels so they tile the encoder texture exactly.
	BytesPerPixel = 4

	// MaxKeypoints is the largest number of keypoints an encoder texture is
	// ever sized for.
	MaxKeypoints = 8192
)

// LOD byte decode range. A byte b in [0, 254] maps linearly onto
// [-Log2MaxScale, MaxLevels]; the reserved byte NoLODByte means the record
// carries no level of detail.
const (
	// Log2MaxScale is the base-2 log of the largest representable scale.
	Log2MaxScale = 2

	// MaxLevels is the number of pyramid levels representable by the LOD byte.
	MaxLevels = 8

	// NoLODByte is the reserved LOD byte meaning "no level of detail encoded".
	NoLODByte = 255
)

// Upload path budget. Uploaded keypoints travel as four 32-bit floats each
// (x, y, lod, score) inside a uniform block with a hard byte budget.
const (
	// UploadMaxBytes is the hard byte budget of the upload uniform block.
	UploadMaxBytes = 16384

	// UploadFloatsPerKeypoint is the number of floats packed per keypoint.
	UploadFloatsPerKeypoint = 4

	// MaxUploadKeypoints is the largest feature count a single upload can
	// carry. Exceeding it is a reported, non-retryable error: no multi-batch
	// fallback exists on this path.
	MaxUploadKeypoints = UploadMaxBytes / (4 * UploadFloatsPerKeypoint)
)

// Byte offsets of the record header fields, relative to the record start.
const (
	offX        = 0 // 16-bit fixed-point, little-endian
	offY        = 2 // 16-bit fixed-point, little-endian
	offLOD      = 4
	offRotation = 5
	offScore    = 6
	offFlags    = 7
	offExtra    = 8 // extra bytes, then descriptor bytes
)

// sentinelCoord is the raw coordinate value marking the end-of-list record.
// A record whose raw x and y both reach this value terminates the scan.
const sentinelCoord = 0xFFFF

// RecordSize returns the unpadded size in bytes of one encoded record.
func RecordSize(descriptorSize, extraSize int) int {
	return MinRecordBytes + extraSize + descriptorSize
}

// PixelsPerRecord returns the number of 4-byte pixels one record occupies in
// the encoder texture, including padding.
func PixelsPerRecord(descriptorSize, extraSize int) int {
	return (RecordSize(descriptorSize, extraSize) + BytesPerPixel - 1) / BytesPerPixel
}

// Stride returns the padded byte distance between consecutive records.
func Stride(descriptorSize, extraSize int) int {
	return PixelsPerRecord(descriptorSize, extraSize) * BytesPerPixel
}

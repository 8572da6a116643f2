package wire

import (
	"encoding/binary"
	"math"
)

// EncodeRecord writes one keypoint record into dst, which must hold at least
// RecordSize(descriptorSize, extraSize) bytes. Payloads shorter than the
// declared sizes are zero-padded; longer ones are truncated.
//
// EncodeRecord is the exact inverse of the Decode field rules up to
// quantization: 1/FixResolution on position, 1/255 on score, and 1/255 of
// their ranges on LOD and rotation.
func EncodeRecord(dst []byte, kp Keypoint, descriptorSize, extraSize int) {
	binary.LittleEndian.PutUint16(dst[offX:], encodeCoord(kp.X))
	binary.LittleEndian.PutUint16(dst[offY:], encodeCoord(kp.Y))
	dst[offLOD] = EncodeLOD(kp.LOD)
	dst[offRotation] = encodeRotation(kp.Rotation)
	dst[offScore] = encodeScore(kp.Score)
	dst[offFlags] = byte(kp.Flags)

	payload := dst[offExtra : offExtra+extraSize+descriptorSize]
	for i := range payload {
		payload[i] = 0
	}
	copy(payload[:extraSize], kp.Extra)
	copy(payload[extraSize:], kp.Descriptor)
}

// EncodeSentinel writes the end-of-list record into dst (at least
// MinRecordBytes bytes): both raw coordinates saturated to 0xFFFF.
func EncodeSentinel(dst []byte) {
	binary.LittleEndian.PutUint16(dst[offX:], sentinelCoord)
	binary.LittleEndian.PutUint16(dst[offY:], sentinelCoord)
	dst[offLOD] = 0
	dst[offRotation] = 0
	dst[offScore] = 0
	dst[offFlags] = 0
}

// Encode packs keypoints into a fresh buffer of the given slot capacity,
// writing a sentinel after the last record and zero-clearing the remaining
// slots. Keypoints beyond the capacity are dropped silently: downstream
// sizing already provisions slack, and overflow is a documented policy, not
// an error. Used by the software encoding passes and by round-trip tests.
func Encode(keypoints []Keypoint, descriptorSize, extraSize, capacity int) []byte {
	stride := Stride(descriptorSize, extraSize)
	buf := make([]byte, capacity*stride)

	n := len(keypoints)
	if n > capacity {
		n = capacity
	}
	for i := 0; i < n; i++ {
		EncodeRecord(buf[i*stride:], keypoints[i], descriptorSize, extraSize)
	}
	if n < capacity {
		EncodeSentinel(buf[n*stride:])
	}
	return buf
}

// encodeCoord quantizes a pixel coordinate to 16-bit fixed point. The result
// saturates one short of the sentinel value so that real coordinates can
// never terminate a scan.
func encodeCoord(v float32) uint16 {
	raw := int(math.Round(float64(v) * FixResolution))
	if raw < 0 {
		raw = 0
	}
	if raw > sentinelCoord-1 {
		raw = sentinelCoord - 1
	}
	return uint16(raw)
}

// EncodeLOD quantizes a level of detail onto the LOD byte range. Values
// outside [-Log2MaxScale, MaxLevels] saturate; the reserved NoLODByte is
// never produced here.
func EncodeLOD(lod float32) byte {
	b := int(math.Round(float64(lod+Log2MaxScale) * 255 / (Log2MaxScale + MaxLevels)))
	if b < 0 {
		b = 0
	}
	if b > NoLODByte-1 {
		b = NoLODByte - 1
	}
	return byte(b)
}

func encodeRotation(rot float32) byte {
	b := int(math.Round((float64(rot)/math.Pi + 1) * 255 / 2))
	if b < 0 {
		b = 0
	}
	if b > 255 {
		b = 255
	}
	return byte(b)
}

func encodeScore(score float32) byte {
	b := int(math.Round(float64(score) * 255))
	if b < 0 {
		b = 0
	}
	if b > 255 {
		b = 255
	}
	return byte(b)
}

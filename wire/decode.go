package wire

import (
	"encoding/binary"
	"math"
)

// Decode parses a raw encoder readback into keypoints.
//
// The scan walks the buffer in fixed record strides and follows three rules:
//
//   - The sentinel record (raw x and y both 0xFFFF) ends the scan. Everything
//     past it is unused slot capacity, not data.
//   - A zeroed slot (raw x+y == 0 with a zero score byte) is a shrink or
//     clear artifact, not a keypoint at the origin. It is skipped silently.
//   - A record with fewer trailing bytes than the declared descriptor and
//     extra sizes is skipped silently. This happens transiently when the
//     encoder is resized between encode and decode and is not corruption.
//
// Decode never fails on a malformed individual record; a failed transfer is
// the caller's error, raised before the bytes reach this function.
func Decode(data []byte, descriptorSize, extraSize int) []Keypoint {
	stride := Stride(descriptorSize, extraSize)
	recordSize := RecordSize(descriptorSize, extraSize)

	keypoints := make([]Keypoint, 0, len(data)/stride)
	for off := 0; off+MinRecordBytes <= len(data); off += stride {
		rec := data[off:]
		rawX := binary.LittleEndian.Uint16(rec[offX:])
		rawY := binary.LittleEndian.Uint16(rec[offY:])

		if rawX == sentinelCoord && rawY == sentinelCoord {
			break
		}

		score := rec[offScore]
		if rawX == 0 && rawY == 0 && score == 0 {
			// Zeroed slot left behind by a resize or clear.
			continue
		}

		if off+recordSize > len(data) {
			// Truncated trailing record after a concurrent resize.
			continue
		}

		flags := Flag(rec[offFlags])
		kp := Keypoint{
			X:     float32(rawX) / FixResolution,
			Y:     float32(rawY) / FixResolution,
			LOD:   decodeLOD(rec[offLOD]),
			Score: float32(score) / 255,
			Flags: flags,
		}
		if flags.Oriented() {
			kp.Rotation = decodeRotation(rec[offRotation])
		}
		if descriptorSize > 0 {
			kp.Descriptor = make([]byte, descriptorSize)
			copy(kp.Descriptor, rec[offExtra+extraSize:offExtra+extraSize+descriptorSize])
		}
		if extraSize > 0 {
			kp.Extra = make([]byte, extraSize)
			copy(kp.Extra, rec[offExtra:offExtra+extraSize])
		}
		keypoints = append(keypoints, kp)
	}
	return keypoints
}

// decodeLOD maps the LOD byte onto [-Log2MaxScale, MaxLevels].
// NoLODByte decodes to 0: the record carries no level of detail.
func decodeLOD(b byte) float32 {
	if b == NoLODByte {
		return 0
	}
	return -Log2MaxScale + (Log2MaxScale+MaxLevels)*float32(b)/255
}

// decodeRotation maps the rotation byte onto [-Pi, Pi].
func decodeRotation(b byte) float32 {
	return (2*float32(b)/255 - 1) * math.Pi
}

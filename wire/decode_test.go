package wire

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestDecodeRoundTrip(t *testing.T) {
	const descriptorSize, extraSize = 8, 2

	in := []Keypoint{
		{X: 0.125, Y: 0.25, LOD: -2, Rotation: -math.Pi / 2, Score: 0.5,
			Flags: FlagOriented,
			Descriptor: []byte{1, 2, 3, 4, 5, 6, 7, 8},
			Extra:      []byte{9, 10}},
		{X: 640.5, Y: 479.875, LOD: 3.5, Score: 1,
			Descriptor: make([]byte, 8), Extra: make([]byte, 2)},
		{X: 8191, Y: 8191, LOD: 7.5, Rotation: math.Pi, Score: 0.25,
			Flags: FlagOriented | FlagDiscarded,
			Descriptor: make([]byte, 8), Extra: make([]byte, 2)},
	}

	buf := Encode(in, descriptorSize, extraSize, 16)
	out := Decode(buf, descriptorSize, extraSize)

	if len(out) != len(in) {
		t.Fatalf("decoded %d keypoints, want %d", len(out), len(in))
	}

	const (
		posTol = 1.0 / FixResolution
		byteTol = 1.0 / 255
		lodTol = float64(Log2MaxScale+MaxLevels) / 255
		rotTol = 2 * math.Pi / 255
	)
	for i := range in {
		got, want := out[i], in[i]
		if math.Abs(float64(got.X-want.X)) > posTol || math.Abs(float64(got.Y-want.Y)) > posTol {
			t.Errorf("keypoint %d position = (%g, %g), want (%g, %g) within %g",
				i, got.X, got.Y, want.X, want.Y, posTol)
		}
		if math.Abs(float64(got.Score-want.Score)) > byteTol {
			t.Errorf("keypoint %d score = %g, want %g within %g", i, got.Score, want.Score, byteTol)
		}
		if math.Abs(float64(got.LOD-want.LOD)) > lodTol {
			t.Errorf("keypoint %d lod = %g, want %g within %g", i, got.LOD, want.LOD, lodTol)
		}
		if want.Flags.Oriented() && math.Abs(float64(got.Rotation-want.Rotation)) > rotTol {
			t.Errorf("keypoint %d rotation = %g, want %g within %g", i, got.Rotation, want.Rotation, rotTol)
		}
		if got.Flags != want.Flags {
			t.Errorf("keypoint %d flags = %v, want %v", i, got.Flags, want.Flags)
		}
		if string(got.Descriptor) != string(want.Descriptor) {
			t.Errorf("keypoint %d descriptor = % X, want % X", i, got.Descriptor, want.Descriptor)
		}
		if string(got.Extra) != string(want.Extra) {
			t.Errorf("keypoint %d extra = % X, want % X", i, got.Extra, want.Extra)
		}
	}
}

// TestDecodeSentinel verifies that N real records followed by unused slots
// decode to exactly N keypoints.
func TestDecodeSentinel(t *testing.T) {
	in := []Keypoint{
		{X: 1, Y: 2, Score: 0.5},
		{X: 3, Y: 4, Score: 0.75},
	}
	buf := Encode(in, 0, 0, 64)

	out := Decode(buf, 0, 0)
	if len(out) != 2 {
		t.Fatalf("decoded %d keypoints, want 2", len(out))
	}
}

// TestDecodeNoiseRule verifies that a zeroed slot with score byte 0 is never
// decoded as a keypoint, even when it is not a literal sentinel.
func TestDecodeNoiseRule(t *testing.T) {
	stride := Stride(0, 0)
	buf := make([]byte, 3*stride)

	// Slot 0: zeroed (shrink artifact). Slot 1: a real keypoint at a nonzero
	// position. Slot 2: zeroed again. No sentinel anywhere.
	EncodeRecord(buf[stride:], Keypoint{X: 5, Y: 6, Score: 0.5}, 0, 0)

	out := Decode(buf, 0, 0)
	if len(out) != 1 {
		t.Fatalf("decoded %d keypoints, want 1", len(out))
	}
	if out[0].X != 5 || out[0].Y != 6 {
		t.Errorf("keypoint position = (%g, %g), want (5, 6)", out[0].X, out[0].Y)
	}
}

// TestDecodeOriginWithScore verifies a genuine keypoint at (0, 0) survives
// as long as its score byte is nonzero.
func TestDecodeOriginWithScore(t *testing.T) {
	buf := Encode([]Keypoint{{X: 0, Y: 0, Score: 0.5}}, 0, 0, 4)
	out := Decode(buf, 0, 0)
	if len(out) != 1 {
		t.Fatalf("decoded %d keypoints, want 1", len(out))
	}
}

// TestDecodeTruncatedRecord verifies that a record with insufficient
// trailing bytes for the declared payload sizes is skipped, not an error.
func TestDecodeTruncatedRecord(t *testing.T) {
	const descriptorSize = 32

	buf := Encode([]Keypoint{
		{X: 1, Y: 1, Score: 0.5, Descriptor: make([]byte, descriptorSize)},
		{X: 2, Y: 2, Score: 0.5, Descriptor: make([]byte, descriptorSize)},
	}, descriptorSize, 0, 2)

	// Cut into the second record's descriptor, as a resize between encode
	// and decode would.
	cut := buf[:Stride(descriptorSize, 0)+MinRecordBytes+4]

	out := Decode(cut, descriptorSize, 0)
	if len(out) != 1 {
		t.Fatalf("decoded %d keypoints, want 1 (truncated record skipped)", len(out))
	}
	if out[0].X != 1 {
		t.Errorf("surviving keypoint x = %g, want 1", out[0].X)
	}
}

func TestDecodeNoLODByte(t *testing.T) {
	stride := Stride(0, 0)
	buf := make([]byte, 2*stride)
	EncodeRecord(buf, Keypoint{X: 3, Y: 3, Score: 1}, 0, 0)
	buf[4] = NoLODByte
	EncodeSentinel(buf[stride:])

	out := Decode(buf, 0, 0)
	if len(out) != 1 {
		t.Fatalf("decoded %d keypoints, want 1", len(out))
	}
	if out[0].LOD != 0 {
		t.Errorf("lod = %g, want 0 for reserved byte", out[0].LOD)
	}
}

// TestDecodeRotationRequiresFlag verifies the rotation byte is ignored
// unless the orientation flag is set.
func TestDecodeRotationRequiresFlag(t *testing.T) {
	stride := Stride(0, 0)
	buf := make([]byte, 2*stride)
	EncodeRecord(buf, Keypoint{X: 3, Y: 3, Rotation: math.Pi / 2, Score: 1}, 0, 0)
	EncodeSentinel(buf[stride:])

	out := Decode(buf, 0, 0)
	if len(out) != 1 {
		t.Fatalf("decoded %d keypoints, want 1", len(out))
	}
	if out[0].Rotation != 0 {
		t.Errorf("rotation = %g, want 0 without orientation flag", out[0].Rotation)
	}
}

func TestDecodeCoordinateSaturation(t *testing.T) {
	// Coordinates saturate short of the sentinel value, so a record at an
	// extreme position can never terminate the scan.
	buf := make([]byte, 2*Stride(0, 0))
	EncodeRecord(buf, Keypoint{X: 1e9, Y: 1e9, Score: 1}, 0, 0)
	EncodeRecord(buf[Stride(0, 0):], Keypoint{X: 7, Y: 7, Score: 1}, 0, 0)

	out := Decode(buf, 0, 0)
	if len(out) != 2 {
		t.Fatalf("decoded %d keypoints, want 2", len(out))
	}
	raw := binary.LittleEndian.Uint16(buf[0:2])
	if raw != 0xFFFE {
		t.Errorf("saturated raw coordinate = %#x, want 0xFFFE", raw)
	}
}

func TestEncodeOverflowDropsSilently(t *testing.T) {
	in := make([]Keypoint, 10)
	for i := range in {
		in[i] = Keypoint{X: float32(i + 1), Y: 1, Score: 1}
	}
	buf := Encode(in, 0, 0, 4)
	out := Decode(buf, 0, 0)
	if len(out) != 4 {
		t.Fatalf("decoded %d keypoints, want 4 (excess dropped)", len(out))
	}
}

func TestPackUpload(t *testing.T) {
	t.Run("packs four floats per keypoint", func(t *testing.T) {
		packed, err := PackUpload([]Keypoint{
			{X: 1, Y: 2, LOD: 3, Score: 0.5},
			{X: 4, Y: 5, LOD: 6, Score: 1},
		})
		if err != nil {
			t.Fatalf("PackUpload: %v", err)
		}
		want := []float32{1, 2, 3, 0.5, 4, 5, 6, 1}
		if len(packed) != len(want) {
			t.Fatalf("packed %d floats, want %d", len(packed), len(want))
		}
		for i := range want {
			if packed[i] != want[i] {
				t.Errorf("packed[%d] = %g, want %g", i, packed[i], want[i])
			}
		}
	})

	t.Run("rejects uploads beyond the hard budget", func(t *testing.T) {
		packed, err := PackUpload(make([]Keypoint, MaxUploadKeypoints+1))
		if err == nil {
			t.Fatal("PackUpload accepted an over-budget upload")
		}
		if packed != nil {
			t.Error("PackUpload returned partial data alongside the capacity error")
		}
	})

	t.Run("accepts exactly the budget", func(t *testing.T) {
		if _, err := PackUpload(make([]Keypoint, MaxUploadKeypoints)); err != nil {
			t.Fatalf("PackUpload at the limit: %v", err)
		}
	})
}

package backend

import (
	"testing"

	speedy "github.com/balarayen/speedy-vision"
)

func maskWithCorners(w, h int, corners [][2]int, score uint8) *speedy.Texture {
	mask := speedy.NewTexture(w, h)
	for _, c := range corners {
		mask.SetCorner(c[0], c[1], 255, score)
	}
	return mask
}

func TestCompactMaskFindsAllCorners(t *testing.T) {
	corners := [][2]int{{3, 1}, {17, 4}, {40, 4}, {5, 30}, {63, 63}}
	mask := maskWithCorners(64, 64, corners, 200)

	got := CompactMask(mask, DefaultPassConfig(), 1024)
	if len(got) != len(corners) {
		t.Fatalf("CompactMask found %d keypoints, want %d", len(got), len(corners))
	}

	found := make(map[[2]int]bool)
	for _, kp := range got {
		found[[2]int{int(kp.X), int(kp.Y)}] = true
	}
	for _, c := range corners {
		if !found[c] {
			t.Errorf("corner at (%d, %d) missing from output", c[0], c[1])
		}
	}
}

func TestCompactMaskEmptyMask(t *testing.T) {
	mask := speedy.NewTexture(32, 32)
	got := CompactMask(mask, DefaultPassConfig(), 64)
	if len(got) != 0 {
		t.Errorf("empty mask produced %d keypoints, want 0", len(got))
	}
}

func TestCompactMaskOverflowDropsSilently(t *testing.T) {
	var corners [][2]int
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			corners = append(corners, [2]int{x * 2, y * 2})
		}
	}
	mask := maskWithCorners(64, 64, corners, 100)

	got := CompactMask(mask, DefaultPassConfig(), 10)
	if len(got) != 10 {
		t.Fatalf("CompactMask returned %d keypoints, want capped 10", len(got))
	}
}

func TestCompactMaskScoreScaling(t *testing.T) {
	mask := maskWithCorners(8, 8, [][2]int{{4, 4}}, 51)
	got := CompactMask(mask, DefaultPassConfig(), 8)
	if len(got) != 1 {
		t.Fatalf("got %d keypoints, want 1", len(got))
	}
	want := float32(51) / 255
	if got[0].Score != want {
		t.Errorf("score = %v, want %v", got[0].Score, want)
	}
}

func TestOrderCornersQuadTieBreak(t *testing.T) {
	// Two corners inside the same 2x2 quad: the higher score byte wins
	// the earlier slot regardless of raster position.
	mask := speedy.NewTexture(8, 8)
	mask.SetCorner(0, 0, 255, 10)
	mask.SetCorner(1, 1, 255, 200)
	mask.SetCorner(4, 0, 255, 50) // next quad over

	got := CompactMask(mask, DefaultPassConfig(), 8)
	if len(got) != 3 {
		t.Fatalf("got %d keypoints, want 3", len(got))
	}
	if got[0].X != 1 || got[0].Y != 1 {
		t.Errorf("first keypoint = (%v, %v), want (1, 1)", got[0].X, got[0].Y)
	}
	if got[1].X != 0 || got[1].Y != 0 {
		t.Errorf("second keypoint = (%v, %v), want (0, 0)", got[1].X, got[1].Y)
	}
	if got[2].X != 4 || got[2].Y != 0 {
		t.Errorf("third keypoint = (%v, %v), want (4, 0)", got[2].X, got[2].Y)
	}
}

func TestSkipOffsetsReachBeyondScanBudget(t *testing.T) {
	// A lone corner far past the initial scan budget must still be found
	// after the pointer-jumping passes.
	cfg := PassConfig{MaxIterations: 4, LongSkipPasses: 2, EncoderPasses: 8}
	mask := speedy.NewTexture(32, 32)
	mask.SetCorner(31, 31, 255, 99)

	got := CompactMask(mask, cfg, 8)
	if len(got) != 1 {
		t.Fatalf("got %d keypoints, want 1", len(got))
	}
	if got[0].X != 31 || got[0].Y != 31 {
		t.Errorf("keypoint = (%v, %v), want (31, 31)", got[0].X, got[0].Y)
	}
}

func TestInitSkipOffsets(t *testing.T) {
	cfg := DefaultPassConfig()
	mask := speedy.NewTexture(8, 1)
	mask.SetCorner(5, 0, 255, 1)

	skip := initSkipOffsets(mask, cfg)
	tests := []struct {
		idx  int
		want int32
	}{
		{0, 5},
		{3, 2},
		{5, 0}, // corner texel
		{6, 2}, // clamped to end of field
	}
	for _, tt := range tests {
		if skip[tt.idx] != tt.want {
			t.Errorf("skip[%d] = %d, want %d", tt.idx, skip[tt.idx], tt.want)
		}
	}
}

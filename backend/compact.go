package backend

import (
	"sort"

	speedy "github.com/balarayen/speedy-vision"
	"github.com/balarayen/speedy-vision/wire"
)

// PassConfig tunes the compaction pass schedule. The defaults match the
// workgroup budgets of the GPU shaders; the software encoder shares them
// so both backends walk the mask the same way.
type PassConfig struct {
	// MaxIterations caps the raster scan distance of the initial
	// skip-offset pass.
	MaxIterations int

	// LongSkipPasses is the number of pointer-jumping refinement passes
	// composed on top of the initial offsets.
	LongSkipPasses int

	// EncoderPasses is the number of parallel fill lanes used when
	// writing records into the encoder texture.
	EncoderPasses int
}

// DefaultPassConfig returns the standard pass schedule.
func DefaultPassConfig() PassConfig {
	return PassConfig{
		MaxIterations:  32,
		LongSkipPasses: 2,
		EncoderPasses:  8,
	}
}

// cornerCell is one lit texel of the corner mask.
type cornerCell struct {
	x, y  int
	score uint8
}

// initSkipOffsets computes, for every texel, the raster-order distance to
// the next corner candidate at or after it, scanning at most
// cfg.MaxIterations texels ahead. A corner texel gets offset 0. Texels
// whose next corner lies beyond the scan budget keep the budget as a
// partial hop; refinement passes extend it.
func initSkipOffsets(mask *speedy.Texture, cfg PassConfig) []int32 {
	w, h := mask.Width(), mask.Height()
	n := w * h
	pix := mask.Pix()
	skip := make([]int32, n)

	for i := 0; i < n; i++ {
		off := int32(cfg.MaxIterations)
		for d := 0; d < cfg.MaxIterations && i+d < n; d++ {
			if pix[(i+d)*4] > 0 {
				off = int32(d)
				break
			}
		}
		if int(off) > n-i {
			off = int32(n - i)
		}
		skip[i] = off
	}
	return skip
}

// refineSkipOffsets composes skip offsets by pointer jumping: a texel whose
// hop lands on a non-corner texel absorbs that texel's hop. Each pass runs
// cfg.MaxIterations jump rounds, so the reachable distance grows
// multiplicatively with every pass.
func refineSkipOffsets(mask *speedy.Texture, skip []int32, cfg PassConfig) {
	n := len(skip)
	pix := mask.Pix()

	for pass := 0; pass < cfg.LongSkipPasses; pass++ {
		for round := 0; round < cfg.MaxIterations; round++ {
			changed := false
			for i := 0; i < n; i++ {
				j := i + int(skip[i])
				if j >= n || pix[j*4] > 0 {
					continue
				}
				next := skip[i] + skip[j]
				if int(next) > n-i {
					next = int32(n - i)
				}
				if next != skip[i] {
					skip[i] = next
					changed = true
				}
			}
			if !changed {
				return
			}
		}
	}
}

// collectCorners walks the mask in raster order, hopping over empty runs
// with the skip offsets, and gathers every corner candidate.
func collectCorners(mask *speedy.Texture, skip []int32) []cornerCell {
	w := mask.Width()
	n := len(skip)
	pix := mask.Pix()

	var cells []cornerCell
	for i := 0; i < n; {
		if pix[i*4] > 0 {
			cells = append(cells, cornerCell{
				x:     i % w,
				y:     i / w,
				score: pix[i*4+3],
			})
			i++
			continue
		}
		hop := int(skip[i])
		if hop < 1 {
			hop = 1
		}
		i += hop
	}
	return cells
}

// orderCorners sorts corner cells into emission order: raster order over
// 2x2 quads, with the higher score byte winning inside each quad. Ties fall
// back to raster order, so the result is deterministic for any mask.
func orderCorners(cells []cornerCell) {
	sort.SliceStable(cells, func(a, b int) bool {
		ca, cb := cells[a], cells[b]
		if ca.y/2 != cb.y/2 {
			return ca.y/2 < cb.y/2
		}
		if ca.x/2 != cb.x/2 {
			return ca.x/2 < cb.x/2
		}
		if ca.score != cb.score {
			return ca.score > cb.score
		}
		if ca.y != cb.y {
			return ca.y < cb.y
		}
		return ca.x < cb.x
	})
}

// CompactMask runs the full pass schedule over a corner mask and returns
// the detected keypoints in emission order, at most maxKeypoints of them.
// Corners beyond the cap are dropped silently.
func CompactMask(mask *speedy.Texture, cfg PassConfig, maxKeypoints int) []wire.Keypoint {
	skip := initSkipOffsets(mask, cfg)
	refineSkipOffsets(mask, skip, cfg)
	cells := collectCorners(mask, skip)
	orderCorners(cells)

	if len(cells) > maxKeypoints {
		cells = cells[:maxKeypoints]
	}

	keypoints := make([]wire.Keypoint, len(cells))
	for i, c := range cells {
		keypoints[i] = wire.Keypoint{
			X:     float32(c.x),
			Y:     float32(c.y),
			Score: float32(c.score) / 255,
		}
	}
	return keypoints
}

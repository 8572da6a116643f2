package speedy

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Texture is a host-visible rectangular RGBA8 pixel buffer. It is the
// exchange format between the corner detector and the encoding passes.
//
// Corner-mask convention: the red channel holds the corner strength (0
// means no corner at that texel) and the alpha channel holds the detector
// score byte. Green and blue are free for intermediate pass data.
type Texture struct {
	width  int
	height int
	pix    []uint8 // RGBA, 4 bytes per texel
}

// NewTexture creates a zeroed texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*4),
	}
}

// Width returns the texture width in texels.
func (t *Texture) Width() int {
	return t.width
}

// Height returns the texture height in texels.
func (t *Texture) Height() int {
	return t.height
}

// Pix returns the raw pixel data (RGBA, row-major).
func (t *Texture) Pix() []uint8 {
	return t.pix
}

// SetCorner marks the texel at (x, y) as a corner candidate with the given
// strength and score bytes. Out-of-bounds coordinates are ignored.
func (t *Texture) SetCorner(x, y int, strength, score uint8) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return
	}
	i := (y*t.width + x) * 4
	t.pix[i+0] = strength
	t.pix[i+3] = score
}

// CornerAt returns the strength and score bytes of the texel at (x, y).
// Out-of-bounds coordinates read as empty.
func (t *Texture) CornerAt(x, y int) (strength, score uint8) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return 0, 0
	}
	i := (y*t.width + x) * 4
	return t.pix[i+0], t.pix[i+3]
}

// Clear zeroes every texel.
func (t *Texture) Clear() {
	for i := range t.pix {
		t.pix[i] = 0
	}
}

// ToImage converts the texture to an image.RGBA.
func (t *Texture) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	copy(img.Pix, t.pix)
	return img
}

// FromImage converts an arbitrary image into a texture of the given
// dimensions, scaling when they differ from the source bounds. Detector
// collaborators that hand over image.Image sources go through here.
func FromImage(img image.Image, width, height int) *Texture {
	t := NewTexture(width, height)
	dst := &image.RGBA{
		Pix:    t.pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, img, img.Bounds(), xdraw.Src, nil)
	return t
}

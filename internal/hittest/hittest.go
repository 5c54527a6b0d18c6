// Package hittest decides whether a pointer click on the rendered book cover
// landed on a dark region of the artwork. The cover itself carries the
// call-to-action (a dark area drawn into the art), so a hit navigates to the
// explore page without a separate visible button.
package hittest

import (
	"image"
	"math"
)

// darkThreshold is the exclusive upper bound on r+g+b for a pixel to count as
// dark. 299 hits, 300 does not.
const darkThreshold = 300

// Click carries a pointer event mapped to the displayed image: offsets from
// the image's on-screen bounding box origin plus the displayed (CSS) size.
type Click struct {
	X, Y               float64
	DisplayW, DisplayH float64
}

// Sampler samples single pixels from the cover's backing pixel buffer at
// natural resolution.
type Sampler struct {
	buf image.Image
}

// NewSampler wraps a decoded image. A nil image yields a Sampler that fails
// open (every click hits).
func NewSampler(img image.Image) *Sampler {
	return &Sampler{buf: img}
}

// HitDark reports whether the click landed on a dark pixel. Any sampling
// failure (missing buffer, degenerate display size, out-of-bounds coordinate)
// is treated as "assume dark" so the page stays navigable.
func (s *Sampler) HitDark(c Click) bool {
	if s == nil || s.buf == nil {
		return true
	}
	if c.DisplayW <= 0 || c.DisplayH <= 0 {
		return true
	}
	b := s.buf.Bounds()
	scaleX := float64(b.Dx()) / c.DisplayW
	scaleY := float64(b.Dy()) / c.DisplayH
	x := b.Min.X + int(math.Floor(c.X*scaleX))
	y := b.Min.Y + int(math.Floor(c.Y*scaleY))
	if !(image.Point{X: x, Y: y}).In(b) {
		return true
	}
	r, g, bl, _ := s.buf.At(x, y).RGBA()
	sum := int(r>>8) + int(g>>8) + int(bl>>8)
	return sum < darkThreshold
}

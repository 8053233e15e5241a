// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"image/color"
	"math"
)

// RGBA is a straight-alpha color with float64 components in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Common colors.
var (
	Transparent = RGBA{}
	Black       = RGBA{0, 0, 0, 1}
	White       = RGBA{1, 1, 1, 1}
	Red         = RGBA{1, 0, 0, 1}
	Green       = RGBA{0, 1, 0, 1}
	Blue        = RGBA{0, 0, 1, 1}
)

// RGB returns an opaque color.
func RGB(r, g, b float64) RGBA { return RGBA{r, g, b, 1} }

// FromNRGBA converts an 8-bit straight-alpha color.
func FromNRGBA(c color.NRGBA) RGBA {
	return RGBA{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

// NRGBA quantizes the color to 8 bits per channel.
func (c RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{R: Quantize(c.R), G: Quantize(c.G), B: Quantize(c.B), A: Quantize(c.A)}
}

// Quantize maps a [0, 1] channel value to a byte, clamping out-of-range input.
func Quantize(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 1:
		return 255
	}
	return uint8(math.Round(v * 255))
}

// Luminance returns the Rec. 601 luma of the color, ignoring alpha.
func (c RGBA) Luminance() float64 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

// At returns the pixel at (x, y) as a float color.
func (b *Buffer) At(x, y int) RGBA {
	r, g, bl, a := b.GetRGBA(x, y)
	return RGBA{float64(r) / 255, float64(g) / 255, float64(bl) / 255, float64(a) / 255}
}

// Set stores a float color at (x, y).
func (b *Buffer) Set(x, y int, c RGBA) {
	_ = b.SetRGBA(x, y, Quantize(c.R), Quantize(c.G), Quantize(c.B), Quantize(c.A))
}

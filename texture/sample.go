// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import "math"

// Filter selects how a buffer is sampled between pixel centers.
type Filter uint8

const (
	// FilterNearest selects the closest pixel.
	FilterNearest Filter = iota

	// FilterBilinear interpolates the 4 neighboring pixels.
	FilterBilinear
)

// String returns a string representation of the filter.
func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "Nearest"
	case FilterBilinear:
		return "Bilinear"
	default:
		return "Unknown"
	}
}

// Sample samples b at normalized coordinates (u, v) with the given filter.
// (0,0) is the top-left corner and (1,1) the bottom-right one.
// Out-of-range coordinates are clamped to the edge.
func Sample(b *Buffer, u, v float64, f Filter) RGBA {
	if f == FilterBilinear {
		return sampleBilinearF(b, u, v)
	}
	x := clamp(int(math.Floor(u*float64(b.width))), 0, b.width-1)
	y := clamp(int(math.Floor(v*float64(b.height))), 0, b.height-1)
	return b.At(x, y)
}

// SampleNearest performs nearest-neighbor sampling at normalized coordinates.
func SampleNearest(b *Buffer, u, v float64) (r, g, bl, a uint8) {
	x := clamp(int(math.Floor(u*float64(b.width))), 0, b.width-1)
	y := clamp(int(math.Floor(v*float64(b.height))), 0, b.height-1)
	return b.GetRGBA(x, y)
}

// SampleBilinear performs bilinear interpolation at normalized coordinates.
func SampleBilinear(b *Buffer, u, v float64) (r, g, bl, a uint8) {
	c := sampleBilinearF(b, u, v)
	return Quantize(c.R), Quantize(c.G), Quantize(c.B), Quantize(c.A)
}

func sampleBilinearF(b *Buffer, u, v float64) RGBA {
	fx := u*float64(b.width) - 0.5
	fy := v*float64(b.height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := clamp(x0+1, 0, b.width-1)
	y1 := clamp(y0+1, 0, b.height-1)
	x0 = clamp(x0, 0, b.width-1)
	y0 = clamp(y0, 0, b.height-1)

	c00 := b.At(x0, y0)
	c10 := b.At(x1, y0)
	c01 := b.At(x0, y1)
	c11 := b.At(x1, y1)

	return RGBA{
		R: lerp2D(c00.R, c10.R, c01.R, c11.R, tx, ty),
		G: lerp2D(c00.G, c10.G, c01.G, c11.G, tx, ty),
		B: lerp2D(c00.B, c10.B, c01.B, c11.B, tx, ty),
		A: lerp2D(c00.A, c10.A, c01.A, c11.A, tx, ty),
	}
}

func lerp2D(v00, v10, v01, v11, tx, ty float64) float64 {
	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*ty
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

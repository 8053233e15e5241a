// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blend

// Non-separable blend modes per W3C Compositing and Blending Level 1,
// section 8. They operate on the whole RGB triplet.

// Lum returns the luminance of a color: 0.30*r + 0.59*g + 0.11*b.
func Lum(c [3]float64) float64 {
	return 0.30*c[0] + 0.59*c[1] + 0.11*c[2]
}

// Sat returns max(r, g, b) - min(r, g, b).
func Sat(c [3]float64) float64 {
	return max(c[0], c[1], c[2]) - min(c[0], c[1], c[2])
}

// ClipColor brings every component into [0,1] while preserving luminance.
func ClipColor(c [3]float64) [3]float64 {
	l := Lum(c)
	n := min(c[0], c[1], c[2])
	x := max(c[0], c[1], c[2])

	if n < 0 {
		for i := range c {
			c[i] = l + (c[i]-l)*l/(l-n)
		}
	}
	if x > 1 {
		for i := range c {
			c[i] = l + (c[i]-l)*(1-l)/(x-l)
		}
	}
	return c
}

// SetLum shifts the color to luminance l and clips it.
func SetLum(c [3]float64, l float64) [3]float64 {
	d := l - Lum(c)
	return ClipColor([3]float64{c[0] + d, c[1] + d, c[2] + d})
}

// SetSat rescales the color to saturation s, keeping the channel order.
func SetSat(c [3]float64, s float64) [3]float64 {
	lo, mid, hi := sortIdx(c)
	var out [3]float64
	if c[hi] > c[lo] {
		out[mid] = (c[mid] - c[lo]) * s / (c[hi] - c[lo])
		out[hi] = s
	}
	return out
}

// sortIdx returns the indices of the smallest, middle and largest component.
func sortIdx(c [3]float64) (lo, mid, hi int) {
	lo, mid, hi = 0, 1, 2
	if c[lo] > c[mid] {
		lo, mid = mid, lo
	}
	if c[mid] > c[hi] {
		mid, hi = hi, mid
	}
	if c[lo] > c[mid] {
		lo, mid = mid, lo
	}
	return lo, mid, hi
}

func hue(cb, cs [3]float64) [3]float64 {
	return SetLum(SetSat(cs, Sat(cb)), Lum(cb))
}

func saturation(cb, cs [3]float64) [3]float64 {
	return SetLum(SetSat(cb, Sat(cs)), Lum(cb))
}

func colorMode(cb, cs [3]float64) [3]float64 {
	return SetLum(cs, Lum(cb))
}

func luminosity(cb, cs [3]float64) [3]float64 {
	return SetLum(cb, Lum(cs))
}

func darkerColor(cb, cs [3]float64) [3]float64 {
	if Lum(cs) < Lum(cb) {
		return cs
	}
	return cb
}

func lighterColor(cb, cs [3]float64) [3]float64 {
	if Lum(cs) > Lum(cb) {
		return cs
	}
	return cb
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blend

import "github.com/gogpu/texstack/texture"

// MultiplyByColor multiplies every pixel channel-wise by c.
// MultiplyByColor(buf, RGBA{1, 1, 1, o}) scales alpha by opacity o.
func MultiplyByColor(buf *texture.Buffer, c texture.RGBA) {
	w, h := buf.Bounds()
	for y := range h {
		for x := range w {
			p := buf.At(x, y)
			buf.Set(x, y, texture.RGBA{R: p.R * c.R, G: p.G * c.G, B: p.B * c.B, A: p.A * c.A})
		}
	}
}

// MultiplyAlpha scales the alpha channel by opacity.
// An opacity of 1 leaves the buffer untouched.
func MultiplyAlpha(buf *texture.Buffer, opacity float64) {
	if opacity == 1 {
		return
	}
	MultiplyByColor(buf, texture.RGBA{R: 1, G: 1, B: 1, A: opacity})
}

// MaskDraw multiplies buf's alpha by the mask's luminance times its alpha.
// The mask is sampled at buf's resolution.
func MaskDraw(buf, mask *texture.Buffer) {
	fetch := sourceFetcher(buf, mask)
	w, h := buf.Bounds()
	for y := range h {
		for x := range w {
			m := fetch(x, y)
			p := buf.At(x, y)
			p.A *= m.Luminance() * m.A
			buf.Set(x, y, p)
		}
	}
}

// AlphaSetOpaque sets every alpha value to 1.
func AlphaSetOpaque(buf *texture.Buffer) {
	h := buf.Height()
	for y := range h {
		row := buf.RowBytes(y)
		for i := 3; i < len(row); i += 4 {
			row[i] = 255
		}
	}
}

// AlphaCopy copies only the alpha channel of src into dst.
// src is sampled at dst's resolution when the sizes differ.
func AlphaCopy(src, dst *texture.Buffer) {
	if dst.SameSize(src) {
		for y := range dst.Height() {
			d, s := dst.RowBytes(y), src.RowBytes(y)
			for i := 3; i < len(d); i += 4 {
				d[i] = s[i]
			}
		}
		return
	}
	fetch := sourceFetcher(dst, src)
	w, h := dst.Bounds()
	for y := range h {
		for x := range w {
			p := dst.At(x, y)
			p.A = fetch(x, y).A
			dst.Set(x, y, p)
		}
	}
}

// FillColor sets every pixel to c.
func FillColor(buf *texture.Buffer, c texture.RGBA) {
	buf.Fill(c.NRGBA())
}
